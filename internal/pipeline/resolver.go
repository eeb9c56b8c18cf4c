package pipeline

import (
	"context"
	"fmt"

	"github.com/medconnect/agent/internal/domain"
	"github.com/medconnect/agent/internal/schema"
)

// Resolver maps human-readable doctor references to primary keys via
// read-only, parameterized lookups. It never performs a write and never
// splices user text into query text.
type Resolver struct {
	doctors domain.DoctorRepository
	schema  *schema.Descriptor
}

// NewResolver creates an entity resolver
func NewResolver(doctors domain.DoctorRepository, desc *schema.Descriptor) *Resolver {
	return &Resolver{doctors: doctors, schema: desc}
}

// ResolveDoctor resolves a doctor reference. Zero matches yields an
// unresolved entity; multiple matches yields unresolved with the
// ambiguity flag and the candidate set for the orchestrator to present.
// The error return is reserved for store failures.
func (r *Resolver) ResolveDoctor(ctx context.Context, reference string) (domain.ResolvedEntity, error) {
	entity := domain.ResolvedEntity{Reference: reference}
	if reference == "" {
		return entity, nil
	}

	if !r.schema.Searchable("doctors", "name") {
		return entity, fmt.Errorf("doctors.name is not declared searchable")
	}

	matches, err := r.doctors.SearchByName(ctx, reference)
	if err != nil {
		return entity, fmt.Errorf("doctor lookup failed: %w", err)
	}

	// A reference like "cardiologist" resolves through the specialty
	// column when no name matches
	if len(matches) == 0 && r.schema.Searchable("doctors", "specialty") {
		matches, err = r.doctors.SearchBySpecialty(ctx, reference)
		if err != nil {
			return entity, fmt.Errorf("doctor lookup failed: %w", err)
		}
	}

	switch len(matches) {
	case 0:
		return entity, nil
	case 1:
		entity.Resolved = true
		entity.Key = matches[0].ID
		entity.Candidates = matches
		return entity, nil
	default:
		entity.Ambiguous = true
		entity.Candidates = matches
		return entity, nil
	}
}
