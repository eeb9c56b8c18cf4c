package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medconnect/agent/internal/domain"
)

// DoctorRepository implements domain.DoctorRepository. All lookups are
// parameterized; user text never reaches query text.
type DoctorRepository struct {
	pool *pgxpool.Pool
}

// NewDoctorRepository creates a new doctor repository
func NewDoctorRepository(pool *pgxpool.Pool) *DoctorRepository {
	return &DoctorRepository{pool: pool}
}

func (r *DoctorRepository) SearchByName(ctx context.Context, name string) ([]domain.Doctor, error) {
	query := `
		SELECT id, name, specialty, years_of_experience, consultation_fee
		FROM doctors
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY name
	`
	return r.search(ctx, query, name)
}

func (r *DoctorRepository) SearchBySpecialty(ctx context.Context, specialty string) ([]domain.Doctor, error) {
	query := `
		SELECT id, name, specialty, years_of_experience, consultation_fee
		FROM doctors
		WHERE specialty ILIKE '%' || $1 || '%'
		ORDER BY name
	`
	return r.search(ctx, query, specialty)
}

func (r *DoctorRepository) List(ctx context.Context, limit int) ([]domain.Doctor, error) {
	query := `
		SELECT id, name, specialty, years_of_experience, consultation_fee
		FROM doctors
		ORDER BY name
		LIMIT $1
	`
	return r.search(ctx, query, limit)
}

func (r *DoctorRepository) search(ctx context.Context, query string, arg any) ([]domain.Doctor, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()

	var doctors []domain.Doctor
	for rows.Next() {
		var d domain.Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialty, &d.YearsOfExperience, &d.ConsultationFee); err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	return doctors, nil
}
