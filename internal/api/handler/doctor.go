package handler

import (
	"net/http"
	"strconv"

	"github.com/medconnect/agent/internal/api/response"
	"github.com/medconnect/agent/internal/domain"
)

const defaultDoctorLimit = 50

// DoctorHandler exposes the doctor directory
type DoctorHandler struct {
	doctors domain.DoctorRepository
}

// NewDoctorHandler creates a new doctor handler
func NewDoctorHandler(doctors domain.DoctorRepository) *DoctorHandler {
	return &DoctorHandler{doctors: doctors}
}

// List returns the doctor directory, optionally filtered by name or
// specialty
func (h *DoctorHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultDoctorLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.BadRequest(w, "invalid limit")
			return
		}
		limit = parsed
	}

	var (
		doctors []domain.Doctor
		err     error
	)
	switch {
	case r.URL.Query().Get("name") != "":
		doctors, err = h.doctors.SearchByName(r.Context(), r.URL.Query().Get("name"))
	case r.URL.Query().Get("specialty") != "":
		doctors, err = h.doctors.SearchBySpecialty(r.Context(), r.URL.Query().Get("specialty"))
	default:
		doctors, err = h.doctors.List(r.Context(), limit)
	}
	if err != nil {
		response.InternalError(w, "failed to list doctors")
		return
	}

	response.OK(w, map[string]any{
		"doctors": doctors,
		"count":   len(doctors),
	})
}
