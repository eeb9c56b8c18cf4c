package domain

import (
	"context"
	"time"
)

// AppointmentStatus is the closed status domain enforced by the store
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
)

// Doctor is a row in the doctors table
type Doctor struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Specialty         string `json:"specialty"`
	YearsOfExperience int    `json:"years_of_experience"`
	ConsultationFee   int    `json:"consultation_fee"`
}

// Appointment is a row in the booked_appointments table. The store
// enforces UNIQUE(doctor_id, appointment_time); the application never
// pre-checks availability.
type Appointment struct {
	ID              int64             `json:"id"`
	PatientName     string            `json:"patient_name"`
	DoctorID        int64             `json:"doctor_id"`
	Reason          string            `json:"reason"`
	Status          AppointmentStatus `json:"status"`
	AppointmentTime time.Time         `json:"appointment_time"`
	CreatedAt       time.Time         `json:"created_at"`
}

// DoctorRepository defines the read-only lookup surface used by the
// entity resolver. Implementations must use parameterized queries only.
type DoctorRepository interface {
	SearchByName(ctx context.Context, name string) ([]Doctor, error)
	SearchBySpecialty(ctx context.Context, specialty string) ([]Doctor, error)
	List(ctx context.Context, limit int) ([]Doctor, error)
}

// ResolvedEntity is the result of resolving a human-readable reference
// to a primary key. When Resolved is false the reference either matched
// nothing or, if Ambiguous is set, matched more than one candidate.
type ResolvedEntity struct {
	Reference  string   `json:"reference"`
	Key        int64    `json:"key,omitempty"`
	Resolved   bool     `json:"resolved"`
	Ambiguous  bool     `json:"ambiguous"`
	Candidates []Doctor `json:"candidates,omitempty"`
}
