package scheduling

import (
	"context"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	List(ctx context.Context, scope access.AppointmentScope) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
}

// DoctorDirectory looks up the specialty of a doctor profile. It returns an
// error satisfying apperr.IsNotFound for unknown doctors.
type DoctorDirectory interface {
	DoctorSpecialty(ctx context.Context, doctorID int64) (string, error)
}
