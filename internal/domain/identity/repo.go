package identity

import (
	"context"
	"errors"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
)

var (
	// ErrProfileExists is returned by Create when the user already owns a
	// profile of that type.
	ErrProfileExists = errors.New("profile exists")
	// ErrUnknownUser is returned by Create when the owning user does not exist.
	ErrUnknownUser = errors.New("unknown user")
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	GetByUserID(ctx context.Context, userID int64) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	// Search matches first name, last name, username and email,
	// case-insensitively. An empty term returns every patient.
	Search(ctx context.Context, term string) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int64) error
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id int64) (*Doctor, error)
	GetByUserID(ctx context.Context, userID int64) (*Doctor, error)
	List(ctx context.Context) ([]*Doctor, error)
	ListBySpecialty(ctx context.Context, specialty string) ([]*Doctor, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id int64) error
}

// ActorRepository loads a user's role together with the ids of the profiles
// they own.
type ActorRepository interface {
	LoadActor(ctx context.Context, userID int64) (access.Actor, error)
}
