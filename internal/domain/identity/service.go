package identity

import (
	"context"
	"errors"

	"github.com/SHANICERUGURU/finalcapstone/internal/domain/account"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
	"github.com/SHANICERUGURU/finalcapstone/pkg/date"
)

const (
	MsgPatientNotFound = "Patient not found"
	MsgDoctorNotFound  = "Doctor not found"
	MsgUserNotFound    = "User not found"
)

var (
	errInvalidBloodType   = apperr.Validation("Invalid blood type")
	errInvalidSpecialty   = apperr.Validation("Invalid specialty")
	errNegativeExperience = apperr.Validation("years_of_experience must not be negative")
)

// UserLookup is satisfied by *account.Service.
type UserLookup interface {
	Profile(ctx context.Context, userID int64) (*account.User, error)
}

type Service struct {
	patients PatientRepository
	doctors  DoctorRepository
	actors   ActorRepository
	users    UserLookup
	today    func() date.Date
}

func NewService(patients PatientRepository, doctors DoctorRepository, actors ActorRepository, users UserLookup) *Service {
	return &Service{patients: patients, doctors: doctors, actors: actors, users: users, today: date.Today}
}

// ResolveActor implements access.ActorResolver.
func (s *Service) ResolveActor(ctx context.Context, userID int64) (access.Actor, error) {
	a, err := s.actors.LoadActor(ctx, userID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return access.Actor{}, err
		}
		return access.Actor{}, apperr.Internal("load actor", err)
	}
	return a, nil
}

func (s *Service) loadPatient(ctx context.Context, id int64) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound(MsgPatientNotFound)
		}
		return nil, apperr.Internal("load patient", err)
	}
	return p, nil
}

func (s *Service) loadDoctor(ctx context.Context, id int64) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound(MsgDoctorNotFound)
		}
		return nil, apperr.Internal("load doctor", err)
	}
	return d, nil
}

func createErr(what string, err error) error {
	switch {
	case errors.Is(err, ErrProfileExists):
		return apperr.Validation(access.MsgProfileExists)
	case errors.Is(err, ErrUnknownUser):
		return apperr.Validation(MsgUserNotFound)
	}
	return apperr.Internal(what, err)
}

// -- Patient --

func (s *Service) ListPatients(ctx context.Context, actor access.Actor) ([]*Patient, error) {
	if err := access.RequireDoctor(actor); err != nil {
		return nil, err
	}
	items, err := s.patients.List(ctx)
	if err != nil {
		return nil, apperr.Internal("list patients", err)
	}
	return items, nil
}

// CreatePatient creates a profile for another user. Doctors and admins only.
func (s *Service) CreatePatient(ctx context.Context, actor access.Actor, req CreatePatientRequest) (*Patient, error) {
	if err := access.CanCreatePatient(actor); err != nil {
		return nil, err
	}
	if req.UserID <= 0 {
		return nil, apperr.Validation("user is required")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	p := &Patient{UserID: req.UserID}
	req.apply(p)
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, createErr("create patient", err)
	}
	return s.loadPatient(ctx, p.ID)
}

func (s *Service) GetPatient(ctx context.Context, actor access.Actor, id int64) (*Patient, error) {
	if err := access.CanAccessPatient(actor, id); err != nil {
		return nil, err
	}
	return s.loadPatient(ctx, id)
}

func (s *Service) UpdatePatient(ctx context.Context, actor access.Actor, id int64, fields PatientFields) (*Patient, error) {
	if err := access.CanAccessPatient(actor, id); err != nil {
		return nil, err
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}
	return s.updatePatient(ctx, id, fields)
}

func (s *Service) updatePatient(ctx context.Context, id int64, fields PatientFields) (*Patient, error) {
	p, err := s.loadPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	fields.apply(p)
	if err := s.patients.Update(ctx, p); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound(MsgPatientNotFound)
		}
		return nil, apperr.Internal("update patient", err)
	}
	return p, nil
}

// DeletePatient runs the ownership checks before the doctor-only check, so a
// patient probing another record still gets the ownership message.
func (s *Service) DeletePatient(ctx context.Context, actor access.Actor, id int64) error {
	if err := access.CanAccessPatient(actor, id); err != nil {
		return err
	}
	if _, err := s.loadPatient(ctx, id); err != nil {
		return err
	}
	if err := access.CanDeletePatient(actor); err != nil {
		return err
	}
	if err := s.patients.Delete(ctx, id); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound(MsgPatientNotFound)
		}
		return apperr.Internal("delete patient", err)
	}
	return nil
}

// -- Doctor-facing patient views --

func (s *Service) DoctorPatients(ctx context.Context, actor access.Actor, search string) ([]PatientSummary, error) {
	if err := access.RequireDoctor(actor); err != nil {
		return nil, err
	}
	items, err := s.patients.Search(ctx, search)
	if err != nil {
		return nil, apperr.Internal("search patients", err)
	}
	today := s.today()
	out := make([]PatientSummary, 0, len(items))
	for _, p := range items {
		out = append(out, NewPatientSummary(p, today))
	}
	return out, nil
}

func (s *Service) DoctorPatientDetail(ctx context.Context, actor access.Actor, id int64) (*PatientDetail, error) {
	if err := access.RequireDoctor(actor); err != nil {
		return nil, err
	}
	p, err := s.loadPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := NewPatientDetail(p, s.today())
	return &detail, nil
}

// DoctorUpdatePatient changes the clinical fields of any patient.
func (s *Service) DoctorUpdatePatient(ctx context.Context, actor access.Actor, id int64, fields PatientFields) (*Patient, error) {
	if err := access.RequireDoctor(actor); err != nil {
		return nil, err
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}
	return s.updatePatient(ctx, id, fields)
}

// -- Doctor --

func (s *Service) ListDoctors(ctx context.Context) ([]*Doctor, error) {
	items, err := s.doctors.List(ctx)
	if err != nil {
		return nil, apperr.Internal("list doctors", err)
	}
	return items, nil
}

func (s *Service) DoctorsBySpecialty(ctx context.Context, specialty string) ([]*Doctor, error) {
	items, err := s.doctors.ListBySpecialty(ctx, specialty)
	if err != nil {
		return nil, apperr.Internal("list doctors", err)
	}
	return items, nil
}

// CreateDoctor is open to any signed-in user. The owner defaults to the
// caller when the body names none.
func (s *Service) CreateDoctor(ctx context.Context, actor access.Actor, fields DoctorFields) (*Doctor, error) {
	if fields.Specialty == nil {
		return nil, apperr.Validation("specialty is required")
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}
	d := &Doctor{UserID: actor.UserID}
	if fields.UserID != nil {
		d.UserID = *fields.UserID
	}
	fields.apply(d)
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, createErr("create doctor", err)
	}
	return s.loadDoctor(ctx, d.ID)
}

func (s *Service) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	return s.loadDoctor(ctx, id)
}

// UpdateDoctor has no ownership restriction. The owner cannot be changed.
func (s *Service) UpdateDoctor(ctx context.Context, id int64, fields DoctorFields) (*Doctor, error) {
	if err := fields.validate(); err != nil {
		return nil, err
	}
	d, err := s.loadDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	fields.apply(d)
	d.fillDerived()
	if err := s.doctors.Update(ctx, d); err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound(MsgDoctorNotFound)
		}
		return nil, apperr.Internal("update doctor", err)
	}
	return d, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, actor access.Actor, id int64) error {
	if err := access.CanDeleteDoctor(actor); err != nil {
		return err
	}
	if err := s.doctors.Delete(ctx, id); err != nil {
		if apperr.IsNotFound(err) {
			return apperr.NotFound(MsgDoctorNotFound)
		}
		return apperr.Internal("delete doctor", err)
	}
	return nil
}

// DoctorSpecialty returns the specialty code of a doctor, or an error
// satisfying apperr.IsNotFound when there is no such doctor.
func (s *Service) DoctorSpecialty(ctx context.Context, doctorID int64) (string, error) {
	d, err := s.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return "", err
	}
	return string(d.Specialty), nil
}

// -- Setup --

// SetupPatient creates the caller's own patient profile.
func (s *Service) SetupPatient(ctx context.Context, actor access.Actor, fields PatientFields) (*Patient, error) {
	if err := access.CanSetupPatient(actor); err != nil {
		return nil, err
	}
	if err := fields.validate(); err != nil {
		return nil, err
	}
	p := &Patient{UserID: actor.UserID}
	fields.apply(p)
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, createErr("create patient", err)
	}
	return s.loadPatient(ctx, p.ID)
}

// SetupDoctor creates the caller's own doctor profile. Any owner in the body
// is ignored.
func (s *Service) SetupDoctor(ctx context.Context, actor access.Actor, fields DoctorFields) (*Doctor, error) {
	if err := access.CanSetupDoctor(actor); err != nil {
		return nil, err
	}
	fields.UserID = &actor.UserID
	return s.CreateDoctor(ctx, actor, fields)
}

// -- Dashboard --

func (s *Service) Dashboard(ctx context.Context, actor access.Actor) (*Dashboard, error) {
	u, err := s.users.Profile(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	dash := &Dashboard{User: u, RoleMismatch: access.RoleMismatch(actor)}
	if actor.PatientID != nil {
		if dash.Patient, err = s.loadPatient(ctx, *actor.PatientID); err != nil {
			return nil, err
		}
	}
	if actor.DoctorID != nil {
		if dash.Doctor, err = s.loadDoctor(ctx, *actor.DoctorID); err != nil {
			return nil, err
		}
	}
	return dash, nil
}
