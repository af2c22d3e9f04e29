package scheduling

import (
	"context"
	"strconv"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/db"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/outbox"
)

const (
	MsgDoctorNotFound      = "Doctor not found"
	MsgAppointmentNotFound = "Appointment not found"
)

type Service struct {
	appointments  AppointmentRepository
	doctors       DoctorDirectory
	statuses      StatusSet
	defaultStatus string
	tx            db.Transactor
	events        outbox.Recorder
}

func NewService(appts AppointmentRepository, doctors DoctorDirectory, statuses StatusSet, defaultStatus string, tx db.Transactor, events outbox.Recorder) *Service {
	return &Service{
		appointments:  appts,
		doctors:       doctors,
		statuses:      statuses,
		defaultStatus: defaultStatus,
		tx:            tx,
		events:        events,
	}
}

// Book creates an appointment for the caller's own patient profile. Any
// patient named in the request is ignored.
func (s *Service) Book(ctx context.Context, actor access.Actor, req BookRequest) (*Appointment, error) {
	patientID, err := access.CanBook(actor)
	if err != nil {
		return nil, err
	}
	if req.Doctor <= 0 {
		return nil, apperr.Validation("doctor is required")
	}
	if !req.Date.Valid() {
		return nil, apperr.Validation("date is required")
	}
	tm, ok := normalizeTime(req.Time)
	if !ok {
		return nil, apperr.Validation("time must be HH:MM or HH:MM:SS")
	}

	specialty, err := s.doctors.DoctorSpecialty(ctx, req.Doctor)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.Validation(MsgDoctorNotFound)
		}
		return nil, apperr.Internal("load doctor", err)
	}
	if err := access.CheckSpecialty(specialty, req.Specialty); err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID: patientID,
		DoctorID:  req.Doctor,
		Specialty: specialty,
		Date:      req.Date,
		Time:      tm,
		Reason:    req.Reason,
		Status:    s.defaultStatus,
	}

	var created *Appointment
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.appointments.Create(ctx, a); err != nil {
			return apperr.Internal("create appointment", err)
		}
		var err error
		if created, err = s.appointments.GetByID(ctx, a.ID); err != nil {
			return apperr.Internal("reload appointment", err)
		}
		return s.record(ctx, created, outbox.AppointmentCreated, map[string]any{
			"appointment_id": created.ID,
			"patient_id":     created.PatientID,
			"doctor_id":      created.DoctorID,
			"specialty":      created.Specialty,
			"date":           created.Date,
			"time":           created.Time,
			"status":         created.Status,
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// List returns the appointments visible to the caller.
func (s *Service) List(ctx context.Context, actor access.Actor) ([]*Appointment, error) {
	scope, err := access.ListScope(actor)
	if err != nil {
		return nil, err
	}
	items, err := s.appointments.List(ctx, scope)
	if err != nil {
		return nil, apperr.Internal("list appointments", err)
	}
	return items, nil
}

func (s *Service) load(ctx context.Context, id int64) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound(MsgAppointmentNotFound)
		}
		return nil, apperr.Internal("load appointment", err)
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, actor access.Actor, id int64) (*Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanViewAppointment(actor, a.PatientID, a.DoctorID); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateStatus lets the assigned doctor move an appointment to any status in
// the vocabulary. Transitions are not sequenced.
func (s *Service) UpdateStatus(ctx context.Context, actor access.Actor, id int64, status string) (*Appointment, error) {
	var updated *Appointment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := access.CanUpdateStatus(actor, a.DoctorID, status, s.statuses); err != nil {
			return err
		}
		if err := s.appointments.UpdateStatus(ctx, id, status); err != nil {
			return apperr.Internal("update appointment status", err)
		}
		previous := a.Status
		a.Status = status
		updated = a
		return s.record(ctx, a, outbox.AppointmentStatusChanged, map[string]any{
			"appointment_id": a.ID,
			"doctor_id":      a.DoctorID,
			"patient_id":     a.PatientID,
			"from":           previous,
			"to":             status,
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) record(ctx context.Context, a *Appointment, eventType string, data map[string]any) error {
	evt, err := outbox.NewEvent("appointment", strconv.FormatInt(a.ID, 10), eventType, data)
	if err != nil {
		return apperr.Internal("build event", err)
	}
	if err := s.events.Record(ctx, evt); err != nil {
		return apperr.Internal("record event", err)
	}
	return nil
}
