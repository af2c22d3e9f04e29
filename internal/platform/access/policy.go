// Package access holds the role and ownership rules that decide which
// actor may read or change which clinic record.
//
// Every check returns nil to allow, or an *apperr.Error carrying the exact
// client-facing message and status to deny.
package access

import (
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
)

type Role string

const (
	RolePatient Role = "PATIENT"
	RoleDoctor  Role = "DOCTOR"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

const (
	MsgDoctorRequired         = "Doctor access required"
	MsgDoctorProfileNotFound  = "Doctor profile not found"
	MsgPatientProfileNotFound = "Patient profile not found"
	MsgOwnProfileOnly         = "Access denied. You can only access your own profile."
	MsgOnlyDoctorsDeletePat   = "Only doctors can delete patient profiles"
	MsgOnlyDoctorsDeleteDoc   = "Only doctors can delete doctor profiles"
	MsgNotAllowed             = "Not allowed"
	MsgInvalidStatus          = "Invalid status"
	MsgSpecialtyMismatch      = "Doctor specialty mismatch"
	MsgProfileExists          = "Profile already exists."
)

// Actor is the authenticated caller together with the profiles it owns.
// A nil profile id means the caller has no profile of that type.
type Actor struct {
	UserID    int64
	Username  string
	Role      Role
	PatientID *int64
	DoctorID  *int64
}

func (a Actor) IsDoctor() bool { return a.Role == RoleDoctor }

func (a Actor) HasPatientProfile() bool { return a.PatientID != nil }

func (a Actor) HasDoctorProfile() bool { return a.DoctorID != nil }

// RequireDoctor gates the doctor-only patient views: the caller must hold the
// DOCTOR role and own a doctor profile.
func RequireDoctor(a Actor) error {
	if a.Role != RoleDoctor {
		return apperr.Forbidden(MsgDoctorRequired)
	}
	if a.DoctorID == nil {
		return apperr.Forbidden(MsgDoctorProfileNotFound)
	}
	return nil
}

// CanAccessPatient decides whether a may read or update patient record
// patientID. Doctors with a profile may reach any record; everyone else only
// the record owned by their own user.
func CanAccessPatient(a Actor, patientID int64) error {
	if a.IsDoctor() {
		if a.DoctorID == nil {
			return apperr.Forbidden(MsgDoctorProfileNotFound)
		}
		return nil
	}
	if a.PatientID == nil {
		return apperr.Forbidden(MsgPatientProfileNotFound)
	}
	if *a.PatientID != patientID {
		return apperr.Forbidden(MsgOwnProfileOnly)
	}
	return nil
}

// CanDeletePatient applies on top of CanAccessPatient.
func CanDeletePatient(a Actor) error {
	if !a.IsDoctor() {
		return apperr.Forbidden(MsgOnlyDoctorsDeletePat)
	}
	return nil
}

func CanDeleteDoctor(a Actor) error {
	if !a.IsDoctor() {
		return apperr.Forbidden(MsgOnlyDoctorsDeleteDoc)
	}
	return nil
}

// CanCreatePatient covers POST /api/patients/, which creates a profile on
// behalf of another user.
func CanCreatePatient(a Actor) error {
	if a.Role == RoleAdmin {
		return nil
	}
	return RequireDoctor(a)
}

// AppointmentScope describes which appointments a listing may return.
type AppointmentScope struct {
	All       bool
	PatientID *int64
	DoctorID  *int64
}

// ListScope returns the appointment filter for a: patients see their own,
// doctors see theirs, any other role sees everything.
func ListScope(a Actor) (AppointmentScope, error) {
	switch a.Role {
	case RolePatient:
		if a.PatientID == nil {
			return AppointmentScope{}, apperr.Forbidden(MsgPatientProfileNotFound)
		}
		return AppointmentScope{PatientID: a.PatientID}, nil
	case RoleDoctor:
		if a.DoctorID == nil {
			return AppointmentScope{}, apperr.Forbidden(MsgDoctorProfileNotFound)
		}
		return AppointmentScope{DoctorID: a.DoctorID}, nil
	default:
		return AppointmentScope{All: true}, nil
	}
}

// CanBook requires a patient profile and returns the id the appointment must
// be booked under.
func CanBook(a Actor) (int64, error) {
	if a.PatientID == nil {
		return 0, apperr.Forbidden(MsgPatientProfileNotFound)
	}
	return *a.PatientID, nil
}

// CheckSpecialty compares codes exactly. An empty requested code skips the
// check.
func CheckSpecialty(doctorSpecialty, requested string) error {
	if requested == "" {
		return nil
	}
	if doctorSpecialty != requested {
		return apperr.Validation(MsgSpecialtyMismatch)
	}
	return nil
}

// CanViewAppointment allows the booked patient, the assigned doctor and
// admins.
func CanViewAppointment(a Actor, patientID, doctorID int64) error {
	if a.Role == RoleAdmin {
		return nil
	}
	if a.PatientID != nil && *a.PatientID == patientID {
		return nil
	}
	if a.DoctorID != nil && *a.DoctorID == doctorID {
		return nil
	}
	return apperr.Forbidden(MsgNotAllowed)
}

// CanUpdateStatus checks ownership first and only then vocabulary membership.
func CanUpdateStatus(a Actor, appointmentDoctorID int64, status string, vocabulary StatusChecker) error {
	if a.DoctorID == nil || *a.DoctorID != appointmentDoctorID {
		return apperr.Forbidden(MsgNotAllowed)
	}
	if !vocabulary.Contains(status) {
		return apperr.Validation(MsgInvalidStatus)
	}
	return nil
}

// StatusChecker reports whether a status is part of the configured vocabulary.
type StatusChecker interface {
	Contains(status string) bool
}

// CanSetupPatient rejects a second patient profile for the same user.
func CanSetupPatient(a Actor) error {
	if a.PatientID != nil {
		return apperr.Validation(MsgProfileExists)
	}
	return nil
}

func CanSetupDoctor(a Actor) error {
	if a.DoctorID != nil {
		return apperr.Validation(MsgProfileExists)
	}
	return nil
}

// RoleMismatch flags a user whose only profile contradicts the role.
func RoleMismatch(a Actor) bool {
	switch a.Role {
	case RolePatient:
		return a.DoctorID != nil && a.PatientID == nil
	case RoleDoctor:
		return a.PatientID != nil && a.DoctorID == nil
	}
	return false
}
