package identity

import (
	"github.com/SHANICERUGURU/finalcapstone/internal/domain/account"
	"github.com/SHANICERUGURU/finalcapstone/pkg/date"
)

type Specialty string

const (
	SpecialtyGeneralDoctor Specialty = "GENERALDOCTOR"
	SpecialtyDentist       Specialty = "DENTIST"
	SpecialtyOncologist    Specialty = "ONCOLOGIST"
	SpecialtyOrthopaedic   Specialty = "ortho"
	SpecialtyOptician      Specialty = "OPTICIAN"
	SpecialtyPaediatrician Specialty = "PAEDIATRICIAN"
	SpecialtyCardiologist  Specialty = "cardio"
)

// Codes are case-sensitive: "ortho" and "cardio" are stored lower-case.
var specialtyLabels = map[Specialty]string{
	SpecialtyGeneralDoctor: "General Doctor",
	SpecialtyDentist:       "Dentist",
	SpecialtyOncologist:    "Oncologist",
	SpecialtyOrthopaedic:   "Orthopaedic",
	SpecialtyOptician:      "Optician",
	SpecialtyPaediatrician: "Paediatrician",
	SpecialtyCardiologist:  "Cardiologist",
}

func (s Specialty) Valid() bool {
	_, ok := specialtyLabels[s]
	return ok
}

func (s Specialty) Label() string {
	if l, ok := specialtyLabels[s]; ok {
		return l
	}
	return string(s)
}

// Specialties returns the code to label map served by /api/doctors/specialties/.
func Specialties() map[string]string {
	out := make(map[string]string, len(specialtyLabels))
	for code, label := range specialtyLabels {
		out[string(code)] = label
	}
	return out
}

var bloodTypes = map[string]bool{
	"A+": true, "A-": true, "B+": true, "B-": true,
	"AB+": true, "AB-": true, "O+": true, "O-": true,
}

// Owner is the subset of the owning user shown alongside a profile.
type Owner struct {
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	DateOfBirth date.Date
	Gender      account.Gender
}

func (o Owner) FullName() string { return account.FullName(o.FirstName, o.LastName) }

// Patient is the medical profile of a PATIENT user.
type Patient struct {
	ID                    int64     `json:"id"`
	UserID                int64     `json:"user"`
	UserName              string    `json:"user_name"`
	BloodType             string    `json:"blood_type"`
	Allergies             string    `json:"allergies"`
	ChronicIllness        string    `json:"chronic_illness"`
	CurrentMedications    string    `json:"current_medications"`
	FamilyMedicalHistory  string    `json:"family_medical_history"`
	EmergencyContactName  string    `json:"emergency_contact_name"`
	EmergencyContactPhone string    `json:"emergency_contact_phone"`
	InsuranceType         string    `json:"insurance_type"`
	LastAppointment       date.Date `json:"last_appointment"`
	LastDoctor            string    `json:"last_doctor"`

	Owner Owner `json:"-"`
}

// PatientFields are the clinical fields of a patient profile. Nil fields are
// left unchanged, so the same type serves create, PUT and PATCH.
type PatientFields struct {
	BloodType             *string    `json:"blood_type"`
	Allergies             *string    `json:"allergies"`
	ChronicIllness        *string    `json:"chronic_illness"`
	CurrentMedications    *string    `json:"current_medications"`
	FamilyMedicalHistory  *string    `json:"family_medical_history"`
	EmergencyContactName  *string    `json:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone"`
	InsuranceType         *string    `json:"insurance_type"`
	LastAppointment       *date.Date `json:"last_appointment"`
	LastDoctor            *string    `json:"last_doctor"`
}

func (f PatientFields) validate() error {
	if f.BloodType != nil && *f.BloodType != "" && !bloodTypes[*f.BloodType] {
		return errInvalidBloodType
	}
	return nil
}

func (f PatientFields) apply(p *Patient) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.BloodType, f.BloodType)
	set(&p.Allergies, f.Allergies)
	set(&p.ChronicIllness, f.ChronicIllness)
	set(&p.CurrentMedications, f.CurrentMedications)
	set(&p.FamilyMedicalHistory, f.FamilyMedicalHistory)
	set(&p.EmergencyContactName, f.EmergencyContactName)
	set(&p.EmergencyContactPhone, f.EmergencyContactPhone)
	set(&p.InsuranceType, f.InsuranceType)
	set(&p.LastDoctor, f.LastDoctor)
	if f.LastAppointment != nil {
		p.LastAppointment = *f.LastAppointment
	}
}

// CreatePatientRequest is the body of POST /api/patients/.
type CreatePatientRequest struct {
	UserID int64 `json:"user"`
	PatientFields
}

// Doctor is the professional profile of a DOCTOR user.
type Doctor struct {
	ID                int64     `json:"id"`
	UserID            int64     `json:"user"`
	UserName          string    `json:"user_name"`
	Specialty         Specialty `json:"specialty"`
	SpecialtyDisplay  string    `json:"specialty_display"`
	Hospital          string    `json:"hospital"`
	LicenseNumber     string    `json:"license_number"`
	YearsOfExperience int       `json:"years_of_experience"`

	Owner Owner `json:"-"`
}

// DoctorFields is the writable part of a doctor profile. UserID is only read
// on create and defaults to the caller.
type DoctorFields struct {
	UserID            *int64     `json:"user"`
	Specialty         *Specialty `json:"specialty"`
	Hospital          *string    `json:"hospital"`
	LicenseNumber     *string    `json:"license_number"`
	YearsOfExperience *int       `json:"years_of_experience"`
}

func (f DoctorFields) validate() error {
	if f.Specialty != nil && !f.Specialty.Valid() {
		return errInvalidSpecialty
	}
	if f.YearsOfExperience != nil && *f.YearsOfExperience < 0 {
		return errNegativeExperience
	}
	return nil
}

func (f DoctorFields) apply(d *Doctor) {
	if f.Specialty != nil {
		d.Specialty = *f.Specialty
	}
	if f.Hospital != nil {
		d.Hospital = *f.Hospital
	}
	if f.LicenseNumber != nil {
		d.LicenseNumber = *f.LicenseNumber
	}
	if f.YearsOfExperience != nil {
		d.YearsOfExperience = *f.YearsOfExperience
	}
}

// fillDerived sets the read-only display fields from the owner.
func (p *Patient) fillDerived() { p.UserName = p.Owner.FullName() }

func (d *Doctor) fillDerived() {
	d.UserName = d.Owner.FullName()
	d.SpecialtyDisplay = d.Specialty.Label()
}

// PatientSummary is a row of the doctor's patient list.
type PatientSummary struct {
	*Patient
	PatientID           int64     `json:"patient_id"`
	FullName            string    `json:"full_name"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone"`
	Age                 *int      `json:"age"`
	LastAppointmentDate date.Date `json:"last_appointment_date"`
}

func NewPatientSummary(p *Patient, today date.Date) PatientSummary {
	return PatientSummary{
		Patient:             p,
		PatientID:           p.ID,
		FullName:            p.Owner.FullName(),
		Email:               p.Owner.Email,
		Phone:               p.Owner.Phone,
		Age:                 date.Age(p.Owner.DateOfBirth, today),
		LastAppointmentDate: p.LastAppointment,
	}
}

type UserInfo struct {
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	DateOfBirth date.Date `json:"date_of_birth"`
	Gender      string    `json:"gender"`
	Age         *int      `json:"age"`
}

type MedicalHistory struct {
	Allergies          string `json:"allergies"`
	ChronicConditions  string `json:"chronic_conditions"`
	CurrentMedications string `json:"current_medications"`
	FamilyHistory      string `json:"family_history"`
	Insurance          string `json:"insurance"`
}

// PatientDetail is the doctor's view of one patient.
type PatientDetail struct {
	*Patient
	UserInfo           UserInfo       `json:"user_info"`
	FullMedicalHistory MedicalHistory `json:"full_medical_history"`
}

func NewPatientDetail(p *Patient, today date.Date) PatientDetail {
	return PatientDetail{
		Patient: p,
		UserInfo: UserInfo{
			FullName:    p.Owner.FullName(),
			Email:       p.Owner.Email,
			Phone:       p.Owner.Phone,
			DateOfBirth: p.Owner.DateOfBirth,
			Gender:      p.Owner.Gender.Label(),
			Age:         date.Age(p.Owner.DateOfBirth, today),
		},
		FullMedicalHistory: MedicalHistory{
			Allergies:          p.Allergies,
			ChronicConditions:  p.ChronicIllness,
			CurrentMedications: p.CurrentMedications,
			FamilyHistory:      p.FamilyMedicalHistory,
			Insurance:          p.InsuranceType,
		},
	}
}

// Dashboard is the landing payload for the signed-in user.
type Dashboard struct {
	User         *account.User `json:"user"`
	Patient      *Patient      `json:"patient"`
	Doctor       *Doctor       `json:"doctor"`
	RoleMismatch bool          `json:"role_mismatch"`
}
