package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SHANICERUGURU/finalcapstone/internal/platform/access"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/apperr"
	"github.com/SHANICERUGURU/finalcapstone/internal/platform/db"
)

const ownerCols = `u.first_name, u.last_name, u.email, u.phone, u.date_of_birth, u.gender`

func notFound(what string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, apperr.ErrNotFound)
	}
	return err
}

func translateWriteErr(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return ErrProfileExists
	case db.IsForeignKeyViolation(err):
		return ErrUnknownUser
	}
	return err
}

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

const patientSelect = `SELECT p.id, p.user_id, p.blood_type, p.allergies, p.chronic_illness,
	p.current_medications, p.family_medical_history, p.emergency_contact_name,
	p.emergency_contact_phone, p.insurance_type, p.last_appointment, p.last_doctor, ` + ownerCols + `
	FROM patients p JOIN users u ON u.id = p.user_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.BloodType, &p.Allergies, &p.ChronicIllness,
		&p.CurrentMedications, &p.FamilyMedicalHistory, &p.EmergencyContactName,
		&p.EmergencyContactPhone, &p.InsuranceType, &p.LastAppointment, &p.LastDoctor,
		&p.Owner.FirstName, &p.Owner.LastName, &p.Owner.Email, &p.Owner.Phone,
		&p.Owner.DateOfBirth, &p.Owner.Gender)
	if err != nil {
		return nil, err
	}
	p.fillDerived()
	return &p, nil
}

func (r *patientRepoPG) queryPatients(ctx context.Context, sql string, args ...interface{}) ([]*Patient, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (user_id, blood_type, allergies, chronic_illness, current_medications,
			family_medical_history, emergency_contact_name, emergency_contact_phone,
			insurance_type, last_appointment, last_doctor)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id`,
		p.UserID, p.BloodType, p.Allergies, p.ChronicIllness, p.CurrentMedications,
		p.FamilyMedicalHistory, p.EmergencyContactName, p.EmergencyContactPhone,
		p.InsuranceType, p.LastAppointment, p.LastDoctor,
	).Scan(&p.ID)
	return translateWriteErr(err)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, patientSelect+` WHERE p.id = $1`, id))
	return p, notFound("patient", err)
}

func (r *patientRepoPG) GetByUserID(ctx context.Context, userID int64) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, patientSelect+` WHERE p.user_id = $1`, userID))
	return p, notFound("patient", err)
}

func (r *patientRepoPG) List(ctx context.Context) ([]*Patient, error) {
	return r.queryPatients(ctx, patientSelect+` ORDER BY p.id`)
}

func (r *patientRepoPG) Search(ctx context.Context, term string) ([]*Patient, error) {
	if term == "" {
		return r.List(ctx)
	}
	return r.queryPatients(ctx, patientSelect+`
		WHERE u.first_name ILIKE $1 OR u.last_name ILIKE $1 OR u.username ILIKE $1 OR u.email ILIKE $1
		ORDER BY p.id`, "%"+escapeLike(term)+"%")
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE patients SET blood_type=$2, allergies=$3, chronic_illness=$4, current_medications=$5,
			family_medical_history=$6, emergency_contact_name=$7, emergency_contact_phone=$8,
			insurance_type=$9, last_appointment=$10, last_doctor=$11
		WHERE id = $1`,
		p.ID, p.BloodType, p.Allergies, p.ChronicIllness, p.CurrentMedications,
		p.FamilyMedicalHistory, p.EmergencyContactName, p.EmergencyContactPhone,
		p.InsuranceType, p.LastAppointment, p.LastDoctor)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %d: %w", p.ID, apperr.ErrNotFound)
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("patient %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// =========== Doctor Repository ===========

type doctorRepoPG struct{ pool *pgxpool.Pool }

func NewDoctorRepoPG(pool *pgxpool.Pool) DoctorRepository { return &doctorRepoPG{pool: pool} }

const doctorSelect = `SELECT d.id, d.user_id, d.specialty, d.hospital, d.license_number,
	d.years_of_experience, ` + ownerCols + `
	FROM doctors d JOIN users u ON u.id = d.user_id`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.UserID, &d.Specialty, &d.Hospital, &d.LicenseNumber,
		&d.YearsOfExperience,
		&d.Owner.FirstName, &d.Owner.LastName, &d.Owner.Email, &d.Owner.Phone,
		&d.Owner.DateOfBirth, &d.Owner.Gender)
	if err != nil {
		return nil, err
	}
	d.fillDerived()
	return &d, nil
}

func (r *doctorRepoPG) queryDoctors(ctx context.Context, sql string, args ...interface{}) ([]*Doctor, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

func (r *doctorRepoPG) Create(ctx context.Context, d *Doctor) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO doctors (user_id, specialty, hospital, license_number, years_of_experience)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id`,
		d.UserID, d.Specialty, d.Hospital, d.LicenseNumber, d.YearsOfExperience,
	).Scan(&d.ID)
	return translateWriteErr(err)
}

func (r *doctorRepoPG) GetByID(ctx context.Context, id int64) (*Doctor, error) {
	d, err := scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx, doctorSelect+` WHERE d.id = $1`, id))
	return d, notFound("doctor", err)
}

func (r *doctorRepoPG) GetByUserID(ctx context.Context, userID int64) (*Doctor, error) {
	d, err := scanDoctor(db.Conn(ctx, r.pool).QueryRow(ctx, doctorSelect+` WHERE d.user_id = $1`, userID))
	return d, notFound("doctor", err)
}

func (r *doctorRepoPG) List(ctx context.Context) ([]*Doctor, error) {
	return r.queryDoctors(ctx, doctorSelect+` ORDER BY d.id`)
}

func (r *doctorRepoPG) ListBySpecialty(ctx context.Context, specialty string) ([]*Doctor, error) {
	return r.queryDoctors(ctx, doctorSelect+` WHERE d.specialty = $1 ORDER BY d.id`, specialty)
}

func (r *doctorRepoPG) Update(ctx context.Context, d *Doctor) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `
		UPDATE doctors SET specialty=$2, hospital=$3, license_number=$4, years_of_experience=$5
		WHERE id = $1`,
		d.ID, d.Specialty, d.Hospital, d.LicenseNumber, d.YearsOfExperience)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("doctor %d: %w", d.ID, apperr.ErrNotFound)
	}
	return nil
}

func (r *doctorRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("doctor %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// =========== Actor Repository ===========

type actorRepoPG struct{ pool *pgxpool.Pool }

func NewActorRepoPG(pool *pgxpool.Pool) ActorRepository { return &actorRepoPG{pool: pool} }

func (r *actorRepoPG) LoadActor(ctx context.Context, userID int64) (access.Actor, error) {
	a := access.Actor{UserID: userID}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT u.username, u.role, p.id, d.id
		FROM users u
		LEFT JOIN patients p ON p.user_id = u.id
		LEFT JOIN doctors d ON d.user_id = u.id
		WHERE u.id = $1`, userID,
	).Scan(&a.Username, &a.Role, &a.PatientID, &a.DoctorID)
	if err != nil {
		return access.Actor{}, notFound("user", err)
	}
	return a, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
