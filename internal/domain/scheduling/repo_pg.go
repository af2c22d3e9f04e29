package scheduling

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

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

const apptSelect = `SELECT a.id, a.patient_id, pu.first_name || ' ' || pu.last_name,
	a.doctor_id, du.first_name || ' ' || du.last_name,
	a.specialty, a.date, to_char(a.time, 'HH24:MI:SS'), a.reason, a.status, a.created_at
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN users pu ON pu.id = p.user_id
	JOIN doctors d ON d.id = a.doctor_id
	JOIN users du ON du.id = d.user_id`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.PatientName, &a.DoctorID, &a.DoctorName,
		&a.Specialty, &a.Date, &a.Time, &a.Reason, &a.Status, &a.CreatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	return db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, doctor_id, specialty, date, time, reason, status)
		VALUES ($1,$2,$3,$4,$5::time,$6,$7)
		RETURNING id, created_at`,
		a.PatientID, a.DoctorID, a.Specialty, a.Date, a.Time, a.Reason, a.Status,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	a, err := scanAppointment(db.Conn(ctx, r.pool).QueryRow(ctx, apptSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("appointment %d: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *appointmentRepoPG) List(ctx context.Context, scope access.AppointmentScope) ([]*Appointment, error) {
	query := apptSelect + ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if scope.PatientID != nil {
		query += fmt.Sprintf(` AND a.patient_id = $%d`, idx)
		args = append(args, *scope.PatientID)
		idx++
	}
	if scope.DoctorID != nil {
		query += fmt.Sprintf(` AND a.doctor_id = $%d`, idx)
		args = append(args, *scope.DoctorID)
	}
	query += ` ORDER BY a.date DESC, a.time DESC, a.id DESC`

	rows, err := db.Conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("appointment %d: %w", id, apperr.ErrNotFound)
	}
	return nil
}
