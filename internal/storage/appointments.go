package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lashbook/lashbook/internal/db"
	"github.com/lashbook/lashbook/internal/model"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

const appointmentColumns = `
	id::text, client_name, client_email, client_phone, scheduled_at,
	services, staff_id, status, published_at, created_at`

func (r *AppointmentRepository) Create(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	services, err := json.Marshal(appt.Services)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("encode services: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments
			(client_name, client_email, client_phone, scheduled_at, services, staff_id, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+appointmentColumns,
		appt.ClientName, appt.ClientEmail, appt.ClientPhone, appt.ScheduledAt.UTC(),
		services, appt.StaffID, string(appt.Status), appt.PublishedAt)
	return scanAppointment(row)
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, notFoundOr(err)
	}
	return appt, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, appt model.Appointment) (model.Appointment, error) {
	services, err := json.Marshal(appt.Services)
	if err != nil {
		return model.Appointment{}, fmt.Errorf("encode services: %w", err)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET client_name = $2,
			client_email = $3,
			client_phone = $4,
			scheduled_at = $5,
			services = $6,
			staff_id = $7,
			status = $8,
			published_at = $9
		WHERE id = $1
		RETURNING `+appointmentColumns,
		appt.ID, appt.ClientName, appt.ClientEmail, appt.ClientPhone, appt.ScheduledAt.UTC(),
		services, appt.StaffID, string(appt.Status), appt.PublishedAt)
	updated, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, notFoundOr(err)
	}
	return updated, nil
}

// FindActiveByNaturalKey looks up the one non-cancelled appointment for a
// client email and exact datetime. This is the webhook recovery dedup.
func (r *AppointmentRepository) FindActiveByNaturalKey(ctx context.Context, email string, at time.Time) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE client_email = $1
			AND scheduled_at = $2
			AND status <> 'Cancelled'
		LIMIT 1
	`, email, at.UTC())
	appt, err := scanAppointment(row)
	if err != nil {
		return model.Appointment{}, notFoundOr(err)
	}
	return appt, nil
}

// ListOccupyingOn returns the slot-occupying appointments (Pending,
// Confirmed, Completed) scheduled in [dayStart, dayEnd).
func (r *AppointmentRepository) ListOccupyingOn(ctx context.Context, dayStart, dayEnd time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE scheduled_at >= $1
			AND scheduled_at < $2
			AND status IN ('Pending', 'Confirmed', 'Completed')
		ORDER BY scheduled_at ASC
	`, dayStart.UTC(), dayEnd.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// DeleteAbandonedPending removes appointments that never left Pending
// before the cutoff: payment was abandoned, free the slot.
func (r *AppointmentRepository) DeleteAbandonedPending(ctx context.Context, cutoff time.Time) (int64, error) {
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM appointments
		WHERE status = 'Pending' AND created_at < $1
	`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var services []byte
	var status string
	var publishedAt *time.Time
	if err := row.Scan(
		&appt.ID,
		&appt.ClientName,
		&appt.ClientEmail,
		&appt.ClientPhone,
		&appt.ScheduledAt,
		&services,
		&appt.StaffID,
		&status,
		&publishedAt,
		&appt.CreatedAt,
	); err != nil {
		return model.Appointment{}, err
	}
	appt.Status = model.Status(status)
	appt.PublishedAt = publishedAt
	if len(services) > 0 {
		if err := json.Unmarshal(services, &appt.Services); err != nil {
			return model.Appointment{}, fmt.Errorf("decode services: %w", err)
		}
	}
	appt.ScheduledAt = appt.ScheduledAt.UTC()
	return appt, nil
}
