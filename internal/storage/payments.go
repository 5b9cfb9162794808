package storage

import (
	"context"
	"time"

	"github.com/lashbook/lashbook/internal/db"
	"github.com/lashbook/lashbook/internal/model"
)

type PaymentRepository struct {
	pool *db.Pool
}

func NewPaymentRepository(pool *db.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// CreateIfAbsent inserts the payment record unless one already exists for
// the gateway reference. The UNIQUE constraint on reference makes this safe
// under concurrent redelivery; the return value reports whether this call
// created the row.
func (r *PaymentRepository) CreateIfAbsent(ctx context.Context, rec model.PaymentRecord) (bool, error) {
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO payments (reference, amount_minor, payer_email, status, appointment_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (reference) DO NOTHING
	`, rec.Reference, rec.AmountMinor, rec.PayerEmail, rec.Status, nullIfEmpty(rec.AppointmentID))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}

func (r *PaymentRepository) GetByReference(ctx context.Context, reference string) (model.PaymentRecord, error) {
	var rec model.PaymentRecord
	var appointmentID *string
	var createdAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, reference, amount_minor, payer_email, status,
			appointment_id::text, created_at
		FROM payments
		WHERE reference = $1
	`, reference).Scan(
		&rec.ID,
		&rec.Reference,
		&rec.AmountMinor,
		&rec.PayerEmail,
		&rec.Status,
		&appointmentID,
		&createdAt,
	)
	if err != nil {
		return model.PaymentRecord{}, notFoundOr(err)
	}
	if appointmentID != nil {
		rec.AppointmentID = *appointmentID
	}
	rec.CreatedAt = createdAt
	return rec, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
