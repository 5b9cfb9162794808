package storage

import (
	"context"

	"github.com/lashbook/lashbook/internal/db"
	"github.com/lashbook/lashbook/internal/model"
)

type BlackoutRepository struct {
	pool *db.Pool
}

func NewBlackoutRepository(pool *db.Pool) *BlackoutRepository {
	return &BlackoutRepository{pool: pool}
}

func (r *BlackoutRepository) Create(ctx context.Context, b model.BlackoutRange) (model.BlackoutRange, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO blackout_ranges (blackout_date, full_day, start_time, end_time)
		VALUES ($1::date, $2, $3, $4)
		RETURNING id::text, blackout_date::text, full_day, start_time, end_time, created_at
	`, b.Date, b.FullDay, b.StartTime, b.EndTime).Scan(
		&b.ID, &b.Date, &b.FullDay, &b.StartTime, &b.EndTime, &b.CreatedAt,
	)
	if err != nil {
		return model.BlackoutRange{}, err
	}
	return b, nil
}

func (r *BlackoutRepository) ListOn(ctx context.Context, date string) ([]model.BlackoutRange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, blackout_date::text, full_day, start_time, end_time, created_at
		FROM blackout_ranges
		WHERE blackout_date = $1::date
		ORDER BY start_time ASC
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BlackoutRange
	for rows.Next() {
		var b model.BlackoutRange
		if err := rows.Scan(&b.ID, &b.Date, &b.FullDay, &b.StartTime, &b.EndTime, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
