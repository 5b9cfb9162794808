package storage

import (
	"context"

	"github.com/lashbook/lashbook/internal/db"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS appointments (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	client_name TEXT NOT NULL,
	client_email TEXT NOT NULL,
	client_phone TEXT NOT NULL DEFAULT '',
	scheduled_at TIMESTAMPTZ NOT NULL,
	services JSONB NOT NULL DEFAULT '[]',
	staff_id TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'Pending',
	published_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- One live appointment per client+datetime. Partial so a cancelled slot can
-- be rebooked by the same client.
CREATE UNIQUE INDEX IF NOT EXISTS ux_appointments_natural_key
	ON appointments (client_email, scheduled_at)
	WHERE status <> 'Cancelled';

CREATE INDEX IF NOT EXISTS idx_appointments_scheduled_at ON appointments (scheduled_at);
CREATE INDEX IF NOT EXISTS idx_appointments_pending_created ON appointments (created_at) WHERE status = 'Pending';

CREATE TABLE IF NOT EXISTS payments (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	reference TEXT NOT NULL UNIQUE,
	amount_minor BIGINT NOT NULL,
	payer_email TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	appointment_id UUID REFERENCES appointments(id) ON DELETE SET NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS blackout_ranges (
	id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	blackout_date DATE NOT NULL,
	full_day BOOLEAN NOT NULL DEFAULT false,
	start_time TEXT NOT NULL DEFAULT '',
	end_time TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_blackout_ranges_date ON blackout_ranges (blackout_date);

CREATE TABLE IF NOT EXISTS outbox_events (
	id BIGSERIAL PRIMARY KEY,
	event_id UUID NOT NULL DEFAULT gen_random_uuid(),
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL,
	published_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_outbox_events_unpublished ON outbox_events (id) WHERE published_at IS NULL;
`

// Migrate applies the idempotent schema on startup.
func Migrate(ctx context.Context, pool *db.Pool) error {
	_, err := pool.Exec(ctx, schemaSQL)
	return err
}
