package sweep

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

type fakeDeleter struct {
	cutoffs []time.Time
	n       int64
	err     error
}

func (f *fakeDeleter) DeleteAbandonedPending(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	return f.n, f.err
}

func TestSweepUsesTTLCutoff(t *testing.T) {
	d := &fakeDeleter{n: 2}
	s := &Sweeper{
		Appointments: d,
		TTL:          30 * time.Minute,
		Logger:       slog.New(slog.DiscardHandler),
	}

	now := time.Date(2026, 9, 14, 12, 0, 0, 0, time.UTC)
	s.sweep(context.Background(), now)

	if len(d.cutoffs) != 1 {
		t.Fatalf("delete calls = %d", len(d.cutoffs))
	}
	want := now.Add(-30 * time.Minute)
	if !d.cutoffs[0].Equal(want) {
		t.Fatalf("cutoff = %v, want %v", d.cutoffs[0], want)
	}
}

func TestSweepSurvivesStorageError(t *testing.T) {
	d := &fakeDeleter{err: errors.New("connection refused")}
	s := &Sweeper{
		Appointments: d,
		TTL:          30 * time.Minute,
		Logger:       slog.New(slog.DiscardHandler),
	}

	s.sweep(context.Background(), time.Now())
	s.sweep(context.Background(), time.Now())

	if len(d.cutoffs) != 2 {
		t.Fatalf("sweeper stopped after an error, calls = %d", len(d.cutoffs))
	}
}
