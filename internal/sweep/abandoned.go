package sweep

import (
	"context"
	"log/slog"
	"time"
)

// AppointmentDeleter is the storage slice the sweeper needs.
type AppointmentDeleter interface {
	DeleteAbandonedPending(ctx context.Context, cutoff time.Time) (int64, error)
}

// Sweeper removes Pending appointments whose deposit never arrived. A
// Pending row older than TTL is an abandoned checkout, and deleting it
// frees the slot and the natural key for rebooking.
type Sweeper struct {
	Appointments AppointmentDeleter
	TTL          time.Duration
	Every        time.Duration
	Logger       *slog.Logger
}

func (s *Sweeper) Run(ctx context.Context) {
	every := s.Every
	if every <= 0 {
		every = 5 * time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweep(ctx, now)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	n, err := s.Appointments.DeleteAbandonedPending(ctx, now.Add(-s.TTL))
	if err != nil {
		s.Logger.Error("abandoned pending sweep failed", "err", err)
		return
	}
	if n > 0 {
		s.Logger.Info("removed abandoned pending appointments", "count", n)
	}
}
