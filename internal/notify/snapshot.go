package notify

import (
	"context"
	"sync"
	"time"

	"github.com/lashbook/lashbook/internal/model"
)

// DefaultSnapshotTTL bounds how long a before-state waits for its matching
// after-update hook before the sweeper discards it.
const DefaultSnapshotTTL = 30 * time.Second

// Snapshot captures the fields of an appointment that classification
// compares across an update.
type Snapshot struct {
	ScheduledAt time.Time
	Status      model.Status
	Published   bool

	capturedAt time.Time
}

// SnapshotStore holds before-states keyed by appointment id between the
// two halves of an update. Entries are consumed exactly once by Take;
// anything left behind by a failed update ages out after the TTL.
type SnapshotStore struct {
	mu  sync.Mutex
	m   map[string]Snapshot
	ttl time.Duration
}

func NewSnapshotStore(ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotStore{m: map[string]Snapshot{}, ttl: ttl}
}

func (s *SnapshotStore) Put(id string, snap Snapshot) {
	s.putAt(id, snap, time.Now())
}

func (s *SnapshotStore) putAt(id string, snap Snapshot, now time.Time) {
	snap.capturedAt = now
	s.mu.Lock()
	s.m[id] = snap
	s.mu.Unlock()
}

// Take removes and returns the snapshot for id. The second return is false
// when no before-state was recorded, or it already aged out.
func (s *SnapshotStore) Take(id string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.m[id]
	if ok {
		delete(s.m, id)
	}
	return snap, ok
}

// Run sweeps expired snapshots until ctx is cancelled.
func (s *SnapshotStore) Run(ctx context.Context) {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.sweepAt(now)
		}
	}
}

func (s *SnapshotStore) sweepAt(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, snap := range s.m {
		if now.Sub(snap.capturedAt) >= s.ttl {
			delete(s.m, id)
		}
	}
}
