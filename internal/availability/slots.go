package availability

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/lashbook/lashbook/internal/model"
)

// ErrInvalidConfiguration marks business-data errors (bad settings, bad
// blackout times) that must surface to the caller instead of producing a
// silently wrong slot set.
var ErrInvalidConfiguration = errors.New("invalid booking configuration")

const minutesPerDay = 24 * 60

// OccupiedSlots merges appointments and blackout ranges for one day into
// the set of occupied start-time labels ("HH:MM", 24-hour, business
// timezone). Callers pass appointments and blackouts already scoped to the
// requested date; cancelled and no-show appointments never occupy a slot.
//
// The function is pure: all data comes in as arguments and the result is
// deterministic (deduplicated, sorted ascending).
func OccupiedSlots(settings model.BookingSettings, appointments []model.Appointment, blackouts []model.BlackoutRange) ([]string, error) {
	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	occupied := map[string]struct{}{}

	for _, appt := range appointments {
		if !appt.Status.Occupies() {
			continue
		}
		occupied[appt.ScheduledAt.In(settings.Location).Format("15:04")] = struct{}{}
	}

	for _, b := range blackouts {
		start, end, err := blackoutWindow(b, settings)
		if err != nil {
			return nil, err
		}
		// Half-open [start, end): a break ending at 14:00 leaves the
		// 14:00 slot free, and start == end blocks nothing.
		for m := start; m < end; m += settings.IntervalMinutes {
			occupied[clockLabel(m)] = struct{}{}
		}
	}

	labels := make([]string, 0, len(occupied))
	for l := range occupied {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, nil
}

func validateSettings(s model.BookingSettings) error {
	if s.Location == nil {
		return fmt.Errorf("missing business timezone: %w", ErrInvalidConfiguration)
	}
	if s.StartHour < 0 || s.EndHour > 24 || s.StartHour >= s.EndHour {
		return fmt.Errorf("business hours %d-%d: %w", s.StartHour, s.EndHour, ErrInvalidConfiguration)
	}
	if s.IntervalMinutes <= 0 || s.IntervalMinutes > minutesPerDay {
		return fmt.Errorf("slot interval %d minutes: %w", s.IntervalMinutes, ErrInvalidConfiguration)
	}
	return nil
}

func blackoutWindow(b model.BlackoutRange, settings model.BookingSettings) (start, end int, err error) {
	if b.FullDay {
		return settings.StartHour * 60, settings.EndHour * 60, nil
	}
	start, err = parseClock(b.StartTime)
	if err != nil {
		return 0, 0, fmt.Errorf("blackout %s start time %q: %w", b.Date, b.StartTime, ErrInvalidConfiguration)
	}
	end, err = parseClock(b.EndTime)
	if err != nil {
		return 0, 0, fmt.Errorf("blackout %s end time %q: %w", b.Date, b.EndTime, ErrInvalidConfiguration)
	}
	return start, end, nil
}

// parseClock parses a strict "HH:MM" 24-hour wall-clock string into minutes
// since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func clockLabel(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
