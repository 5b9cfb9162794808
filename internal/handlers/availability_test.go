package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lashbook/lashbook/internal/model"
)

type stubOccupancy struct {
	stubAppointments
	listed      []model.Appointment
	gotDayStart time.Time
	gotDayEnd   time.Time
}

func (s *stubOccupancy) ListOccupyingOn(_ context.Context, dayStart, dayEnd time.Time) ([]model.Appointment, error) {
	s.gotDayStart = dayStart
	s.gotDayEnd = dayEnd
	return s.listed, nil
}

type stubBlackouts struct {
	byDate map[string][]model.BlackoutRange
}

func (s *stubBlackouts) Create(_ context.Context, b model.BlackoutRange) (model.BlackoutRange, error) {
	b.ID = "blk-1"
	s.byDate[b.Date] = append(s.byDate[b.Date], b)
	return b, nil
}

func (s *stubBlackouts) ListOn(_ context.Context, date string) ([]model.BlackoutRange, error) {
	return s.byDate[date], nil
}

func lagosSettings(t *testing.T) model.BookingSettings {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Lagos")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return model.BookingSettings{StartHour: 9, EndHour: 18, IntervalMinutes: 30, Location: loc}
}

func TestSlotsRequiresDate(t *testing.T) {
	h := NewAvailabilityHandler(&stubOccupancy{}, &stubBlackouts{byDate: map[string][]model.BlackoutRange{}}, lagosSettings(t), slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.Slots(w, httptest.NewRequest(http.MethodGet, "/api/v1/appointments/slots", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSlotsRejectsMalformedDate(t *testing.T) {
	h := NewAvailabilityHandler(&stubOccupancy{}, &stubBlackouts{byDate: map[string][]model.BlackoutRange{}}, lagosSettings(t), slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.Slots(w, httptest.NewRequest(http.MethodGet, "/api/v1/appointments/slots?date=14-09-2026", nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSlotsReturnsOccupiedLabels(t *testing.T) {
	occ := &stubOccupancy{listed: []model.Appointment{
		// 09:00 UTC renders as 10:00 local.
		{ID: "a1", ScheduledAt: time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC), Status: model.StatusConfirmed},
		{ID: "a2", ScheduledAt: time.Date(2026, 9, 14, 13, 30, 0, 0, time.UTC), Status: model.StatusCancelled},
	}}
	h := NewAvailabilityHandler(occ, &stubBlackouts{byDate: map[string][]model.BlackoutRange{}}, lagosSettings(t), slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.Slots(w, httptest.NewRequest(http.MethodGet, "/api/v1/appointments/slots?date=2026-09-14", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0] != "10:00" {
		t.Fatalf("data = %v, want [10:00]", resp.Data)
	}

	// The query window is the local day, which starts at 23:00 UTC the
	// evening before in Lagos.
	wantStart := time.Date(2026, 9, 13, 23, 0, 0, 0, time.UTC)
	if !occ.gotDayStart.Equal(wantStart) {
		t.Fatalf("dayStart = %v, want %v", occ.gotDayStart, wantStart)
	}
	if !occ.gotDayEnd.Equal(wantStart.Add(24 * time.Hour)) {
		t.Fatalf("dayEnd = %v", occ.gotDayEnd)
	}
}

func TestSlotsEmptyDayEncodesAsArray(t *testing.T) {
	h := NewAvailabilityHandler(&stubOccupancy{}, &stubBlackouts{byDate: map[string][]model.BlackoutRange{}}, lagosSettings(t), slog.New(slog.DiscardHandler))

	w := httptest.NewRecorder()
	h.Slots(w, httptest.NewRequest(http.MethodGet, "/api/v1/appointments/slots?date=2026-09-14", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Body.String(); !json.Valid([]byte(got)) || got == "" {
		t.Fatalf("body = %q", got)
	}
	var resp struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data == nil {
		t.Fatal("data should be an empty array, not null")
	}
}
