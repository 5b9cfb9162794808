package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lashbook/lashbook/internal/model"
)

type BlackoutHandler struct {
	store  BlackoutStore
	logger *slog.Logger
}

func NewBlackoutHandler(store BlackoutStore, logger *slog.Logger) *BlackoutHandler {
	return &BlackoutHandler{store: store, logger: logger}
}

type createBlackoutRequest struct {
	Date      string `json:"date"`
	FullDay   bool   `json:"full_day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type blackoutResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	FullDay   bool   `json:"full_day"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toBlackoutResponse(b model.BlackoutRange) blackoutResponse {
	return blackoutResponse{
		ID:        b.ID,
		Date:      b.Date,
		FullDay:   b.FullDay,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		CreatedAt: b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *BlackoutHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.create(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BlackoutHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBlackoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.Date = strings.TrimSpace(req.Date)
	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if !req.FullDay {
		start, err := time.Parse("15:04", strings.TrimSpace(req.StartTime))
		if err != nil {
			http.Error(w, "invalid start_time, want HH:MM", http.StatusBadRequest)
			return
		}
		end, err := time.Parse("15:04", strings.TrimSpace(req.EndTime))
		if err != nil {
			http.Error(w, "invalid end_time, want HH:MM", http.StatusBadRequest)
			return
		}
		if !end.After(start) {
			http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
			return
		}
	}

	b := model.BlackoutRange{
		Date:      req.Date,
		FullDay:   req.FullDay,
		StartTime: strings.TrimSpace(req.StartTime),
		EndTime:   strings.TrimSpace(req.EndTime),
	}
	if b.FullDay {
		b.StartTime, b.EndTime = "", ""
	}

	created, err := h.store.Create(r.Context(), b)
	if err != nil {
		h.logger.Error("blackout create failed", "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, dataEnvelope{Data: toBlackoutResponse(created)})
}

func (h *BlackoutHandler) list(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		http.Error(w, "date query parameter is required", http.StatusBadRequest)
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, "invalid date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	blackouts, err := h.store.ListOn(r.Context(), date)
	if err != nil {
		h.logger.Error("blackout list failed", "date", date, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	items := make([]blackoutResponse, 0, len(blackouts))
	for _, b := range blackouts {
		items = append(items, toBlackoutResponse(b))
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: items})
}
