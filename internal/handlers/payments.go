package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lashbook/lashbook/internal/model"
	"github.com/lashbook/lashbook/internal/storage"
)

type PaymentHandler struct {
	store  PaymentStore
	logger *slog.Logger
}

func NewPaymentHandler(store PaymentStore, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{store: store, logger: logger}
}

type paymentResponse struct {
	ID            string `json:"id"`
	Reference     string `json:"reference"`
	AmountMinor   int64  `json:"amount_minor"`
	PayerEmail    string `json:"payer_email"`
	Status        string `json:"status"`
	AppointmentID string `json:"appointment_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

func toPaymentResponse(p model.PaymentRecord) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		Reference:     p.Reference,
		AmountMinor:   p.AmountMinor,
		PayerEmail:    p.PayerEmail,
		Status:        p.Status,
		AppointmentID: p.AppointmentID,
		CreatedAt:     p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	reference := strings.TrimSpace(r.URL.Query().Get("reference"))
	if reference == "" {
		http.Error(w, "reference query parameter is required", http.StatusBadRequest)
		return
	}

	rec, err := h.store.GetByReference(r.Context(), reference)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "payment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("payment load failed", "reference", reference, "err", err)
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: toPaymentResponse(rec)})
}
