package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/lashbook/lashbook/internal/outbox"
	"github.com/lashbook/lashbook/internal/webhook"
)

const maxWebhookBodyBytes = 1 << 20

type WebhookHandler struct {
	secret    string
	processor *webhook.Processor
	events    EventRecorder
	logger    *slog.Logger
}

func NewWebhookHandler(secret string, processor *webhook.Processor, events EventRecorder, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{secret: secret, processor: processor, events: events, logger: logger}
}

// Paystack receives gateway event deliveries. A 2xx acknowledges the
// delivery; only signature failures and appointment-write failures are
// surfaced so the gateway retries exactly those.
func (h *WebhookHandler) Paystack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.secret == "" {
		http.Error(w, "webhook secret not configured", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if err := webhook.VerifySignature(h.secret, body, r.Header.Get(webhook.SignatureHeader)); err != nil {
		h.logger.Warn("webhook signature rejected", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	ev, err := webhook.Parse(body)
	if err != nil {
		// Authentic but unusable; acknowledge so the gateway stops
		// redelivering a payload that will never parse.
		h.logger.Warn("unparseable webhook payload", "err", err)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	charge, ok := ev.(webhook.ChargeSucceeded)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	out, err := h.processor.Process(r.Context(), charge)
	if err != nil {
		h.logger.Error("webhook processing failed", "reference", charge.Reference, "err", err)
		http.Error(w, "processing failed", http.StatusInternalServerError)
		return
	}

	switch out.Kind {
	case webhook.OutcomeConfirmed:
		h.recordEvent(r, "appointment.confirmed", out.AppointmentID, charge.Reference)
	case webhook.OutcomeRecovered:
		h.recordEvent(r, "appointment.recovered", out.AppointmentID, charge.Reference)
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":         string(out.Kind),
		"appointment_id": out.AppointmentID,
	})
}

func (h *WebhookHandler) recordEvent(r *http.Request, eventType, appointmentID, reference string) {
	if h.events == nil {
		return
	}
	payload, err := json.Marshal(map[string]string{
		"appointment_id": appointmentID,
		"reference":      reference,
	})
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"appointment_id":%q}`, appointmentID))
	}
	if err := h.events.Insert(r.Context(), outbox.Event{
		AggregateType: "appointment",
		AggregateID:   appointmentID,
		EventType:     eventType,
		Payload:       payload,
	}); err != nil {
		h.logger.Error("outbox insert failed", "event_type", eventType, "appointment_id", appointmentID, "err", err)
	}
}
