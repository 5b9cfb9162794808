package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lashbook/lashbook/internal/model"
	"github.com/lashbook/lashbook/internal/storage"
)

// AppointmentStore is the slice of the appointment repository the processor
// needs. Lookups return storage.ErrNotFound when no row matches.
type AppointmentStore interface {
	GetByID(ctx context.Context, id string) (model.Appointment, error)
	FindActiveByNaturalKey(ctx context.Context, email string, at time.Time) (model.Appointment, error)
	Create(ctx context.Context, appt model.Appointment) (model.Appointment, error)
	Update(ctx context.Context, appt model.Appointment) (model.Appointment, error)
}

type PaymentStore interface {
	CreateIfAbsent(ctx context.Context, rec model.PaymentRecord) (bool, error)
}

// Notifier receives the before/after hooks around every appointment write
// the processor performs.
type Notifier interface {
	RecordBefore(appt model.Appointment)
	AfterUpdate(appt model.Appointment)
	AfterCreate(appt model.Appointment)
}

type OutcomeKind string

const (
	// OutcomeConfirmed: an existing appointment was moved to Confirmed.
	OutcomeConfirmed OutcomeKind = "confirmed"
	// OutcomeAlreadyConfirmed: redelivery; the status write was skipped.
	OutcomeAlreadyConfirmed OutcomeKind = "already_confirmed"
	// OutcomeRecovered: no appointment existed, one was created Confirmed
	// from the webhook metadata.
	OutcomeRecovered OutcomeKind = "recovered"
	// OutcomeNoRoute: metadata identified nothing; the payment was
	// recorded unlinked as an anomaly, not an error.
	OutcomeNoRoute OutcomeKind = "no_route"
)

type Outcome struct {
	Kind           OutcomeKind
	AppointmentID  string
	PaymentCreated bool
}

// Processor drives one verified charge.success event through routing,
// idempotent confirmation or recovery, and payment recording. A returned
// error means the appointment mutation failed and the gateway should
// redeliver; payment-ledger failures alone never surface as errors.
type Processor struct {
	Appointments AppointmentStore
	Payments     PaymentStore
	Notifier     Notifier
	Logger       *slog.Logger
}

func (p *Processor) Process(ctx context.Context, ev ChargeSucceeded) (Outcome, error) {
	out := Outcome{Kind: OutcomeNoRoute}
	var resolved *model.Appointment

	if id := strings.TrimSpace(ev.Metadata.AppointmentID); id != "" {
		appt, err := p.Appointments.GetByID(ctx, id)
		switch {
		case err == nil:
			confirmed, skipped, err := p.confirm(ctx, appt)
			if err != nil {
				return Outcome{}, fmt.Errorf("confirm appointment %s: %w", id, err)
			}
			resolved = &confirmed
			out.Kind = OutcomeConfirmed
			if skipped {
				out.Kind = OutcomeAlreadyConfirmed
			}
		case errors.Is(err, storage.ErrNotFound):
			// The referenced appointment may have been swept while the
			// payment was in flight; recovery below can rebuild it.
			p.Logger.Warn("webhook references unknown appointment",
				"appointment_id", id, "reference", ev.Reference)
		default:
			return Outcome{}, fmt.Errorf("load appointment %s: %w", id, err)
		}
	}

	if resolved == nil {
		if at, ok := ev.Metadata.RecoveryTime(); ok {
			appt, kind, err := p.recover(ctx, ev, at)
			if err != nil {
				return Outcome{}, err
			}
			resolved = &appt
			out.Kind = kind
		}
	}

	if resolved != nil {
		out.AppointmentID = resolved.ID
	}

	// Payment recording must not fail the webhook: the appointment is
	// already consistent, and a missing ledger row can be reconciled later.
	created, err := p.Payments.CreateIfAbsent(ctx, model.PaymentRecord{
		Reference:     ev.Reference,
		AmountMinor:   ev.AmountMinor,
		PayerEmail:    ev.PayerEmail,
		Status:        "success",
		AppointmentID: out.AppointmentID,
	})
	if err != nil {
		p.Logger.Error("payment record write failed, continuing",
			"reference", ev.Reference, "err", err)
	}
	out.PaymentCreated = created

	if !created && err == nil {
		p.Logger.Info("duplicate webhook delivery, payment already recorded",
			"reference", ev.Reference)
	}
	return out, nil
}

// confirm idempotently moves an appointment to Confirmed and publishes it.
// An appointment already Confirmed is left untouched so gateway retries are
// no-ops.
func (p *Processor) confirm(ctx context.Context, appt model.Appointment) (model.Appointment, bool, error) {
	if appt.Status == model.StatusConfirmed {
		return appt, true, nil
	}

	p.Notifier.RecordBefore(appt)

	appt.Status = model.StatusConfirmed
	if appt.PublishedAt == nil {
		now := time.Now().UTC()
		appt.PublishedAt = &now
	}
	updated, err := p.Appointments.Update(ctx, appt)
	if err != nil {
		return model.Appointment{}, false, err
	}
	p.Notifier.AfterUpdate(updated)
	return updated, false, nil
}

// recover rebuilds the appointment from webhook metadata. The natural-key
// lookup covers the race where the client-side creation landed after the
// gateway already fired; only a true miss creates a new row.
func (p *Processor) recover(ctx context.Context, ev ChargeSucceeded, at time.Time) (model.Appointment, OutcomeKind, error) {
	existing, err := p.Appointments.FindActiveByNaturalKey(ctx, ev.PayerEmail, at)
	switch {
	case err == nil:
		confirmed, skipped, err := p.confirm(ctx, existing)
		if err != nil {
			return model.Appointment{}, "", fmt.Errorf("confirm recovered appointment %s: %w", existing.ID, err)
		}
		if skipped {
			return confirmed, OutcomeAlreadyConfirmed, nil
		}
		return confirmed, OutcomeConfirmed, nil
	case errors.Is(err, storage.ErrNotFound):
		// fall through to create
	default:
		return model.Appointment{}, "", fmt.Errorf("natural key lookup: %w", err)
	}

	now := time.Now().UTC()
	created, err := p.Appointments.Create(ctx, model.Appointment{
		ClientName:  ev.Metadata.Name,
		ClientEmail: ev.PayerEmail,
		ClientPhone: ev.Metadata.Phone,
		ScheduledAt: at,
		Services: []model.ServiceItem{{
			Name:            ev.Metadata.ServiceName,
			DurationMinutes: ev.Metadata.ServiceDurationMinutes,
			DepositMinor:    ev.Metadata.ServiceDepositMinor,
		}},
		Status:      model.StatusConfirmed,
		PublishedAt: &now,
	})
	if err != nil {
		return model.Appointment{}, "", fmt.Errorf("recovery create: %w", err)
	}
	p.Notifier.AfterCreate(created)
	p.Logger.Info("appointment recovered from webhook metadata",
		"appointment_id", created.ID, "reference", ev.Reference)
	return created, OutcomeRecovered, nil
}
