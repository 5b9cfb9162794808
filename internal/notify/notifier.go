package notify

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lashbook/lashbook/internal/model"
)

// Sender delivers one rendered message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(to, subject, body string) error
}

// Kind is the notification class derived from a state transition.
type Kind string

const (
	KindBooked            Kind = "booked"
	KindFirstConfirmation Kind = "first_confirmation"
	KindRescheduled       Kind = "rescheduled"
	KindStatusChanged     Kind = "status_changed"
)

// Notifier turns appointment writes into client emails. RecordBefore must
// run before the write and AfterUpdate after it; the pair is matched
// through the snapshot store by appointment id.
type Notifier struct {
	Snapshots    *SnapshotStore
	Mail         Sender
	AdminEmail   string
	BusinessName string
	Location     *time.Location
	Logger       *slog.Logger
}

func (n *Notifier) RecordBefore(appt model.Appointment) {
	if appt.ID == "" {
		return
	}
	n.Snapshots.Put(appt.ID, Snapshot{
		ScheduledAt: appt.ScheduledAt,
		Status:      appt.Status,
		Published:   appt.Published(),
	})
}

// AfterUpdate classifies the transition against the recorded before-state
// and sends at most one notification. Without a snapshot there is nothing
// to compare, so nothing is sent.
func (n *Notifier) AfterUpdate(appt model.Appointment) {
	prev, ok := n.Snapshots.Take(appt.ID)
	if !ok {
		n.Logger.Warn("no before-state for appointment update, skipping notification",
			"appointment_id", appt.ID)
		return
	}

	// A publish with no visible change is an internal transition.
	if !prev.Published && appt.Published() &&
		prev.Status == appt.Status && prev.ScheduledAt.Equal(appt.ScheduledAt) {
		return
	}

	switch {
	case !prev.ScheduledAt.Equal(appt.ScheduledAt):
		n.send(KindRescheduled, appt)
	case prev.Status == model.StatusPending && appt.Status == model.StatusConfirmed:
		n.send(KindFirstConfirmation, appt)
	case prev.Status != appt.Status:
		n.send(KindStatusChanged, appt)
	}
}

// AfterCreate notifies only when the appointment enters already active.
// Pending rows are payment placeholders and stay silent until confirmed.
func (n *Notifier) AfterCreate(appt model.Appointment) {
	if appt.Status == model.StatusPending {
		return
	}
	n.send(KindBooked, appt)
}

func (n *Notifier) send(kind Kind, appt model.Appointment) {
	subject, body := n.render(kind, appt)

	if err := n.Mail.Send(appt.ClientEmail, subject, body); err != nil {
		n.Logger.Error("client notification failed",
			"kind", string(kind), "appointment_id", appt.ID, "err", err)
	}
	if n.AdminEmail != "" {
		if err := n.Mail.Send(n.AdminEmail, "[admin] "+subject, body); err != nil {
			n.Logger.Error("admin copy failed",
				"kind", string(kind), "appointment_id", appt.ID, "err", err)
		}
	}
}

func (n *Notifier) render(kind Kind, appt model.Appointment) (subject, body string) {
	local := appt.ScheduledAt.In(n.Location)
	day := local.Format("Monday, January 2, 2006")
	clock := local.Format("3:04 PM")
	first := firstName(appt.ClientName)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", first)

	switch kind {
	case KindBooked:
		subject = fmt.Sprintf("Your %s appointment is booked", appt.ServiceName())
		fmt.Fprintf(&b, "Your %s appointment is booked for %s at %s.\n", appt.ServiceName(), day, clock)
	case KindFirstConfirmation:
		subject = fmt.Sprintf("Your %s appointment is confirmed", appt.ServiceName())
		fmt.Fprintf(&b, "We received your deposit. Your %s appointment is confirmed for %s at %s.\n",
			appt.ServiceName(), day, clock)
	case KindRescheduled:
		subject = "Your appointment has been rescheduled"
		fmt.Fprintf(&b, "Your %s appointment has been moved to %s at %s.\n", appt.ServiceName(), day, clock)
	case KindStatusChanged:
		subject = fmt.Sprintf("Your appointment is now %s", strings.ToLower(string(appt.Status)))
		fmt.Fprintf(&b, "The status of your %s appointment on %s at %s is now %s.\n",
			appt.ServiceName(), day, clock, appt.Status)
	}

	fmt.Fprintf(&b, "\nSee you soon,\n%s\n", n.BusinessName)
	return subject, b.String()
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if full == "" {
		return "there"
	}
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
