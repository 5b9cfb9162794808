package notify

import (
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lashbook/lashbook/internal/model"
)

type sentMail struct {
	to, subject, body string
}

type fakeSender struct {
	sent []sentMail
}

func (f *fakeSender) Send(to, subject, body string) error {
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

func newTestNotifier(t *testing.T) (*Notifier, *fakeSender) {
	t.Helper()
	loc, err := time.LoadLocation("Africa/Lagos")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	mail := &fakeSender{}
	return &Notifier{
		Snapshots:    NewSnapshotStore(0),
		Mail:         mail,
		AdminEmail:   "owner@lashbook.example",
		BusinessName: "LashBook",
		Location:     loc,
		Logger:       slog.New(slog.DiscardHandler),
	}, mail
}

func testAppointment() model.Appointment {
	return model.Appointment{
		ID:          "appt-1",
		ClientName:  "Ada Obi",
		ClientEmail: "ada@example.com",
		ScheduledAt: time.Date(2026, 9, 14, 9, 0, 0, 0, time.UTC),
		Services:    []model.ServiceItem{{Name: "Classic Full Set"}},
		Status:      model.StatusPending,
	}
}

func TestFirstConfirmationSendsOnce(t *testing.T) {
	n, mail := newTestNotifier(t)

	before := testAppointment()
	n.RecordBefore(before)

	after := before
	after.Status = model.StatusConfirmed
	now := time.Now()
	after.PublishedAt = &now
	n.AfterUpdate(after)

	if len(mail.sent) != 2 {
		t.Fatalf("sent %d mails, want client + admin copy", len(mail.sent))
	}
	client := mail.sent[0]
	if client.to != "ada@example.com" {
		t.Fatalf("to = %q", client.to)
	}
	if !strings.Contains(client.subject, "confirmed") {
		t.Fatalf("subject = %q", client.subject)
	}
	// 09:00 UTC renders as 10:00 in Lagos.
	if !strings.Contains(client.body, "10:00 AM") {
		t.Fatalf("body missing local time: %q", client.body)
	}
	admin := mail.sent[1]
	if admin.to != "owner@lashbook.example" || !strings.HasPrefix(admin.subject, "[admin] ") {
		t.Fatalf("admin copy = %+v", admin)
	}
}

func TestPublishOnlyTransitionIsSilent(t *testing.T) {
	n, mail := newTestNotifier(t)

	before := testAppointment()
	before.Status = model.StatusConfirmed
	n.RecordBefore(before)

	after := before
	now := time.Now()
	after.PublishedAt = &now
	n.AfterUpdate(after)

	if len(mail.sent) != 0 {
		t.Fatalf("publish-only update sent %d mails", len(mail.sent))
	}
}

func TestRescheduleTakesPrecedenceOverStatus(t *testing.T) {
	n, mail := newTestNotifier(t)

	before := testAppointment()
	n.RecordBefore(before)

	after := before
	after.Status = model.StatusConfirmed
	after.ScheduledAt = before.ScheduledAt.Add(24 * time.Hour)
	n.AfterUpdate(after)

	if len(mail.sent) == 0 {
		t.Fatal("expected a notification")
	}
	if !strings.Contains(mail.sent[0].subject, "rescheduled") {
		t.Fatalf("subject = %q, want reschedule to win", mail.sent[0].subject)
	}
}

func TestStatusChangeOutsideConfirmation(t *testing.T) {
	n, mail := newTestNotifier(t)

	before := testAppointment()
	before.Status = model.StatusConfirmed
	n.RecordBefore(before)

	after := before
	after.Status = model.StatusCancelled
	n.AfterUpdate(after)

	if len(mail.sent) == 0 {
		t.Fatal("expected a notification")
	}
	if !strings.Contains(mail.sent[0].subject, "cancelled") {
		t.Fatalf("subject = %q", mail.sent[0].subject)
	}
}

func TestAfterUpdateWithoutSnapshotIsSilent(t *testing.T) {
	n, mail := newTestNotifier(t)

	after := testAppointment()
	after.Status = model.StatusConfirmed
	n.AfterUpdate(after)

	if len(mail.sent) != 0 {
		t.Fatalf("update without a before-state sent %d mails", len(mail.sent))
	}
}

func TestAfterCreatePendingIsSilent(t *testing.T) {
	n, mail := newTestNotifier(t)
	n.AfterCreate(testAppointment())
	if len(mail.sent) != 0 {
		t.Fatalf("pending creation sent %d mails", len(mail.sent))
	}
}

func TestAfterCreateActiveSendsBooked(t *testing.T) {
	n, mail := newTestNotifier(t)

	appt := testAppointment()
	appt.Status = model.StatusConfirmed
	n.AfterCreate(appt)

	if len(mail.sent) != 2 {
		t.Fatalf("sent %d mails, want client + admin copy", len(mail.sent))
	}
	if !strings.Contains(mail.sent[0].subject, "booked") {
		t.Fatalf("subject = %q", mail.sent[0].subject)
	}
	if !strings.Contains(mail.sent[0].body, "Hi Ada,") {
		t.Fatalf("body greeting = %q", mail.sent[0].body)
	}
}

func TestNoAdminCopyWhenUnconfigured(t *testing.T) {
	n, mail := newTestNotifier(t)
	n.AdminEmail = ""

	appt := testAppointment()
	appt.Status = model.StatusConfirmed
	n.AfterCreate(appt)

	if len(mail.sent) != 1 {
		t.Fatalf("sent %d mails, want client only", len(mail.sent))
	}
}
