package model

import "time"

// Status is the booking lifecycle state of an appointment. The published
// flag (PublishedAt) is deliberately independent of it: an appointment can
// be confirmed but still hidden from the public site.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusConfirmed Status = "Confirmed"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
	StatusNoShow    Status = "NoShow"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Occupies reports whether an appointment in this status blocks its slot.
// Pending occupies because a payment may be in flight for it.
func (s Status) Occupies() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted:
		return true
	}
	return false
}

// ServiceItem is one booked service line: what, how long, and the deposit
// charged for it in the minor currency unit (kobo).
type ServiceItem struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	DepositMinor    int64  `json:"deposit_minor"`
}

type Appointment struct {
	ID          string
	ClientName  string
	ClientEmail string
	ClientPhone string
	ScheduledAt time.Time // UTC instant
	Services    []ServiceItem
	StaffID     string
	Status      Status
	PublishedAt *time.Time
	CreatedAt   time.Time
}

func (a Appointment) Published() bool {
	return a.PublishedAt != nil
}

// ServiceName returns the primary service for notification copy.
func (a Appointment) ServiceName() string {
	if len(a.Services) > 0 && a.Services[0].Name != "" {
		return a.Services[0].Name
	}
	return "your service"
}

// BlackoutRange is administrator-declared unavailability for part or all of
// a calendar day. Times are "HH:MM" wall-clock strings in the business
// timezone; immutable once created.
type BlackoutRange struct {
	ID        string
	Date      string // YYYY-MM-DD
	FullDay   bool
	StartTime string
	EndTime   string
	CreatedAt time.Time
}

// BookingSettings is the read-only business-hours singleton. Location is
// the fixed business timezone; slot labels are always rendered in it, never
// in the server's local zone.
type BookingSettings struct {
	StartHour       int
	EndHour         int
	IntervalMinutes int
	Location        *time.Location
}

// PaymentRecord is the ledger entry for one gateway charge. Reference is
// unique: it is the idempotency anchor for webhook redelivery.
type PaymentRecord struct {
	ID            string
	Reference     string
	AmountMinor   int64
	PayerEmail    string
	Status        string
	AppointmentID string // empty until recovery resolves a link
	CreatedAt     time.Time
}
