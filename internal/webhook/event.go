package webhook

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EventChargeSuccess is the only gateway event type that drives state;
// everything else is acknowledged and ignored.
const EventChargeSuccess = "charge.success"

// Event is the parsed gateway envelope: either a ChargeSucceeded carrying
// everything the processor needs, or Other for event types we acknowledge
// without acting on. Optional-field access stays inside this parser; the
// rest of the package only sees these two shapes.
type Event interface {
	eventType() string
}

type ChargeSucceeded struct {
	Reference   string
	AmountMinor int64
	PayerEmail  string
	Metadata    Metadata
}

func (ChargeSucceeded) eventType() string { return EventChargeSuccess }

type Other struct {
	Type string
}

func (e Other) eventType() string { return e.Type }

// Metadata is the bag the client attached at payment-initiation time. It
// routes the event: an appointment id means confirm-existing, the booking
// fields mean recovery-create, neither means record-and-move-on.
type Metadata struct {
	AppointmentID          string `json:"appointment_id"`
	Name                   string `json:"name"`
	Phone                  string `json:"phone"`
	AppointmentDatetime    string `json:"appointment_datetime"`
	ServiceName            string `json:"service_name"`
	ServiceDurationMinutes int    `json:"service_duration_minutes"`
	ServiceDepositMinor    int64  `json:"service_deposit"`
}

// RecoveryTime reports whether the metadata carries full booking-recovery
// data, and the requested datetime when it does.
func (m Metadata) RecoveryTime() (time.Time, bool) {
	if strings.TrimSpace(m.Name) == "" || strings.TrimSpace(m.ServiceName) == "" {
		return time.Time{}, false
	}
	dt, err := time.Parse(time.RFC3339, m.AppointmentDatetime)
	if err != nil {
		return time.Time{}, false
	}
	return dt.UTC(), true
}

type envelope struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
		Metadata Metadata `json:"metadata"`
	} `json:"data"`
}

// Parse decodes a raw gateway payload into the tagged event union. A
// charge.success without a reference or payer email does not parse.
func Parse(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("malformed gateway payload: %w", err)
	}
	if env.Event != EventChargeSuccess {
		return Other{Type: env.Event}, nil
	}
	ev := ChargeSucceeded{
		Reference:   strings.TrimSpace(env.Data.Reference),
		AmountMinor: env.Data.Amount,
		PayerEmail:  strings.TrimSpace(env.Data.Customer.Email),
		Metadata:    env.Data.Metadata,
	}
	if ev.Reference == "" {
		return nil, fmt.Errorf("charge.success event missing reference")
	}
	if ev.PayerEmail == "" {
		return nil, fmt.Errorf("charge.success event missing customer email")
	}
	return ev, nil
}
