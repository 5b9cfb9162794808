package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lashbook/lashbook/internal/webhook"
)

func main() {
	var (
		baseURL       = flag.String("base-url", getenv("BASE_URL", "http://localhost:8080"), "service base url")
		evtType       = flag.String("type", getenv("PAYSTACK_EVENT_TYPE", "charge.success"), "paystack event type")
		appointmentID = flag.String("appointment-id", getenv("APPOINTMENT_ID", ""), "appointment_id metadata")
		email         = flag.String("email", getenv("PAYER_EMAIL", "client@example.com"), "payer email")
		amount        = flag.Int64("amount", 500000, "charge amount in kobo")
		secret        = flag.String("secret", getenv("PAYSTACK_SECRET_KEY", ""), "paystack secret key (sk_...)")
	)
	flag.Parse()

	if strings.TrimSpace(*secret) == "" {
		fatal("PAYSTACK_SECRET_KEY is required")
	}

	now := time.Now().UTC()
	reference := fmt.Sprintf("T%d", now.UnixNano())

	payload, err := buildEventJSON(*evtType, reference, *email, *amount, *appointmentID)
	if err != nil {
		fatal(err.Error())
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(*baseURL, "/")+"/api/v1/webhooks/paystack", bytes.NewReader(payload))
	if err != nil {
		fatal(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(webhook.SignatureHeader, webhook.Signature(*secret, payload))

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatal(err.Error())
	}
	defer resp.Body.Close()

	fmt.Printf("reference=%s status=%d\n", reference, resp.StatusCode)
}

func buildEventJSON(eventType, reference, email string, amount int64, appointmentID string) ([]byte, error) {
	switch eventType {
	case "charge.success":
		metadata := map[string]any{}
		if appointmentID != "" {
			metadata["appointment_id"] = appointmentID
		} else {
			// No id means the service exercises the recovery path.
			metadata["name"] = "Test Client"
			metadata["phone"] = "+2348000000000"
			metadata["appointment_datetime"] = time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339)
			metadata["service_name"] = "Classic Full Set"
			metadata["service_duration_minutes"] = 120
			metadata["service_deposit"] = amount
		}
		return json.Marshal(map[string]any{
			"event": eventType,
			"data": map[string]any{
				"reference": reference,
				"amount":    amount,
				"customer":  map[string]any{"email": email},
				"metadata":  metadata,
			},
		})
	case "transfer.success", "charge.failed":
		return json.Marshal(map[string]any{
			"event": eventType,
			"data":  map[string]any{"reference": reference},
		})
	default:
		return nil, fmt.Errorf("unsupported event type: %s", eventType)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
