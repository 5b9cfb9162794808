package webhook

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"strings"
)

// SignatureHeader carries the gateway's HMAC of the raw request body.
const SignatureHeader = "X-Paystack-Signature"

// ErrUnauthorized marks a missing or mismatching webhook signature. The
// event must be dropped with no side effects.
var ErrUnauthorized = errors.New("webhook signature mismatch")

// Signature computes the hex HMAC-SHA512 of body under the shared secret,
// the scheme Paystack signs webhook deliveries with.
func Signature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the signature header against the raw body in
// constant time.
func VerifySignature(secret string, body []byte, header string) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrUnauthorized
	}
	if !hmac.Equal([]byte(Signature(secret, body)), []byte(header)) {
		return ErrUnauthorized
	}
	return nil
}
