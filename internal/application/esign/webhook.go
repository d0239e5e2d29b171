package esign

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const SignatureHeader = "X-Signature"

// Vendor event types.
const (
	EventSigned   = "document.signed"
	EventDeclined = "document.declined"
	EventViewed   = "document.viewed"
)

var (
	ErrMissingSecret    = errors.New("Webhook secret is not configured")
	ErrInvalidSignature = errors.New("Invalid webhook signature")
	ErrInvalidPayload   = errors.New("Invalid webhook payload")
)

// Event is a status callback from the vendor.
type Event struct {
	Type       string     `json:"event"`
	DocumentID string     `json:"document_id"`
	OccurredAt *time.Time `json:"occurred_at"`
}

// Sign returns the hex HMAC-SHA256 of body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the hex HMAC-SHA256 signature of the raw body.
func VerifySignature(secret string, body []byte, signature string) error {
	if strings.TrimSpace(secret) == "" {
		return ErrMissingSecret
	}
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(provided) == 0 {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseEvent verifies and decodes a webhook body.
func ParseEvent(secret string, body []byte, signature string) (Event, error) {
	if err := VerifySignature(secret, body, signature); err != nil {
		return Event{}, err
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil || ev.DocumentID == "" || ev.Type == "" {
		return Event{}, ErrInvalidPayload
	}
	return ev, nil
}
