// Package messaging abstracts the WhatsApp delivery channels the assistant
// answers on.
//
// Two implementations exist: a Whatsmeow-based service speaking the WhatsApp
// multidevice protocol directly, and a Twilio-backed service fed by inbound
// webhooks. The Responder consumes inbound messages from either and answers
// them through the engine. The user id seen by the engine is the sender's
// phone number in digits.
package messaging

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/BioSummitBR/eventbot/internal/models"
)

const (
	// DefaultChannelBufferSize is the buffer size of the inbound response channel.
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout bounds non-blocking channel sends.
	DefaultChannelTimeout = 1 * time.Second
)

// ErrServiceStopped is returned when sending through a stopped service.
var ErrServiceStopped = errors.New("messaging service is stopped")

// phoneNumberRegex strips everything that is not a digit.
var phoneNumberRegex = regexp.MustCompile(`[^0-9]`)

// Service is a pluggable message delivery channel.
type Service interface {
	// ValidateAndCanonicalizeRecipient validates a recipient identifier and
	// returns it as plain digits.
	ValidateAndCanonicalizeRecipient(recipient string) (string, error)

	// SendMessage sends a text message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// Start begins background processing (event polling, webhook feeding).
	Start(ctx context.Context) error

	// Stop stops background processing and closes the response channel.
	Stop() error

	// Responses returns the channel of inbound user messages.
	Responses() <-chan models.Response
}

// canonicalizeRecipient is the shared recipient validation: digits only, at
// least 6 of them.
func canonicalizeRecipient(recipient string) (string, error) {
	if recipient == "" {
		return "", errors.New("recipient cannot be empty")
	}
	canonical := phoneNumberRegex.ReplaceAllString(recipient, "")
	if canonical == "" {
		return "", errors.New("invalid phone number: no digits found")
	}
	if len(canonical) < 6 {
		return "", errors.New("invalid phone number: too short")
	}
	return canonical, nil
}
