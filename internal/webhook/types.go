// Package webhook implements the inbound message state machine: authenticate,
// dedupe, classify, generate, commit, notify.
package webhook

import "errors"

var (
	// ErrUnauthorized is returned when the bearer secret matches no channel.
	ErrUnauthorized = errors.New("invalid channel secret")
	// ErrInvalidPayload is returned for malformed inbound payloads before any
	// processing begins.
	ErrInvalidPayload = errors.New("invalid webhook payload")
	// ErrGenerationFailed wraps reply generator errors so transports can tell
	// upstream failures apart from storage faults.
	ErrGenerationFailed = errors.New("reply generation failed")
)

// Sender classifies who wrote the inbound message.
type Sender string

const (
	SenderCustomer Sender = "customer"
	SenderEmployee Sender = "employee"
)

// Inbound is one webhook message from a channel.
type Inbound struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	Sender    Sender `json:"message_sender"`
}

// Status is the terminal outcome of one webhook call.
type Status string

const (
	// StatusProcessed means a reply was generated and committed.
	StatusProcessed Status = "processed"
	// StatusAlreadyProcessed means the message id was seen before; nothing changed.
	StatusAlreadyProcessed Status = "already_processed"
	// StatusIgnored means an employee message was recorded as processed but
	// neither appended nor answered.
	StatusIgnored Status = "employee_message_ignored"
)

// Result is what the processor reports back to the transport layer.
// Delivered is meaningful only for StatusProcessed and is observability-only:
// a failed callback never fails the request.
type Result struct {
	Status    Status
	Response  string
	Delivered bool
}
