package channel

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no channel matches the given id or secret.
	ErrNotFound = errors.New("channel not found")
	// ErrSecretTaken is returned by Store.Insert when the secret token collides
	// with an existing channel.
	ErrSecretTaken = errors.New("secret token already in use")
	// ErrInvalidRequest wraps validation failures on create/update input.
	ErrInvalidRequest = errors.New("invalid request")
)

// Channel is a registered external messaging integration. SecretToken is the
// bearer credential the integration presents on every inbound webhook call;
// CallbackToken is the credential the gateway presents when delivering replies
// to CallbackURL.
type Channel struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CallbackURL   string    `json:"channel_url"`
	CallbackToken string    `json:"channel_token"`
	SecretToken   string    `json:"secret_token,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateRequest carries the caller-supplied fields for a new channel.
// The secret token is never client-supplied.
type CreateRequest struct {
	Name          string `json:"name"`
	CallbackURL   string `json:"channel_url"`
	CallbackToken string `json:"channel_token"`
}

// UpdateRequest carries the mutable fields of a channel. The secret token is
// immutable after creation.
type UpdateRequest struct {
	Name          string `json:"name"`
	CallbackURL   string `json:"channel_url"`
	CallbackToken string `json:"channel_token"`
}

// Redacted returns a copy of the channel with the secret token cleared, for
// responses that must not disclose it.
func (c Channel) Redacted() Channel {
	c.SecretToken = ""
	return c
}
