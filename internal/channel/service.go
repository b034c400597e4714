package channel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// secretRetryLimit bounds regeneration attempts when a generated secret
// collides with an existing channel.
const secretRetryLimit = 3

// Service is the channel directory: it resolves webhook secrets to channel
// identities and owns channel lifecycle operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a channel Service backed by store.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "channel")),
	}
}

// Resolve returns the unique channel whose secret token equals secret.
// Returns ErrNotFound when no channel matches; an empty secret never matches.
func (s *Service) Resolve(ctx context.Context, secret string) (Channel, error) {
	if strings.TrimSpace(secret) == "" {
		return Channel{}, ErrNotFound
	}
	return s.store.GetBySecret(ctx, secret)
}

// Create registers a new channel with a freshly generated secret token and
// returns the stored record including the secret. This is the only point at
// which the secret is disclosed.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Channel, error) {
	if err := validateFields(req.Name, req.CallbackURL, req.CallbackToken); err != nil {
		return Channel{}, err
	}

	for attempt := 0; attempt < secretRetryLimit; attempt++ {
		secret, err := NewSecretToken()
		if err != nil {
			return Channel{}, err
		}
		created, err := s.store.Insert(ctx, Channel{
			Name:          strings.TrimSpace(req.Name),
			CallbackURL:   strings.TrimSpace(req.CallbackURL),
			CallbackToken: req.CallbackToken,
			SecretToken:   secret,
		})
		if err != nil {
			if errors.Is(err, ErrSecretTaken) {
				s.logger.Warn("secret token collision, regenerating", slog.Int("attempt", attempt+1))
				continue
			}
			return Channel{}, err
		}
		s.logger.Info("channel created", slog.String("channel_id", created.ID), slog.String("name", created.Name))
		return created, nil
	}
	return Channel{}, fmt.Errorf("could not generate a unique secret token")
}

// Get returns the channel with the given id.
func (s *Service) Get(ctx context.Context, id string) (Channel, error) {
	return s.store.GetByID(ctx, id)
}

// List returns all registered channels.
func (s *Service) List(ctx context.Context) ([]Channel, error) {
	return s.store.List(ctx)
}

// Update replaces the mutable fields of a channel (name, callback URL,
// callback token). The secret token is never touched.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Channel, error) {
	if err := validateFields(req.Name, req.CallbackURL, req.CallbackToken); err != nil {
		return Channel{}, err
	}
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return Channel{}, err
	}
	existing.Name = strings.TrimSpace(req.Name)
	existing.CallbackURL = strings.TrimSpace(req.CallbackURL)
	existing.CallbackToken = req.CallbackToken
	return s.store.Update(ctx, existing)
}

// Delete removes the channel. Dialogues are left in place; they simply never
// match again.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("channel deleted", slog.String("channel_id", id))
	return nil
}

func validateFields(name, callbackURL, callbackToken string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(callbackURL) == "" {
		return fmt.Errorf("%w: channel_url is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(callbackToken) == "" {
		return fmt.Errorf("%w: channel_token is required", ErrInvalidRequest)
	}
	return nil
}
