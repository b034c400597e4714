package dialogue

import (
	"context"
	"errors"
	"log/slog"
)

// Service loads and persists dialogues. Save replaces the whole document;
// concurrent writers for the same key are last-writer-wins at this layer
// (the webhook processor serializes same-key work in process).
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a dialogue Service backed by store.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log.With(slog.String("service", "dialogue")),
	}
}

// LoadOrCreate fetches the dialogue for (channelID, chatID), creating and
// persisting an empty one on first sight. When a concurrent caller wins the
// insert race, the winner's row is re-read, so at most one dialogue exists
// per key.
func (s *Service) LoadOrCreate(ctx context.Context, channelID, chatID string) (Dialogue, error) {
	d, err := s.store.Get(ctx, channelID, chatID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Dialogue{}, err
	}

	created, err := s.store.Insert(ctx, Dialogue{
		ChannelID:           channelID,
		ChatID:              chatID,
		Messages:            []Message{},
		ProcessedMessageIDs: []string{},
	})
	if err == nil {
		s.logger.Debug("dialogue created",
			slog.String("channel_id", channelID),
			slog.String("chat_id", chatID),
		)
		return created, nil
	}
	if errors.Is(err, ErrDuplicateKey) {
		return s.store.Get(ctx, channelID, chatID)
	}
	return Dialogue{}, err
}

// Save persists the full current state of d as a whole-document replace.
func (s *Service) Save(ctx context.Context, d Dialogue) error {
	return s.store.Update(ctx, d)
}
