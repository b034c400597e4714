package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chatgatehq/chatgate/internal/channel"
	"github.com/chatgatehq/chatgate/internal/dialogue"
)

// ChannelResolver resolves a webhook bearer secret to a channel identity.
type ChannelResolver interface {
	Resolve(ctx context.Context, secret string) (channel.Channel, error)
}

// ConversationStore loads and persists dialogues.
type ConversationStore interface {
	LoadOrCreate(ctx context.Context, channelID, chatID string) (dialogue.Dialogue, error)
	Save(ctx context.Context, d dialogue.Dialogue) error
}

// Generator produces the assistant reply for a candidate history.
type Generator interface {
	Reply(ctx context.Context, history []dialogue.Message) (string, error)
}

// Deliverer posts a generated reply to the channel callback, best-effort.
type Deliverer interface {
	Deliver(ctx context.Context, callbackURL, callbackToken, chatID, text string) bool
}

// Processor is the webhook state machine.
type Processor struct {
	channels      ChannelResolver
	conversations ConversationStore
	generator     Generator
	deliverer     Deliverer
	keys          *keyedMutex
	logger        *slog.Logger
}

// NewProcessor wires the state machine.
func NewProcessor(log *slog.Logger, channels ChannelResolver, conversations ConversationStore, generator Generator, deliverer Deliverer) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		channels:      channels,
		conversations: conversations,
		generator:     generator,
		deliverer:     deliverer,
		keys:          newKeyedMutex(),
		logger:        log.With(slog.String("service", "webhook")),
	}
}

// Process runs one inbound message through the state machine:
// authenticate, load, dedupe, classify, generate, commit, notify.
//
// Nothing is persisted before the duplicate check passes, and nothing is
// persisted when generation fails, so retries always re-enter cleanly.
// Callback delivery failure never fails the request.
func (p *Processor) Process(ctx context.Context, secret string, msg Inbound) (Result, error) {
	ch, err := p.channels.Resolve(ctx, secret)
	if err != nil {
		if errors.Is(err, channel.ErrNotFound) {
			return Result{}, ErrUnauthorized
		}
		return Result{}, err
	}

	if err := validateInbound(msg); err != nil {
		return Result{}, err
	}

	unlock := p.keys.Lock(ch.ID + "\x00" + msg.ChatID)
	defer unlock()

	conv, err := p.conversations.LoadOrCreate(ctx, ch.ID, msg.ChatID)
	if err != nil {
		return Result{}, err
	}

	if conv.Processed(msg.MessageID) {
		return Result{Status: StatusAlreadyProcessed}, nil
	}

	if msg.Sender == SenderEmployee {
		// Employee traffic is operational noise: dedupe it, but keep it out
		// of the history and away from the generator.
		conv.MarkProcessed(msg.MessageID)
		if err := p.conversations.Save(ctx, conv); err != nil {
			return Result{}, err
		}
		p.logger.Debug("employee message ignored",
			slog.String("channel_id", ch.ID),
			slog.String("chat_id", msg.ChatID),
			slog.String("message_id", msg.MessageID),
		)
		return Result{Status: StatusIgnored}, nil
	}

	userMessage := dialogue.Message{
		Role:      dialogue.RoleUser,
		Text:      msg.Text,
		MessageID: msg.MessageID,
	}
	candidate := make([]dialogue.Message, 0, len(conv.Messages)+1)
	candidate = append(candidate, conv.Messages...)
	candidate = append(candidate, userMessage)

	response, err := p.generator.Reply(ctx, candidate)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	conv.Append(userMessage, dialogue.Message{
		Role: dialogue.RoleAssistant,
		Text: response,
	})
	conv.MarkProcessed(msg.MessageID)
	if err := p.conversations.Save(ctx, conv); err != nil {
		return Result{}, err
	}

	delivered := p.deliverer.Deliver(ctx, ch.CallbackURL, ch.CallbackToken, msg.ChatID, response)
	if !delivered {
		p.logger.Warn("reply delivery failed",
			slog.String("channel_id", ch.ID),
			slog.String("chat_id", msg.ChatID),
		)
	}

	return Result{Status: StatusProcessed, Response: response, Delivered: delivered}, nil
}

func validateInbound(msg Inbound) error {
	if strings.TrimSpace(msg.MessageID) == "" {
		return fmt.Errorf("%w: message_id is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(msg.ChatID) == "" {
		return fmt.Errorf("%w: chat_id is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return fmt.Errorf("%w: text is required", ErrInvalidPayload)
	}
	switch msg.Sender {
	case SenderCustomer, SenderEmployee:
	default:
		return fmt.Errorf("%w: message_sender must be customer or employee", ErrInvalidPayload)
	}
	return nil
}
