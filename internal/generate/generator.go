// Package generate produces assistant replies from a conversation history.
package generate

import (
	"context"

	"github.com/chatgatehq/chatgate/internal/dialogue"
)

// Generator produces a reply for the given history. The last entry is the
// inbound user message. Implementations may take seconds; they must honor ctx.
type Generator interface {
	Reply(ctx context.Context, history []dialogue.Message) (string, error)
}

// StaticGenerator returns a fixed reply. It is the default when no provider
// is configured and the deterministic double in tests.
type StaticGenerator struct {
	Text string
}

// NewStaticGenerator creates a StaticGenerator with the given canned text.
func NewStaticGenerator(text string) *StaticGenerator {
	if text == "" {
		text = "Thanks for your message, an agent will reply shortly."
	}
	return &StaticGenerator{Text: text}
}

func (g *StaticGenerator) Reply(ctx context.Context, history []dialogue.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return g.Text, nil
}
