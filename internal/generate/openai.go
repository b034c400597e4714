package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/chatgatehq/chatgate/internal/dialogue"
)

const defaultModel = "gpt-4o-mini"

// OpenAIGenerator calls an OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewOpenAIGenerator creates a generator against baseURL (empty for the
// default OpenAI endpoint) using apiKey and model.
func NewOpenAIGenerator(log *slog.Logger, baseURL, apiKey, model string, timeout time.Duration) *OpenAIGenerator {
	if log == nil {
		log = slog.Default()
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	client := openai.NewClient(opts...)
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &OpenAIGenerator{
		client: &client,
		model:  model,
		logger: log.With(slog.String("service", "generate")),
	}
}

func (g *OpenAIGenerator) Reply(ctx context.Context, history []dialogue.Message) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case dialogue.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Text))
		case dialogue.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Text))
		default:
			messages = append(messages, openai.UserMessage(msg.Text))
		}
	}

	started := time.Now()
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	g.logger.Debug("reply generated",
		slog.Int("history_len", len(history)),
		slog.Duration("latency", time.Since(started)),
	)
	return completion.Choices[0].Message.Content, nil
}
