package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/aliskhannn/times-table-bot/internal/domain/entities"
)

var ErrEmptyResponse = errors.New("chat completion returned no choices")

// Completer calls the OpenAI chat completions API.
// A client is built per call because the API key may differ per user.
type Completer struct {
	model string
	opts  []option.RequestOption
}

// NewCompleter creates a Completer for model. Extra options apply to every request.
func NewCompleter(model string, opts ...option.RequestOption) *Completer {
	return &Completer{model: model, opts: opts}
}

// Complete sends the transcript and returns the first choice.
func (c *Completer) Complete(ctx context.Context, apiKey string, messages []entities.ChatMessage) (string, error) {
	opts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, c.opts...)
	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: toParams(messages),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

func toParams(messages []entities.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	params := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case entities.RoleSystem:
			params = append(params, openai.SystemMessage(m.Text))
		case entities.RoleAssistant:
			params = append(params, openai.AssistantMessage(m.Text))
		default:
			params = append(params, openai.UserMessage(m.Text))
		}
	}
	return params
}
