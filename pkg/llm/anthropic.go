package llm

import (
	"context"
	"errors"
	"fmt"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go-nexus/pkg/models"
	"strings"
)

const anthropicMaxTokens = 4096

type Anthropic struct {
	client   anthropic.Client
	model    string
	defaults Options
}

// NewAnthropic disables the SDK's own retries, Retry owns that policy.
func NewAnthropic(apiKey, model string, defaults ...Option) *Anthropic {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &Anthropic{
		client:   anthropic.NewClient(opts...),
		model:    model,
		defaults: Options{}.apply(defaults),
	}
}

func (a *Anthropic) Complete(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	o := a.defaults.apply(opts)
	maxTokens := o.MaxTokens
	if maxTokens <= 0 {
		maxTokens = anthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
	}
	var system []string
	for _, m := range messages {
		switch m.Role {
		case models.System:
			system = append(system, m.Content)
		case models.Assistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	if o.Temperature != nil {
		params.Temperature = anthropic.Float(*o.Temperature)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", serviceErr("complete", fmt.Errorf("anthropic: %w", err))
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(b.Text)
		}
	}
	if sb.Len() == 0 {
		return "", serviceErr("complete", errors.New("anthropic: no text in response"))
	}
	return sb.String(), nil
}
