package llm

import (
	"context"
	"errors"
	"fmt"
	"github.com/tmc/langchaingo/llms"
	"go-nexus/pkg/models"
)

// LangChain adapts any langchaingo model.
type LangChain struct {
	model    llms.Model
	defaults Options
}

func NewLangChain(model llms.Model, defaults ...Option) *LangChain {
	return &LangChain{model: model, defaults: Options{}.apply(defaults)}
}

func (l *LangChain) Complete(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	o := l.defaults.apply(opts)

	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatRole(m.Role), m.Content))
	}

	var callOpts []llms.CallOption
	if o.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(*o.Temperature))
	}
	if o.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(o.MaxTokens))
	}

	resp, err := l.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", serviceErr("complete", fmt.Errorf("call: %w", err))
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", serviceErr("complete", errors.New("empty response"))
	}
	return resp.Choices[0].Content, nil
}

func chatRole(r models.Role) llms.ChatMessageType {
	switch r {
	case models.System:
		return llms.ChatMessageTypeSystem
	case models.Assistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
