package llm

import (
	"context"
	"github.com/tmc/langchaingo/llms"
	"go-nexus/pkg/models"
	"strings"
)

// Model exposes a Service as a langchaingo model so chains and prompts can run on any provider.
type Model struct {
	svc Service
}

func AsModel(svc Service) *Model {
	return &Model{svc: svc}
}

func (m *Model) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	var co llms.CallOptions
	for _, opt := range options {
		opt(&co)
	}
	var opts []Option
	if co.Temperature > 0 {
		opts = append(opts, WithTemperature(co.Temperature))
	}
	if co.MaxTokens > 0 {
		opts = append(opts, WithMaxTokens(co.MaxTokens))
	}

	msgs := make([]Message, 0, len(messages))
	for _, mc := range messages {
		var sb strings.Builder
		for _, part := range mc.Parts {
			if t, ok := part.(llms.TextContent); ok {
				sb.WriteString(t.Text)
			}
		}
		msgs = append(msgs, Message{Role: role(mc.Role), Content: sb.String()})
	}

	out, err := m.svc.Complete(ctx, msgs, opts...)
	if err != nil {
		return nil, err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: out}}}, nil
}

func (m *Model) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func role(t llms.ChatMessageType) models.Role {
	switch t {
	case llms.ChatMessageTypeSystem:
		return models.System
	case llms.ChatMessageTypeAI:
		return models.Assistant
	default:
		return models.User
	}
}
