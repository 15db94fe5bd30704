package handler

import (
	"context"
	"fmt"
	"go-nexus/internal/reasoning"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/models"
	"go-nexus/pkg/prompts"
	"go-nexus/pkg/template"
	"strings"
)

const summarizeTemperature = 0.3

type Summarizer struct {
	llm llm.Service
}

func NewSummarizer(svc llm.Service) *Summarizer {
	return &Summarizer{llm: svc}
}

func (h *Summarizer) Handle(ctx context.Context, req Request) models.HandlerResult {
	question, err := template.Parse(prompts.Summarize, map[string]any{
		"Task":    req.Task,
		"Context": reasoning.FormatContext(req.Context),
	})
	if err != nil {
		return models.HandlerResult{Error: fmt.Errorf("execute: %w", err)}
	}

	answer, err := h.llm.Complete(ctx, []llm.Message{{Role: models.User, Content: question}},
		llm.WithTemperature(summarizeTemperature))
	if err != nil {
		return models.HandlerResult{Question: question, Error: fmt.Errorf("call: %w", err)}
	}
	return models.HandlerResult{Question: question, Answer: strings.TrimSpace(answer)}
}
