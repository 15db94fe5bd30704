package handler

import (
	"context"
	"go-nexus/internal/reasoning"
	"go-nexus/pkg/data"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/models"
	"go-nexus/pkg/tools"
)

const DefaultReactSteps = 3

// React is a reasoning loop with a small step budget. Each instance owns its engine.
type React struct {
	engine *reasoning.Engine
}

func NewReact(svc llm.Service, registry *tools.Registry, steps int, budget data.Budget) *React {
	if steps <= 0 {
		steps = DefaultReactSteps
	}
	return &React{engine: reasoning.New(svc, registry, reasoning.Config{
		MaxSteps: steps,
		Budget:   budget,
		Name:     "nanoagent.react",
	})}
}

func (h *React) Handle(ctx context.Context, req Request) models.HandlerResult {
	answer, err := h.engine.Reason(ctx, req.Task, reasoning.FormatContext(req.Context))
	if err != nil {
		return models.HandlerResult{Question: req.Task, Error: err}
	}
	return models.HandlerResult{Question: req.Task, Answer: answer}
}
