package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/tmc/langchaingo/chains"
	langChainPrompts "github.com/tmc/langchaingo/prompts"
	"go-nexus/internal/reasoning"
	"go-nexus/pkg/data"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/models"
	"go-nexus/pkg/prompts"
	"go-nexus/pkg/template"
	"strings"
)

var (
	NewActionPrompt = langChainPrompts.NewPromptTemplate(prompts.PlannerNewAction, []string{"Goal", "Context"})
)

type Planner struct {
	chain chains.Chain
}

func NewPlanner(svc llm.Service) *Planner {
	return &Planner{chain: chains.NewLLMChain(llm.AsModel(svc), NewActionPrompt)}
}

type planInput struct {
	Goal    string
	Context string
}

func (h *Planner) Handle(ctx context.Context, req Request) models.HandlerResult {
	in := planInput{Goal: req.Task, Context: reasoning.FormatContext(req.Context)}
	completion, err := chains.Call(ctx, h.chain, map[string]any{"Goal": in.Goal, "Context": in.Context})
	if err != nil {
		return models.HandlerResult{Error: fmt.Errorf("call: %w", err)}
	}

	question, err := template.Parse(prompts.PlannerNewAction, in)
	if err != nil {
		return models.HandlerResult{Error: fmt.Errorf("execute: %w", err)}
	}

	text, _ := completion["text"].(string)
	tasks, err := parsePlan(text)
	if err != nil {
		return models.HandlerResult{Question: question, Answer: text, Error: err}
	}
	if len(tasks) == 0 {
		return models.HandlerResult{Question: question, Answer: text, Error: fmt.Errorf("unable to build a plan from the goal")}
	}

	lines := make([]string, len(tasks))
	for i, t := range tasks {
		lines[i] = fmt.Sprintf("%d. %s", i+1, t)
	}
	return models.HandlerResult{Question: question, Answer: strings.Join(lines, "\n")}
}

func parsePlan(answer string) ([]string, error) {
	match, err := data.SanitizeAnswer(answer)
	if err != nil {
		return nil, err
	}
	res := map[string][]string{}
	if err := json.Unmarshal([]byte(match), &res); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	return res["tasks"], nil
}
