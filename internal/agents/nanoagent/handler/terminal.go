package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/chains"
	langChainPrompts "github.com/tmc/langchaingo/prompts"
	"go-nexus/pkg/data"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/logger"
	"go-nexus/pkg/models"
	"go-nexus/pkg/prompts"
	"go-nexus/pkg/tools"
)

const DefaultTerminalAttempts = 3

var (
	TerminalDiagnoseErrorPrompt = langChainPrompts.NewPromptTemplate(prompts.TerminalDiagnoseError, []string{"PreviousAttempts", "Task"})
)

type attempt struct {
	Command string `json:"command"`
	Error   string `json:"error"`
	Reason  string `json:"reason"`
}

type diagnose struct {
	Command string `json:"command"`
	Reason  string `json:"reason"`
}

// Terminal runs a command through the shell tool and asks the model for a new command after each failure.
type Terminal struct {
	chain       chains.Chain
	registry    *tools.Registry
	maxAttempts int
}

func NewTerminal(svc llm.Service, registry *tools.Registry, maxAttempts int) *Terminal {
	if maxAttempts <= 0 {
		maxAttempts = DefaultTerminalAttempts
	}
	return &Terminal{
		chain:       chains.NewLLMChain(llm.AsModel(svc), TerminalDiagnoseErrorPrompt),
		registry:    registry,
		maxAttempts: maxAttempts,
	}
}

// Handle uses Context["command"] as the first command when given, otherwise asks the model for one.
func (h *Terminal) Handle(ctx context.Context, req Request) models.HandlerResult {
	l := log.With().Str(logger.AgentNameField, "terminal").Logger()
	previous := make([]attempt, 0, h.maxAttempts)
	command, reason := req.Context["command"], "requested"

	var question string
	for i := 0; i < h.maxAttempts; i++ {
		if command == "" {
			q, d, err := h.diagnoseNextAttempt(ctx, req.Task, previous)
			if err != nil {
				return models.HandlerResult{Question: q, Error: err}
			}
			question, command, reason = q, d.Command, d.Reason
			l.Info().Msgf("new solution determined, I should run the command: %s because %s...", command, reason)
		}

		res := h.registry.Execute(ctx, "shell", map[string]any{"command": command})
		if res.Success {
			out, _ := res.Output.(map[string]any)
			return models.HandlerResult{Question: question, Answer: fmt.Sprint(out["stdout"])}
		}

		l.Warn().Str("command", command).Msg("command failed")
		previous = append(previous, attempt{Command: command, Error: res.Error, Reason: reason})
		command = ""
	}
	return models.HandlerResult{Question: question, Error: errors.New("maxAttempts exceeded for terminal agent")}
}

func (h *Terminal) diagnoseNextAttempt(ctx context.Context, task string, previous []attempt) (string, diagnose, error) {
	b, err := json.Marshal(previous)
	if err != nil {
		return "", diagnose{}, fmt.Errorf("marshal: %w", err)
	}
	inputs := map[string]any{"Task": task, "PreviousAttempts": string(b)}

	question, err := TerminalDiagnoseErrorPrompt.Format(inputs)
	if err != nil {
		return "", diagnose{}, fmt.Errorf("format: %w", err)
	}
	completion, err := chains.Call(ctx, h.chain, inputs)
	if err != nil {
		return question, diagnose{}, fmt.Errorf("call: %w", err)
	}

	text, _ := completion["text"].(string)
	match, err := data.SanitizeAnswer(text)
	if err != nil {
		return question, diagnose{}, err
	}
	var d diagnose
	if err := json.Unmarshal([]byte(match), &d); err != nil {
		return question, diagnose{}, fmt.Errorf("unmarshal: %w", err)
	}
	if d.Command == "" {
		return question, diagnose{}, errors.New("model proposed an empty command")
	}
	return question, d, nil
}
