package reasoning

import (
	"context"
	"fmt"
	"github.com/rs/zerolog/log"
	langChainPrompts "github.com/tmc/langchaingo/prompts"
	"go-nexus/pkg/data"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/logger"
	"go-nexus/pkg/messages"
	"go-nexus/pkg/models"
	"go-nexus/pkg/prompts"
	"go-nexus/pkg/tools"
	"strings"
	"sync"
)

type State string

const (
	Started           State = "STARTED"
	Thinking          State = "THINKING"
	Acting            State = "ACTING"
	Observing         State = "OBSERVING"
	Answered          State = "ANSWERED"
	StepLimitExceeded State = "STEP_LIMIT_EXCEEDED"
	Fatal             State = "FATAL"
)

const (
	DefaultMaxSteps = 15
	summarySteps    = 5
)

var (
	SystemPrompt = langChainPrompts.NewPromptTemplate(prompts.ReActSystem, []string{"Tools"})
	TaskPrompt   = langChainPrompts.NewPromptTemplate(prompts.ReActTask, []string{"Task", "Context", "Scratchpad"})
)

type Config struct {
	MaxSteps int
	Budget   data.Budget // applied to every observation
	Name     string      // shows up in logs
}

type Option func(*Engine)

func WithPublisher(p messages.Publisher) Option {
	return func(e *Engine) {
		e.events = p
	}
}

// Engine runs the think/act/observe loop. One Reason call at a time, the trace of the
// last call stays readable until the next one starts.
type Engine struct {
	llm      llm.Service
	registry *tools.Registry
	cfg      Config
	events   messages.Publisher

	mu    sync.RWMutex
	state State
	trace models.Trace
}

func New(svc llm.Service, registry *tools.Registry, cfg Config, opts ...Option) *Engine {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.Name == "" {
		cfg.Name = "reasoning"
	}
	e := &Engine{
		llm:      svc,
		registry: registry,
		cfg:      cfg,
		state:    Started,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reason returns the final answer, or a synthesized one when the step budget runs out.
// An error means the model service failed and the run ended in FATAL.
func (e *Engine) Reason(ctx context.Context, task, taskContext string) (string, error) {
	e.reset(task)
	l := log.With().Str(logger.AgentNameField, e.cfg.Name).Str(logger.TaskField, data.Truncate(task, 80)).Logger()

	system, err := SystemPrompt.Format(map[string]any{"Tools": FormatTools(e.registry.Descriptors())})
	if err != nil {
		return "", e.fatal(fmt.Errorf("system prompt: %w", err))
	}

	for i := 0; i < e.cfg.MaxSteps; i++ {
		e.setState(Thinking)
		user, err := TaskPrompt.Format(map[string]any{
			"Task":       task,
			"Context":    taskContext,
			"Scratchpad": FormatTrace(e.Trace().Steps),
		})
		if err != nil {
			return "", e.fatal(fmt.Errorf("task prompt: %w", err))
		}

		resp, err := e.llm.Complete(ctx, []llm.Message{
			{Role: models.System, Content: system},
			{Role: models.User, Content: user},
		})
		if err != nil {
			l.Error().Err(err).Int(logger.StepField, i).Msg("model service failed")
			return "", e.fatal(err)
		}

		d, perr := Parse(resp)
		step := models.Step{Index: i, Thought: d.Thought}
		if d.Final != nil {
			step.IsFinal = true
			e.record(step)
			e.finish(Answered)
			l.Info().Int(logger.StepField, i).Msg("final answer")
			return *d.Final, nil
		}
		if perr != nil || d.Action == nil {
			obs := prompts.FormatReminder
			if perr != nil && perr.Error() != ErrMalformed.Error() {
				obs += " (" + perr.Error() + ")"
			}
			l.Warn().Int(logger.StepField, i).Msg("malformed response")
			step.Observation = &obs
			e.record(step)
			continue
		}

		step.Action = d.Action
		e.setState(Acting)
		l.Info().Int(logger.StepField, i).Str(logger.ToolField, d.Action.Tool).Msg("invoking tool")
		res := e.registry.Execute(ctx, d.Action.Tool, d.Action.Arguments)

		e.setState(Observing)
		obs := FormatObservation(res, e.cfg.Budget)
		step.Observation = &obs
		e.record(step)
	}

	e.finish(StepLimitExceeded)
	l.Warn().Int("max_steps", e.cfg.MaxSteps).Msg("step limit exceeded")
	return e.synthesize(), nil
}

func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Trace returns a copy of the current or last run.
func (e *Engine) Trace() models.Trace {
	e.mu.RLock()
	defer e.mu.RUnlock()
	steps := make([]models.Step, len(e.trace.Steps))
	copy(steps, e.trace.Steps)
	return models.Trace{Task: e.trace.Task, Steps: steps}
}

// Summary renders the last five steps of the trace.
func (e *Engine) Summary() string {
	t := e.Trace()
	if len(t.Steps) == 0 {
		return "No reasoning steps recorded"
	}
	steps := t.Steps
	if len(steps) > summarySteps {
		steps = steps[len(steps)-summarySteps:]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Task: %s (%d steps, %s)", t.Task, len(t.Steps), e.State())
	for _, s := range steps {
		fmt.Fprintf(&sb, "\nStep %d: %s", s.Index+1, orDash(s.Thought))
		if s.Action != nil {
			fmt.Fprintf(&sb, "\n  Action: %s", s.Action.Tool)
		}
		if s.Observation != nil {
			fmt.Fprintf(&sb, "\n  Observation: %s", data.Truncate(*s.Observation, 200))
		}
		if s.IsFinal {
			sb.WriteString("\n  Final answer")
		}
	}
	return sb.String()
}

func (e *Engine) reset(task string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Started
	e.trace = models.Trace{Task: task, Steps: []models.Step{}}
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

func (e *Engine) record(step models.Step) {
	e.mu.Lock()
	e.trace.Steps = append(e.trace.Steps, step)
	task := e.trace.Task
	e.mu.Unlock()

	if e.events != nil {
		e.events.Publish(messages.StepRecorded{Task: task, Step: step})
	}
}

func (e *Engine) finish(s State) {
	e.mu.Lock()
	e.state = s
	task, n := e.trace.Task, len(e.trace.Steps)
	e.mu.Unlock()

	if e.events != nil {
		e.events.Publish(messages.ReasoningFinished{Task: task, Outcome: string(s), Steps: n})
	}
}

func (e *Engine) fatal(err error) error {
	e.finish(Fatal)
	return models.NewError(models.KindFatal, "reason", err)
}

func (e *Engine) synthesize() string {
	last, ok := e.Trace().Last()
	if !ok {
		return fmt.Sprintf("Reached the maximum of %d reasoning steps without a final answer.", e.cfg.MaxSteps)
	}
	if last.Observation != nil {
		return fmt.Sprintf("Reached the maximum of %d reasoning steps without a final answer. Last observation: %s",
			e.cfg.MaxSteps, *last.Observation)
	}
	return fmt.Sprintf("Reached the maximum of %d reasoning steps without a final answer. Last thought: %s",
		e.cfg.MaxSteps, last.Thought)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
