package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go-nexus/internal/agents/nanoagent/handler"
	"go-nexus/internal/reasoning"
	"go-nexus/internal/store"
	"go-nexus/pkg/data"
	"go-nexus/pkg/logger"
	"go-nexus/pkg/memory/buffer"
	"go-nexus/pkg/memory/semantic"
	"go-nexus/pkg/messages"
	"go-nexus/pkg/models"
	"go-nexus/pkg/tools"
	"sync"
	"time"
)

const (
	DefaultAgentID     = "nexus"
	DefaultName        = "Nexus"
	DefaultDescription = "Autonomous task agent that reasons step by step and delegates to nanoagents"

	resultPrefixChars = 200
	memoryType        = "task_execution"
)

var ErrMemoryDisabled = models.NewError(models.KindValidation, "recall", errors.New("semantic memory is not configured"))

// Spawner is the nanoagent delegation surface the orchestrator needs.
type Spawner interface {
	SpawnAndRun(ctx context.Context, kind, task string, taskCtx map[string]string) (string, error)
	Kinds() []handler.KindInfo
}

type Config struct {
	AgentID     string
	Name        string
	Description string
}

type Deps struct {
	Engine       *reasoning.Engine
	Registry     *tools.Registry
	Spawner      Spawner
	Conversation *buffer.Conversation
	Memory       semantic.Store     // optional
	States       store.StateStore   // optional
	Events       messages.Publisher // optional
}

// Orchestrator owns the agent's state, conversation and task history. Execute calls are serialized.
type Orchestrator struct {
	cfg  Config
	deps Deps

	execMu sync.Mutex

	mu      sync.RWMutex
	state   models.AgentState
	history []models.TaskHistory
}

func New(cfg Config, deps Deps) *Orchestrator {
	if cfg.AgentID == "" {
		cfg.AgentID = DefaultAgentID
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Description == "" {
		cfg.Description = DefaultDescription
	}
	if deps.Conversation == nil {
		deps.Conversation = buffer.New(buffer.DefaultCapacity)
	}
	return &Orchestrator{
		cfg:     cfg,
		deps:    deps,
		state:   models.AgentState{AgentID: cfg.AgentID, Status: models.Idle, UpdatedAt: time.Now()},
		history: make([]models.TaskHistory, 0),
	}
}

// Restore loads the last checkpoint. A run that was still reasoning when the process stopped is marked failed.
func (o *Orchestrator) Restore(ctx context.Context) error {
	if o.deps.States == nil {
		return nil
	}
	st, ok, err := o.deps.States.Load(ctx, o.cfg.AgentID)
	if err != nil || !ok {
		return err
	}
	if st.Status == models.Reasoning {
		st.Status = models.Failed
		st.Error = "interrupted"
		st.UpdatedAt = time.Now()
	}
	o.mu.Lock()
	o.state = st
	o.mu.Unlock()
	o.checkpoint(ctx, st)
	return nil
}

type taskIDKey struct{}

// WithTaskID makes Execute use id for the task it runs with ctx instead of generating one.
func WithTaskID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, taskIDKey{}, id)
}

func taskID(ctx context.Context) string {
	if id, ok := ctx.Value(taskIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// Execute runs one task to completion. Failures never escape as panics: the returned string is always
// presentable, the error carries the typed cause.
func (o *Orchestrator) Execute(ctx context.Context, task string, taskCtx map[string]string) (string, error) {
	o.execMu.Lock()
	defer o.execMu.Unlock()

	t := models.Task{ID: taskID(ctx), Description: task, Context: taskCtx, CreatedAt: time.Now()}
	l := log.With().Fields(map[string]interface{}{
		logger.AgentNameField: o.cfg.AgentID,
		logger.RequestTaskID:  t.ID,
	}).Logger()
	l.Info().Str(logger.TaskField, data.Truncate(task, 80)).Msg("executing task")

	o.transition(ctx, models.AgentState{Status: models.Reasoning, CurrentTaskID: t.ID})
	o.publish(messages.TaskStarted{TaskID: t.ID, Task: task})
	o.deps.Conversation.Add(models.User, task)

	result, err := o.reason(ctx, t)
	steps := o.deps.Engine.Trace().Len()
	if err != nil {
		l.Error().Err(err).Msg("task failed")
		o.transition(ctx, models.AgentState{Status: models.Failed, CurrentTaskID: t.ID, Error: err.Error()})
		o.remember(ctx, t, err.Error(), false)
		o.appendHistory(t, err.Error(), steps, false)
		o.publish(messages.TaskFinished{TaskID: t.ID, Success: false, Result: err.Error()})
		return "Error executing task: " + err.Error(), err
	}

	o.deps.Conversation.Add(models.Assistant, result)
	o.remember(ctx, t, result, true)
	o.transition(ctx, models.AgentState{
		Status:           models.Completed,
		CurrentTaskID:    t.ID,
		LastResultPrefix: data.Truncate(result, resultPrefixChars),
	})
	o.appendHistory(t, result, steps, true)
	o.publish(messages.TaskFinished{TaskID: t.ID, Success: true, Result: result})
	l.Info().Int("steps", steps).Msg("task completed")
	return result, nil
}

func (o *Orchestrator) reason(ctx context.Context, t models.Task) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = models.NewError(models.KindFatal, "execute", fmt.Errorf("panic: %v", r))
		}
	}()
	return o.deps.Engine.Reason(ctx, t.Description, reasoning.FormatContext(t.Context))
}

// SpawnNanoagent delegates to the spawner without touching conversation, memory or state.
func (o *Orchestrator) SpawnNanoagent(ctx context.Context, kind, task string, taskCtx map[string]string) (string, error) {
	if o.deps.Spawner == nil {
		return "", models.NewError(models.KindValidation, "spawn", errors.New("nanoagents are not configured"))
	}
	return o.deps.Spawner.SpawnAndRun(ctx, kind, task, taskCtx)
}

func (o *Orchestrator) NanoagentKinds() []handler.KindInfo {
	if o.deps.Spawner == nil {
		return nil
	}
	return o.deps.Spawner.Kinds()
}

func (o *Orchestrator) Status() models.Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	var names []string
	if o.deps.Registry != nil {
		names = o.deps.Registry.List()
	}
	completed := 0
	for _, h := range o.history {
		if h.Success {
			completed++
		}
	}
	return models.Status{
		AgentID:        o.cfg.AgentID,
		Name:           o.cfg.Name,
		Description:    o.cfg.Description,
		State:          o.state,
		TasksCompleted: completed,
		Tools:          names,
	}
}

// TaskHistory returns the most recent entries, oldest first. A limit <= 0 returns everything.
func (o *Orchestrator) TaskHistory(limit int) []models.TaskHistory {
	o.mu.RLock()
	defer o.mu.RUnlock()
	h := o.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]models.TaskHistory, len(h))
	copy(out, h)
	return out
}

func (o *Orchestrator) ReasoningSummary() string {
	return o.deps.Engine.Summary()
}

func (o *Orchestrator) ReasoningTrace() models.Trace {
	return o.deps.Engine.Trace()
}

func (o *Orchestrator) Conversation() []models.Message {
	return o.deps.Conversation.Messages()
}

func (o *Orchestrator) ConversationSummary() string {
	return o.deps.Conversation.Summary()
}

func (o *Orchestrator) ClearConversation() {
	o.deps.Conversation.Clear()
}

func (o *Orchestrator) RecallMemory(ctx context.Context, query string, k int) ([]semantic.Record, error) {
	if o.deps.Memory == nil {
		return nil, ErrMemoryDisabled
	}
	return o.deps.Memory.Query(ctx, query, k, nil)
}

func (o *Orchestrator) transition(ctx context.Context, st models.AgentState) {
	st.AgentID = o.cfg.AgentID
	st.UpdatedAt = time.Now()
	o.mu.Lock()
	o.state = st
	o.mu.Unlock()
	o.checkpoint(ctx, st)
}

func (o *Orchestrator) checkpoint(ctx context.Context, st models.AgentState) {
	if o.deps.States == nil {
		return
	}
	if err := o.deps.States.Save(ctx, st); err != nil {
		log.Warn().Err(err).Str(logger.AgentNameField, o.cfg.AgentID).Msg("unable to checkpoint agent state")
	}
}

func (o *Orchestrator) remember(ctx context.Context, t models.Task, result string, success bool) {
	if o.deps.Memory == nil {
		return
	}
	_, err := o.deps.Memory.Store(ctx, fmt.Sprintf("Task: %s\nResult: %s", t.Description, result), map[string]any{
		"task_id": t.ID,
		"type":    memoryType,
		"success": success,
	})
	if err != nil {
		log.Warn().Err(err).Str(logger.RequestTaskID, t.ID).Msg("unable to store task in semantic memory")
	}
}

func (o *Orchestrator) appendHistory(t models.Task, result string, steps int, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.history = append(o.history, models.TaskHistory{
		TaskID:         t.ID,
		Task:           t.Description,
		Result:         result,
		ReasoningSteps: steps,
		Success:        success,
		CompletedAt:    time.Now(),
	})
}

func (o *Orchestrator) publish(evt interface{}) {
	if o.deps.Events != nil {
		o.deps.Events.Publish(evt)
	}
}
