package tools

import (
	"context"
	"fmt"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"
	"go-nexus/pkg/logger"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

// Runner wraps a Tool so that no invocation can fault past it.
type Runner struct {
	tool Tool

	count  atomic.Int64
	mu     sync.Mutex
	lastID string
}

func NewRunner(tool Tool) *Runner {
	return &Runner{tool: tool}
}

func (r *Runner) Tool() Tool {
	return r.tool
}

func (r *Runner) ExecutionCount() int64 {
	return r.count.Load()
}

func (r *Runner) LastExecutionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastID
}

// Run validates, executes and converts every failure, panics included, into a failed Result.
func (r *Runner) Run(ctx context.Context, args map[string]any) Result {
	desc := r.tool.Describe()
	id := r.begin(desc.Name)
	l := log.With().Str(logger.ToolField, desc.Name).Str(logger.ExecutionIDField, id).Logger()
	start := time.Now()

	if err := r.tool.Validate(args); err != nil {
		l.Debug().Err(err).Msg("validation failed")
		return stamp(Result{Error: err.Error()}, id)
	}

	res := r.execute(ctx, WithDefaults(desc, args))
	l.Debug().Bool("success", res.Success).Dur("took", time.Since(start)).Msg("tool executed")
	return stamp(res, id)
}

func (r *Runner) execute(ctx context.Context, args map[string]any) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			log.Error().Str(logger.ToolField, r.tool.Describe().Name).
				Str("stack", string(debug.Stack())).Msgf("tool panicked: %v", p)
			res = Result{Error: fmt.Sprintf("Tool execution error: %v", p)}
		}
	}()

	res, err := r.tool.Execute(ctx, args)
	if err != nil {
		return Result{Error: fmt.Sprintf("Tool execution error: %v", err), Metadata: res.Metadata}
	}
	return res
}

func (r *Runner) begin(name string) string {
	suffix, err := gonanoid.New(10)
	if err != nil {
		suffix = fmt.Sprint(time.Now().UnixNano())
	}
	id := name + "_" + suffix

	r.count.Add(1)
	r.mu.Lock()
	r.lastID = id
	r.mu.Unlock()
	return id
}

func stamp(res Result, id string) Result {
	meta := make(map[string]any, len(res.Metadata)+1)
	for k, v := range res.Metadata {
		meta[k] = v
	}
	meta["execution_id"] = id
	res.Metadata = meta
	return res
}
