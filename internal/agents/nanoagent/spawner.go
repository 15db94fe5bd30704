package nanoagent

import (
	"context"
	"errors"
	"fmt"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"
	nanoactor "go-nexus/internal/agents/nanoagent/actor"
	"go-nexus/internal/agents/nanoagent/handler"
	"go-nexus/pkg/logger"
	"go-nexus/pkg/messages"
	"go-nexus/pkg/models"
	"golang.org/x/sync/errgroup"
	"time"
)

const DefaultTimeout = 30 * time.Second

// Spawner runs each nanoagent in its own short-lived actor, bounded by a timeout.
type Spawner struct {
	root    *actor.RootContext
	kinds   *handler.Kinds
	timeout time.Duration
}

func NewSpawner(root *actor.RootContext, kinds *handler.Kinds, timeout time.Duration) *Spawner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Spawner{root: root, kinds: kinds, timeout: timeout}
}

func (s *Spawner) Kinds() []handler.KindInfo {
	return s.kinds.List()
}

// SpawnAndRun never blocks past the timeout, or past ctx's deadline when that is sooner.
func (s *Spawner) SpawnAndRun(ctx context.Context, kind, task string, taskCtx map[string]string) (string, error) {
	h, ok := s.kinds.New(kind)
	if !ok {
		return "", models.NewError(models.KindValidation, "spawn", fmt.Errorf("unknown nanoagent type: %s", kind))
	}

	timeout := s.timeout
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	if timeout <= 0 {
		return "", models.NewError(models.KindToolExecution, "spawn", context.DeadlineExceeded)
	}

	l := log.With().Str(logger.KindField, kind).Logger()
	pid := s.root.Spawn(actor.PropsFromProducer(nanoactor.New(kind, h)))
	l.Debug().Str(logger.ActorIDField, pid.GetId()).Msg("nanoagent spawned")

	future := s.root.RequestFuture(pid, messages.RunNanoagent{
		Kind:     kind,
		Task:     task,
		Context:  taskCtx,
		Deadline: time.Now().Add(timeout),
	}, timeout)
	res, err := future.Result()
	if err != nil {
		s.root.Stop(pid)
		if errors.Is(err, actor.ErrTimeout) {
			l.Warn().Dur("timeout", timeout).Msg("nanoagent timed out")
			return "", models.NewError(models.KindToolExecution, "spawn", fmt.Errorf("nanoagent %s timed out after %s", kind, timeout))
		}
		return "", models.NewError(models.KindToolExecution, "spawn", err)
	}

	out, ok := res.(messages.NanoagentResult)
	if !ok {
		return "", models.NewError(models.KindFatal, "spawn", fmt.Errorf("unexpected response %T", res))
	}
	if out.Err != nil {
		return "", models.NewError(models.KindToolExecution, "spawn", fmt.Errorf("nanoagent %s: %w", kind, out.Err))
	}
	return out.Result, nil
}

type BatchRequest struct {
	Kind    string            `json:"type"`
	Task    string            `json:"task"`
	Context map[string]string `json:"context,omitempty"`
}

type BatchResult struct {
	BatchRequest
	Result string `json:"result,omitempty"`
	Err    error  `json:"-"`
}

// RunBatch runs requests concurrently, at most limit at a time. One failure does not cancel the others.
func (s *Spawner) RunBatch(ctx context.Context, reqs []BatchRequest, limit int) []BatchResult {
	results := make([]BatchResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, r := range reqs {
		g.Go(func() error {
			out, err := s.SpawnAndRun(gctx, r.Kind, r.Task, r.Context)
			results[i] = BatchResult{BatchRequest: r, Result: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
