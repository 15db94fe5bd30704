package app

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/asynkron/protoactor-go/actor"
	"github.com/rs/zerolog/log"
	"go-nexus/internal/agents/nanoagent"
	"go-nexus/internal/agents/nanoagent/handler"
	"go-nexus/internal/agents/orchestrator"
	orchestratorActor "go-nexus/internal/agents/orchestrator/actor"
	"go-nexus/internal/config"
	"go-nexus/internal/reasoning"
	"go-nexus/internal/store"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/memory/buffer"
	"go-nexus/pkg/memory/semantic"
	"go-nexus/pkg/tools"
	"go-nexus/pkg/tools/builtin"
	"net/http"
)

// App holds every long-lived component. Nothing here is global.
type App struct {
	Config       *config.Config
	System       *actor.ActorSystem
	Registry     *tools.Registry
	Memory       semantic.Memory
	Engine       *reasoning.Engine
	Spawner      *nanoagent.Spawner
	Orchestrator *orchestrator.Orchestrator
	// OrchestratorPID serializes tasks submitted by the front ends.
	OrchestratorPID *actor.PID

	db *sql.DB
}

type Option func(*options)

type options struct {
	llm      llm.Service
	strategy semantic.Strategy
}

// WithLLM replaces the configured provider.
func WithLLM(svc llm.Service) Option {
	return func(o *options) {
		o.llm = svc
	}
}

// WithStrategy replaces the configured similarity strategy.
func WithStrategy(s semantic.Strategy) Option {
	return func(o *options) {
		o.strategy = s
	}
}

func Build(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	svc := o.llm
	if svc == nil {
		var err error
		svc, err = llm.New(cfg.LLMConfig())
		if err != nil {
			return nil, fmt.Errorf("llm: %w", err)
		}
	}

	strategy := o.strategy
	if strategy == nil {
		var err error
		strategy, err = NewStrategy(cfg)
		if err != nil {
			return nil, err
		}
	}

	mem, states, db, err := OpenMemory(ctx, cfg, strategy)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, Memory: mem, db: db}

	a.Registry = NewRegistry(cfg, a.Memory)

	a.System = actor.NewActorSystem()
	budget := cfg.ObservationBudget()
	a.Engine = reasoning.New(svc, a.Registry, reasoning.Config{
		MaxSteps: cfg.Agent.MaxSteps,
		Budget:   budget,
		Name:     cfg.Agent.ID,
	}, reasoning.WithPublisher(a.System.EventStream))

	kinds := handler.Defaults(handler.Deps{
		LLM:        svc,
		Registry:   a.Registry,
		Memory:     a.Memory,
		Budget:     budget,
		ReactSteps: cfg.Agent.NanoagentSteps,
	})
	a.Spawner = nanoagent.NewSpawner(a.System.Root, kinds, cfg.Agent.NanoagentTimeout)

	a.Orchestrator = orchestrator.New(orchestrator.Config{
		AgentID: cfg.Agent.ID,
		Name:    cfg.Agent.Name,
	}, orchestrator.Deps{
		Engine:       a.Engine,
		Registry:     a.Registry,
		Spawner:      a.Spawner,
		Conversation: buffer.New(cfg.Agent.ConversationCapacity),
		Memory:       a.Memory,
		States:       states,
		Events:       a.System.EventStream,
	})
	if err := a.Orchestrator.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("unable to restore agent state")
	}
	a.OrchestratorPID = a.System.Root.Spawn(actor.PropsFromProducer(orchestratorActor.New(a.Orchestrator)))

	log.Info().
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Str("similarity", strategy.Name()).
		Int("tools", len(a.Registry.List())).
		Msg("agent ready")
	return a, nil
}

// NewRegistry registers the built-in tools. memory_search is left out when mem is nil.
func NewRegistry(cfg *config.Config, mem semantic.Store) *tools.Registry {
	r := tools.NewRegistry()
	builtin.Register(r, builtin.Options{
		FileRoot:   cfg.Tools.FileRoot,
		ShellDir:   cfg.Tools.ShellDir,
		HTTPClient: &http.Client{Timeout: cfg.Tools.HTTPTimeout},
		Memory:     mem,
	})
	return r
}

// OpenMemory opens the semantic store and the checkpoint store. db is nil when memory persistence is disabled.
func OpenMemory(ctx context.Context, cfg *config.Config, strategy semantic.Strategy) (semantic.Memory, store.StateStore, *sql.DB, error) {
	if !cfg.Memory.Enabled {
		return semantic.NewInMemory(strategy), store.NewMemoryStates(), nil, nil
	}
	db, err := store.Open(ctx, cfg.Memory.DataDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("store: %w", err)
	}
	mem, err := semantic.NewSQLite(ctx, db, cfg.Memory.Collection, strategy)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	states, err := store.NewSQLiteStates(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}
	return mem, states, db, nil
}

// NewStrategy picks the similarity strategy named by memory.similarity.
func NewStrategy(cfg *config.Config) (semantic.Strategy, error) {
	if cfg.Memory.Similarity != "embedding" {
		return semantic.Keyword{}, nil
	}
	e, err := llm.NewEmbedder(cfg.LLMConfig())
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	return semantic.NewEmbedding(e), nil
}

// Close stops the actor system and releases the database.
func (a *App) Close() error {
	if a.System != nil {
		a.System.Shutdown()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}
