package handler

import (
	"context"
	"go-nexus/pkg/data"
	"go-nexus/pkg/llm"
	"go-nexus/pkg/memory/semantic"
	"go-nexus/pkg/models"
	"go-nexus/pkg/tools"
	"sort"
	"sync"
)

type Request struct {
	Task    string
	Context map[string]string
}

// Handler runs one nanoagent task. A fresh Handler is built for every run.
type Handler interface {
	Handle(ctx context.Context, req Request) models.HandlerResult
}

type Factory func() Handler

type KindInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type kind struct {
	description string
	factory     Factory
}

// Kinds maps nanoagent type names to handler factories.
type Kinds struct {
	mu    sync.RWMutex
	kinds map[string]kind
}

func NewKinds() *Kinds {
	return &Kinds{kinds: map[string]kind{}}
}

func (k *Kinds) Register(name, description string, f Factory) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.kinds[name] = kind{description: description, factory: f}
}

// New builds a handler for name, false when the kind is unknown.
func (k *Kinds) New(name string) (Handler, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	kd, ok := k.kinds[name]
	if !ok {
		return nil, false
	}
	return kd.factory(), true
}

func (k *Kinds) List() []KindInfo {
	k.mu.RLock()
	defer k.mu.RUnlock()
	out := make([]KindInfo, 0, len(k.kinds))
	for name, kd := range k.kinds {
		out = append(out, KindInfo{Name: name, Description: kd.description})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

type Deps struct {
	LLM              llm.Service
	Registry         *tools.Registry
	Memory           semantic.Store
	Budget           data.Budget
	ReactSteps       int
	TerminalAttempts int
}

// Defaults registers every built-in kind. Kinds whose dependency is missing are skipped.
func Defaults(d Deps) *Kinds {
	k := NewKinds()
	if d.LLM != nil {
		k.Register("plan", "Break a goal into a short list of independent tasks", func() Handler {
			return NewPlanner(d.LLM)
		})
		k.Register("summarize", "Summarize a piece of text", func() Handler {
			return NewSummarizer(d.LLM)
		})
	}
	if d.Registry != nil {
		k.Register("scan", "List the contents of a directory", func() Handler {
			return NewScanner(d.Registry)
		})
	}
	if d.LLM != nil && d.Registry != nil {
		k.Register("terminal", "Run a shell command, diagnosing and retrying failures", func() Handler {
			return NewTerminal(d.LLM, d.Registry, d.TerminalAttempts)
		})
		k.Register("react", "Solve a small task with a short tool-using reasoning loop", func() Handler {
			return NewReact(d.LLM, d.Registry, d.ReactSteps, d.Budget)
		})
	}
	if d.Memory != nil {
		k.Register("recall", "Look up results of similar past tasks", func() Handler {
			return NewRecall(d.Memory)
		})
	}
	return k
}
