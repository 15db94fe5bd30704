package tools

import (
	"context"
	"errors"
	"github.com/rs/zerolog/log"
	"go-nexus/pkg/logger"
	"sort"
	"strings"
	"sync"
)

var ErrToolNotFound = errors.New("tool not found")

type Info struct {
	Descriptor
	Signature       string `json:"signature"`
	ExecutionCount  int64  `json:"execution_count"`
	LastExecutionID string `json:"last_execution_id,omitempty"`
}

// Registry maps tool names to their runners. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Runner
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]*Runner{}}
}

// Register adds the tool, replacing any tool with the same name.
func (r *Registry) Register(tool Tool) {
	name := tool.Describe().Name
	r.mu.Lock()
	_, replaced := r.tools[name]
	r.tools[name] = NewRunner(tool)
	r.mu.Unlock()

	log.Debug().Str(logger.ToolField, name).Bool("replaced", replaced).Msg("tool registered")
}

func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tools[name]
	delete(r.tools, name)
	return ok
}

func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.tools[name]
	if !ok {
		return nil, false
	}
	return run.Tool(), true
}

// List returns the registered names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named tool. A missing tool is reported in the Result, not as a fault.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) Result {
	r.mu.RLock()
	run, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		log.Debug().Str(logger.ToolField, name).Msg("tool not found")
		return Fail("Tool not found: %s", name)
	}
	return run.Run(ctx, args)
}

// Search matches query against names and descriptions, case-insensitively.
func (r *Registry) Search(query string) []string {
	q := strings.ToLower(query)
	var names []string
	for _, d := range r.Descriptors() {
		if strings.Contains(strings.ToLower(d.Name), q) || strings.Contains(strings.ToLower(d.Description), q) {
			names = append(names, d.Name)
		}
	}
	return names
}

func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.tools))
	for _, run := range r.tools {
		out = append(out, run.Tool().Describe())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *Registry) Info(name string) (Info, error) {
	r.mu.RLock()
	run, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return Info{}, ErrToolNotFound
	}
	desc := run.Tool().Describe()
	return Info{
		Descriptor:      desc,
		Signature:       desc.Signature(),
		ExecutionCount:  run.ExecutionCount(),
		LastExecutionID: run.LastExecutionID(),
	}, nil
}

// Summary lists every tool signature, one per line, for prompts and operators.
func (r *Registry) Summary() string {
	descs := r.Descriptors()
	if len(descs) == 0 {
		return "No tools available"
	}
	var sb strings.Builder
	sb.WriteString("Available Tools:")
	for _, d := range descs {
		sb.WriteString("\n- ")
		sb.WriteString(d.Signature())
	}
	return sb.String()
}
