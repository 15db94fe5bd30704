package builtin

import (
	"context"
	"go-nexus/pkg/memory/semantic"
	"go-nexus/pkg/tools"
)

type MemorySearch struct {
	tools.Base
	store semantic.Store
}

func NewMemorySearch(store semantic.Store) *MemorySearch {
	return &MemorySearch{store: store, Base: tools.NewBase(tools.Descriptor{
		Name:        "memory_search",
		Description: "Search results of previously executed tasks",
		Parameters: []tools.Parameter{
			{Name: "query", Type: "string", Description: "What to look for", Required: true},
			{Name: "k", Type: "integer", Description: "Maximum results", Default: semantic.DefaultK},
		},
	})}
}

type match struct {
	ID      string  `json:"id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

func (t *MemorySearch) Execute(ctx context.Context, args map[string]any) (tools.Result, error) {
	recs, err := t.store.Query(ctx, tools.String(args, "query"), tools.Int(args, "k", semantic.DefaultK), nil)
	if err != nil {
		return tools.Result{}, err
	}
	out := make([]match, 0, len(recs))
	for _, r := range recs {
		out = append(out, match{ID: r.ID, Content: r.Content, Score: r.Score})
	}
	return tools.Ok(map[string]any{"results": out}), nil
}
