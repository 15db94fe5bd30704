package handler

import (
	"context"
	"fmt"
	"go-nexus/pkg/memory/semantic"
	"go-nexus/pkg/models"
	"strings"
)

type Recall struct {
	memory semantic.Store
}

func NewRecall(memory semantic.Store) *Recall {
	return &Recall{memory: memory}
}

// Handle queries past task results. Context keys other than "k" narrow the results by metadata.
func (h *Recall) Handle(ctx context.Context, req Request) models.HandlerResult {
	k := semantic.DefaultK
	filter := map[string]any{}
	for key, v := range req.Context {
		if key == "k" {
			if _, err := fmt.Sscan(v, &k); err != nil {
				return models.HandlerResult{Error: fmt.Errorf("invalid k %q: %w", v, err)}
			}
			continue
		}
		filter[key] = v
	}

	recs, err := h.memory.Query(ctx, req.Task, k, filter)
	if err != nil {
		return models.HandlerResult{Error: fmt.Errorf("query: %w", err)}
	}
	if len(recs) == 0 {
		return models.HandlerResult{Question: req.Task, Answer: "No relevant memories found"}
	}

	lines := make([]string, len(recs))
	for i, r := range recs {
		lines[i] = fmt.Sprintf("%d. (%.2f) %s", i+1, r.Score, r.Content)
	}
	return models.HandlerResult{Question: req.Task, Answer: strings.Join(lines, "\n")}
}
