package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-nexus/pkg/models"
	"go-nexus/pkg/tools"
	"strings"
)

// Scanner lists a directory through the list_directory tool. The task is the path.
type Scanner struct {
	registry *tools.Registry
}

func NewScanner(registry *tools.Registry) *Scanner {
	return &Scanner{registry: registry}
}

type scanEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
	Size  int64  `json:"size"`
}

func (h *Scanner) Handle(ctx context.Context, req Request) models.HandlerResult {
	path := strings.TrimSpace(req.Task)
	if path == "" {
		path = "."
	}
	res := h.registry.Execute(ctx, "list_directory", map[string]any{"path": path})
	if !res.Success {
		return models.HandlerResult{Question: path, Error: errors.New(res.Error)}
	}

	// round trip through JSON so the handler does not depend on the tool's Go types
	b, err := json.Marshal(res.Output)
	if err != nil {
		return models.HandlerResult{Question: path, Error: fmt.Errorf("marshal: %w", err)}
	}
	var out struct {
		Path    string      `json:"path"`
		Entries []scanEntry `json:"entries"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return models.HandlerResult{Question: path, Error: fmt.Errorf("unmarshal: %w", err)}
	}

	lines := []string{fmt.Sprintf("%s (%d entries)", out.Path, len(out.Entries))}
	for _, e := range out.Entries {
		if e.IsDir {
			lines = append(lines, "  "+e.Name+"/")
		} else {
			lines = append(lines, fmt.Sprintf("  %s (%d bytes)", e.Name, e.Size))
		}
	}
	return models.HandlerResult{Question: path, Answer: strings.Join(lines, "\n")}
}
