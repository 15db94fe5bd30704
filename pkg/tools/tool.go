package tools

import (
	"context"
	"fmt"
	"strings"
)

type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // JSON schema type, empty for any
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Default     any    `json:"default,omitempty"`
}

type Descriptor struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
}

// Signature renders "name(text: string*, algorithm: string) -> description", * marks required.
func (d Descriptor) Signature() string {
	params := make([]string, 0, len(d.Parameters))
	for _, p := range d.Parameters {
		s := p.Name + ": " + orAny(p.Type)
		if p.Required {
			s += "*"
		}
		params = append(params, s)
	}
	return fmt.Sprintf("%s(%s) -> %s", d.Name, strings.Join(params, ", "), d.Description)
}

func orAny(t string) string {
	if t == "" {
		return "any"
	}
	return t
}

type Result struct {
	Success  bool           `json:"success"`
	Output   any            `json:"output"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func Ok(output any) Result {
	return Result{Success: true, Output: output, Metadata: map[string]any{}}
}

func Fail(format string, a ...any) Result {
	return Result{Error: fmt.Sprintf(format, a...), Metadata: map[string]any{}}
}

// Tool is a named side-effecting operation. Execute may return an error or even panic, the Runner
// turns both into a failed Result.
type Tool interface {
	Describe() Descriptor
	Validate(args map[string]any) error
	Execute(ctx context.Context, args map[string]any) (Result, error)
}
