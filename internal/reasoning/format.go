package reasoning

import (
	"encoding/json"
	"fmt"
	"go-nexus/pkg/data"
	"go-nexus/pkg/models"
	"go-nexus/pkg/tools"
	"sort"
	"strings"
)

// Bump these when the rendering changes, prompts and stored traces depend on them.
const (
	ObservationFormatVersion = 1
	TraceFormatVersion       = 1
)

// FormatObservation renders a tool result as "Success: <json>" or "Error: <msg>" within budget.
func FormatObservation(res tools.Result, budget data.Budget) string {
	var s string
	if res.Success {
		s = "Success: " + renderOutput(res.Output)
	} else {
		s = "Error: " + res.Error
		if res.Output != nil {
			s += "\nOutput: " + renderOutput(res.Output)
		}
	}
	out, _ := budget.Truncate(s)
	return out
}

func renderOutput(v any) string {
	switch o := v.(type) {
	case nil:
		return "null"
	case string:
		return o
	default:
		b, err := json.Marshal(o)
		if err != nil {
			return fmt.Sprint(o)
		}
		return string(b)
	}
}

// FormatTools lists each tool with its signature and parameter notes.
func FormatTools(descs []tools.Descriptor) string {
	if len(descs) == 0 {
		return "No tools are available. Answer directly."
	}
	var sb strings.Builder
	sb.WriteString("You can use the following tools:\n")
	for _, d := range descs {
		sb.WriteString("\n- ")
		sb.WriteString(d.Signature())
		for _, p := range d.Parameters {
			fmt.Fprintf(&sb, "\n    %s: %s", p.Name, p.Description)
			if p.Default != nil {
				fmt.Fprintf(&sb, " (default %v)", p.Default)
			}
		}
	}
	return sb.String()
}

// FormatTrace renders steps as the Thought/Action/Observation scratchpad.
func FormatTrace(steps []models.Step) string {
	parts := make([]string, 0, len(steps))
	for _, s := range steps {
		var sb strings.Builder
		if s.Thought != "" {
			sb.WriteString("Thought: " + s.Thought + "\n")
		}
		if s.Action != nil {
			args, _ := json.Marshal(s.Action.Arguments)
			fmt.Fprintf(&sb, "Action: %s\nAction Input: %s\n", s.Action.Tool, args)
		}
		if s.IsFinal {
			sb.WriteString("Final Answer given\n")
		}
		if s.Observation != nil {
			sb.WriteString("Observation: " + *s.Observation + "\n")
		}
		parts = append(parts, strings.TrimRight(sb.String(), "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// FormatContext flattens a context map into sorted "key: value" lines.
func FormatContext(ctx map[string]string) string {
	if len(ctx) == 0 {
		return ""
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+": "+ctx[k])
	}
	return strings.Join(lines, "\n")
}
