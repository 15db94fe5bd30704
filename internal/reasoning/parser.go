package reasoning

import (
	"encoding/json"
	"errors"
	"fmt"
	"go-nexus/pkg/data"
	"go-nexus/pkg/models"
	"regexp"
	"strings"
)

var ErrMalformed = errors.New("malformed directive")

var (
	finalRe   = regexp.MustCompile(`(?is)final\s+answer\s*:\s*(.*)$`)
	actionRe  = regexp.MustCompile(`(?im)^[ \t]*action[ \t]*:[ \t]*(.+)$`)
	inputRe   = regexp.MustCompile(`(?is)action\s*input\s*:\s*(.*)$`)
	thoughtRe = regexp.MustCompile(`(?is)^\s*thought\s*:\s*`)
)

// Directive is what a model response asks for: a final answer, a tool call, or neither.
type Directive struct {
	Thought string
	Action  *models.Action
	Final   *string
}

type jsonDirective struct {
	Thought     string         `json:"thought"`
	Action      string         `json:"action"`
	ActionInput map[string]any `json:"action_input"`
	FinalAnswer any            `json:"final_answer"`
}

// Parse reads a model response. A final answer wins over a tool call in the same response.
// An empty final answer counts as absent.
func Parse(text string) (Directive, error) {
	var d Directive
	cut := len(text)
	if loc := finalRe.FindStringSubmatchIndex(text); loc != nil {
		if answer := strings.TrimSpace(text[loc[2]:loc[3]]); answer != "" {
			d.Final = &answer
		}
		cut = loc[0]
	}
	act := actionRe.FindStringSubmatchIndex(text)
	if act != nil && act[0] < cut {
		cut = act[0]
	}
	d.Thought = strings.TrimSpace(thoughtRe.ReplaceAllString(text[:cut], ""))

	if d.Final != nil {
		return d, nil
	}
	if act != nil {
		args, err := parseInput(text)
		if err != nil {
			return d, err
		}
		d.Action = &models.Action{Tool: cleanName(text[act[2]:act[3]]), Arguments: args}
		return d, nil
	}
	return parseJSON(text)
}

func parseInput(text string) (map[string]any, error) {
	args := map[string]any{}
	loc := inputRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return args, nil
	}
	raw := strings.TrimSpace(text[loc[2]:loc[3]])
	if raw == "" || strings.EqualFold(raw, "none") {
		return args, nil
	}
	obj, err := data.SanitizeAnswer(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: Action Input must be a JSON object", ErrMalformed)
	}
	if err := json.Unmarshal([]byte(obj), &args); err != nil {
		return nil, fmt.Errorf("%w: Action Input: %v", ErrMalformed, err)
	}
	return args, nil
}

func parseJSON(text string) (Directive, error) {
	obj, err := data.SanitizeAnswer(text)
	if err != nil {
		return Directive{Thought: strings.TrimSpace(text)}, ErrMalformed
	}
	var jd jsonDirective
	if err := json.Unmarshal([]byte(obj), &jd); err != nil {
		return Directive{Thought: strings.TrimSpace(text)}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	d := Directive{Thought: jd.Thought}
	answer, hasFinal := finalAnswer(jd.FinalAnswer)
	switch {
	case hasFinal:
		d.Final = &answer
	case jd.Action != "":
		if jd.ActionInput == nil {
			jd.ActionInput = map[string]any{}
		}
		d.Action = &models.Action{Tool: cleanName(jd.Action), Arguments: jd.ActionInput}
	default:
		return d, ErrMalformed
	}
	return d, nil
}

// finalAnswer renders v as an answer. null and blank strings are not answers.
func finalAnswer(v any) (string, bool) {
	switch a := v.(type) {
	case nil:
		return "", false
	case string:
		a = strings.TrimSpace(a)
		return a, a != ""
	default:
		b, _ := json.Marshal(a)
		return string(b), true
	}
}

func cleanName(s string) string {
	return strings.Trim(strings.TrimSpace(s), "`\"'[]")
}
