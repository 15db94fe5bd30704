package models

type Action struct {
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// Step is one think/act/observe cycle. Observation is nil for final steps.
type Step struct {
	Index       int     `json:"step_index"`
	Thought     string  `json:"thought"`
	Action      *Action `json:"action,omitempty"`
	Observation *string `json:"observation,omitempty"`
	IsFinal     bool    `json:"is_final"`
}

type Trace struct {
	Task  string `json:"task"`
	Steps []Step `json:"steps"`
}

func (t Trace) Len() int {
	return len(t.Steps)
}

func (t Trace) Last() (Step, bool) {
	if len(t.Steps) == 0 {
		return Step{}, false
	}
	return t.Steps[len(t.Steps)-1], true
}
