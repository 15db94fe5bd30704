package models

type State string

const (
	Idle      State = "idle"
	Reasoning State = "reasoning"
	Completed State = "completed"
	Failed    State = "failed" // until the next task
)

func (s State) Terminal() bool {
	return s == Completed || s == Failed
}
