package messages

import (
	"go-nexus/pkg/models"
)

// Publisher is satisfied by *eventstream.EventStream.
type Publisher interface {
	Publish(evt interface{})
}

type TaskStarted struct {
	TaskID string `json:"task_id"`
	Task   string `json:"task"`
}

type StepRecorded struct {
	Task string      `json:"task"`
	Step models.Step `json:"step"`
}

type ReasoningFinished struct {
	Task    string `json:"task"`
	Outcome string `json:"outcome"`
	Steps   int    `json:"steps"`
}

type TaskFinished struct {
	TaskID  string `json:"task_id"`
	Success bool   `json:"success"`
	Result  string `json:"result"`
}
