package models

import (
	"time"
)

type Task struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	Context     map[string]string `json:"context,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

type AgentState struct {
	AgentID          string    `json:"agent_id"`
	Status           State     `json:"status"`
	CurrentTaskID    string    `json:"current_task_id,omitempty"`
	LastResultPrefix string    `json:"last_result_prefix,omitempty"`
	Error            string    `json:"error,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type Status struct {
	AgentID        string     `json:"agent_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	State          AgentState `json:"state"`
	TasksCompleted int        `json:"tasks_completed"`
	Tools          []string   `json:"tools"`
}

type TaskHistory struct {
	TaskID         string    `json:"task_id"`
	Task           string    `json:"task"`
	Result         string    `json:"result"`
	ReasoningSteps int       `json:"reasoning_steps"`
	Success        bool      `json:"success"`
	CompletedAt    time.Time `json:"completed_at"`
}

// HandlerResult is what an agent handler produced: the prompt it asked and the answer it got.
type HandlerResult struct {
	Question string
	Answer   string
	Error    error
}
