package messages

import (
	"github.com/google/uuid"
	"go-nexus/pkg/models"
	"time"
)

type ExecuteTask struct {
	RequestID uuid.UUID
	Task      string
	Context   map[string]string
}

type TaskResult struct {
	RequestID uuid.UUID
	Result    string
	Err       error
}

type RunNanoagent struct {
	Kind     string
	Task     string
	Context  map[string]string
	Deadline time.Time
}

type NanoagentResult struct {
	Kind   string
	Result string
	Err    error
}

type SpawnNanoagent struct {
	Kind    string
	Task    string
	Context map[string]string
}

type GetStatus struct{}

type StatusResponse struct {
	Status models.Status
}
