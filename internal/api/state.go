package api

import (
	"github.com/google/uuid"
	"sync"
	"time"
)

type jobStatus string

const (
	jobPending   jobStatus = "pending"
	jobCompleted jobStatus = "completed"
	jobFailed    jobStatus = "failed"
)

type job struct {
	ID         uuid.UUID  `json:"id"`
	Task       string     `json:"task"`
	Status     jobStatus  `json:"status"`
	Result     string     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// jobsCache tracks asynchronous executions for the lifetime of the process.
type jobsCache struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]*job
}

func newJobsCache() *jobsCache {
	return &jobsCache{
		jobs: map[uuid.UUID]*job{},
	}
}

func (s *jobsCache) add(task string) job {
	j := &job{ID: uuid.New(), Task: task, Status: jobPending, CreatedAt: time.Now()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
	return *j
}

func (s *jobsCache) finish(id uuid.UUID, result string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return
	}
	t := time.Now()
	j.FinishedAt = &t
	j.Result = result
	j.Status = jobCompleted
	if err != nil {
		j.Status = jobFailed
		j.Error = err.Error()
	}
}

func (s *jobsCache) get(id uuid.UUID) (job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return job{}, false
	}
	return *j, true
}
