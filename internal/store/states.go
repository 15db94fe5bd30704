package store

import (
	"context"
	"database/sql"
	"errors"
	"go-nexus/pkg/models"
	"sync"
	"time"
)

const statesSchema = `
CREATE TABLE IF NOT EXISTS agent_states (
	agent_id           TEXT PRIMARY KEY,
	status             TEXT NOT NULL,
	current_task_id    TEXT NOT NULL DEFAULT '',
	last_result_prefix TEXT NOT NULL DEFAULT '',
	error              TEXT NOT NULL DEFAULT '',
	updated_at         INTEGER NOT NULL
);
`

// StateStore checkpoints the latest AgentState of each agent.
type StateStore interface {
	Save(ctx context.Context, s models.AgentState) error
	Load(ctx context.Context, agentID string) (models.AgentState, bool, error)
}

func storeErr(op string, err error) error {
	return models.NewError(models.KindStore, op, err)
}

type SQLiteStates struct {
	db *sql.DB
}

func NewSQLiteStates(ctx context.Context, db *sql.DB) (*SQLiteStates, error) {
	if _, err := db.ExecContext(ctx, statesSchema); err != nil {
		return nil, storeErr("migrate", err)
	}
	return &SQLiteStates{db: db}, nil
}

func (s *SQLiteStates) Save(ctx context.Context, st models.AgentState) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO agent_states (agent_id, status, current_task_id, last_result_prefix, error, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(agent_id) DO UPDATE SET
	status = excluded.status,
	current_task_id = excluded.current_task_id,
	last_result_prefix = excluded.last_result_prefix,
	error = excluded.error,
	updated_at = excluded.updated_at`,
		st.AgentID, string(st.Status), st.CurrentTaskID, st.LastResultPrefix, st.Error, st.UpdatedAt.UnixNano())
	if err != nil {
		return storeErr("save state", err)
	}
	return nil
}

func (s *SQLiteStates) Load(ctx context.Context, agentID string) (models.AgentState, bool, error) {
	var (
		st      models.AgentState
		status  string
		updated int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT agent_id, status, current_task_id, last_result_prefix, error, updated_at FROM agent_states WHERE agent_id = ?`,
		agentID).Scan(&st.AgentID, &status, &st.CurrentTaskID, &st.LastResultPrefix, &st.Error, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AgentState{}, false, nil
	}
	if err != nil {
		return models.AgentState{}, false, storeErr("load state", err)
	}
	st.Status = models.State(status)
	st.UpdatedAt = time.Unix(0, updated)
	return st, true, nil
}

type MemoryStates struct {
	mu     sync.RWMutex
	states map[string]models.AgentState
}

func NewMemoryStates() *MemoryStates {
	return &MemoryStates{states: map[string]models.AgentState{}}
}

func (m *MemoryStates) Save(_ context.Context, st models.AgentState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[st.AgentID] = st
	return nil
}

func (m *MemoryStates) Load(_ context.Context, agentID string) (models.AgentState, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.states[agentID]
	return st, ok, nil
}
