package semantic

import (
	"context"
	"sync"
	"time"
)

type InMemory struct {
	mu       sync.RWMutex
	strategy Strategy
	docs     []Document
}

func NewInMemory(s Strategy) *InMemory {
	if s == nil {
		s = Keyword{}
	}
	return &InMemory{strategy: s}
}

func (m *InMemory) Store(ctx context.Context, content string, metadata map[string]any) (string, error) {
	id, err := newID()
	if err != nil {
		return "", storeErr("store", err)
	}
	vec, err := m.strategy.Vectorize(ctx, content)
	if err != nil {
		return "", storeErr("store", err)
	}
	meta := make(map[string]any, len(metadata))
	for k, v := range metadata {
		meta[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, Document{ID: id, Content: content, Metadata: meta, Vector: vec, CreatedAt: time.Now()})
	return id, nil
}

func (m *InMemory) Query(ctx context.Context, text string, k int, filter map[string]any) ([]Record, error) {
	m.mu.RLock()
	docs := make([]Document, len(m.docs))
	copy(docs, m.docs)
	m.mu.RUnlock()

	return rank(ctx, m.strategy, docs, text, k, filter)
}

func (m *InMemory) Get(_ context.Context, id string) (Record, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.docs {
		if d.ID == id {
			return toRecord(d), true, nil
		}
	}
	return Record{}, false, nil
}

func (m *InMemory) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, d := range m.docs {
		if d.ID == id {
			m.docs = append(m.docs[:i], m.docs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *InMemory) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs), nil
}

func (m *InMemory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = nil
	return nil
}
