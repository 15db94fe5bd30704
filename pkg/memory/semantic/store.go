package semantic

import (
	"context"
	"fmt"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go-nexus/pkg/models"
	"sort"
	"time"
)

const DefaultK = 5

type Record struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata"`
	Score     float64        `json:"score"`
	CreatedAt time.Time      `json:"created_at"`
}

// Document is a stored entry together with the representation its strategy indexed.
type Document struct {
	ID        string
	Content   string
	Metadata  map[string]any
	Vector    []float32
	CreatedAt time.Time
}

type Store interface {
	Store(ctx context.Context, content string, metadata map[string]any) (string, error)
	Query(ctx context.Context, text string, k int, filter map[string]any) ([]Record, error)
}

// Memory is a Store with maintenance operations.
type Memory interface {
	Store
	Get(ctx context.Context, id string) (Record, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

func newID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	return "mem_" + id, nil
}

func storeErr(op string, err error) error {
	return models.NewError(models.KindStore, op, err)
}

// rank scores docs against the query and keeps the best k. Docs must be in insertion order,
// ties keep that order.
func rank(ctx context.Context, s Strategy, docs []Document, text string, k int, filter map[string]any) ([]Record, error) {
	if k <= 0 {
		k = DefaultK
	}
	qv, err := s.VectorizeQuery(ctx, text)
	if err != nil {
		return nil, storeErr("query", fmt.Errorf("vectorize: %w", err))
	}

	res := make([]Record, 0, k)
	for _, d := range docs {
		if !matches(d.Metadata, filter) {
			continue
		}
		score := s.Score(text, qv, d)
		if score <= 0 {
			continue
		}
		res = append(res, Record{ID: d.ID, Content: d.Content, Metadata: d.Metadata, Score: score, CreatedAt: d.CreatedAt})
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Score > res[j].Score
	})
	if len(res) > k {
		res = res[:k]
	}
	return res, nil
}

func matches(meta, filter map[string]any) bool {
	for key, want := range filter {
		got, ok := meta[key]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func toRecord(d Document) Record {
	return Record{ID: d.ID, Content: d.Content, Metadata: d.Metadata, CreatedAt: d.CreatedAt}
}
