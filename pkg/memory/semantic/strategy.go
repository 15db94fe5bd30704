package semantic

import (
	"context"
	"fmt"
	"github.com/tmc/langchaingo/embeddings"
	"math"
	"strings"
)

// Strategy decides how content is indexed and how a query is scored against it.
type Strategy interface {
	Name() string
	Vectorize(ctx context.Context, content string) ([]float32, error)
	VectorizeQuery(ctx context.Context, query string) ([]float32, error)
	Score(query string, queryVec []float32, doc Document) float64
}

// Keyword scores half on the share of query terms found in the content and half on an exact phrase match.
type Keyword struct{}

func (Keyword) Name() string { return "keyword" }

func (Keyword) Vectorize(context.Context, string) ([]float32, error) { return nil, nil }

func (Keyword) VectorizeQuery(context.Context, string) ([]float32, error) { return nil, nil }

func (Keyword) Score(query string, _ []float32, doc Document) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	content := strings.ToLower(doc.Content)
	terms := strings.Fields(q)
	hits := 0
	for _, t := range terms {
		if strings.Contains(content, t) {
			hits++
		}
	}
	score := 0.5 * float64(hits) / float64(len(terms))
	if strings.Contains(content, q) {
		score += 0.5
	}
	return score
}

type Embedding struct {
	embedder embeddings.Embedder
}

func NewEmbedding(e embeddings.Embedder) *Embedding {
	return &Embedding{embedder: e}
}

func (e *Embedding) Name() string { return "embedding" }

func (e *Embedding) Vectorize(ctx context.Context, content string) ([]float32, error) {
	vs, err := e.embedder.EmbedDocuments(ctx, []string{content})
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vs) != 1 {
		return nil, fmt.Errorf("embed: expected 1 vector, got %d", len(vs))
	}
	return vs[0], nil
}

func (e *Embedding) VectorizeQuery(ctx context.Context, query string) ([]float32, error) {
	v, err := e.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return v, nil
}

func (e *Embedding) Score(_ string, queryVec []float32, doc Document) float64 {
	return cosine(queryVec, doc.Vector)
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
