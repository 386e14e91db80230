package embedding

import (
	"context"
	"math"
	"sort"
	"sync"

	"senars/internal/logging"
)

// Index is an in-memory cosine-similarity index over term names. It
// implements Layer; vectors are produced by the configured engine. A
// query that is an indexed name reuses its stored vector; other queries
// are embedded on every call and not stored.
type Index struct {
	mu      sync.RWMutex
	engine  Engine
	vectors map[string][]float32
}

// NewIndex creates an index over the given engine.
func NewIndex(engine Engine) *Index {
	return &Index{
		engine:  engine,
		vectors: make(map[string][]float32),
	}
}

// Add embeds and registers a term name. Re-adding is a no-op.
func (ix *Index) Add(ctx context.Context, name string) error {
	ix.mu.RLock()
	_, ok := ix.vectors[name]
	ix.mu.RUnlock()
	if ok {
		return nil
	}
	vec, err := ix.engine.Embed(ctx, name)
	if err != nil {
		return err
	}
	ix.mu.Lock()
	ix.vectors[name] = vec
	ix.mu.Unlock()
	return nil
}

// Len returns the number of indexed terms.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// FindSimilar returns up to k indexed terms ranked by cosine similarity
// to the query. The query itself is excluded when indexed.
func (ix *Index) FindSimilar(ctx context.Context, query string, k int) ([]Similar, error) {
	timer := logging.StartTimer(logging.CategoryEmbedding, "Index.FindSimilar")
	defer timer.Stop()

	ix.mu.RLock()
	qvec, cached := ix.vectors[query]
	ix.mu.RUnlock()
	if !cached {
		var err error
		qvec, err = ix.engine.Embed(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	ix.mu.RLock()
	out := make([]Similar, 0, len(ix.vectors))
	for name, vec := range ix.vectors {
		if name == query {
			continue
		}
		out = append(out, Similar{Term: name, Similarity: Cosine(qvec, vec)})
	}
	ix.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if k > 0 && k < len(out) {
		out = out[:k]
	}
	return out, nil
}

// Cosine computes cosine similarity between two vectors. Mismatched or
// zero-length vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
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
