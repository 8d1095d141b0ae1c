package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ragdesk/ragdesk/internal/models"
	"github.com/ragdesk/ragdesk/internal/types"
)

type entry struct {
	chunk  models.Chunk
	vector []float32
}

// MemoryIndex is an embedded vector index using brute-force cosine
// similarity. Upsert builds a new snapshot and swaps it in atomically,
// so concurrent queries never see a half-written state.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewMemory() *MemoryIndex {
	return &MemoryIndex{entries: make(map[string]entry)}
}

func key(source string, idx int) string {
	return fmt.Sprintf("%s:%d", source, idx)
}

func (m *MemoryIndex) Upsert(_ context.Context, chunks []models.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks but %d embeddings", types.ErrIndexWrite, len(chunks), len(embeddings))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	next := make(map[string]entry, len(m.entries)+len(chunks))
	for k, e := range m.entries {
		next[k] = e
	}
	for i, chunk := range chunks {
		vec := make([]float32, len(embeddings[i]))
		copy(vec, embeddings[i])
		next[key(chunk.Source, chunk.SequenceIndex)] = entry{chunk: chunk, vector: vec}
	}
	m.entries = next
	return nil
}

func (m *MemoryIndex) Query(_ context.Context, embedding []float32, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", types.ErrInvalidArgument, k)
	}

	m.mu.RLock()
	snapshot := m.entries
	m.mu.RUnlock()

	results := make([]models.SearchResult, 0, len(snapshot))
	for _, e := range snapshot {
		results = append(results, models.SearchResult{
			Chunk: e.chunk,
			Score: cosine(embedding, e.vector),
		})
	}

	// Rank descending by score, ties ascending by (source, index)
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.Source != results[j].Chunk.Source {
			return results[i].Chunk.Source < results[j].Chunk.Source
		}
		return results[i].Chunk.SequenceIndex < results[j].Chunk.SequenceIndex
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// Len reports the number of stored chunks.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *MemoryIndex) Close() {}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
