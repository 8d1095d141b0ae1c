package types

import (
	"context"

	"github.com/ragdesk/ragdesk/internal/models"
)

// Loader extracts plain text from one kind of source file.
type Loader interface {
	Extensions() []string
	Load(path string) (models.Document, error)
}

// Chunker splits a document into overlapping windows for indexing.
type Chunker interface {
	Chunk(doc models.Document) ([]models.Chunk, error)
}

// VectorIndex stores chunk embeddings and answers top-k similarity
// queries. Upsert is atomic per call and keyed by (source, sequence
// index); Query on an empty index returns no results and no error.
type VectorIndex interface {
	Upsert(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error
	Query(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error)
	Close()
}

// ConversationStore persists per-session history. Writes to the same
// session are serialized; different sessions do not contend.
type ConversationStore interface {
	Load(ctx context.Context, sessionID string) ([]models.Turn, error)
	AppendAndTrim(ctx context.Context, sessionID string, turns []models.Turn, maxTurns int) error
	Clear(ctx context.Context, sessionID string) error
	Close() error
}

// Embedder turns text into a fixed-length vector, deterministic for
// identical text and model configuration.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Generator produces an answer for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
