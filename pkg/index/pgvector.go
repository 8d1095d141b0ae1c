package index

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/ragdesk/ragdesk/internal/models"
	"github.com/ragdesk/ragdesk/internal/types"
)

type PGVectorConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

// PGVectorIndex stores chunk embeddings in Postgres with the pgvector
// extension. Rows are keyed by (source, chunk_index); re-ingesting a
// source overwrites its chunks in place.
type PGVectorIndex struct {
	config PGVectorConfig
	pool   *pgxpool.Pool
}

func NewPGVector(ctx context.Context, config PGVectorConfig) (*PGVectorIndex, error) {
	if config.TableName == "" {
		config.TableName = "chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	idx := &PGVectorIndex{
		config: config,
		pool:   pool,
	}

	if err := idx.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *PGVectorIndex) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := idx.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %v", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			source TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d),
			PRIMARY KEY (source, chunk_index)
		)`, idx.config.TableName, idx.config.VectorDim)

	_, err = idx.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %v", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`,
		idx.config.TableName, idx.config.TableName)

	_, err = idx.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %v", err)
	}

	return nil
}

// Upsert writes chunks and their embeddings in one transaction. Either
// every row lands or the prior state is kept.
func (idx *PGVectorIndex) Upsert(ctx context.Context, chunks []models.Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks but %d embeddings", types.ErrIndexWrite, len(chunks), len(embeddings))
	}

	tx, err := idx.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %v", types.ErrIndexWrite, err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (source, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source, chunk_index) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`,
		idx.config.TableName)

	for i, chunk := range chunks {
		_, err = tx.Exec(ctx, stmt,
			chunk.Source,
			chunk.SequenceIndex,
			chunk.Text,
			pgvector.NewVector(embeddings[i]),
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert chunk %s/%d: %v",
				types.ErrIndexWrite, chunk.Source, chunk.SequenceIndex, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %v", types.ErrIndexWrite, err)
	}

	return nil
}

// Query returns the k closest chunks under cosine distance, ranked by
// descending similarity with ties broken by (source, chunk_index).
func (idx *PGVectorIndex) Query(ctx context.Context, embedding []float32, k int) ([]models.SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", types.ErrInvalidArgument, k)
	}

	query := fmt.Sprintf(`
		SELECT source, chunk_index, content, 1 - (embedding <=> $1) AS score
		FROM %s
		ORDER BY embedding <=> $1, source, chunk_index
		LIMIT $2`,
		idx.config.TableName)

	rows, err := idx.pool.Query(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query chunks: %v", types.ErrRetrievalBackend, err)
	}
	defer rows.Close()

	var results []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		err := rows.Scan(
			&r.Chunk.Source,
			&r.Chunk.SequenceIndex,
			&r.Chunk.Text,
			&r.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %v", types.ErrRetrievalBackend, err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrRetrievalBackend, err)
	}

	return results, nil
}

func (idx *PGVectorIndex) Close() {
	if idx.pool != nil {
		idx.pool.Close()
	}
}
