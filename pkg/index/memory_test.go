package index_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/internal/models"
	"github.com/ragdesk/ragdesk/internal/types"
	"github.com/ragdesk/ragdesk/pkg/index"
)

func chunk(source string, idx int, text string) models.Chunk {
	return models.Chunk{Source: source, SequenceIndex: idx, Text: text}
}

func TestQueryEmptyIndex(t *testing.T) {
	idx := index.NewMemory()

	results, err := idx.Query(context.Background(), []float32{1, 0, 0}, 5)
	assert.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryRejectsNonPositiveK(t *testing.T) {
	idx := index.NewMemory()

	_, err := idx.Query(context.Background(), []float32{1, 0}, 0)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = idx.Query(context.Background(), []float32{1, 0}, -3)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestUpsertLengthMismatch(t *testing.T) {
	idx := index.NewMemory()

	err := idx.Upsert(context.Background(),
		[]models.Chunk{chunk("a.txt", 0, "a")},
		[][]float32{{1, 0}, {0, 1}},
	)
	assert.ErrorIs(t, err, types.ErrIndexWrite)
	assert.Equal(t, 0, idx.Len())
}

func TestQueryExactMatchRanksFirst(t *testing.T) {
	idx := index.NewMemory()
	ctx := context.Background()

	err := idx.Upsert(ctx,
		[]models.Chunk{
			chunk("refunds.txt", 0, "Refunds are processed within 5 days."),
			chunk("shipping.txt", 0, "Shipping takes two weeks."),
		},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
		},
	)
	require.NoError(t, err)

	results, err := idx.Query(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "refunds.txt", results[0].Chunk.Source)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestQueryTiesBreakOnSourceAndIndex(t *testing.T) {
	idx := index.NewMemory()
	ctx := context.Background()

	// Identical vectors force identical scores
	err := idx.Upsert(ctx,
		[]models.Chunk{
			chunk("b.txt", 1, "second"),
			chunk("b.txt", 0, "first"),
			chunk("a.txt", 0, "other file"),
		},
		[][]float32{
			{1, 1},
			{1, 1},
			{1, 1},
		},
	)
	require.NoError(t, err)

	results, err := idx.Query(ctx, []float32{1, 1}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a.txt", results[0].Chunk.Source)
	assert.Equal(t, "b.txt", results[1].Chunk.Source)
	assert.Equal(t, 0, results[1].Chunk.SequenceIndex)
	assert.Equal(t, "b.txt", results[2].Chunk.Source)
	assert.Equal(t, 1, results[2].Chunk.SequenceIndex)
}

func TestQueryReturnsFewerThanK(t *testing.T) {
	idx := index.NewMemory()
	ctx := context.Background()

	err := idx.Upsert(ctx,
		[]models.Chunk{chunk("a.txt", 0, "only one")},
		[][]float32{{1, 0}},
	)
	require.NoError(t, err)

	results, err := idx.Query(ctx, []float32{1, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestUpsertReplacesSameKey(t *testing.T) {
	idx := index.NewMemory()
	ctx := context.Background()

	err := idx.Upsert(ctx,
		[]models.Chunk{chunk("a.txt", 0, "old text")},
		[][]float32{{1, 0}},
	)
	require.NoError(t, err)

	// Re-ingesting the same (source, index) overwrites, not duplicates
	err = idx.Upsert(ctx,
		[]models.Chunk{chunk("a.txt", 0, "new text")},
		[][]float32{{0, 1}},
	)
	require.NoError(t, err)

	assert.Equal(t, 1, idx.Len())

	results, err := idx.Query(ctx, []float32{0, 1}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new text", results[0].Chunk.Text)
}
