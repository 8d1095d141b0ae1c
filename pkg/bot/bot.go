package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/ragdesk/ragdesk/internal/models"
	"github.com/ragdesk/ragdesk/internal/types"
	"github.com/ragdesk/ragdesk/pkg/loader"
)

// Config tunes the responder. Zero values fall back to the defaults
// the support bot ships with.
type Config struct {
	// TopK is how many chunks ground each answer.
	TopK int
	// MaxTurns caps the persisted history per session.
	MaxTurns int
	// SystemTemplate opens every prompt.
	SystemTemplate string
	// EmbedBatchSize is how many chunk texts go into one embedding
	// call during ingestion.
	EmbedBatchSize int
	// IngestRateLimit caps embedding calls per second during
	// ingestion. Zero disables the limiter.
	IngestRateLimit float64
	// OnProgress, when set, is called once per ingested chunk with its
	// source identifier.
	OnProgress func(source string)
}

// Bot orchestrates one retrieval-augmented answer per Ask call and the
// corpus ingestion pipeline. All collaborators are injected; the bot
// itself keeps no state between calls.
type Bot struct {
	config    Config
	loaders   *loader.Registry
	chunker   types.Chunker
	index     types.VectorIndex
	store     types.ConversationStore
	embedder  types.Embedder
	generator types.Generator
	limiter   *rate.Limiter
	logger    *slog.Logger
}

func New(loaders *loader.Registry, chunker types.Chunker, index types.VectorIndex,
	store types.ConversationStore, embedder types.Embedder, generator types.Generator,
	config Config, logger *slog.Logger) *Bot {

	if config.TopK == 0 {
		config.TopK = 3
	}
	if config.MaxTurns == 0 {
		config.MaxTurns = 50
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You are a helpful customer support assistant. " +
			"Answer the question using the provided documentation excerpts and the conversation so far. " +
			"If the documentation does not cover the question, say so."
	}
	if config.EmbedBatchSize == 0 {
		config.EmbedBatchSize = 16
	}
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if config.IngestRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.IngestRateLimit), 1)
	}

	return &Bot{
		config:    config,
		loaders:   loaders,
		chunker:   chunker,
		index:     index,
		store:     store,
		embedder:  embedder,
		generator: generator,
		limiter:   limiter,
		logger:    logger,
	}
}

// Ask answers a question within a session. The answer is grounded in
// the top-k retrieved chunks and the session's history; the new
// question/answer pair is persisted afterwards. A persistence failure
// after successful generation does not fail the call: the answer comes
// back with PersistWarning set.
func (b *Bot) Ask(ctx context.Context, sessionID, question string) (*models.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question must not be empty", types.ErrInvalidArgument)
	}
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id must not be empty", types.ErrInvalidArgument)
	}

	// History first: a dead store fails the call rather than silently
	// answering without context.
	history, err := b.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	vectors, err := b.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding question: %v", types.ErrRetrievalBackend, err)
	}

	results, err := b.index.Query(ctx, vectors[0], b.config.TopK)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(b.config.SystemTemplate, history, results, question)

	text, err := b.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrGeneration, err)
	}

	answer := &models.Answer{
		Text:    text,
		Sources: sourceRefs(results),
	}

	// Never persist a half-formed pair on cancellation
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	turns := []models.Turn{
		{Role: models.RoleUser, Text: question},
		{Role: models.RoleAssistant, Text: text},
	}
	if err := b.store.AppendAndTrim(ctx, sessionID, turns, b.config.MaxTurns); err != nil {
		b.logger.Warn("history write failed, answer returned without persistence",
			"session_id", sessionID,
			"error", err,
		)
		answer.PersistWarning = err
	}

	return answer, nil
}

// Ingest loads every supported file under dir, chunks and embeds the
// text, and upserts the result into the vector index. It returns the
// number of chunks ingested; a missing or empty directory is zero, not
// an error.
func (b *Bot) Ingest(ctx context.Context, dir string) (int, error) {
	return b.IngestWithProgress(ctx, dir, b.config.OnProgress)
}

// IngestWithProgress is Ingest with a per-chunk progress callback that
// overrides the configured one.
func (b *Bot) IngestWithProgress(ctx context.Context, dir string, onProgress func(source string)) (int, error) {
	docs, err := b.loaders.ScanDir(dir)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		b.logger.Info("no documents found to ingest", "dir", dir)
		return 0, nil
	}

	var chunks []models.Chunk
	for _, doc := range docs {
		cs, err := b.chunker.Chunk(doc)
		if err != nil {
			return 0, fmt.Errorf("chunking %s: %w", doc.Source, err)
		}
		chunks = append(chunks, cs...)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	embeddings, err := b.embedChunks(ctx, chunks, onProgress)
	if err != nil {
		return 0, err
	}

	if err := b.index.Upsert(ctx, chunks, embeddings); err != nil {
		return 0, err
	}

	b.logger.Info("corpus ingested",
		"dir", dir,
		"documents", len(docs),
		"chunks", len(chunks),
	)
	return len(chunks), nil
}

// ClearSession deletes a session's history. Unknown sessions clear
// without error.
func (b *Bot) ClearSession(ctx context.Context, sessionID string) error {
	return b.store.Clear(ctx, sessionID)
}

func (b *Bot) embedChunks(ctx context.Context, chunks []models.Chunk, onProgress func(source string)) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += b.config.EmbedBatchSize {
		end := start + b.config.EmbedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		if b.limiter != nil {
			if err := b.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: %v", types.ErrTimeout, err)
			}
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := b.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks %d-%d: %w", start, end-1, err)
		}
		embeddings = append(embeddings, vectors...)

		if onProgress != nil {
			for _, c := range batch {
				onProgress(c.Source)
			}
		}
	}

	return embeddings, nil
}

func sourceRefs(results []models.SearchResult) []models.SourceRef {
	refs := make([]models.SourceRef, 0, len(results))
	for _, r := range results {
		refs = append(refs, models.SourceRef{
			Source:   r.Chunk.Source,
			Position: r.Chunk.SequenceIndex,
		})
	}
	return refs
}

// UniqueSources lists the distinct sources behind a set of references,
// first occurrence first. UI layers use it for attribution lines.
func UniqueSources(refs []models.SourceRef) []string {
	var sources []string
	seen := make(map[string]bool)
	for _, ref := range refs {
		if !seen[ref.Source] {
			sources = append(sources, ref.Source)
			seen[ref.Source] = true
		}
	}
	return sources
}
