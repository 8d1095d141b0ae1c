package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configData := `
llm:
  base_url: "http://localhost:11434"
  model: "llama3"
  embed_model: "nomic-embed-text:latest"
  max_tokens: 1000
  temperature: 0.5

database:
  url: "postgres://localhost:5432/ragdesk"
  table_name: "test_chunks"
  vector_dim: 768
  batch_size: 50

history:
  max_turns: 40

chunker:
  chunk_size: 800
  chunk_overlap: 80

retrieval:
  top_k: 5
`
	require.NoError(t, os.WriteFile(configPath, []byte(configData), 0o644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "llama3", cfg.LLM.Model)
	assert.Equal(t, 1000, cfg.LLM.MaxTokens)
	assert.Equal(t, 0.5, cfg.LLM.Temperature)
	assert.Equal(t, "test_chunks", cfg.Database.TableName)
	assert.Equal(t, 50, cfg.Database.BatchSize)
	assert.Equal(t, 40, cfg.History.MaxTurns)
	assert.Equal(t, 800, cfg.Chunker.ChunkSize)
	assert.Equal(t, 80, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("llm:\n  model: custom\n"), 0o644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "custom", cfg.LLM.Model)
	assert.Equal(t, "nomic-embed-text:latest", cfg.LLM.EmbedModel)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.BaseURL)
	assert.Equal(t, 50, cfg.History.MaxTurns)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 100, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
}

func TestLoadConfigMergesEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("{}"), 0o644))

	t.Setenv("OLLAMA_BASE_URL", "http://ollama.internal:11434")
	t.Setenv("DATABASE_URL", "postgres://db.internal:5432/ragdesk")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "http://ollama.internal:11434", cfg.LLM.BaseURL)
	assert.Equal(t, "postgres://db.internal:5432/ragdesk", cfg.Database.URL)
}

func TestValidateAcceptsDefaults(t *testing.T) {
	cfg, err := getDefaultConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Validate())
}

func TestValidateRejectsOverlapNotSmallerThanSize(t *testing.T) {
	cfg, err := getDefaultConfig()
	require.NoError(t, err)

	cfg.Chunker.ChunkSize = 100
	cfg.Chunker.ChunkOverlap = 100

	errs := cfg.Validate()
	require.NotEmpty(t, errs)
	assert.Equal(t, "chunker.chunk_overlap", errs[0].Field)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := getDefaultConfig()
	require.NoError(t, err)

	cfg.LLM.MaxTokens = 0
	cfg.Retrieval.TopK = -1
	cfg.History.MaxTurns = 1

	errs := cfg.Validate()
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "llm.max_tokens")
	assert.Contains(t, fields, "retrieval.top_k")
	assert.Contains(t, fields, "history.max_turns")
}
