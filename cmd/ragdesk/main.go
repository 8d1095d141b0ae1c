package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/ragdesk/ragdesk/internal/types"
	"github.com/ragdesk/ragdesk/pkg/bot"
	"github.com/ragdesk/ragdesk/pkg/chunker"
	cfgPkg "github.com/ragdesk/ragdesk/pkg/config"
	"github.com/ragdesk/ragdesk/pkg/history"
	"github.com/ragdesk/ragdesk/pkg/index"
	"github.com/ragdesk/ragdesk/pkg/llm"
	"github.com/ragdesk/ragdesk/pkg/loader"
	"github.com/ragdesk/ragdesk/server"
)

type flags struct {
	configPath string
	ingestDir  string
	serveAddr  string
	dbURL      string
	baseURL    string
	model      string
	topK       int
}

func main() {
	f := parseFlags()

	if err := run(f); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() flags {
	// .env is optional; real env vars win either way
	_ = godotenv.Load()

	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.StringVar(&f.ingestDir, "ingest", "", "Ingest documents from this directory before chatting")
	flag.StringVar(&f.serveAddr, "serve", "", "Run the WebSocket server on this address instead of the chat loop")
	flag.StringVar(&f.dbURL, "db-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string (empty: embedded index)")
	flag.StringVar(&f.baseURL, "ollama-url", os.Getenv("OLLAMA_BASE_URL"), "Ollama server URL")
	flag.StringVar(&f.model, "model", "", "Chat model to use")
	flag.IntVar(&f.topK, "top-k", 0, "Number of chunks to retrieve per question")
	flag.Parse()
	return f
}

func run(f flags) error {
	cfg, err := cfgPkg.LoadConfig(f.configPath)
	if err != nil {
		return err
	}

	// Command line flags override the config file
	if f.dbURL != "" {
		cfg.Database.URL = f.dbURL
	}
	if f.baseURL != "" {
		cfg.LLM.BaseURL = f.baseURL
	}
	if f.model != "" {
		cfg.LLM.Model = f.model
	}
	if f.topK > 0 {
		cfg.Retrieval.TopK = f.topK
	}

	if verrs := cfg.Validate(); len(verrs) > 0 {
		for _, ve := range verrs {
			color.Red("config: %v", ve)
		}
		return fmt.Errorf("invalid configuration")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	b, cleanup, err := buildBot(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()

	if f.ingestDir != "" {
		if err := ingest(ctx, b, f.ingestDir); err != nil {
			return err
		}
	}

	if f.serveAddr != "" {
		srv := server.New(b, slog.New(slog.NewJSONHandler(os.Stderr, nil)))
		return srv.Start(f.serveAddr)
	}

	return chatLoop(ctx, b)
}

func buildBot(cfg *cfgPkg.Config, logger *slog.Logger) (*bot.Bot, func(), error) {
	ch, err := chunker.NewWithConfig(chunker.ChunkerConfig{
		ChunkSize:    cfg.Chunker.ChunkSize,
		ChunkOverlap: cfg.Chunker.ChunkOverlap,
	})
	if err != nil {
		return nil, nil, err
	}

	var idx types.VectorIndex
	if cfg.Database.URL != "" {
		idx, err = index.NewPGVector(context.Background(), index.PGVectorConfig{
			ConnString: cfg.Database.URL,
			TableName:  cfg.Database.TableName,
			VectorDim:  cfg.Database.VectorDim,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize vector index: %v", err)
		}
	} else {
		logger.Warn("no database URL configured, using the embedded in-memory index")
		idx = index.NewMemory()
	}

	store, err := history.NewStore(cfg.History.Path)
	if err != nil {
		idx.Close()
		return nil, nil, fmt.Errorf("failed to open conversation store: %v", err)
	}

	timeout := time.Duration(cfg.LLM.TimeoutSecs) * time.Second

	emb, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   cfg.LLM.EmbedModel,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: timeout,
	})
	if err != nil {
		idx.Close()
		store.Close()
		return nil, nil, err
	}

	gen, err := llm.NewGeneratorWithConfig(llm.GeneratorConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		BaseURL:     cfg.LLM.BaseURL,
		Timeout:     timeout,
	})
	if err != nil {
		idx.Close()
		store.Close()
		return nil, nil, err
	}

	b := bot.New(loader.DefaultRegistry(), ch, idx, store, emb, gen, bot.Config{
		TopK:            cfg.Retrieval.TopK,
		MaxTurns:        cfg.History.MaxTurns,
		EmbedBatchSize:  cfg.Database.BatchSize,
		IngestRateLimit: cfg.Ingest.RateLimit,
	}, logger)

	cleanup := func() {
		idx.Close()
		store.Close()
	}
	return b, cleanup, nil
}

func ingest(ctx context.Context, b *bot.Bot, dir string) error {
	color.Blue("\nIngesting documents from %s\n", dir)

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.BlueString("Embedding chunks...")),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)

	count, err := b.IngestWithProgress(ctx, dir, func(string) {
		bar.Add(1)
	})
	bar.Finish()
	if err != nil {
		return fmt.Errorf("ingestion failed: %v", err)
	}

	color.Green("\n✓ Ingested %d chunks\n", count)
	return nil
}

func chatLoop(ctx context.Context, b *bot.Bot) error {
	color.Cyan("\nChat with your support corpus (type 'exit' to quit, '/new' for a fresh session)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	sessionID := uuid.NewString()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if strings.ToLower(question) == "exit" {
			break
		}
		if question == "/new" {
			sessionID = uuid.NewString()
			color.Yellow("Started a new session.")
			continue
		}
		if question == "" {
			continue
		}

		answer, err := b.Ask(ctx, sessionID, question)
		if err != nil {
			switch {
			case errors.Is(err, types.ErrGeneration):
				color.Red("The model could not answer: %v", err)
			case errors.Is(err, types.ErrRetrievalBackend):
				color.Red("Backend unavailable: %v", err)
			default:
				color.Red("Error: %v", err)
			}
			continue
		}

		assistantPrompt("\nAssistant: %s\n", answer.Text)

		if sources := bot.UniqueSources(answer.Sources); len(sources) > 0 {
			color.Blue("Sources: %s", strings.Join(sources, ", "))
		}
		if answer.PersistWarning != nil {
			color.Yellow("Warning: this exchange was not saved to history: %v", answer.PersistWarning)
		}
	}

	return scanner.Err()
}
