package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/ragdesk/ragdesk/internal/types"
)

// GeneratorConfig represents the configuration for the chat model.
type GeneratorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	BaseURL     string // Ollama server URL
	Timeout     time.Duration
}

// Generator answers assembled prompts through an Ollama chat model.
type Generator struct {
	config GeneratorConfig
	llm    llms.Model
}

func NewGeneratorWithConfig(config GeneratorConfig) (*Generator, error) {
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &Generator{
		config: config,
		llm:    model,
	}, nil
}

// Generate produces a completion for the prompt. Failures are tagged
// with the collaborator failure category (timeout, rate limit, invalid
// request, server error) so the caller can tell them apart.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := g.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(g.config.MaxTokens),
		llms.WithTemperature(g.config.Temperature),
	)
	if err != nil {
		return "", classify(err, g.config.Timeout)
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", fmt.Errorf("malformed response: no choices returned")
	}
	return resp.Choices[0].Content, nil
}

func classify(err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: generation exceeded %s", types.ErrTimeout, timeout)
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, fmt.Sprint(http.StatusTooManyRequests)) || strings.Contains(msg, "rate limit"):
		return fmt.Errorf("%w: %v", types.ErrRateLimited, err)
	case strings.Contains(msg, fmt.Sprint(http.StatusBadRequest)) || strings.Contains(msg, "invalid request"):
		return fmt.Errorf("%w: invalid request: %v", types.ErrInvalidArgument, err)
	default:
		return fmt.Errorf("model call failed: %w", err)
	}
}
