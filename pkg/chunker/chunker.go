package chunker

import (
	"fmt"

	"github.com/ragdesk/ragdesk/internal/models"
)

type ChunkerConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Chunker splits document text into overlapping windows, cutting at
// paragraph, sentence, or word boundaries where one exists inside the
// window and falling back to a hard cut otherwise. Chunks are literal
// substrings: concatenating them minus the overlap reproduces the
// document exactly.
type Chunker struct {
	size    int
	overlap int
}

func NewWithConfig(config ChunkerConfig) (*Chunker, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkSize < 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}
	if config.ChunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap cannot be negative, got %d", config.ChunkOverlap)
	}
	if config.ChunkOverlap >= config.ChunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be smaller than chunk size %d",
			config.ChunkOverlap, config.ChunkSize)
	}

	return &Chunker{
		size:    config.ChunkSize,
		overlap: config.ChunkOverlap,
	}, nil
}

func (c *Chunker) Chunk(doc models.Document) ([]models.Chunk, error) {
	runes := []rune(doc.Content)
	n := len(runes)
	if n == 0 {
		return nil, nil
	}

	var chunks []models.Chunk
	start := 0
	idx := 0

	for start < n {
		end := start + c.size
		if end >= n {
			end = n
		} else {
			end = c.cutPoint(runes, start, end)
		}

		chunks = append(chunks, models.Chunk{
			Source:        doc.Source,
			SequenceIndex: idx,
			Text:          string(runes[start:end]),
		})

		if end == n {
			break
		}
		start = end - c.overlap
		idx++
	}

	return chunks, nil
}

// cutPoint picks where to end a full window. Boundaries are tried from
// coarsest to finest; any candidate must leave the next window at least
// one rune of forward progress past the overlap.
func (c *Chunker) cutPoint(runes []rune, start, limit int) int {
	min := start + c.overlap + 1

	if p := lastParagraphBreak(runes, start, limit); p >= min {
		return p
	}
	if p := lastSentenceEnd(runes, start, limit); p >= min {
		return p
	}
	if p := lastWordBreak(runes, start, limit); p >= min {
		return p
	}
	return limit
}

// lastParagraphBreak returns the position just after the last blank
// line inside the window, or -1.
func lastParagraphBreak(runes []rune, start, limit int) int {
	for i := limit - 1; i > start; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	return -1
}

// lastSentenceEnd returns the position just after the last sentence
// terminator followed by whitespace, or -1.
func lastSentenceEnd(runes []rune, start, limit int) int {
	for i := limit - 2; i >= start; i-- {
		if isSentenceEnd(runes[i]) && isSpace(runes[i+1]) {
			return i + 1
		}
	}
	return -1
}

// lastWordBreak returns the position just after the last whitespace
// rune in the window, or -1.
func lastWordBreak(runes []rune, start, limit int) int {
	for i := limit - 1; i >= start; i-- {
		if isSpace(runes[i]) {
			return i + 1
		}
	}
	return -1
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
