package bot

import (
	"fmt"
	"strings"

	"github.com/ragdesk/ragdesk/internal/models"
)

// BuildPrompt assembles the generation prompt from the system
// template, the session history in chronological order, the retrieved
// chunks, and the new question. Pure: identical inputs produce the
// identical prompt.
func BuildPrompt(system string, history []models.Turn, results []models.SearchResult, question string) string {
	var sb strings.Builder

	sb.WriteString(system)
	sb.WriteString("\n")

	if len(results) > 0 {
		sb.WriteString("\nDocumentation excerpts:\n")
		for _, r := range results {
			fmt.Fprintf(&sb, "[%s #%d]\n%s\n\n", r.Chunk.Source, r.Chunk.SequenceIndex, r.Chunk.Text)
		}
	}

	if len(history) > 0 {
		sb.WriteString("\nConversation so far:\n")
		for _, turn := range history {
			switch turn.Role {
			case models.RoleAssistant:
				fmt.Fprintf(&sb, "Assistant: %s\n", turn.Text)
			default:
				fmt.Fprintf(&sb, "User: %s\n", turn.Text)
			}
		}
	}

	fmt.Fprintf(&sb, "\nQuestion: %s\nAnswer:", question)
	return sb.String()
}
