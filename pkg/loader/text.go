package loader

import (
	"os"

	"github.com/ragdesk/ragdesk/internal/models"
)

// TextLoader reads plain text and markdown files as-is. Markdown
// formatting is left intact; it chunks and embeds fine as text.
type TextLoader struct{}

func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

func (l *TextLoader) Extensions() []string {
	return []string{".txt", ".md"}
}

func (l *TextLoader) Load(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, err
	}
	return models.Document{Source: path, Content: string(data)}, nil
}
