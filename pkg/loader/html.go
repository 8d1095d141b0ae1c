package loader

import (
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ragdesk/ragdesk/internal/models"
)

// HTMLLoader extracts the visible text of an HTML document.
type HTMLLoader struct{}

func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

func (l *HTMLLoader) Extensions() []string {
	return []string{".html", ".htm"}
}

func (l *HTMLLoader) Load(path string) (models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Document{}, err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return models.Document{}, err
	}

	doc.Find("script, style, noscript").Remove()

	body := doc.Find("body")
	var text string
	if body.Length() > 0 {
		text = body.Text()
	} else {
		text = doc.Text()
	}

	return models.Document{
		Source:  path,
		Content: collapseWhitespace(text),
	}, nil
}

// collapseWhitespace squeezes runs of blank lines and trims each line,
// keeping paragraph structure for the chunker's boundary detection.
func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
