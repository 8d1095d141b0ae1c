package loader

import (
	"bytes"

	"github.com/ledongthuc/pdf"

	"github.com/ragdesk/ragdesk/internal/models"
)

// PDFLoader extracts the plain text layer of a PDF file.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Extensions() []string {
	return []string{".pdf"}
}

func (l *PDFLoader) Load(path string) (models.Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return models.Document{}, err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return models.Document{}, err
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return models.Document{}, err
	}

	return models.Document{Source: path, Content: buf.String()}, nil
}
