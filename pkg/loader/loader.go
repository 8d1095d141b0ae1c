package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ragdesk/ragdesk/internal/models"
	"github.com/ragdesk/ragdesk/internal/types"
)

// Registry maps file extensions to loaders. Unsupported extensions are
// skipped during a scan, not treated as errors.
type Registry struct {
	byExt map[string]types.Loader
}

// NewRegistry builds a registry over the given loaders. Later loaders
// win when two claim the same extension.
func NewRegistry(loaders ...types.Loader) *Registry {
	r := &Registry{byExt: make(map[string]types.Loader)}
	for _, l := range loaders {
		for _, ext := range l.Extensions() {
			r.byExt[strings.ToLower(ext)] = l
		}
	}
	return r
}

// DefaultRegistry covers the corpus formats the bot understands out of
// the box: plain text, markdown, HTML, and PDF.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewTextLoader(),
		NewHTMLLoader(),
		NewPDFLoader(),
	)
}

// LoaderFor returns the loader for a file path, or nil when the
// extension is not supported.
func (r *Registry) LoaderFor(path string) types.Loader {
	return r.byExt[strings.ToLower(filepath.Ext(path))]
}

// ScanDir walks dir recursively and loads every supported file. A
// missing or empty directory yields no documents and no error.
func (r *Registry) ScanDir(dir string) ([]models.Document, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat corpus directory: %w", err)
	}

	var docs []models.Document
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		l := r.LoaderFor(path)
		if l == nil {
			return nil
		}
		doc, err := l.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}
