package loader_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/pkg/loader"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanDirMissingDirectory(t *testing.T) {
	r := loader.DefaultRegistry()

	docs, err := r.ScanDir(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.NoError(t, err)
	assert.Empty(t, docs)
}

func TestScanDirEmptyDirectory(t *testing.T) {
	r := loader.DefaultRegistry()

	docs, err := r.ScanDir(t.TempDir())
	assert.NoError(t, err)
	assert.Empty(t, docs)
}

func TestScanDirLoadsSupportedSkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "refunds.txt", "Refunds are processed within 5 days.")
	writeFile(t, dir, "policy.md", "# Returns\nReturns are accepted within 30 days.")
	writeFile(t, dir, "logo.png", "\x89PNG not text")
	writeFile(t, dir, "data.bin", "binary payload")

	r := loader.DefaultRegistry()
	docs, err := r.ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	sources := []string{docs[0].Source, docs[1].Source}
	assert.Contains(t, sources, filepath.Join(dir, "refunds.txt"))
	assert.Contains(t, sources, filepath.Join(dir, "policy.md"))
}

func TestScanDirRecursesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("nested", "deep", "faq.txt"), "Answers live here.")

	r := loader.DefaultRegistry()
	docs, err := r.ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Answers live here.", docs[0].Content)
}

func TestHTMLLoaderExtractsVisibleText(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "help.html", `<html>
<head><title>Help</title><style>body { color: red }</style></head>
<body>
<script>console.log("hidden")</script>
<h1>Contact us</h1>
<p>Email support is available around the clock.</p>
</body>
</html>`)

	l := loader.NewHTMLLoader()
	doc, err := l.Load(path)
	require.NoError(t, err)

	assert.Contains(t, doc.Content, "Contact us")
	assert.Contains(t, doc.Content, "Email support is available around the clock.")
	assert.NotContains(t, doc.Content, "console.log")
	assert.NotContains(t, doc.Content, "color: red")
}

func TestLoaderForUnknownExtension(t *testing.T) {
	r := loader.DefaultRegistry()
	assert.Nil(t, r.LoaderFor("movie.mp4"))
	assert.NotNil(t, r.LoaderFor("notes.TXT"))
	assert.NotNil(t, r.LoaderFor("manual.pdf"))
}
