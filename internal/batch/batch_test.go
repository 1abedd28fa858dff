package batch

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const tokenPage = `{"pages":[{"text":"a plain paragraph with enough words to classify"}]}`

func TestDiscoverFilesFiltersByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", tokenPage)
	writeFile(t, dir, "a.png", "")
	writeFile(t, dir, "notes.txt", "ignored")

	files, err := DiscoverFiles([]string{dir}, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, files, 2)

	// Sorted for deterministic output.
	assert.Equal(t, filepath.Join(dir, "a.png"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.json"), files[1])
}

func TestDiscoverFilesRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "top.json", tokenPage)
	writeFile(t, dir, "sub/nested.json", tokenPage)

	cfg := DefaultConfig()
	files, err := DiscoverFiles([]string{dir}, cfg)
	require.NoError(t, err)
	assert.Len(t, files, 1)

	cfg.Recursive = true
	files, err = DiscoverFiles([]string{dir}, cfg)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestDiscoverFilesPatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.json", tokenPage)
	writeFile(t, dir, "skip.json", tokenPage)
	writeFile(t, dir, "scan.png", "")

	cfg := DefaultConfig()
	cfg.IncludePatterns = []string{"*.json"}
	cfg.ExcludePatterns = []string{"skip.*"}

	files, err := DiscoverFiles([]string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Contains(t, files[0], "keep.json")
}

func TestDiscoverFilesExplicitFileBypassesExtensionGate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "x")

	files, err := DiscoverFiles([]string{path}, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestDiscoverFilesMissingPath(t *testing.T) {
	_, err := DiscoverFiles([]string{"/nonexistent/dir"}, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Format = "yaml"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.OutputDir = "a"
	cfg.OutputFile = "b"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestProcessFileUnsupportedExtension(t *testing.T) {
	pl := pipeline.NewBuilder().Build()
	_, err := ProcessFile(context.Background(), pl, "input.docx")
	assert.ErrorIs(t, err, pipeline.ErrUnsupportedInput)
}

func TestProcessFileTokenPages(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "page.json", tokenPage)

	pl := pipeline.NewBuilder().Build()
	doc, err := ProcessFile(context.Background(), pl, path)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, 1, doc.Pages[0].PageNumber)
	assert.NotEmpty(t, doc.Pages[0].Blocks)
}

func TestProcessFileImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.png")
	require.NoError(t, imaging.Save(imaging.New(40, 40, color.White), path))

	pl := pipeline.NewBuilder().Build()
	doc, err := ProcessFile(context.Background(), pl, path)
	require.NoError(t, err)
	assert.Len(t, doc.Pages, 1)
}

func TestRunProcessesDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.json", tokenPage)
	writeFile(t, dir, "two.json", tokenPage)

	cfg := DefaultConfig()
	cfg.Quiet = true

	pl := pipeline.NewBuilder().Build()
	result, err := Run(context.Background(), pl, []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
	assert.Zero(t, result.Failed())
	assert.Contains(t, result.Files[0].Path, "one.json")
	assert.NotEmpty(t, result.Files[0].Document.Pages)
}

func TestRunEmptyDirectory(t *testing.T) {
	pl := pipeline.NewBuilder().Build()
	_, err := Run(context.Background(), pl, []string{t.TempDir()}, DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no processable files")
}

func TestRunStopsOnFirstError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", "{not json")
	writeFile(t, dir, "good.json", tokenPage)

	cfg := DefaultConfig()
	cfg.Quiet = true

	pl := pipeline.NewBuilder().Build()
	_, err := Run(context.Background(), pl, []string{dir}, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.json")
}

func TestRunContinueOnError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", "{not json")
	writeFile(t, dir, "good.json", tokenPage)

	cfg := DefaultConfig()
	cfg.Quiet = true
	cfg.ContinueOnError = true

	pl := pipeline.NewBuilder().Build()
	result, err := Run(context.Background(), pl, []string{dir}, cfg)
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
	assert.Equal(t, 1, result.Failed())
	assert.NotEmpty(t, result.Files[0].Err)
	assert.Empty(t, result.Files[1].Err)
}

func sampleResult() *Result {
	return &Result{Files: []FileResult{
		{
			Path: "a.json",
			Document: document.Document{
				Pages: []document.Page{{
					PageNumber: 1,
					Blocks:     []document.Block{{Type: document.BlockParagraph, Text: "hello"}},
				}},
				FullTextNormalized: "hello",
				Markdown:           "hello md",
				HTML:               "<p>hello</p>",
			},
		},
		{Path: "b.json", Err: "boom"},
	}}
}

func TestFormatText(t *testing.T) {
	out, err := sampleResult().Format("text")
	require.NoError(t, err)
	assert.Contains(t, out, "# a.json\nhello")
	assert.Contains(t, out, "# b.json\nerror: boom")
}

func TestFormatCSV(t *testing.T) {
	out, err := sampleResult().Format("csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "file,pages,blocks,tables,quality,error", lines[0])
	assert.Equal(t, "a.json,1,1,0,0.000,", lines[1])
	assert.Equal(t, "b.json,0,0,0,0.000,boom", lines[2])
}

func TestFormatJSON(t *testing.T) {
	out, err := sampleResult().Format("json")
	require.NoError(t, err)
	assert.Contains(t, out, `"file": "a.json"`)
	assert.Contains(t, out, `"error": "boom"`)
}

func TestFormatInvalid(t *testing.T) {
	_, err := sampleResult().Format("yaml")
	assert.Error(t, err)
}

func TestSavePerFileOutputs(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Format = "md"
	cfg.OutputDir = dir

	require.NoError(t, sampleResult().Save(cfg))

	data, err := os.ReadFile(filepath.Join(dir, "a.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello md")

	// Failed files get no output.
	_, err = os.Stat(filepath.Join(dir, "b.md"))
	assert.True(t, os.IsNotExist(err))
}

func TestSaveCombinedFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "combined.txt")
	cfg := DefaultConfig()
	cfg.Format = "text"
	cfg.OutputFile = out

	require.NoError(t, sampleResult().Save(cfg))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# a.json")
}
