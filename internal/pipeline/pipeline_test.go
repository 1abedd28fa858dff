package pipeline

import (
	"context"
	"fmt"
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/engine"
	"github.com/MeKo-Tech/docstruct/internal/testutil"
)

func tokenInput(pageNumber int, words ...string) PageInput {
	return PageInput{
		PageNumber: pageNumber,
		Tokens: testutil.Paragraph(20, 22, 14,
			words[:len(words)/2], words[len(words)/2:]),
	}
}

func TestProcessPageTokens(t *testing.T) {
	p := NewBuilder().Build()
	in := tokenInput(1, "the", "quick", "brown", "fox", "jumps", "over", "lazy", "dogs")

	page := p.ProcessPage(context.Background(), in)
	assert.Equal(t, 1, page.PageNumber)
	require.NotEmpty(t, page.Blocks)
	assert.Equal(t, document.PagePrinted, page.Classification)
	assert.NotNil(t, page.Routing.AvgConfidence)
}

func TestProcessPageTextLayer(t *testing.T) {
	p := NewBuilder().Build()
	in := PageInput{PageNumber: 2, Text: "First paragraph.\n\nSecond paragraph."}

	page := p.ProcessPage(context.Background(), in)
	assert.Equal(t, document.PagePrinted, page.Classification)
	require.Len(t, page.Blocks, 2)
	for _, b := range page.Blocks {
		assert.Equal(t, "text_layer", b.Engine)
		assert.Equal(t, document.ScriptPrinted, b.Script)
	}
	assert.Empty(t, page.Tables)
}

func TestProcessPageEmptyInput(t *testing.T) {
	p := NewBuilder().Build()
	page := p.ProcessPage(context.Background(), PageInput{PageNumber: 1})

	assert.Equal(t, document.PageUnknown, page.Classification)
	assert.Empty(t, page.Blocks)
	assert.NotNil(t, page.EngineUsage)
}

func TestProcessPagesPreservesInputOrder(t *testing.T) {
	p := NewBuilder().WithWorkers(4).Build()

	var inputs []PageInput
	for i := 1; i <= 12; i++ {
		inputs = append(inputs, tokenInput(i,
			"page", fmt.Sprintf("number%d", i), "content", "words", "here", "again"))
	}

	pages, err := p.ProcessPages(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, pages, 12)
	for i, page := range pages {
		assert.Equal(t, i+1, page.PageNumber)
	}
}

func TestProcessPagesEmpty(t *testing.T) {
	p := NewBuilder().Build()
	pages, err := p.ProcessPages(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, pages)
}

func TestProcessPagesCancelled(t *testing.T) {
	p := NewBuilder().WithWorkers(4).Build()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var inputs []PageInput
	for i := 1; i <= 8; i++ {
		inputs = append(inputs, tokenInput(i, "some", "words", "on", "page"))
	}

	pages, err := p.ProcessPages(ctx, inputs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, len(pages), len(inputs))
}

type recordingProgress struct {
	mu       sync.Mutex
	started  int
	updates  int
	complete bool
}

func (r *recordingProgress) OnStart(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = total
}

func (r *recordingProgress) OnProgress(current, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
}

func (r *recordingProgress) OnComplete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complete = true
}

func TestProcessPagesReportsProgress(t *testing.T) {
	rec := &recordingProgress{}
	p := NewBuilder().WithWorkers(2).WithProgress(rec).Build()

	inputs := []PageInput{
		tokenInput(1, "alpha", "beta", "gamma", "delta"),
		tokenInput(2, "first", "second", "third", "fourth"),
		tokenInput(3, "more", "words", "to", "process"),
	}
	_, err := p.ProcessPages(context.Background(), inputs)
	require.NoError(t, err)

	assert.Equal(t, 3, rec.started)
	assert.Equal(t, 3, rec.updates)
	assert.True(t, rec.complete)
}

func TestProcessDocumentAssembles(t *testing.T) {
	p := NewBuilder().Build()
	inputs := []PageInput{
		{PageNumber: 1, Text: "A printed page of extracted text."},
		{PageNumber: 2, Text: "Another page follows it."},
	}

	doc, err := p.ProcessDocument(context.Background(), inputs)
	require.NoError(t, err)
	require.Len(t, doc.Pages, 2)

	assert.Equal(t, "2", doc.Metadata["num_pages"])
	assert.NotEmpty(t, doc.Metadata["job_id"])
	assert.NotEmpty(t, doc.Metadata["created_at"])

	assert.Contains(t, doc.FullText, "A printed page of extracted text.")
	assert.Contains(t, doc.FullText, "Another page follows it.")
	assert.NotEmpty(t, doc.Markdown)
	assert.NotEmpty(t, doc.HTML)
	assert.NotEmpty(t, doc.Chunks)

	assert.Equal(t, 2, doc.Diagnostics.NumPages)
	require.Len(t, doc.Diagnostics.Pages, 2)
	assert.Equal(t, 1, doc.Diagnostics.Pages[0].PageNumber)
	assert.Positive(t, doc.Diagnostics.Pages[0].Quality)
}

func TestProcessImageUsesPrimaryEngine(t *testing.T) {
	mock := engine.NewMock("primary-mock", "")
	mock.Default = engine.Result{
		Tokens: engine.TokensFromWords([]string{"hello", "from", "the", "primary", "engine", "mock"}, 20, 14),
	}
	p := NewBuilder().WithPrimaryEngine(mock).Build()

	page, err := p.ProcessImage(context.Background(), 1, testutil.WhitePage(400, 300))
	require.NoError(t, err)
	require.NotEmpty(t, page.Blocks)
	assert.Contains(t, page.Blocks[0].Text, "hello")
	assert.GreaterOrEqual(t, mock.CallCount(), 1)
}

func TestProcessImagesPropagatesEngineError(t *testing.T) {
	mock := engine.NewMock("broken", "")
	mock.Err = assert.AnError
	p := NewBuilder().WithPrimaryEngine(mock).Build()

	_, err := p.ProcessImages(context.Background(), []image.Image{testutil.WhitePage(100, 100)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 1")
}

func TestBuilderDefaults(t *testing.T) {
	p := NewBuilder().Build()
	assert.Positive(t, p.Config().Workers)
	assert.Equal(t, uint(1), p.Config().RetryAttempts)

	p = NewBuilder().WithWorkers(3).Build()
	assert.Equal(t, 3, p.Config().Workers)
}
