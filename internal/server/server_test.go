package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// mockProcessor records inputs and returns a canned document.
type mockProcessor struct {
	doc    document.Document
	err    error
	inputs []pipeline.PageInput
	images int
}

func (m *mockProcessor) ProcessDocument(ctx context.Context, inputs []pipeline.PageInput) (document.Document, error) {
	m.inputs = inputs
	return m.doc, m.err
}

func (m *mockProcessor) ProcessImages(ctx context.Context, imgs []image.Image) (document.Document, error) {
	m.images = len(imgs)
	return m.doc, m.err
}

func (m *mockProcessor) ProcessPage(ctx context.Context, in pipeline.PageInput) document.Page {
	return document.Page{PageNumber: in.PageNumber}
}

func (m *mockProcessor) Assemble(pages []document.Page) document.Document {
	return m.doc
}

func testServer(mock *mockProcessor, cfg Config) *Server {
	if cfg.MaxUploadMB == 0 {
		cfg.MaxUploadMB = 10
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	return New(mock, cfg, nil)
}

func sampleDocument() document.Document {
	return document.Document{
		Pages:              []document.Page{{PageNumber: 1}},
		FullTextNormalized: "normalized text",
		Markdown:           "# Title",
		HTML:               "<div class='ocr-document'></div>",
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(&mockProcessor{}, Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealthRejectsPost(t *testing.T) {
	srv := testServer(&mockProcessor{}, Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := testServer(&mockProcessor{}, Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/process", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func processJSON(t *testing.T, srv *Server, body string, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestProcessTokenPages(t *testing.T) {
	mock := &mockProcessor{doc: sampleDocument()}
	srv := testServer(mock, Config{})

	rec := processJSON(t, srv,
		`{"pages":[{"text":"first page"},{"page_number":5,"text":"fifth page"}]}`, "/process")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	// Missing page numbers default to the position; explicit ones survive.
	require.Len(t, mock.inputs, 2)
	assert.Equal(t, 1, mock.inputs[0].PageNumber)
	assert.Equal(t, 5, mock.inputs[1].PageNumber)

	var doc document.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Len(t, doc.Pages, 1)
}

func TestProcessFormatSelection(t *testing.T) {
	mock := &mockProcessor{doc: sampleDocument()}
	srv := testServer(mock, Config{})

	rec := processJSON(t, srv, `{"pages":[{"text":"page"}]}`, "/process?format=md")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "# Title", rec.Body.String())

	rec = processJSON(t, srv, `{"pages":[{"text":"page"}]}`, "/process?format=text")
	assert.Equal(t, "normalized text", rec.Body.String())

	rec = processJSON(t, srv, `{"pages":[{"text":"page"}]}`, "/process?format=html")
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestProcessNoPages(t *testing.T) {
	srv := testServer(&mockProcessor{}, Config{})
	rec := processJSON(t, srv, `{"pages":[]}`, "/process")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	assert.False(t, errResp.Success)
	assert.Contains(t, errResp.Error, "No pages")
}

func TestProcessInvalidJSON(t *testing.T) {
	srv := testServer(&mockProcessor{}, Config{})
	rec := processJSON(t, srv, `{not json`, "/process")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessUnsupportedContentType(t *testing.T) {
	srv := testServer(&mockProcessor{}, Config{})
	req := httptest.NewRequest(http.MethodPost, "/process", strings.NewReader("data"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestProcessRejectsGet(t *testing.T) {
	srv := testServer(&mockProcessor{}, Config{})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/process", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestProcessImageUploadBadData(t *testing.T) {
	srv := testServer(&mockProcessor{}, Config{})

	var body bytes.Buffer
	req := httptest.NewRequest(http.MethodPost, "/process", &body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitEnforced(t *testing.T) {
	mock := &mockProcessor{doc: sampleDocument()}
	srv := testServer(mock, Config{RequestsPerMinute: 1})

	rec := processJSON(t, srv, `{"pages":[{"text":"page"}]}`, "/process")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = processJSON(t, srv, `{"pages":[{"text":"page"}]}`, "/process")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "minute", rec.Header().Get("X-RateLimit-Type"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimitDisabledByDefault(t *testing.T) {
	mock := &mockProcessor{doc: sampleDocument()}
	srv := testServer(mock, Config{})

	for range 5 {
		rec := processJSON(t, srv, `{"pages":[{"text":"page"}]}`, "/process")
		require.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", getClientIP(req))
}
