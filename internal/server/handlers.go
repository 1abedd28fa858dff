package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/pdf"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// TokenPageRequest is one pre-recognized page submitted as JSON.
type TokenPageRequest struct {
	PageNumber int              `json:"page_number"`
	Tokens     []document.Token `json:"tokens,omitempty"`
	Text       string           `json:"text,omitempty"`
}

// ProcessRequest is the JSON body for POST /process.
type ProcessRequest struct {
	Pages []TokenPageRequest `json:"pages"`
}

// ErrorResponse is the JSON error payload.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Error("encoding health response", "error", err)
	}
}

// processHandler accepts a multipart upload (image or PDF under the "file"
// field) or a JSON body of pre-recognized token pages, runs the full
// pipeline, and writes the document in the requested format.
func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadMB*1024*1024)

	start := time.Now()
	var (
		doc     document.Document
		reqType string
		err     error
	)

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		doc, reqType, err = s.processUpload(r)
	case strings.HasPrefix(contentType, "application/json"), contentType == "":
		reqType = "tokens"
		doc, err = s.processTokenPages(r)
	default:
		s.writeErrorResponse(w, "Unsupported content type", http.StatusUnsupportedMediaType)
		return
	}

	if err != nil {
		processRequestsTotal.WithLabelValues(reqType, "error").Inc()
		var he *httpError
		if errors.As(err, &he) {
			s.writeErrorResponse(w, he.message, he.status)
		} else {
			s.writeErrorResponse(w, fmt.Sprintf("processing failed: %v", err), http.StatusInternalServerError)
		}
		return
	}

	processRequestsTotal.WithLabelValues(reqType, "success").Inc()
	processDuration.WithLabelValues(reqType).Observe(time.Since(start).Seconds())
	textLength.WithLabelValues(reqType).Observe(float64(len(doc.FullTextNormalized)))
	pagesProcessed.Observe(float64(len(doc.Pages)))

	s.writeDocument(w, r, doc)
}

// httpError carries a status code alongside a message for handler plumbing.
type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string { return e.message }

// processUpload routes a multipart upload to the image or PDF path.
func (s *Server) processUpload(r *http.Request) (document.Document, string, error) {
	if err := r.ParseMultipartForm(s.maxUploadMB * 1024 * 1024); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "too large") {
			return document.Document{}, "upload", &httpError{http.StatusRequestEntityTooLarge, "File too large"}
		}
		return document.Document{}, "upload", &httpError{http.StatusBadRequest, "Failed to parse form data"}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return document.Document{}, "upload", &httpError{http.StatusBadRequest, "No file provided"}
	}
	defer func() { _ = file.Close() }()

	uploadSizeBytes.Observe(float64(header.Size))

	if isPDF(header) {
		doc, err := s.processPDFUpload(r, file, header)
		return doc, "pdf", err
	}
	doc, err := s.processImageUpload(r, file)
	return doc, "image", err
}

// isPDF detects PDF uploads by extension or declared content type.
func isPDF(header *multipart.FileHeader) bool {
	if strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return true
	}
	return header.Header.Get("Content-Type") == "application/pdf"
}

func (s *Server) processImageUpload(r *http.Request, file multipart.File) (document.Document, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return document.Document{}, &httpError{http.StatusInternalServerError, "Failed to read image data"}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return document.Document{}, &httpError{http.StatusBadRequest, "Invalid image format"}
	}

	return s.pipeline.ProcessImages(r.Context(), []image.Image{img})
}

// processPDFUpload spools the upload to disk, validates it, and processes the
// text layer of every page.
func (s *Server) processPDFUpload(r *http.Request, file multipart.File, header *multipart.FileHeader) (document.Document, error) {
	tmp, err := os.CreateTemp("", "docstruct-*.pdf")
	if err != nil {
		return document.Document{}, &httpError{http.StatusInternalServerError, "Failed to spool upload"}
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, file); err != nil {
		return document.Document{}, &httpError{http.StatusInternalServerError, "Failed to spool upload"}
	}

	if err := pdf.Validate(tmp.Name()); err != nil {
		s.logger.Warn("pdf validation failed", "file", header.Filename, "error", err)
		return document.Document{}, &httpError{http.StatusBadRequest, "Invalid PDF"}
	}

	pageTexts, err := pdf.ExtractText(tmp.Name())
	if err != nil {
		return document.Document{}, fmt.Errorf("extract text from %q: %w", header.Filename, err)
	}

	inputs := make([]pipeline.PageInput, 0, len(pageTexts))
	for _, pt := range pageTexts {
		in := pipeline.PageInput{PageNumber: pt.PageNumber}
		if pt.Usable() {
			in.Text = pt.Text
		}
		inputs = append(inputs, in)
	}
	return s.pipeline.ProcessDocument(r.Context(), inputs)
}

// processTokenPages processes pre-recognized token pages submitted as JSON.
func (s *Server) processTokenPages(r *http.Request) (document.Document, error) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return document.Document{}, &httpError{http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err)}
	}
	if len(req.Pages) == 0 {
		return document.Document{}, &httpError{http.StatusBadRequest, "No pages provided"}
	}

	inputs := make([]pipeline.PageInput, 0, len(req.Pages))
	for i, page := range req.Pages {
		num := page.PageNumber
		if num <= 0 {
			num = i + 1
		}
		inputs = append(inputs, pipeline.PageInput{
			PageNumber: num,
			Tokens:     page.Tokens,
			Text:       page.Text,
		})
	}
	return s.pipeline.ProcessDocument(r.Context(), inputs)
}

// writeDocument writes the document in the format selected via the 'format'
// query or form value: json (default), md, html, or text.
func (s *Server) writeDocument(w http.ResponseWriter, r *http.Request, doc document.Document) {
	format := r.FormValue("format")
	if format == "" {
		format = r.URL.Query().Get("format")
	}

	switch strings.ToLower(format) {
	case "md", "markdown":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(doc.Markdown))
	case "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(doc.HTML))
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(doc.FullTextNormalized))
	default:
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			s.logger.Error("encoding document response", "error", err)
		}
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: message}); err != nil {
		s.logger.Error("encoding error response", "error", err)
	}
}
