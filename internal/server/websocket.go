package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/docstruct/internal/document"
	"github.com/MeKo-Tech/docstruct/internal/pipeline"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are delegated to the CORS configuration in front of
		// this server.
		return true
	},
}

// WebSocketRequest is a processing request sent over the socket. Exactly one
// of Image or Pages is expected; Image carries raw encoded image bytes
// (base64 in the JSON wire form).
type WebSocketRequest struct {
	Type  string             `json:"type"` // "image" or "pages"
	Image []byte             `json:"image,omitempty"`
	Pages []TokenPageRequest `json:"pages,omitempty"`
}

// WebSocketResponse is a processing status or result message.
type WebSocketResponse struct {
	Type      string  `json:"type"`
	Status    string  `json:"status"` // "processing", "page_done", "completed", "error"
	Progress  float64 `json:"progress,omitempty"`
	Page      int     `json:"page,omitempty"`
	Result    any     `json:"result,omitempty"`
	Error     string  `json:"error,omitempty"`
	ErrorType string  `json:"error_type,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
}

// wsWriter is the subset of *websocket.Conn the senders need.
type wsWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// processWebSocketHandler upgrades the connection and streams per-page
// progress while processing.
func (s *Server) processWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.logger.Info("websocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r, conn)
}

func (s *Server) handleWebSocketConnection(r *http.Request, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Keepalive pings until the connection drops.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error("websocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(r, conn, data)
		}
	}
}

func (s *Server) handleWebSocketMessage(r *http.Request, conn *websocket.Conn, data []byte) {
	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("failed to parse request: %v", err))
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "process_response",
		Status:    "processing",
		RequestID: requestID,
	})

	switch req.Type {
	case "image":
		s.processWebSocketImage(r, conn, req, requestID)
	case "pages":
		s.processWebSocketPages(r, conn, req, requestID)
	default:
		s.sendWebSocketError(conn, "invalid_request", "unsupported request type: "+req.Type)
	}
}

func (s *Server) processWebSocketImage(r *http.Request, conn *websocket.Conn, req WebSocketRequest, requestID string) {
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, "invalid_request", "no image data provided")
		return
	}

	img, _, err := image.Decode(bytes.NewReader(req.Image))
	if err != nil {
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("failed to decode image: %v", err))
		return
	}

	start := time.Now()
	doc, err := s.pipeline.ProcessImages(r.Context(), []image.Image{img})
	if err != nil {
		processRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("processing failed: %v", err))
		return
	}

	processRequestsTotal.WithLabelValues("websocket", "success").Inc()
	processDuration.WithLabelValues("websocket").Observe(time.Since(start).Seconds())
	textLength.WithLabelValues("websocket").Observe(float64(len(doc.FullTextNormalized)))

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "process_response",
		Status:    "completed",
		Progress:  1.0,
		Result:    doc,
		RequestID: requestID,
	})
}

// processWebSocketPages processes token pages one at a time, streaming a
// progress message after each page, then the assembled document.
func (s *Server) processWebSocketPages(r *http.Request, conn *websocket.Conn, req WebSocketRequest, requestID string) {
	if len(req.Pages) == 0 {
		s.sendWebSocketError(conn, "invalid_request", "no pages provided")
		return
	}

	start := time.Now()
	pages := make([]document.Page, 0, len(req.Pages))
	for i, page := range req.Pages {
		num := page.PageNumber
		if num <= 0 {
			num = i + 1
		}
		processed := s.pipeline.ProcessPage(r.Context(), pipeline.PageInput{
			PageNumber: num,
			Tokens:     page.Tokens,
			Text:       page.Text,
		})
		pages = append(pages, processed)

		s.sendWebSocketResponse(conn, WebSocketResponse{
			Type:      "process_response",
			Status:    "page_done",
			Progress:  float64(i+1) / float64(len(req.Pages)),
			Page:      num,
			RequestID: requestID,
		})
	}

	doc := s.pipeline.Assemble(pages)

	processRequestsTotal.WithLabelValues("websocket", "success").Inc()
	processDuration.WithLabelValues("websocket").Observe(time.Since(start).Seconds())
	textLength.WithLabelValues("websocket").Observe(float64(len(doc.FullTextNormalized)))
	pagesProcessed.Observe(float64(len(doc.Pages)))

	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "process_response",
		Status:    "completed",
		Progress:  1.0,
		Result:    doc,
		RequestID: requestID,
	})
}

func (s *Server) sendWebSocketResponse(conn wsWriter, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("marshaling websocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("sending websocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

func (s *Server) sendWebSocketError(conn wsWriter, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}
