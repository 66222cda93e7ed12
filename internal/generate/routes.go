package generate

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/pageforge/internal/history"
	"github.com/ziadkadry99/pageforge/internal/logging"
)

// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// EditResponse is the body of a successful edit.
type EditResponse struct {
	NewMarkup string `json:"newMarkup"`
}

// VisualizeRequest is the body accepted by the visualize endpoint.
type VisualizeRequest struct {
	Markup string `json:"markup"`
}

// VisualizeResponse is the body of a successful visualize call.
type VisualizeResponse struct {
	Diagram string `json:"diagram"`
}

// ErrorResponse is the body of every failed call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RegisterRoutes mounts the generate, edit and visualize endpoints.
func RegisterRoutes(r chi.Router, gw *Gateway, maxBodyBytes int64) {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	r.HandleFunc("/api/generate", postOnly(handleGenerate(gw, maxBodyBytes)))
	r.HandleFunc("/api/edit", postOnly(handleEdit(gw, maxBodyBytes)))
	r.HandleFunc("/api/visualize", postOnly(handleVisualize(gw, maxBodyBytes)))
}

func postOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
			return
		}
		next(w, r)
	}
}

func handleGenerate(gw *Gateway, maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if !decodeBody(w, r, maxBodyBytes, &req) {
			return
		}

		sw := &streamWriter{w: w, rc: http.NewResponseController(w)}
		result, err := gw.Generate(r.Context(), req, sw.write)
		if err != nil {
			if sw.started {
				// Headers and part of the document are already on the wire.
				// Abort so the client sees a broken stream, not a short page.
				logging.Warnf("aborting generate stream after %d bytes: %v", sw.written, err)
				panic(http.ErrAbortHandler)
			}
			writeGatewayError(w, err, "Failed to process request")
			return
		}

		if result.Mode == history.ModeEdit {
			writeJSON(w, http.StatusOK, EditResponse{NewMarkup: result.Markup})
			return
		}
		sw.start()
	}
}

func handleEdit(gw *Gateway, maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if !decodeBody(w, r, maxBodyBytes, &req) {
			return
		}

		markup, err := gw.Edit(r.Context(), req.Prompt, req.CurrentMarkup)
		if err != nil {
			writeGatewayError(w, err, "Failed to edit markup")
			return
		}
		writeJSON(w, http.StatusOK, EditResponse{NewMarkup: markup})
	}
}

func handleVisualize(gw *Gateway, maxBodyBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req VisualizeRequest
		if !decodeBody(w, r, maxBodyBytes, &req) {
			return
		}

		diagram, err := gw.Visualize(r.Context(), req.Markup)
		if err != nil {
			writeGatewayError(w, err, "Failed to generate visualization")
			return
		}
		writeJSON(w, http.StatusOK, VisualizeResponse{Diagram: diagram})
	}
}

// streamWriter defers the 200 header until the first chunk so that a
// failure before any output can still be reported as a 500.
type streamWriter struct {
	w       http.ResponseWriter
	rc      *http.ResponseController
	started bool
	written int
}

func (s *streamWriter) start() {
	if s.started {
		return
	}
	h := s.w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
}

func (s *streamWriter) write(chunk string) error {
	s.start()
	n, err := io.WriteString(s.w, chunk)
	s.written += n
	if err != nil {
		return err
	}
	if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

// decodeBody reads a JSON body into v. An empty body decodes as an empty
// object so that missing fields are reported by validation.
func decodeBody(w http.ResponseWriter, r *http.Request, maxBodyBytes int64, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return false
	}
	writeError(w, http.StatusBadRequest, "Invalid JSON body")
	return false
}

func writeGatewayError(w http.ResponseWriter, err error, failureMsg string) {
	var invalid *InvalidRequestError
	if errors.As(err, &invalid) {
		writeError(w, http.StatusBadRequest, invalid.Message)
		return
	}
	writeError(w, http.StatusInternalServerError, failureMsg)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
