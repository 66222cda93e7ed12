package generate

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/pageforge/internal/llm"
	"github.com/ziadkadry99/pageforge/internal/llm/llmtest"
)

func newRouter(p llm.Provider, maxBody int64) http.Handler {
	gw := New(p, Options{Model: "gemini-1.5-flash"})
	r := chi.NewRouter()
	RegisterRoutes(r, gw, maxBody)
	return r
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("error Content-Type = %q", ct)
	}
	var body ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body.Error
}

func TestGenerateEndpointStreamsCreate(t *testing.T) {
	mock := llmtest.NewStreaming("<!DOCTYPE html>\n", "<html><body>", "<form>login</form>", "</body></html>")
	h := newRouter(mock, 0)

	w := post(t, h, "/api/generate", `{"prompt":"build a login page"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if body != "<!DOCTYPE html>\n<html><body><form>login</form></body></html>" {
		t.Errorf("body = %q", body)
	}
	if strings.Contains(body, "```") {
		t.Error("body should contain no fence markers")
	}
	if !w.Flushed {
		t.Error("stream should be flushed as chunks arrive")
	}
}

func TestGenerateEndpointMissingPrompt(t *testing.T) {
	for _, body := range []string{`{}`, `{"prompt":""}`, ``, `{"currentMarkup":"<p></p>"}`} {
		mock := llmtest.NewStreaming("<html>")
		h := newRouter(mock, 0)

		w := post(t, h, "/api/generate", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d", body, w.Code)
		}
		if msg := decodeError(t, w); msg != "Prompt is required" {
			t.Errorf("body %q: error = %q", body, msg)
		}
		if mock.CallCount() != 0 {
			t.Errorf("body %q: provider called", body)
		}
	}
}

func TestGenerateEndpointEditMode(t *testing.T) {
	mock := llmtest.New("```html\n<html><header class=\"bg-red-500\"></header></html>\n```")
	h := newRouter(mock, 0)

	w := post(t, h, "/api/generate", `{"prompt":"make the header red","currentMarkup":"<html><header></header></html>"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var resp EditResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.NewMarkup != `<html><header class="bg-red-500"></header></html>` {
		t.Errorf("newMarkup = %q", resp.NewMarkup)
	}
}

func TestGenerateEndpointEditFailure(t *testing.T) {
	mock := llmtest.New("")
	mock.Err = errors.New("context deadline exceeded")
	h := newRouter(mock, 0)

	w := post(t, h, "/api/generate", `{"prompt":"x","currentMarkup":"<html></html>"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Failed to process request" {
		t.Errorf("error = %q", msg)
	}
}

func TestGenerateEndpointFailureBeforeFirstChunk(t *testing.T) {
	mock := llmtest.NewStreaming("<html>")
	mock.Err = errors.New("quota exceeded")
	h := newRouter(mock, 0)

	w := post(t, h, "/api/generate", `{"prompt":"x"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Failed to process request" {
		t.Errorf("error = %q", msg)
	}
}

func TestGenerateEndpointAbortsBrokenStream(t *testing.T) {
	mock := llmtest.NewStreaming("<html>", "<body>", "</body></html>")
	mock.Err = errors.New("connection reset")
	mock.FailAfter = 1
	srv := httptest.NewServer(newRouter(mock, 0))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/generate", "application/json", strings.NewReader(`{"prompt":"x"}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err == nil {
		t.Fatalf("expected a broken stream, read %q cleanly", body)
	}
	if string(body) != "<html>" {
		t.Errorf("expected the chunk before the failure, got %q", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newRouter(llmtest.New("x"), 0)

	for _, path := range []string{"/api/generate", "/api/edit", "/api/visualize"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			req := httptest.NewRequest(method, path, nil)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("%s %s: status = %d", method, path, w.Code)
			}
			if allow := w.Header().Get("Allow"); allow != "POST" {
				t.Errorf("%s %s: Allow = %q", method, path, allow)
			}
			if msg := decodeError(t, w); msg != "Method Not Allowed" {
				t.Errorf("%s %s: error = %q", method, path, msg)
			}
		}
	}
}

func TestInvalidJSONBody(t *testing.T) {
	h := newRouter(llmtest.New("x"), 0)

	w := post(t, h, "/api/generate", `{"prompt":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Invalid JSON body" {
		t.Errorf("error = %q", msg)
	}
}

func TestBodyTooLarge(t *testing.T) {
	mock := llmtest.New("x")
	h := newRouter(mock, 64)

	body := `{"prompt":"` + strings.Repeat("a", 200) + `"}`
	w := post(t, h, "/api/generate", body)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Request body too large" {
		t.Errorf("error = %q", msg)
	}
	if mock.CallCount() != 0 {
		t.Error("provider should not be called")
	}
}

func TestEditEndpoint(t *testing.T) {
	mock := llmtest.New("<html>new</html>")
	h := newRouter(mock, 0)

	w := post(t, h, "/api/edit", `{"prompt":"change it","currentMarkup":"<html>old</html>"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp EditResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.NewMarkup != "<html>new</html>" {
		t.Errorf("newMarkup = %q", resp.NewMarkup)
	}

	w = post(t, h, "/api/edit", `{"prompt":"change it"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Current markup and prompt are required" {
		t.Errorf("error = %q", msg)
	}
}

func TestVisualizeEndpoint(t *testing.T) {
	mock := llmtest.New("```text\n[Auth] -> [DB]\n```")
	h := newRouter(mock, 0)

	w := post(t, h, "/api/visualize", `{"markup":"<form></form>"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp VisualizeResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Diagram != "[Auth] -> [DB]" {
		t.Errorf("diagram = %q", resp.Diagram)
	}

	w = post(t, h, "/api/visualize", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Markup is required" {
		t.Errorf("error = %q", msg)
	}
}

func TestVisualizeEndpointFailure(t *testing.T) {
	mock := llmtest.New("")
	mock.Err = errors.New("boom")
	h := newRouter(mock, 0)

	w := post(t, h, "/api/visualize", `{"markup":"<p></p>"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Failed to generate visualization" {
		t.Errorf("error = %q", msg)
	}
}
