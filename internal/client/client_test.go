package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ziadkadry99/pageforge/internal/generate"
	"github.com/ziadkadry99/pageforge/internal/llm"
	"github.com/ziadkadry99/pageforge/internal/llm/llmtest"
)

func startServer(t *testing.T, p llm.Provider) *Client {
	t.Helper()
	r := chi.NewRouter()
	generate.RegisterRoutes(r, generate.New(p, generate.Options{}), 0)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func TestCreateStreams(t *testing.T) {
	c := startServer(t, llmtest.NewStreaming("<html>", "<body>hello</body>", "</html>"))

	var sb strings.Builder
	err := c.Create(context.Background(), "hello page", func(chunk string) error {
		sb.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sb.String() != "<html><body>hello</body></html>" {
		t.Errorf("got %q", sb.String())
	}
}

func TestCreateMissingPrompt(t *testing.T) {
	c := startServer(t, llmtest.NewStreaming("<html>"))

	err := c.Create(context.Background(), "", func(string) error { return nil })
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest || apiErr.Message != "Prompt is required" {
		t.Errorf("unexpected error %#v", err)
	}
}

func TestCreateUpstreamFailure(t *testing.T) {
	mock := llmtest.NewStreaming("<html>")
	mock.Err = errors.New("down")
	c := startServer(t, mock)

	err := c.Create(context.Background(), "x", func(string) error { return nil })
	if !errors.Is(err, generate.ErrGenerationFailure) {
		t.Fatalf("expected generation failure, got %v", err)
	}
	if errors.Is(err, ErrInvalidRequest) {
		t.Error("500 must not match ErrInvalidRequest")
	}
}

func TestCreateInterruptedStream(t *testing.T) {
	mock := llmtest.NewStreaming("<html>", "<body>")
	mock.Err = errors.New("reset")
	mock.FailAfter = 1
	c := startServer(t, mock)

	var got string
	err := c.Create(context.Background(), "x", func(chunk string) error {
		got += chunk
		return nil
	})
	if !errors.Is(err, ErrStreamInterrupted) {
		t.Fatalf("expected ErrStreamInterrupted, got %v", err)
	}
	if got != "<html>" {
		t.Errorf("expected the bytes before the break, got %q", got)
	}
}

func TestCreateKeepsRunesWhole(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		euro := []byte("€")
		w.Write(append([]byte("<p>"), euro[:1]...))
		w.(http.Flusher).Flush()
		w.Write(append(euro[1:], []byte("</p>")...))
	})
	srv := httptest.NewServer(h)
	defer srv.Close()

	var chunks []string
	err := New(srv.URL).Create(context.Background(), "x", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, c := range chunks {
		if !strings.HasPrefix(c, "<") && !strings.HasPrefix(c, "€") {
			t.Errorf("chunk %q starts mid-rune", c)
		}
	}
	if strings.Join(chunks, "") != "<p>€</p>" {
		t.Errorf("joined = %q", strings.Join(chunks, ""))
	}
}

func TestEdit(t *testing.T) {
	mock := llmtest.New("```html\n<html>red</html>\n```")
	c := startServer(t, mock)

	got, err := c.Edit(context.Background(), "make it red", "<html>blue</html>")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got != "<html>red</html>" {
		t.Errorf("Edit = %q", got)
	}
	if !strings.Contains(mock.LastCall().Messages[1].Content, "<html>blue</html>") {
		t.Error("current markup not sent")
	}
}

func TestEditOnlyRequiresMarkup(t *testing.T) {
	c := startServer(t, llmtest.New("<html></html>"))

	_, err := c.EditOnly(context.Background(), "make it red", "")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "Current markup and prompt are required" {
		t.Fatalf("unexpected error %v", err)
	}

	got, err := c.EditOnly(context.Background(), "make it red", "<p></p>")
	if err != nil || got != "<html></html>" {
		t.Errorf("EditOnly = %q, %v", got, err)
	}
}

func TestVisualize(t *testing.T) {
	c := startServer(t, llmtest.New("```\n[UI] -> [API]\n```"))

	got, err := c.Visualize(context.Background(), "<p></p>")
	if err != nil {
		t.Fatalf("Visualize: %v", err)
	}
	if got != "[UI] -> [API]" {
		t.Errorf("Visualize = %q", got)
	}

	if _, err := c.Visualize(context.Background(), ""); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL).Visualize(context.Background(), "<p></p>")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway || apiErr.Message != "bad gateway" {
		t.Fatalf("unexpected error %#v", err)
	}
}

func TestSplitUTF8(t *testing.T) {
	euro := []byte("€")
	tests := []struct {
		in             []byte
		complete, rest string
	}{
		{[]byte("abc"), "abc", ""},
		{append([]byte("a"), euro[:1]...), "a", string(euro[:1])},
		{append([]byte("a"), euro[:2]...), "a", string(euro[:2])},
		{append([]byte("a"), euro...), "a€", ""},
		{nil, "", ""},
	}
	for _, tt := range tests {
		c, r := splitUTF8(tt.in)
		if string(c) != tt.complete || string(r) != tt.rest {
			t.Errorf("splitUTF8(%q) = %q, %q", tt.in, c, r)
		}
	}
}
