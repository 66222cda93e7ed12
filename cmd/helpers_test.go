package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/ziadkadry99/pageforge/internal/generate"
	"github.com/ziadkadry99/pageforge/internal/llm/llmtest"
)

func TestReadPromptJoinsArgs(t *testing.T) {
	got, err := readPrompt([]string{"a", "landing", "page"})
	if err != nil {
		t.Fatalf("readPrompt: %v", err)
	}
	if got != "a landing page" {
		t.Errorf("readPrompt = %q", got)
	}
}

func TestStreamCreateStripsFences(t *testing.T) {
	t.Setenv("CI", "1")
	mock := llmtest.NewStreaming("```html\n", "<html>", "<body>hi</body>", "</html>\n```")
	env := &backendEnv{Backend: generate.New(mock, generate.Options{})}

	got, err := streamCreate(context.Background(), env, "hi page", false, false)
	if err != nil {
		t.Fatalf("streamCreate: %v", err)
	}
	if got != "<html><body>hi</body></html>" {
		t.Errorf("got %q", got)
	}

	raw, err := streamCreate(context.Background(), env, "hi page", false, true)
	if err != nil {
		t.Fatalf("streamCreate: %v", err)
	}
	if raw != "```html\n<html><body>hi</body></html>\n```" {
		t.Errorf("keepFences got %q", raw)
	}
}

func TestStreamCreateFailure(t *testing.T) {
	t.Setenv("CI", "1")
	mock := llmtest.NewStreaming("<html>")
	mock.Err = errors.New("quota exceeded")
	env := &backendEnv{Backend: generate.New(mock, generate.Options{})}

	if _, err := streamCreate(context.Background(), env, "x", false, false); !errors.Is(err, generate.ErrGenerationFailure) {
		t.Fatalf("expected generation failure, got %v", err)
	}
}

func TestShorten(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a much longer prompt", 8, "a much …"},
		{"héllo wörld", 6, "héllo…"},
	}
	for _, tt := range tests {
		if got := shorten(tt.in, tt.n); got != tt.want {
			t.Errorf("shorten(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestSortedKeys(t *testing.T) {
	got := sortedKeys(map[string]int{"visualize": 1, "create": 2, "edit": 3})
	want := []string{"create", "edit", "visualize"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}
