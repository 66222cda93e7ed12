package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newHeadless(t *testing.T) *Headless {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping headless chrome in -short mode")
	}
	h, err := NewHeadless(HeadlessOptions{Timeout: 20 * time.Second, Width: 800, Height: 600})
	if errors.Is(err, ErrNoBrowser) {
		t.Skip("no chrome binary on PATH")
	}
	if err != nil {
		t.Fatalf("NewHeadless: %v", err)
	}
	return h
}

func TestFindChromeExplicitMissing(t *testing.T) {
	if _, err := FindChrome("/nonexistent/chrome-binary"); err == nil {
		t.Error("expected an error for a missing explicit path")
	}
}

func TestNewHeadlessMissingBrowser(t *testing.T) {
	_, err := NewHeadless(HeadlessOptions{ChromePath: "/nonexistent/chrome-binary"})
	if !errors.Is(err, ErrRenderFailure) {
		t.Errorf("expected ErrRenderFailure, got %v", err)
	}
}

func TestHeadlessSnapshot(t *testing.T) {
	h := newHeadless(t)

	markup := `<!DOCTYPE html><html><head><title>Login</title></head>` +
		`<body><h1>Sign in</h1><script>document.body.appendChild(document.createTextNode("scripted"))</script></body></html>`

	snap, err := h.Snapshot(context.Background(), markup, true)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Title != "Login" {
		t.Errorf("Title = %q", snap.Title)
	}
	if !strings.Contains(snap.Text, "Sign in") || !strings.Contains(snap.Text, "scripted") {
		t.Errorf("Text = %q", snap.Text)
	}
	if !bytes.HasPrefix(snap.PNG, []byte("\x89PNG")) {
		t.Error("expected a PNG screenshot")
	}
}

func TestHeadlessRenderCanceled(t *testing.T) {
	h := newHeadless(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := h.Render(ctx, "<p></p>"); !errors.Is(err, ErrRenderFailure) {
		t.Errorf("expected ErrRenderFailure, got %v", err)
	}
}
