package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMultiRendersAllAndJoinsErrors(t *testing.T) {
	var got []string
	boom := errors.New("boom")
	m := Multi{
		Func(func(_ context.Context, markup string) error {
			got = append(got, "a:"+markup)
			return nil
		}),
		nil,
		Func(func(_ context.Context, markup string) error {
			got = append(got, "b:"+markup)
			return boom
		}),
		Discard,
	}

	err := m.Render(context.Background(), "<p></p>")
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if strings.Join(got, ",") != "a:<p></p>,b:<p></p>" {
		t.Errorf("render order = %v", got)
	}

	if err := (Multi{Discard}).Render(context.Background(), "x"); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}

func TestSandboxDocumentEscapesMarkup(t *testing.T) {
	markup := `<html><body><p class="x">"hi" & bye</p></iframe><script>parent.document.title='pwned'</script></body></html>`

	doc, err := SandboxDocument("Login", markup)
	if err != nil {
		t.Fatalf("SandboxDocument: %v", err)
	}

	if !strings.Contains(doc, `sandbox="allow-scripts"`) {
		t.Error("frame must be sandboxed with allow-scripts only")
	}
	if strings.Contains(doc, "allow-same-origin") {
		t.Error("frame must not get same-origin access")
	}
	if strings.Count(doc, "<iframe") != 1 || strings.Count(doc, "</iframe>") != 1 {
		t.Error("markup escaped the frame")
	}
	if strings.Contains(doc, "<script>") {
		t.Error("markup script reached the host document")
	}
	if !strings.Contains(doc, "&lt;script&gt;") {
		t.Error("expected entity-escaped markup in srcdoc")
	}
	if !strings.Contains(doc, "<title>Login</title>") {
		t.Error("title missing")
	}
}

func TestSandboxDocumentDefaultTitle(t *testing.T) {
	doc, err := SandboxDocument("", "<p></p>")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc, "<title>Preview</title>") {
		t.Errorf("expected default title in %s", doc)
	}
}

func TestFileRenderer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "page.html")

	f := &FileRenderer{Path: path, Title: "Demo"}
	if err := f.Render(context.Background(), "<h1>one</h1>"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "&lt;h1&gt;one&lt;/h1&gt;") || !strings.Contains(string(data), "<iframe") {
		t.Errorf("expected host page, got %s", data)
	}

	// Second render replaces the first.
	f.Raw = true
	if err := f.Render(context.Background(), "<h1>two</h1>"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	data, _ = os.ReadFile(path)
	if string(data) != "<h1>two</h1>" {
		t.Errorf("raw file = %q", data)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestFileRendererFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	f := &FileRenderer{Path: filepath.Join(blocker, "page.html")}
	if err := f.Render(context.Background(), "<p></p>"); !errors.Is(err, ErrRenderFailure) {
		t.Fatalf("expected ErrRenderFailure, got %v", err)
	}
}

func TestHighlightHTML(t *testing.T) {
	out, err := HighlightHTML(`<div class="p-4">hi</div>`)
	if err != nil {
		t.Fatalf("HighlightHTML: %v", err)
	}
	if !strings.Contains(out, "<pre") {
		t.Errorf("expected a code block, got %s", out)
	}
	if strings.Contains(out, `<div class="p-4">`) {
		t.Error("markup must be escaped in the code view")
	}
	if !strings.Contains(out, "p-4") {
		t.Error("markup text missing from the code view")
	}
}

func TestHighlightHTMLWithBackticks(t *testing.T) {
	out, err := HighlightHTML("<pre>```js\nx```</pre>")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(out, "<pre") != 1 {
		t.Errorf("backticks in the document split the code block: %s", out)
	}
}
