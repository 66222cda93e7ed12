package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
)

var codeMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
)

// HighlightHTML renders markup as a syntax-highlighted code block for the
// code view.
func HighlightHTML(markup string) (string, error) {
	// A run of backticks inside the document must not close the fence.
	fence := "```"
	for strings.Contains(markup, fence) {
		fence += "`"
	}

	var src strings.Builder
	src.WriteString(fence + "html\n")
	src.WriteString(markup)
	if !strings.HasSuffix(markup, "\n") {
		src.WriteByte('\n')
	}
	src.WriteString(fence + "\n")

	var buf bytes.Buffer
	if err := codeMarkdown.Convert([]byte(src.String()), &buf); err != nil {
		return "", fmt.Errorf("highlighting markup: %w", err)
	}
	return buf.String(), nil
}
