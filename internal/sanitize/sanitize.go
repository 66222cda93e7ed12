// Package sanitize removes the markdown fences models tend to wrap around
// generated markup and diagrams.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

const fence = "```"

// languageHint matches the remainder of an opening fence line such as
// "```html" or "```  ". Anything else on that line is treated as content.
var languageHint = regexp.MustCompile(`^[A-Za-z0-9_+.-]*\s*$`)

// Markup strips a leading fence (with an optional language hint line) and a
// trailing fence, then trims surrounding whitespace. It repeats until the
// text stops changing, so Markup(Markup(x)) == Markup(x). Text without fences
// is only trimmed.
func Markup(raw string) string {
	s := raw
	for {
		next := stripMarkupOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

// stripMarkupOnce keeps trailing newlines until the leading fence is gone:
// the newline is what ends a language hint line.
func stripMarkupOnce(s string) string {
	s, _ = splitLeadingFence(s, true)
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// splitLeadingFence removes an opening fence from s. ok is false when s is
// too short to decide and final is not set.
func splitLeadingFence(s string, final bool) (rest string, ok bool) {
	t := strings.TrimLeftFunc(s, unicode.IsSpace)
	if len(t) < len(fence) {
		if !final && strings.HasPrefix(fence, t) {
			return "", false
		}
		return t, true
	}
	if !strings.HasPrefix(t, fence) {
		return t, true
	}

	after := t[len(fence):]
	nl := strings.IndexByte(after, '\n')
	if nl < 0 {
		if !final && languageHint.MatchString(after) {
			return "", false
		}
		return after, true
	}
	if languageHint.MatchString(after[:nl]) {
		return after[nl+1:], true
	}
	return after, true
}

// Diagram strips the opening fence line (whatever its tag) and the closing
// fence from a model-produced diagram. Blank lines around the diagram and
// trailing whitespace are dropped; the first line keeps its indentation.
func Diagram(raw string) string {
	s := raw
	for {
		next := stripDiagramOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func stripDiagramOnce(s string) string {
	s = trimBlankLines(s)
	if strings.HasPrefix(strings.TrimLeft(s, " \t"), fence) {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = ""
		}
	}
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	s = strings.TrimSuffix(s, fence)
	return trimBlankLines(s)
}

func trimBlankLines(s string) string {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 || strings.TrimSpace(s[:i]) != "" {
			return s
		}
		s = s[i+1:]
	}
}
