package sanitize

import (
	"strings"
	"unicode"
)

// StreamFilter applies Markup's single-pass fence stripping to a stream of
// chunks. It holds back only what could still turn out to be the opening
// fence line or a trailing fence, and forwards the rest as soon as it
// arrives. The concatenation of everything returned by Write and Flush equals
// Markup of the concatenated input for singly fenced text.
//
// A StreamFilter is not safe for concurrent use.
type StreamFilter struct {
	decided  bool
	head     string
	trimLead bool
	pending  string
}

// NewStreamFilter returns a filter at the start of a stream.
func NewStreamFilter() *StreamFilter {
	return &StreamFilter{}
}

// Write consumes chunk and returns the text that is safe to forward.
func (f *StreamFilter) Write(chunk string) string {
	if !f.decided {
		f.head += chunk
		rest, ok := splitLeadingFence(f.head, false)
		if !ok {
			return ""
		}
		f.decided = true
		f.head = ""
		f.trimLead = true
		return f.body(rest)
	}
	return f.body(chunk)
}

// Flush ends the stream and returns whatever was held back, minus a
// trailing fence and whitespace.
func (f *StreamFilter) Flush() string {
	var out string
	if !f.decided {
		rest, _ := splitLeadingFence(f.head, true)
		f.decided = true
		f.head = ""
		f.trimLead = true
		out = f.body(rest)
	}

	tail := strings.TrimRightFunc(f.pending, unicode.IsSpace)
	tail = strings.TrimSuffix(tail, fence)
	tail = strings.TrimRightFunc(tail, unicode.IsSpace)
	f.pending = ""
	return out + tail
}

func (f *StreamFilter) body(s string) string {
	if f.trimLead {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			return ""
		}
		f.trimLead = false
	}

	s = f.pending + s
	keep := holdback(s)
	f.pending = s[len(s)-keep:]
	return s[:len(s)-keep]
}

// holdback returns the length of the suffix of s that may belong to a
// trailing fence: trailing whitespace, up to three backticks, and the
// whitespace before them.
func holdback(s string) int {
	t := strings.TrimRightFunc(s, unicode.IsSpace)
	ticks := 0
	for ticks < len(fence) && strings.HasSuffix(t, "`") {
		t = t[:len(t)-1]
		ticks++
	}
	if ticks > 0 {
		t = strings.TrimRightFunc(t, unicode.IsSpace)
	}
	return len(s) - len(t)
}
