package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Out: &buf}

	r.Start("Generating page")
	r.Add(100)
	r.Add(ciStep)
	r.Add(10)
	r.Finish()

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", out)
	}
	if lines[0] != "Generating page" {
		t.Errorf("start line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "received 16484 bytes") {
		t.Errorf("progress line = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "Generating page: 16494 bytes in 3 chunks") {
		t.Errorf("finish line = %q", lines[2])
	}
}

func TestNewReporterInCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter().(*CIReporter); !ok {
		t.Error("expected a CIReporter when CI is set")
	}
}

func TestNewReporterTerminal(t *testing.T) {
	t.Setenv("CI", "")
	t.Setenv("GITHUB_ACTIONS", "")
	r := NewReporter()
	if _, ok := r.(*TerminalReporter); !ok {
		t.Fatal("expected a TerminalReporter outside CI")
	}
	// Add and Finish before Start must not panic.
	r.Add(1)
	r.Finish()
}
