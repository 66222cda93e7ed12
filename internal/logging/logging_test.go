package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logrus.Level
		wantErr bool
	}{
		{"", logrus.InfoLevel, false},
		{"debug", logrus.DebugLevel, false},
		{"INFO", logrus.InfoLevel, false},
		{"warn", logrus.WarnLevel, false},
		{"warning", logrus.WarnLevel, false},
		{"error", logrus.ErrorLevel, false},
		{"trace", logrus.InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestInitJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		_ = Init("info", "text")
		SetOutput(os.Stderr)
	})

	if err := Init("debug", "json"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	WithFields(logrus.Fields{"mode": "create"}).Debug("hello")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "hello" || entry["mode"] != "create" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestInitRejectsUnknownFormat(t *testing.T) {
	if err := Init("info", "xml"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLevelFiltersOutput(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		_ = Init("info", "text")
		SetOutput(os.Stderr)
	})

	if err := Init("warn", "text"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Infof("quiet %d", 1)
	Warnf("loud %d", 2)

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "loud 2") {
		t.Errorf("warn line missing: %q", out)
	}
}
