// Package history records every call made to the model for page generation,
// edits and diagrams.
package history

import (
	"errors"
	"time"
)

// Mode is the kind of generation call.
type Mode string

const (
	ModeCreate    Mode = "create"
	ModeEdit      Mode = "edit"
	ModeVisualize Mode = "visualize"
)

// Status is the outcome of a generation call.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusInvalid Status = "invalid"
)

// ErrNotFound is returned by Get when no entry has the requested ID.
var ErrNotFound = errors.New("history entry not found")

// Entry is one recorded generation call.
type Entry struct {
	ID           string        `json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	Mode         Mode          `json:"mode"`
	Prompt       string        `json:"prompt"`
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	Status       Status        `json:"status"`
	Duration     time.Duration `json:"duration_ns"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	OutputBytes  int           `json:"output_bytes"`
	CostUSD      float64       `json:"cost_usd"`
	Error        string        `json:"error,omitempty"`
}

// Stats aggregates the recorded calls.
type Stats struct {
	Total        int            `json:"total"`
	ByStatus     map[Status]int `json:"by_status"`
	ByMode       map[Mode]int   `json:"by_mode"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
	CostUSD      float64        `json:"cost_usd"`
}
