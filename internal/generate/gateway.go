// Package generate is the boundary between callers and the model: it formats
// prompts, streams new pages, returns edited pages and diagrams, and records
// every call.
package generate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ziadkadry99/pageforge/internal/history"
	"github.com/ziadkadry99/pageforge/internal/llm"
	"github.com/ziadkadry99/pageforge/internal/logging"
	"github.com/ziadkadry99/pageforge/internal/prompt"
	"github.com/ziadkadry99/pageforge/internal/sanitize"
)

var (
	// ErrInvalidRequest marks a request rejected before the model was called.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrGenerationFailure marks a failed or malformed model call.
	ErrGenerationFailure = errors.New("generation failed")
)

// InvalidRequestError carries the client-facing reason a request was rejected.
type InvalidRequestError struct {
	Message string
}

func (e *InvalidRequestError) Error() string { return e.Message }

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

const (
	msgPromptRequired       = "Prompt is required"
	msgEditFieldsRequired   = "Current markup and prompt are required"
	msgMarkupRequired       = "Markup is required"
	recordedMarkupPrefixLen = 200
)

// Request is a generation request. A non-empty CurrentMarkup selects edit mode.
type Request struct {
	Prompt        string `json:"prompt"`
	CurrentMarkup string `json:"currentMarkup,omitempty"`
}

// IsEdit reports whether the request targets existing markup.
func (r Request) IsEdit() bool {
	return strings.TrimSpace(r.CurrentMarkup) != ""
}

// Result is the outcome of Generate.
type Result struct {
	Mode   history.Mode
	Markup string
}

// Recorder receives one entry per gateway call.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Options configures a Gateway.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
	// SanitizeStream strips fences from the create stream as well as from
	// edit results.
	SanitizeStream bool
	Recorder       Recorder
}

// Gateway performs generation calls against a single provider. It keeps no
// state between calls and is safe for concurrent use.
type Gateway struct {
	provider llm.Provider
	opts     Options
}

// New creates a Gateway around provider.
func New(provider llm.Provider, opts Options) *Gateway {
	return &Gateway{provider: provider, opts: opts}
}

// Generate dispatches to Edit when req carries markup and to Create otherwise.
// In create mode every chunk is passed to sink as it arrives.
func (g *Gateway) Generate(ctx context.Context, req Request, sink llm.ChunkFunc) (*Result, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		mode := history.ModeCreate
		if req.IsEdit() {
			mode = history.ModeEdit
		}
		return nil, g.reject(ctx, mode, req.Prompt, msgPromptRequired)
	}

	if req.IsEdit() {
		markup, err := g.Edit(ctx, req.Prompt, req.CurrentMarkup)
		if err != nil {
			return nil, err
		}
		return &Result{Mode: history.ModeEdit, Markup: markup}, nil
	}

	var sb strings.Builder
	err := g.Create(ctx, req.Prompt, func(chunk string) error {
		sb.WriteString(chunk)
		return sink(chunk)
	})
	if err != nil {
		return nil, err
	}
	return &Result{Mode: history.ModeCreate, Markup: sb.String()}, nil
}

// Create streams a new page for instruction into sink, in emission order and
// without buffering. The stream is forwarded as produced unless
// Options.SanitizeStream is set.
func (g *Gateway) Create(ctx context.Context, instruction string, sink llm.ChunkFunc) error {
	start := time.Now()
	if strings.TrimSpace(instruction) == "" {
		return g.reject(ctx, history.ModeCreate, instruction, msgPromptRequired)
	}

	var filter *sanitize.StreamFilter
	if g.opts.SanitizeStream {
		filter = sanitize.NewStreamFilter()
	}

	written := 0
	forward := func(chunk string) error {
		if filter != nil {
			if chunk = filter.Write(chunk); chunk == "" {
				return nil
			}
		}
		written += len(chunk)
		return sink(chunk)
	}

	resp, err := llm.StreamCompletion(ctx, g.provider, g.request(prompt.Create(instruction)), forward)
	if err == nil && filter != nil {
		if tail := filter.Flush(); tail != "" {
			written += len(tail)
			err = sink(tail)
		}
	}

	g.record(ctx, history.ModeCreate, instruction, start, resp, written, err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	return nil
}

// Edit returns the full document produced by applying instruction to
// currentMarkup, with fences removed. No partial result is ever exposed.
func (g *Gateway) Edit(ctx context.Context, instruction, currentMarkup string) (string, error) {
	start := time.Now()
	if strings.TrimSpace(instruction) == "" || strings.TrimSpace(currentMarkup) == "" {
		return "", g.reject(ctx, history.ModeEdit, instruction, msgEditFieldsRequired)
	}

	resp, err := g.provider.Complete(ctx, g.request(prompt.Edit(instruction, currentMarkup)))
	var markup string
	if err == nil {
		markup = sanitize.Markup(resp.Content)
		if markup == "" {
			err = errors.New("model returned an empty document")
		}
	}

	g.record(ctx, history.ModeEdit, instruction, start, resp, len(markup), err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	return markup, nil
}

// Visualize asks the model for a plain-text diagram of the backend markup
// implies.
func (g *Gateway) Visualize(ctx context.Context, markup string) (string, error) {
	start := time.Now()
	if strings.TrimSpace(markup) == "" {
		return "", g.reject(ctx, history.ModeVisualize, "", msgMarkupRequired)
	}

	summary := truncate(markup, recordedMarkupPrefixLen)
	resp, err := g.provider.Complete(ctx, g.request(prompt.Visualize(markup)))
	var diagram string
	if err == nil {
		diagram = sanitize.Diagram(resp.Content)
	}

	g.record(ctx, history.ModeVisualize, summary, start, resp, len(diagram), err)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	return diagram, nil
}

func (g *Gateway) request(p prompt.Payload) llm.CompletionRequest {
	return llm.CompletionRequest{
		Model:       g.opts.Model,
		Messages:    p.Messages(),
		MaxTokens:   g.opts.MaxTokens,
		Temperature: g.opts.Temperature,
	}
}

func (g *Gateway) reject(ctx context.Context, mode history.Mode, promptText, msg string) error {
	g.save(ctx, history.Entry{
		Mode:     mode,
		Prompt:   promptText,
		Provider: g.provider.Name(),
		Model:    g.opts.Model,
		Status:   history.StatusInvalid,
		Error:    msg,
	})
	return &InvalidRequestError{Message: msg}
}

func (g *Gateway) record(ctx context.Context, mode history.Mode, promptText string, start time.Time, resp *llm.CompletionResponse, outputBytes int, callErr error) {
	e := history.Entry{
		Mode:        mode,
		Prompt:      promptText,
		Provider:    g.provider.Name(),
		Model:       g.opts.Model,
		Status:      history.StatusOK,
		Duration:    time.Since(start),
		OutputBytes: outputBytes,
	}
	if resp != nil {
		if resp.Model != "" {
			e.Model = resp.Model
		}
		e.InputTokens = resp.InputTokens
		e.OutputTokens = resp.OutputTokens
		e.CostUSD = llm.EstimateCost(e.Model, e.InputTokens, e.OutputTokens)
	}

	fields := logrus.Fields{
		"mode":     mode,
		"provider": e.Provider,
		"model":    e.Model,
		"duration": e.Duration.Round(time.Millisecond),
		"bytes":    outputBytes,
	}
	if callErr != nil {
		e.Status = history.StatusFailed
		e.Error = callErr.Error()
		logging.WithFields(fields).WithError(callErr).Warn("generation failed")
	} else {
		logging.WithFields(fields).Info("generation completed")
	}

	g.save(ctx, e)
}

func (g *Gateway) save(ctx context.Context, e history.Entry) {
	if g.opts.Recorder == nil {
		return
	}
	// The caller's context may already be cancelled after a failed stream.
	if err := g.opts.Recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		logging.Warnf("recording %s generation: %v", e.Mode, err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
