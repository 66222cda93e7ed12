// Package llmtest provides a scriptable llm.Provider for tests in other packages.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/ziadkadry99/pageforge/internal/llm"
)

// Provider records calls and replays canned output. When Chunks is set,
// Stream emits them in order and Complete returns their concatenation.
type Provider struct {
	mu sync.Mutex

	ProvName string
	Calls    []llm.CompletionRequest
	Content  string
	Chunks   []string
	Err      error
	// FailAfter makes Stream fail with Err after emitting this many chunks.
	// Zero with a non-nil Err fails before the first chunk.
	FailAfter int
	// Gate, when non-nil, is received from before each streamed chunk so
	// tests can observe intermediate state.
	Gate chan struct{}
}

// New returns a provider that answers with content.
func New(content string) *Provider {
	return &Provider{ProvName: "mock", Content: content}
}

// NewStreaming returns a provider that streams the given chunks.
func NewStreaming(chunks ...string) *Provider {
	return &Provider{ProvName: "mock", Chunks: chunks}
}

func (p *Provider) Name() string { return p.ProvName }

func (p *Provider) record(req llm.CompletionRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, req)
}

func (p *Provider) output() string {
	if len(p.Chunks) > 0 {
		return strings.Join(p.Chunks, "")
	}
	return p.Content
}

func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.record(req)
	if p.Err != nil {
		return nil, p.Err
	}
	out := p.output()
	return &llm.CompletionResponse{
		Content:      out,
		InputTokens:  llm.EstimateTokens(joinMessages(req.Messages)),
		OutputTokens: llm.EstimateTokens(out),
		Model:        "mock-model",
		FinishReason: "stop",
	}, nil
}

func (p *Provider) Stream(ctx context.Context, req llm.CompletionRequest, onChunk llm.ChunkFunc) (*llm.CompletionResponse, error) {
	p.record(req)

	chunks := p.Chunks
	if len(chunks) == 0 && p.Content != "" {
		chunks = []string{p.Content}
	}

	var sent strings.Builder
	for i, chunk := range chunks {
		if p.Err != nil && i == p.FailAfter {
			return nil, p.Err
		}
		if p.Gate != nil {
			select {
			case <-p.Gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		sent.WriteString(chunk)
		if err := onChunk(chunk); err != nil {
			return nil, err
		}
	}
	if p.Err != nil {
		return nil, p.Err
	}

	return &llm.CompletionResponse{
		Content:      sent.String(),
		InputTokens:  llm.EstimateTokens(joinMessages(req.Messages)),
		OutputTokens: llm.EstimateTokens(sent.String()),
		Model:        "mock-model",
		FinishReason: "stop",
	}, nil
}

// CallCount returns the number of Complete and Stream calls.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}

// LastCall returns the most recent request.
func (p *Provider) LastCall() llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Calls) == 0 {
		return llm.CompletionRequest{}
	}
	return p.Calls[len(p.Calls)-1]
}

func joinMessages(msgs []llm.Message) string {
	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(m.Content)
	}
	return sb.String()
}
