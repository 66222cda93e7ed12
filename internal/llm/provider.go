package llm

import "context"

// Provider defines the interface for LLM providers.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// ChunkFunc receives streamed completion text in emission order. Returning
// an error stops the stream and is propagated to the caller.
type ChunkFunc func(chunk string) error

// Streamer is implemented by providers that can deliver a completion
// incrementally. The returned response carries the concatenated content and
// whatever usage figures the upstream reported.
type Streamer interface {
	Stream(ctx context.Context, req CompletionRequest, onChunk ChunkFunc) (*CompletionResponse, error)
}

// StreamCompletion streams through p when it supports it. Otherwise it
// performs a single Complete call and delivers the content as one chunk.
func StreamCompletion(ctx context.Context, p Provider, req CompletionRequest, onChunk ChunkFunc) (*CompletionResponse, error) {
	if s, ok := p.(Streamer); ok {
		return s.Stream(ctx, req, onChunk)
	}

	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.Content != "" {
		if err := onChunk(resp.Content); err != nil {
			return resp, err
		}
	}
	return resp, nil
}
