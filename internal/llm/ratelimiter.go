package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedProvider caps how often a provider is called. Streams take a
// single token each, however many chunks they produce.
type RateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider allows rpm requests per minute, with a burst of up
// to rpm requests after an idle minute.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	return &RateLimitedProvider{
		provider: provider,
		limiter:  rate.NewLimiter(rate.Limit(float64(rpm)/60), rpm),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return r.provider.Complete(ctx, req)
}

func (r *RateLimitedProvider) Stream(ctx context.Context, req CompletionRequest, onChunk ChunkFunc) (*CompletionResponse, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	return StreamCompletion(ctx, r.provider, req, onChunk)
}

// wait fails fast when ctx would expire before a token frees up.
func (r *RateLimitedProvider) wait(ctx context.Context) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for %s rate limit: %w", r.provider.Name(), err)
	}
	return nil
}
