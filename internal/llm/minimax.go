package llm

import "context"

const minimaxBaseURL = "https://api.minimax.io/v1"

// MinimaxProvider implements Provider using the MiniMax API (OpenAI-compatible).
type MinimaxProvider struct {
	chat chatClient
}

// NewMinimaxProvider creates a new MiniMax provider.
func NewMinimaxProvider(apiKey string, model string) *MinimaxProvider {
	chat := newChatClient(apiKey, minimaxBaseURL, model)
	// MiniMax requires temperature in (0.0, 1.0].
	chat.clampTemperature = true
	return &MinimaxProvider{chat: chat}
}

func (p *MinimaxProvider) Name() string {
	return "minimax"
}

func (p *MinimaxProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return p.chat.complete(ctx, req)
}

func (p *MinimaxProvider) Stream(ctx context.Context, req CompletionRequest, onChunk ChunkFunc) (*CompletionResponse, error) {
	return p.chat.stream(ctx, req, onChunk)
}
