package llm

import "context"

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterProvider implements Provider using the OpenRouter API (OpenAI-compatible).
type OpenRouterProvider struct {
	chat chatClient
}

// NewOpenRouterProvider creates a new OpenRouter provider.
func NewOpenRouterProvider(apiKey string, model string) *OpenRouterProvider {
	return &OpenRouterProvider{chat: newChatClient(apiKey, openRouterBaseURL, model)}
}

func (p *OpenRouterProvider) Name() string {
	return "openrouter"
}

func (p *OpenRouterProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return p.chat.complete(ctx, req)
}

func (p *OpenRouterProvider) Stream(ctx context.Context, req CompletionRequest, onChunk ChunkFunc) (*CompletionResponse, error) {
	return p.chat.stream(ctx, req, onChunk)
}
