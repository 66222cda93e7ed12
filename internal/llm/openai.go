package llm

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// chatClient implements Complete and Stream for any OpenAI-compatible
// Chat Completions endpoint. OpenAI, MiniMax and OpenRouter share it.
type chatClient struct {
	client *openai.Client
	model  string
	// clampTemperature keeps temperature within (0, 1] for endpoints that
	// reject zero.
	clampTemperature bool
}

func newChatClient(apiKey, baseURL, model string) chatClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return chatClient{client: openai.NewClientWithConfig(cfg), model: model}
}

func (c *chatClient) buildRequest(req CompletionRequest) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = c.model
	}

	temp := req.Temperature
	if c.clampTemperature {
		if temp <= 0 {
			temp = 0.01
		} else if temp > 1.0 {
			temp = 1.0
		}
	}

	var messages []openai.ChatCompletionMessage
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokensOrDefault(req.MaxTokens),
		Temperature: float32(temp),
	}

	if req.JSONMode {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return apiReq
}

func (c *chatClient) complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.buildRequest(req))
	if err != nil {
		return nil, err
	}

	out := &CompletionResponse{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.FinishReason = string(resp.Choices[0].FinishReason)
	}
	return out, nil
}

func (c *chatClient) stream(ctx context.Context, req CompletionRequest, onChunk ChunkFunc) (*CompletionResponse, error) {
	apiReq := c.buildRequest(req)
	apiReq.StreamOptions = &openai.StreamOptions{IncludeUsage: true}

	stream, err := c.client.CreateChatCompletionStream(ctx, apiReq)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	out := &CompletionResponse{Model: apiReq.Model}
	var content strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if chunk.Model != "" {
			out.Model = chunk.Model
		}
		if chunk.Usage != nil {
			out.InputTokens = chunk.Usage.PromptTokens
			out.OutputTokens = chunk.Usage.CompletionTokens
		}
		for _, choice := range chunk.Choices {
			if choice.FinishReason != "" {
				out.FinishReason = string(choice.FinishReason)
			}
			if choice.Delta.Content == "" {
				continue
			}
			content.WriteString(choice.Delta.Content)
			if err := onChunk(choice.Delta.Content); err != nil {
				return nil, err
			}
		}
	}

	out.Content = content.String()
	return out, nil
}

// OpenAIProvider implements Provider using the OpenAI Chat Completions API.
type OpenAIProvider struct {
	chat chatClient
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithBaseURL(apiKey, model, "")
}

// NewOpenAIProviderWithBaseURL targets a custom OpenAI-compatible base URL.
func NewOpenAIProviderWithBaseURL(apiKey, model, baseURL string) *OpenAIProvider {
	return &OpenAIProvider{chat: newChatClient(apiKey, baseURL, model)}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return p.chat.complete(ctx, req)
}

func (p *OpenAIProvider) Stream(ctx context.Context, req CompletionRequest, onChunk ChunkFunc) (*CompletionResponse, error) {
	return p.chat.stream(ctx, req, onChunk)
}
