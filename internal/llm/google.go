package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const googleAPIBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GoogleProvider implements Provider using the Google Gemini API via direct HTTP.
type GoogleProvider struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewGoogleProvider creates a new Google Gemini provider.
func NewGoogleProvider(apiKey string, model string) *GoogleProvider {
	return NewGoogleProviderWithBaseURL(apiKey, model, googleAPIBaseURL)
}

// NewGoogleProviderWithBaseURL points the provider at a different models endpoint.
func NewGoogleProviderWithBaseURL(apiKey, model, baseURL string) *GoogleProvider {
	return &GoogleProvider{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

func (p *GoogleProvider) Name() string {
	return "google"
}

type geminiRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	Temperature      float64 `json:"temperature"`
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates    []geminiCandidate    `json:"candidates"`
	UsageMetadata *geminiUsageMetadata `json:"usageMetadata"`
	Error         *geminiError         `json:"error,omitempty"`
}

type geminiCandidate struct {
	Content      *geminiContent `json:"content"`
	FinishReason string         `json:"finishReason"`
}

type geminiUsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// text concatenates the parts of the first candidate.
func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 || r.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range r.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func (p *GoogleProvider) buildRequest(req CompletionRequest) geminiRequest {
	// Build system instruction and conversation contents.
	var systemParts []geminiPart
	var contents []geminiContent

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemParts = append(systemParts, geminiPart{Text: msg.Content})
		case RoleUser:
			contents = append(contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		case RoleAssistant:
			contents = append(contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}

	// Ensure there's at least one content entry.
	if len(contents) == 0 {
		contents = append(contents, geminiContent{
			Role:  "user",
			Parts: []geminiPart{{Text: ""}},
		})
	}

	apiReq := geminiRequest{
		Contents: contents,
		GenerationConfig: &geminiGenerationConfig{
			Temperature: req.Temperature,
		},
	}

	if len(systemParts) > 0 {
		apiReq.SystemInstruction = &geminiContent{
			Parts: systemParts,
		}
	}

	if req.MaxTokens > 0 {
		apiReq.GenerationConfig.MaxOutputTokens = req.MaxTokens
	}

	if req.JSONMode {
		apiReq.GenerationConfig.ResponseMIMEType = "application/json"
	}
	return apiReq
}

func (p *GoogleProvider) post(ctx context.Context, req CompletionRequest, method string) (*http.Response, string, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	body, err := json.Marshal(p.buildRequest(req))
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:%s", p.baseURL, model, method)
	if strings.Contains(method, "?") {
		url += "&key=" + p.apiKey
	} else {
		url += "?key=" + p.apiKey
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("gemini request failed: %w", err)
	}
	return httpResp, model, nil
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	httpResp, model, err := p.post(ctx, req, "generateContent")
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read gemini response: %w", err)
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gemini response: %w", err)
	}

	if apiResp.Error != nil {
		return nil, fmt.Errorf("gemini API error (%s): %s", apiResp.Error.Status, apiResp.Error.Message)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	out := &CompletionResponse{
		Content: apiResp.text(),
		Model:   model,
	}
	if len(apiResp.Candidates) > 0 {
		out.FinishReason = apiResp.Candidates[0].FinishReason
	}
	if apiResp.UsageMetadata != nil {
		out.InputTokens = apiResp.UsageMetadata.PromptTokenCount
		out.OutputTokens = apiResp.UsageMetadata.CandidatesTokenCount
	}
	return out, nil
}

// Stream uses streamGenerateContent with alt=sse. Each event carries a
// partial geminiResponse; usage arrives with the final events.
func (p *GoogleProvider) Stream(ctx context.Context, req CompletionRequest, onChunk ChunkFunc) (*CompletionResponse, error) {
	httpResp, model, err := p.post(ctx, req, "streamGenerateContent?alt=sse")
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(httpResp.Body)
		return nil, fmt.Errorf("gemini returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	out := &CompletionResponse{Model: model}
	var content strings.Builder
	events := newSSEReader(httpResp.Body)
	for {
		_, data, err := events.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading gemini stream: %w", err)
		}

		var event geminiResponse
		if err := json.Unmarshal(data, &event); err != nil {
			return nil, fmt.Errorf("failed to unmarshal gemini stream event: %w", err)
		}
		if event.Error != nil {
			return nil, fmt.Errorf("gemini API error (%s): %s", event.Error.Status, event.Error.Message)
		}
		if len(event.Candidates) > 0 && event.Candidates[0].FinishReason != "" {
			out.FinishReason = event.Candidates[0].FinishReason
		}
		if event.UsageMetadata != nil {
			out.InputTokens = event.UsageMetadata.PromptTokenCount
			out.OutputTokens = event.UsageMetadata.CandidatesTokenCount
		}

		if text := event.text(); text != "" {
			content.WriteString(text)
			if err := onChunk(text); err != nil {
				return nil, err
			}
		}
	}

	out.Content = content.String()
	return out, nil
}
