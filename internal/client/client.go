// Package client talks to a running pageforge server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/ziadkadry99/pageforge/internal/generate"
	"github.com/ziadkadry99/pageforge/internal/llm"
)

var (
	// ErrInvalidRequest is matched by API errors with status 400.
	ErrInvalidRequest = generate.ErrInvalidRequest
	// ErrStreamInterrupted is returned when a create stream breaks off.
	ErrStreamInterrupted = errors.New("stream interrupted")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pageforge server returned %d: %s", e.Status, e.Message)
}

// Is lets callers test API errors against the gateway's sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case generate.ErrInvalidRequest:
		return e.Status == http.StatusBadRequest
	case generate.ErrGenerationFailure:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}

// Client calls the generate, edit and visualize endpoints.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// New returns a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
}

// Create streams a new page for prompt, calling onChunk for every piece of
// the body as it is read.
func (c *Client) Create(ctx context.Context, prompt string, onChunk llm.ChunkFunc) error {
	resp, err := c.post(ctx, "/api/generate", generate.Request{Prompt: prompt})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := make([]byte, 4096)
	var carry []byte
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			data := append(carry, buf[:n]...)
			complete, rest := splitUTF8(data)
			carry = append([]byte(nil), rest...)
			if len(complete) > 0 {
				if err := onChunk(string(complete)); err != nil {
					return err
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("%w: %w", ErrStreamInterrupted, readErr)
		}
	}
	if len(carry) > 0 {
		return onChunk(string(carry))
	}
	return nil
}

// Edit sends prompt and currentMarkup to the combined generate endpoint and
// returns the new document.
func (c *Client) Edit(ctx context.Context, prompt, currentMarkup string) (string, error) {
	return c.edit(ctx, "/api/generate", prompt, currentMarkup)
}

// EditOnly uses the dedicated edit endpoint, which rejects a missing
// document instead of falling back to create mode.
func (c *Client) EditOnly(ctx context.Context, prompt, currentMarkup string) (string, error) {
	return c.edit(ctx, "/api/edit", prompt, currentMarkup)
}

func (c *Client) edit(ctx context.Context, path, prompt, currentMarkup string) (string, error) {
	resp, err := c.post(ctx, path, generate.Request{Prompt: prompt, CurrentMarkup: currentMarkup})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out generate.EditResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding edit response: %w", err)
	}
	return out.NewMarkup, nil
}

// Visualize returns a plain-text backend diagram for markup.
func (c *Client) Visualize(ctx context.Context, markup string) (string, error) {
	resp, err := c.post(ctx, "/api/visualize", generate.VisualizeRequest{Markup: markup})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out generate.VisualizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding visualize response: %w", err)
	}
	return out.Diagram, nil
}

// post sends body as JSON and returns the response when the status is 2xx.
func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		apiErr := &APIError{Status: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		var body generate.ErrorResponse
		if json.Unmarshal(raw, &body) == nil && body.Error != "" {
			apiErr.Message = body.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return nil, apiErr
	}
	return resp, nil
}

// splitUTF8 separates a trailing incomplete UTF-8 sequence from b so that
// chunks handed to callers never split a rune.
func splitUTF8(b []byte) (complete, rest []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i], b[i:]
		}
		break
	}
	return b, nil
}
