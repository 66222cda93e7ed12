package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/pageforge/internal/render"
	"github.com/ziadkadry99/pageforge/internal/sanitize"
)

// handleGeneratePage streams a new page and returns it once complete. Tool
// callers get the finished document, so it is sanitized like an edit.
func (s *Server) handleGeneratePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil || strings.TrimSpace(prompt) == "" {
		return mcp.NewToolResultError("missing required parameter: prompt"), nil
	}

	var sb strings.Builder
	err = s.backend.Create(ctx, prompt, func(chunk string) error {
		sb.WriteString(chunk)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	markup := sanitize.Markup(sb.String())
	if markup == "" {
		return mcp.NewToolResultError("generation returned an empty document"), nil
	}

	if request.GetString("format", "raw") == "sandbox" {
		doc, err := render.SandboxDocument("Preview", markup)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("building sandbox page: %v", err)), nil
		}
		return mcp.NewToolResultText(doc), nil
	}
	return mcp.NewToolResultText(markup), nil
}

// handleEditPage applies one change to an existing page.
func (s *Server) handleEditPage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prompt, err := request.RequireString("prompt")
	if err != nil || strings.TrimSpace(prompt) == "" {
		return mcp.NewToolResultError("missing required parameter: prompt"), nil
	}
	current, err := request.RequireString("current_markup")
	if err != nil || strings.TrimSpace(current) == "" {
		return mcp.NewToolResultError("missing required parameter: current_markup"), nil
	}

	markup, err := s.backend.Edit(ctx, prompt, current)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("edit failed: %v", err)), nil
	}
	return mcp.NewToolResultText(markup), nil
}

// handleVisualizePage returns an ASCII diagram for a page.
func (s *Server) handleVisualizePage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	markup, err := request.RequireString("markup")
	if err != nil || strings.TrimSpace(markup) == "" {
		return mcp.NewToolResultError("missing required parameter: markup"), nil
	}

	diagram, err := s.backend.Visualize(ctx, markup)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("visualization failed: %v", err)), nil
	}
	return mcp.NewToolResultText(diagram), nil
}
