package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/pageforge/internal/session"
)

// Version is set via ldflags at build time.
var Version = "dev"

const instructions = `Generate single-file web pages styled with Tailwind CSS.
Call generate_page for a new page, then edit_page with the full current markup
for each change. visualize_page returns a plain-text diagram of the backend a
page would need.`

// Server wraps an MCP server that exposes page generation tools.
type Server struct {
	backend session.Backend
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server that generates through backend.
func NewServer(backend session.Backend) *Server {
	s := &Server{backend: backend}

	s.mcp = server.NewMCPServer(
		"pageforge",
		Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(generatePageTool, s.handleGeneratePage)
	s.mcp.AddTool(editPageTool, s.handleEditPage)
	s.mcp.AddTool(visualizePageTool, s.handleVisualizePage)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
