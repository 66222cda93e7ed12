package mcp

import "github.com/mark3labs/mcp-go/mcp"

// generatePageTool defines the generate_page MCP tool.
var generatePageTool = mcp.NewTool("generate_page",
	mcp.WithDescription("Generate a complete single-file HTML page styled with Tailwind CSS from a description."),
	mcp.WithString("prompt",
		mcp.Required(),
		mcp.Description("What the page should contain and look like"),
	),
	mcp.WithString("format",
		mcp.Description("raw returns the page itself; sandbox wraps it in a host page that shows it in a sandboxed iframe (default raw)"),
		mcp.Enum("raw", "sandbox"),
	),
)

// editPageTool defines the edit_page MCP tool.
var editPageTool = mcp.NewTool("edit_page",
	mcp.WithDescription("Apply a change to an existing HTML page and return the entire new page."),
	mcp.WithString("prompt",
		mcp.Required(),
		mcp.Description("The change to make"),
	),
	mcp.WithString("current_markup",
		mcp.Required(),
		mcp.Description("The full current HTML document"),
	),
)

// visualizePageTool defines the visualize_page MCP tool.
var visualizePageTool = mcp.NewTool("visualize_page",
	mcp.WithDescription("Draw a plain-text diagram of the backend services a page would need."),
	mcp.WithString("markup",
		mcp.Required(),
		mcp.Description("The full HTML document"),
	),
)
