package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewServer creates an MCP server exposing every catalog tool through g.
func NewServer(g *Gateway) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "gmail-imap-mcp", Version: "v1.0.0"}, nil)

	for _, t := range Catalog() {
		mcp.AddTool(server, t, g.toolHandler(t.Name))
	}

	return server
}

func (g *Gateway) toolHandler(name string) mcp.ToolHandlerFor[map[string]any, any] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, args map[string]any) (*mcp.CallToolResult, any, error) {
		res := g.Dispatch(ctx, name, args)

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: res.Text}},
			IsError: res.IsError,
		}, nil, nil
	}
}
