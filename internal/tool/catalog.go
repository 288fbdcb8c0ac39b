package tool

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ListEmailsTool   = "list_emails"
	ReadEmailTool    = "read_email"
	DeleteEmailTool  = "delete_email"
	SearchEmailsTool = "search_emails"
)

// Catalog describes the tools in the order they are advertised.
func Catalog() []*mcp.Tool {
	return []*mcp.Tool{
		{
			Name:        ListEmailsTool,
			Description: "List recent emails from Gmail inbox",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"num_emails": {
						Type:        "integer",
						Description: "Number of recent emails to list (default 10)",
					},
				},
			},
		},
		{
			Name:        ReadEmailTool,
			Description: "Read a specific email by ID",
			InputSchema: emailIDSchema("The ID of the email to read"),
		},
		{
			Name:        DeleteEmailTool,
			Description: "Delete an email by moving it to trash",
			InputSchema: emailIDSchema("The ID of the email to delete"),
		},
		{
			Name:        SearchEmailsTool,
			Description: "Search emails using IMAP search syntax",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"query": {
						Type:        "string",
						Description: `IMAP search query (e.g., 'FROM "sender@example.com"', 'SUBJECT "meeting"', 'UNSEEN')`,
					},
					"max_results": {
						Type:        "integer",
						Description: "Maximum number of results to return (default 20)",
					},
				},
				Required: []string{"query"},
			},
		},
	}
}

func emailIDSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"email_id": {
				Type:        "string",
				Description: description,
			},
		},
		Required: []string{"email_id"},
	}
}
