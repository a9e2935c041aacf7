package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lexatlas/statute-crag/internal/core/ports"
)

// New builds the MCP surface over the question and search services, so
// agent clients can query the statute corpus as tools.
func New(questions ports.QuestionService, search ports.SearchService) *server.MCPServer {
	srv := server.NewMCPServer("statute-crag", "1.0.0", server.WithToolCapabilities(false))

	searchTool := mcp.NewTool("search_statutes",
		mcp.WithDescription("Search Malta statutes and return the matching provisions with citations and scores"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text legal question or provision reference"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of provisions to return"),
		),
	)
	srv.AddTool(searchTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := request.GetInt("limit", 0)

		candidates, _, err := search.Search(ctx, query, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var response string
		for _, candidate := range candidates {
			raw, err := json.Marshal(struct {
				Score     float64 `json:"score"`
				Citation  string  `json:"citation"`
				Provision string  `json:"provision"`
				Document  string  `json:"document"`
				Page      int     `json:"page"`
				Text      string  `json:"text"`
			}{
				Score:     candidate.Score,
				Citation:  candidate.Citation,
				Provision: candidate.Provision,
				Document:  candidate.Document,
				Page:      candidate.Page,
				Text:      candidate.Content,
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			response += fmt.Sprintf("%s\n", string(raw))
		}

		return mcp.NewToolResultText(response), nil
	})

	askTool := mcp.NewTool("ask_statutes",
		mcp.WithDescription("Answer a Malta law question from the statute corpus with citations and a confidence score"),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The legal question to answer"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of provisions to retrieve as evidence"),
		),
	)
	srv.AddTool(askTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := request.RequireString("question")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		limit := request.GetInt("limit", 0)

		response, err := questions.Ask(ctx, question, limit)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		raw, err := json.Marshal(response)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(raw)), nil
	})

	return srv
}
