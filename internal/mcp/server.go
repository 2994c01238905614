// Package mcp exposes story search as a Model Context Protocol tool.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Acurioustractor/palm-island-repository/domain/search"
	domainservice "github.com/Acurioustractor/palm-island-repository/domain/service"
)

const defaultLimit = 10

// Searcher runs natural-language story searches.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Result, error)
}

// Server wraps the MCP server with the story search tool.
type Server struct {
	mcpServer *server.MCPServer
	searcher  Searcher
	logger    *slog.Logger
}

// NewServer creates a new MCP server reporting version.
func NewServer(searcher Searcher, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		searcher: searcher,
		logger:   logger,
	}

	mcpServer := server.NewMCPServer(
		"palm-island-stories",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	searchTool := mcp.NewTool("search_stories",
		mcp.WithDescription("Semantic search over Palm Island community stories"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What the stories should be about, in plain language"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of stories to return (default: %d)", defaultLimit)),
		),
	)
	mcpServer.AddTool(searchTool, s.handleSearch)
}

type storyResult struct {
	ID             string  `json:"id"`
	Score          float64 `json:"score"`
	Title          string  `json:"title"`
	ContentPreview string  `json:"content_preview"`
	StoryType      string  `json:"story_type"`
	CreatedAt      string  `json:"created_at"`
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := request.GetInt("limit", defaultLimit)
	if limit < 0 {
		return mcp.NewToolResultError("limit must not be negative"), nil
	}

	results, err := s.searcher.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error("mcp story search failed", slog.Any("error", err))
		return mcp.NewToolResultError(toolMessage(err)), nil
	}

	items := make([]storyResult, len(results))
	for i, r := range results {
		items[i] = storyResult{
			ID:             r.ID(),
			Score:          r.Score(),
			Title:          r.Title(),
			ContentPreview: r.ContentPreview(),
			StoryType:      r.StoryType(),
			CreatedAt:      r.CreatedAt(),
		}
	}

	jsonBytes, err := json.Marshal(items)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// toolMessage keeps upstream details out of tool output.
func toolMessage(err error) string {
	var validation *domainservice.ValidationError
	var upstream *domainservice.UpstreamError
	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.Is(err, domainservice.ErrModelUnavailable):
		return "search failed: embedding model unavailable"
	case errors.As(err, &upstream):
		return fmt.Sprintf("search failed: %s unavailable", upstream.Service)
	default:
		return "search failed: internal error"
	}
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the MCP server on stdio.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
