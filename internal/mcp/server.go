package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
	"github.com/vadimtrunov/moviedeck/internal/core"
)

// Server wraps an MCP SDK server with MovieDeck catalog tools.
type Server struct {
	server  *mcpsdk.Server
	catalog core.Catalog
	logger  *slog.Logger
}

// NewServer creates an MCP server with all catalog tools registered.
func NewServer(cat core.Catalog, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "moviedeck",
			Version: version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, catalog: cat, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(listPopularTool(), s.handleListPopular)
	s.server.AddTool(searchMoviesTool(), s.handleSearchMovies)
	s.server.AddTool(getMovieDetailsTool(), s.handleGetMovieDetails)
}

func listPopularTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_popular",
		Description: "List popular movies, one page at a time. Returns TMDb IDs, titles, release years, ratings and poster URLs, plus the total page count.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"page": pageProperty(),
			},
		},
	}
}

func searchMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search_movies",
		Description: "Search movies by title. Returns one page of matches with TMDb IDs, titles, release years and ratings.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The movie title to search for",
				},
				"page": pageProperty(),
			},
			"required": []any{"query"},
		},
	}
}

func getMovieDetailsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_movie_details",
		Description: "Get details for a movie by its TMDb ID: overview, genres, runtime, rating, the top-billed cast and YouTube trailers.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tmdb_id": map[string]any{
					"type":        "integer",
					"description": "The TMDb ID of the movie",
				},
			},
			"required": []any{"tmdb_id"},
		},
	}
}

func pageProperty() map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": "Page number, starting at 1 (default 1)",
		"minimum":     1,
	}
}

// pageResult is the JSON shape of list and search results.
type pageResult struct {
	Query        string             `json:"query,omitempty"`
	Page         int                `json:"page"`
	TotalPages   int                `json:"total_pages"`
	TotalResults int                `json:"total_results"`
	Results      []catalog.CardView `json:"results"`
	Message      string             `json:"message,omitempty"`
}

func newPageResult(query string, p *catalog.Page) pageResult {
	r := pageResult{
		Query:        query,
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		Results:      catalog.ShapeCards(p.Results),
	}
	if query != "" && len(r.Results) == 0 {
		r.Message = catalog.NoResults(query)
	}
	return r
}

// Tool handlers parse arguments, call the catalog and return JSON text content.

func (s *Server) handleListPopular(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	page, err := extractOptionalIntFromArgs(req.Params.Arguments, "page", 1)
	if err != nil {
		return toolError(err.Error()), nil
	}

	p, err := s.catalog.ListPopular(ctx, page)
	if err != nil {
		return s.catalogError("list_popular", err), nil
	}
	return toolJSON(newPageResult("", p))
}

func (s *Server) handleSearchMovies(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	query, err := extractStringFromArgs(req.Params.Arguments, "query")
	if err != nil {
		return toolError(err.Error()), nil
	}
	page, err := extractOptionalIntFromArgs(req.Params.Arguments, "page", 1)
	if err != nil {
		return toolError(err.Error()), nil
	}

	p, err := s.catalog.Search(ctx, query, page)
	if err != nil {
		return s.catalogError("search_movies", err), nil
	}
	return toolJSON(newPageResult(strings.TrimSpace(query), p))
}

func (s *Server) handleGetMovieDetails(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}

	detail, err := s.catalog.GetDetail(ctx, tmdbID)
	if err != nil {
		return s.catalogError("get_movie_details", err), nil
	}
	return toolJSON(catalog.ShapeDetail(detail))
}

// catalogError logs a failed catalog call and turns it into a tool error.
func (s *Server) catalogError(tool string, err error) *mcpsdk.CallToolResult {
	s.logger.Warn("tool call failed",
		slog.String("tool", tool),
		slog.String("error", catalog.Cause(err)),
	)
	return toolError(catalog.Message(err))
}

// Helper functions.

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

// extractIntFromArgs extracts an integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	args, err := decodeArgs(raw)
	if err != nil {
		return 0, err
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	return toInt(key, val)
}

// extractOptionalIntFromArgs is extractIntFromArgs with a default for a missing key.
func extractOptionalIntFromArgs(raw json.RawMessage, key string, def int) (int, error) {
	args, err := decodeArgs(raw)
	if err != nil {
		return 0, err
	}

	val, ok := args[key]
	if !ok || val == nil {
		return def, nil
	}
	return toInt(key, val)
}

func toInt(key string, val any) (int, error) {
	switch v := val.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number", key)
		}
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}

// extractStringFromArgs extracts a string argument from raw JSON arguments.
func extractStringFromArgs(raw json.RawMessage, key string) (string, error) {
	args, err := decodeArgs(raw)
	if err != nil {
		return "", err
	}

	val, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}

	s, ok := val.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return s, nil
}
