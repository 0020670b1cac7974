package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
	"github.com/vadimtrunov/moviedeck/internal/catalog/catalogtest"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// validatingCatalog wraps the fake with the real client's page validation.
type validatingCatalog struct {
	*catalogtest.Fake
}

func (v validatingCatalog) ListPopular(ctx context.Context, page int) (*catalog.Page, error) {
	if page < 1 {
		return nil, &catalog.ValidationError{Field: "page", Message: "Page must be a positive integer"}
	}
	return v.Fake.ListPopular(ctx, page)
}

func newTestServer(t *testing.T) (*Server, *catalogtest.Fake) {
	t.Helper()
	fake := catalogtest.New()
	return NewServer(validatingCatalog{fake}, "test", discardLogger), fake
}

func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	_, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}
	return result
}

func resultText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func TestListTools(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()
	if _, err := srv.MCPServer().Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	session, err := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client"}, nil).Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	res, err := session.ListTools(ctx, &mcpsdk.ListToolsParams{})
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"list_popular", "search_movies", "get_movie_details"} {
		if !names[want] {
			t.Errorf("tool %s not registered", want)
		}
	}
	if len(res.Tools) != 3 {
		t.Errorf("expected 3 tools, got %d", len(res.Tools))
	}
}

func TestListPopular(t *testing.T) {
	t.Parallel()
	srv, fake := newTestServer(t)

	result := callTool(t, srv, "list_popular", map[string]any{"page": 2})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var got pageResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got.Page != 2 || got.TotalPages != 5 {
		t.Errorf("unexpected paging: %+v", got)
	}
	if len(got.Results) != 2 || got.Results[0].ID != 21 || got.Results[0].Year != "2021" {
		t.Errorf("unexpected results: %+v", got.Results)
	}
	if got.Results[0].PosterURL == "" {
		t.Error("expected poster placeholder for missing poster")
	}
	if calls := fake.Calls(); len(calls) != 1 || calls[0] != "popular:2" {
		t.Errorf("calls = %v", calls)
	}
}

func TestListPopular_DefaultPage(t *testing.T) {
	t.Parallel()
	srv, fake := newTestServer(t)

	result := callTool(t, srv, "list_popular", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}
	if calls := fake.Calls(); len(calls) != 1 || calls[0] != "popular:1" {
		t.Errorf("calls = %v, want [popular:1]", calls)
	}
}

func TestListPopular_InvalidPage(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	result := callTool(t, srv, "list_popular", map[string]any{"page": 0})
	if !result.IsError {
		t.Fatal("expected error for page 0")
	}
	if got := resultText(t, result); got != "Page must be a positive integer" {
		t.Errorf("unexpected error text: %q", got)
	}
}

func TestSearchMovies(t *testing.T) {
	t.Parallel()
	srv, fake := newTestServer(t)
	fake.SearchPages["inception"] = 1

	result := callTool(t, srv, "search_movies", map[string]any{"query": " inception "})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var got pageResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Query != "inception" || len(got.Results) != 2 {
		t.Errorf("unexpected result: %+v", got)
	}
	if got.Message != "" {
		t.Errorf("unexpected message %q", got.Message)
	}
}

func TestSearchMovies_NoResults(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)

	result := callTool(t, srv, "search_movies", map[string]any{"query": "zzzz"})
	if result.IsError {
		t.Fatal("no results is not an error")
	}
	var got pageResult
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Message != catalog.NoResults("zzzz") {
		t.Errorf("message = %q", got.Message)
	}
}

func TestGetMovieDetails(t *testing.T) {
	t.Parallel()
	srv, fake := newTestServer(t)
	fake.Details[438631] = catalogtest.SampleDetail(438631, "Dune")

	result := callTool(t, srv, "get_movie_details", map[string]any{"tmdb_id": 438631})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var got catalog.DetailView
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Runtime != "155 min" || got.Genres != "Science Fiction" {
		t.Errorf("unexpected detail: %+v", got)
	}
	if len(got.Trailers) != 1 || got.Trailers[0].Key != "trail1" {
		t.Errorf("expected only the official YouTube trailer, got %+v", got.Trailers)
	}
	if !strings.HasPrefix(got.Trailers[0].EmbedURL, "https://www.youtube-nocookie.com/embed/") {
		t.Errorf("unexpected embed url %q", got.Trailers[0].EmbedURL)
	}
}

func TestToolError_CatalogFailure(t *testing.T) {
	t.Parallel()
	srv, fake := newTestServer(t)
	fake.SetErr(&catalog.RemoteError{StatusCode: 401, Message: "Invalid API key"})

	tests := []struct {
		tool string
		args map[string]any
	}{
		{"list_popular", map[string]any{"page": 1}},
		{"search_movies", map[string]any{"query": "Test"}},
		{"get_movie_details", map[string]any{"tmdb_id": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			t.Parallel()
			result := callTool(t, srv, tt.tool, tt.args)
			if !result.IsError {
				t.Fatalf("expected error for %s", tt.tool)
			}
			if got := resultText(t, result); !strings.HasPrefix(got, "TMDB API Error: 401") {
				t.Errorf("unexpected error text: %q", got)
			}
		})
	}
}

func TestToolError_LogsNetworkCause(t *testing.T) {
	t.Parallel()
	var logs bytes.Buffer
	fake := catalogtest.New()
	fake.SetErr(&catalog.NetworkError{Err: context.DeadlineExceeded})
	srv := NewServer(fake, "test", slog.New(slog.NewTextHandler(&logs, nil)))

	result := callTool(t, srv, "search_movies", map[string]any{"query": "Test"})
	if got := resultText(t, result); got != "Network error: No response from TMDB API" {
		t.Errorf("tool error text = %q", got)
	}
	if !strings.Contains(logs.String(), "context deadline exceeded") {
		t.Errorf("log does not name the cause: %s", logs.String())
	}
}

func TestToolError_MissingArgs(t *testing.T) {
	t.Parallel()
	srv, fake := newTestServer(t)

	tests := []struct {
		tool string
		args map[string]any
	}{
		{"search_movies", map[string]any{}},
		{"search_movies", map[string]any{"query": "   "}},
		{"search_movies", map[string]any{"query": "x", "page": "two"}},
		{"get_movie_details", map[string]any{}},
		{"get_movie_details", map[string]any{"tmdb_id": 1.5}},
	}

	for _, tt := range tests {
		result := callTool(t, srv, tt.tool, tt.args)
		if !result.IsError {
			t.Errorf("expected error for %s %v", tt.tool, tt.args)
		}
	}
	if calls := fake.Calls(); len(calls) != 0 {
		t.Errorf("invalid arguments reached the catalog: %v", calls)
	}
}

func TestExtractOptionalInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{``, 1, false},
		{`{}`, 1, false},
		{`{"page": null}`, 1, false},
		{`{"page": 3}`, 3, false},
		{`{"page": "4"}`, 4, false},
		{`{"page": true}`, 0, true},
		{`not json`, 0, true},
	}
	for _, tt := range tests {
		got, err := extractOptionalIntFromArgs(json.RawMessage(tt.raw), "page", 1)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("extractOptionalIntFromArgs(%s) = %d, %v", tt.raw, got, err)
		}
	}
}
