package core

import (
	"context"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
)

// Catalog defines the read-only movie catalog used by every frontend
type Catalog interface {
	// ListPopular returns one page of the popularity-ranked list
	ListPopular(ctx context.Context, page int) (*catalog.Page, error)

	// Search returns one page of titles matching query
	Search(ctx context.Context, query string, page int) (*catalog.Page, error)

	// GetDetail returns the aggregated detail (movie, cast, videos) for a title
	GetDetail(ctx context.Context, id int) (*catalog.Detail, error)
}

// Frontend defines the interface for long-running user-facing frontends (Telegram, MCP)
type Frontend interface {
	// Start runs the frontend until ctx is cancelled or it fails
	Start(ctx context.Context) error

	// Stop stops the frontend
	Stop(ctx context.Context) error

	// Name returns the frontend name (e.g., "telegram", "mcp")
	Name() string
}

var _ Catalog = (*catalog.Client)(nil)
