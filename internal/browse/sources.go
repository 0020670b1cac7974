package browse

import (
	"context"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
)

// PopularLister lists popular movies by page.
type PopularLister interface {
	ListPopular(ctx context.Context, page int) (*catalog.Page, error)
}

// Searcher searches movies by query and page.
type Searcher interface {
	Search(ctx context.Context, query string, page int) (*catalog.Page, error)
}

// Popular returns a Source backed by the popular list. The query is ignored.
func Popular(c PopularLister) Source {
	return SourceFunc(func(ctx context.Context, _ string, page int) (*catalog.Page, error) {
		return c.ListPopular(ctx, page)
	})
}

// Search returns a Source backed by full-text search.
func Search(c Searcher) Source {
	return SourceFunc(func(ctx context.Context, query string, page int) (*catalog.Page, error) {
		return c.Search(ctx, query, page)
	})
}
