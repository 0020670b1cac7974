// Package catalogtest provides an in-memory catalog for frontend tests.
package catalogtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
)

// PerPage is how many titles each fake page holds.
const PerPage = 2

// Fake serves deterministic pages. Titles on page p are numbered p*10+1 and
// p*10+2 and named "<prefix> <id>", where prefix is "Popular" or the query.
type Fake struct {
	mu sync.Mutex

	// PopularPages is the total page count of the popular list.
	PopularPages int
	// SearchPages maps a query to its total page count. Unknown queries match nothing.
	SearchPages map[string]int
	// Details are returned by GetDetail; missing ids get a RemoteError 404.
	Details map[int]*catalog.Detail
	// Err, when set, fails every call.
	Err error

	calls []string
}

// New returns a Fake with five popular pages and no search matches.
func New() *Fake {
	return &Fake{
		PopularPages: 5,
		SearchPages:  map[string]int{},
		Details:      map[int]*catalog.Detail{},
	}
}

// ListPopular implements core.Catalog.
func (f *Fake) ListPopular(_ context.Context, page int) (*catalog.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("popular:%d", page))
	if f.Err != nil {
		return nil, f.Err
	}
	return f.page("Popular", page, f.PopularPages), nil
}

// Search implements core.Catalog.
func (f *Fake) Search(_ context.Context, query string, page int) (*catalog.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	query = strings.TrimSpace(query)
	f.calls = append(f.calls, fmt.Sprintf("search:%s:%d", query, page))
	if f.Err != nil {
		return nil, f.Err
	}
	return f.page(query, page, f.SearchPages[query]), nil
}

// GetDetail implements core.Catalog.
func (f *Fake) GetDetail(_ context.Context, id int) (*catalog.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("detail:%d", id))
	if f.Err != nil {
		return nil, f.Err
	}
	d, ok := f.Details[id]
	if !ok {
		return nil, fmt.Errorf("get movie %d: %w", id, &catalog.RemoteError{StatusCode: 404})
	}
	return d, nil
}

// SetErr sets or clears the failure returned by every call.
func (f *Fake) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// Calls returns the recorded calls, e.g. "popular:1", "search:dune:2", "detail:7".
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *Fake) page(prefix string, page, total int) *catalog.Page {
	p := &catalog.Page{Page: page, TotalPages: total}
	if page > total {
		return p
	}
	for i := 1; i <= PerPage; i++ {
		id := page*10 + i
		p.Results = append(p.Results, catalog.Movie{
			ID:          id,
			Title:       fmt.Sprintf("%s %d", prefix, id),
			ReleaseDate: "2021-10-22",
			VoteAverage: 7.5,
		})
	}
	p.TotalResults = total * PerPage
	return p
}

// SampleDetail returns a detail record with cast and a mix of videos.
func SampleDetail(id int, title string) *catalog.Detail {
	return &catalog.Detail{
		Movie: catalog.MovieDetails{
			ID:          id,
			Title:       title,
			Overview:    "A desert planet.",
			ReleaseDate: "2021-10-22",
			Runtime:     155,
			VoteAverage: 7.8,
			PosterPath:  "/poster.jpg",
			Genres:      []catalog.Genre{{ID: 878, Name: "Science Fiction"}},
		},
		Cast: []catalog.CastMember{
			{Name: "Timothée Chalamet", Character: "Paul Atreides", Order: 0},
			{Name: "Rebecca Ferguson", Character: "Lady Jessica", Order: 1},
		},
		Videos: []catalog.Video{
			{Key: "teaser1", Name: "Teaser", Site: "YouTube", Type: "Teaser", Official: true},
			{Key: "trail1", Name: "Official Trailer", Site: "YouTube", Type: "Trailer", Official: true},
			{Key: "vimeo1", Name: "Vimeo Trailer", Site: "Vimeo", Type: "Trailer", Official: true},
		},
	}
}
