// Package browse implements the pagination state shared by the home feed and search.
//
// A Session never performs I/O. Transitions that need data return a Request,
// which the caller runs through a Source and hands back to Complete. Each
// Request carries the generation it was issued under; completions from older
// generations are discarded, so a superseded query can never leak into the
// current result set.
package browse

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
)

// State is the lifecycle state of a Session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Mode selects how a loaded page is merged into the item list.
type Mode int

const (
	// ModeAppend accumulates pages (infinite scroll).
	ModeAppend Mode = iota
	// ModeReplace shows one page at a time (explicit page navigation).
	ModeReplace
)

func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "append"
}

// Request identifies one page fetch issued by a Session.
type Request struct {
	Generation uint64
	Query      string
	Page       int
}

// Source fetches one page for a query. Feeds without a query ignore it.
type Source interface {
	FetchPage(ctx context.Context, query string, page int) (*catalog.Page, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, query string, page int) (*catalog.Page, error)

// FetchPage implements Source.
func (f SourceFunc) FetchPage(ctx context.Context, query string, page int) (*catalog.Page, error) {
	return f(ctx, query, page)
}

// Snapshot is a copy of a Session's state, safe to read without locking.
type Snapshot struct {
	Mode        Mode
	State       State
	Query       string
	Items       []catalog.Movie
	CurrentPage int // next page to request
	LoadedPage  int // page last applied, 0 before the first success
	TotalPages  int
	TotalKnown  bool // false until the first page has been applied
	LastError   string
}

// Loading reports whether a request is in flight.
func (s Snapshot) Loading() bool { return s.State == StateLoading }

// Exhausted reports whether the cursor has moved past the last known page.
func (s Snapshot) Exhausted() bool {
	return s.TotalKnown && s.CurrentPage > s.TotalPages
}

// NoResults reports a completed, non-blank query that matched nothing.
func (s Snapshot) NoResults() bool {
	return s.State == StateLoaded && len(s.Items) == 0 && strings.TrimSpace(s.Query) != ""
}

// HasPrev reports whether a page before the loaded one exists.
func (s Snapshot) HasPrev() bool { return s.LoadedPage > 1 }

// HasNext reports whether a page after the loaded one exists.
func (s Snapshot) HasNext() bool { return s.LoadedPage > 0 && s.LoadedPage < s.TotalPages }

// Session is the pagination state machine for one browsing session.
// All methods are safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	source Source
	mode   Mode
	// needsQuery is set for search sessions, which stay idle until given a query.
	needsQuery bool

	state      State
	query      string
	items      []catalog.Movie
	cursor     int
	loadedPage int
	totalPages int
	totalKnown bool
	lastErr    string
	generation uint64
}

// NewFeed creates an append-mode session that needs no query (home feed).
func NewFeed(src Source) *Session {
	return New(src, ModeAppend, false)
}

// NewSearch creates a replace-mode session that stays idle until a query is set.
func NewSearch(src Source) *Session {
	return New(src, ModeReplace, true)
}

// New creates a session with an explicit mode. needsQuery makes blank queries idle.
func New(src Source, mode Mode, needsQuery bool) *Session {
	return &Session{source: src, mode: mode, needsQuery: needsQuery, cursor: 1}
}

// RequestNextPage asks for the page at the cursor. It is a no-op while a
// request is in flight, once the cursor is past the last known page, or when
// a query is required and missing.
func (s *Session) RequestNextPage() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked()
}

func (s *Session) nextLocked() (Request, bool) {
	if s.state == StateLoading {
		return Request{}, false
	}
	if s.totalKnown && s.cursor > s.totalPages {
		return Request{}, false
	}
	if s.needsQuery && s.query == "" {
		return Request{}, false
	}
	return s.issueLocked(s.cursor), true
}

// ResetForNewQuery discards the current results and starts over for query.
// A blank query returns the session to idle without issuing a request.
// Any in-flight request is superseded either way.
func (s *Session) ResetForNewQuery(query string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query = strings.TrimSpace(query)
	s.resetLocked(query)
	if query == "" {
		return Request{}, false
	}
	return s.issueLocked(1), true
}

// Refresh starts the current query (or the feed) over from page 1.
func (s *Session) Refresh() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.needsQuery && s.query == "" {
		return Request{}, false
	}
	s.resetLocked(s.query)
	return s.issueLocked(1), true
}

func (s *Session) resetLocked(query string) {
	s.generation++
	s.query = query
	s.items = nil
	s.cursor = 1
	s.loadedPage = 0
	s.totalPages = 0
	s.totalKnown = false
	s.lastErr = ""
	s.state = StateIdle
}

// GoToPage jumps to page n (explicit navigation in replace mode). It is
// rejected when n is out of range, while a request is in flight, when no
// query is set, or on an append-mode session.
func (s *Session) GoToPage(n int) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeReplace {
		return Request{}, false
	}
	if n < 1 || (s.totalKnown && n > s.totalPages) {
		return Request{}, false
	}
	if s.state == StateLoading {
		return Request{}, false
	}
	if s.needsQuery && s.query == "" {
		return Request{}, false
	}
	s.cursor = n
	return s.issueLocked(n), true
}

// Retry re-requests the page that last failed. It is RequestNextPage restricted
// to the error state.
func (s *Session) Retry() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateError {
		return Request{}, false
	}
	return s.nextLocked()
}

// issueLocked moves to Loading and tags a new request. Caller holds s.mu.
func (s *Session) issueLocked(page int) Request {
	s.generation++
	s.state = StateLoading
	return Request{Generation: s.generation, Query: s.query, Page: page}
}

// Complete applies the outcome of req. It reports false, and changes nothing,
// when req has been superseded.
func (s *Session) Complete(req Request, page *catalog.Page, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Generation != s.generation || s.state != StateLoading {
		return false
	}

	if err != nil {
		s.state = StateError
		s.lastErr = catalog.Message(err)
		return true
	}

	var results []catalog.Movie
	total := 0
	if page != nil {
		results = page.Results
		total = page.TotalPages
	}

	switch s.mode {
	case ModeAppend:
		s.items = append(s.items, results...)
	case ModeReplace:
		s.items = slices.Clone(results)
	}
	s.totalPages = total
	s.totalKnown = true
	s.loadedPage = req.Page
	s.cursor = req.Page + 1
	s.state = StateLoaded
	s.lastErr = ""
	return true
}

// Fetch runs req against the session's source without touching state.
func (s *Session) Fetch(ctx context.Context, req Request) (*catalog.Page, error) {
	return s.source.FetchPage(ctx, req.Query, req.Page)
}

// Load fetches req and applies the result. It reports whether the result was applied.
func (s *Session) Load(ctx context.Context, req Request) bool {
	page, err := s.Fetch(ctx, req)
	return s.Complete(req, page, err)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Mode:        s.mode,
		State:       s.state,
		Query:       s.query,
		Items:       slices.Clone(s.items),
		CurrentPage: s.cursor,
		LoadedPage:  s.loadedPage,
		TotalPages:  s.totalPages,
		TotalKnown:  s.totalKnown,
		LastError:   s.lastErr,
	}
}

// Generation returns the tag that the next completion must carry to be applied.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}
