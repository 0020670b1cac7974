package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/vadimtrunov/moviedeck/internal/catalog"
)

// fakeSource records requested pages and serves canned pages or errors.
type fakeSource struct {
	mu     sync.Mutex
	total  int
	fail   map[int]error
	calls  []string
	titles func(query string, page int) []catalog.Movie
}

func (f *fakeSource) FetchPage(_ context.Context, query string, page int) (*catalog.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%s#%d", query, page))
	if err, ok := f.fail[page]; ok {
		return nil, err
	}
	var results []catalog.Movie
	if f.titles != nil {
		results = f.titles(query, page)
	} else {
		results = []catalog.Movie{{ID: page*100 + 1, Title: fmt.Sprintf("%s-p%d", query, page)}}
	}
	return &catalog.Page{Page: page, Results: results, TotalPages: f.total}, nil
}

func mustRequest(t *testing.T) func(Request, bool) Request {
	return func(req Request, ok bool) Request {
		t.Helper()
		if !ok {
			t.Fatal("expected a request to be issued")
		}
		return req
	}
}

func TestFeed_AppendsPages(t *testing.T) {
	src := &fakeSource{total: 3}
	s := NewFeed(src)
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		req := mustRequest(t)(s.RequestNextPage())
		if req.Page != want {
			t.Fatalf("requested page %d, want %d", req.Page, want)
		}
		if !s.Load(ctx, req) {
			t.Fatalf("page %d not applied", want)
		}
	}

	snap := s.Snapshot()
	if len(snap.Items) != 3 {
		t.Fatalf("expected 3 accumulated items, got %d", len(snap.Items))
	}
	if snap.Items[0].ID != 101 || snap.Items[2].ID != 301 {
		t.Errorf("items out of order: %+v", snap.Items)
	}
	if snap.State != StateLoaded {
		t.Errorf("state = %v, want loaded", snap.State)
	}
	if !snap.Exhausted() {
		t.Error("expected feed to be exhausted after last page")
	}
	if _, ok := s.RequestNextPage(); ok {
		t.Error("RequestNextPage past the last page should be a no-op")
	}
}

func TestFeed_SinglePageThenNoop(t *testing.T) {
	src := &fakeSource{total: 1, titles: func(string, int) []catalog.Movie {
		return []catalog.Movie{{ID: 1, Title: "Only"}}
	}}
	s := NewFeed(src)

	req := mustRequest(t)(s.RequestNextPage())
	s.Load(context.Background(), req)

	before := s.Snapshot()
	if before.CurrentPage != 2 || before.TotalPages != 1 {
		t.Fatalf("cursor=%d total=%d, want 2 and 1", before.CurrentPage, before.TotalPages)
	}

	if _, ok := s.RequestNextPage(); ok {
		t.Fatal("expected no-op once currentPage > totalPages")
	}
	after := s.Snapshot()
	if after.State != StateLoaded || len(after.Items) != 1 {
		t.Errorf("state = %v with %d items, want loaded with 1", after.State, len(after.Items))
	}
	if len(src.calls) != 1 {
		t.Errorf("expected 1 fetch, got %v", src.calls)
	}
}

func TestRequestNextPage_IgnoredWhileLoading(t *testing.T) {
	s := NewFeed(&fakeSource{total: 5})

	first := mustRequest(t)(s.RequestNextPage())
	for range 3 {
		if _, ok := s.RequestNextPage(); ok {
			t.Fatal("duplicate request issued while loading")
		}
	}
	if s.Snapshot().State != StateLoading {
		t.Error("expected loading state")
	}
	if !s.Complete(first, &catalog.Page{Page: 1, TotalPages: 5}, nil) {
		t.Error("in-flight request should be applied")
	}
}

func TestFailure_KeepsItemsAndCursor(t *testing.T) {
	boom := errors.New("Network error: No response from TMDB API")
	src := &fakeSource{total: 5, fail: map[int]error{2: boom}}
	s := NewFeed(src)
	ctx := context.Background()

	s.Load(ctx, mustRequest(t)(s.RequestNextPage()))
	req := mustRequest(t)(s.RequestNextPage())
	if req.Page != 2 {
		t.Fatalf("expected page 2, got %d", req.Page)
	}
	s.Load(ctx, req)

	snap := s.Snapshot()
	if snap.State != StateError {
		t.Fatalf("state = %v, want error", snap.State)
	}
	if snap.LastError != boom.Error() {
		t.Errorf("LastError = %q, want %q", snap.LastError, boom.Error())
	}
	if snap.CurrentPage != 2 {
		t.Errorf("cursor advanced to %d after failure", snap.CurrentPage)
	}
	if len(snap.Items) != 1 {
		t.Errorf("expected prior item kept, got %d items", len(snap.Items))
	}

	delete(src.fail, 2)
	retry := mustRequest(t)(s.RequestNextPage())
	if retry.Page != 2 {
		t.Fatalf("retry requested page %d, want 2", retry.Page)
	}
	s.Load(ctx, retry)

	snap = s.Snapshot()
	if snap.State != StateLoaded || snap.LastError != "" {
		t.Errorf("after retry: state=%v lastErr=%q", snap.State, snap.LastError)
	}
	if len(snap.Items) != 2 || snap.CurrentPage != 3 {
		t.Errorf("after retry: %d items, cursor %d", len(snap.Items), snap.CurrentPage)
	}
}

func TestRetry_OnlyFromError(t *testing.T) {
	src := &fakeSource{total: 2, fail: map[int]error{1: errors.New("down")}}
	s := NewFeed(src)

	if _, ok := s.Retry(); ok {
		t.Error("Retry from idle should be a no-op")
	}
	s.Load(context.Background(), mustRequest(t)(s.RequestNextPage()))
	req, ok := s.Retry()
	if !ok || req.Page != 1 {
		t.Errorf("Retry() = %+v, %v; want page 1", req, ok)
	}
}

func TestResetForNewQuery_Blank(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Session)
	}{
		{"fresh", func(*Session) {}},
		{"loaded", func(s *Session) {
			req, _ := s.ResetForNewQuery("dune")
			s.Load(context.Background(), req)
		}},
		{"loading", func(s *Session) { s.ResetForNewQuery("dune") }},
		{"error", func(s *Session) {
			req, _ := s.ResetForNewQuery("dune")
			s.Complete(req, nil, errors.New("x"))
		}},
	}
	for _, tt := range tests {
		for _, mk := range []func(Source) *Session{NewSearch, NewFeed} {
			s := mk(&fakeSource{total: 3})
			tt.setup(s)

			if _, ok := s.ResetForNewQuery("   "); ok {
				t.Errorf("%s: blank query issued a request", tt.name)
			}
			snap := s.Snapshot()
			if snap.State != StateIdle {
				t.Errorf("%s: state = %v, want idle", tt.name, snap.State)
			}
			if len(snap.Items) != 0 || snap.TotalKnown || snap.LastError != "" {
				t.Errorf("%s: state not cleared: %+v", tt.name, snap)
			}
		}
	}
}

func TestSearch_IdleWithoutQuery(t *testing.T) {
	src := &fakeSource{total: 3}
	s := NewSearch(src)

	if _, ok := s.RequestNextPage(); ok {
		t.Error("search without a query must not fetch")
	}
	if _, ok := s.GoToPage(1); ok {
		t.Error("GoToPage without a query must not fetch")
	}
	if _, ok := s.Refresh(); ok {
		t.Error("Refresh without a query must not fetch")
	}
	if len(src.calls) != 0 {
		t.Errorf("unexpected fetches: %v", src.calls)
	}
}

func TestNew_ReplaceModeWithoutQuery(t *testing.T) {
	src := &fakeSource{total: 2}
	s := New(src, ModeReplace, false)
	ctx := context.Background()

	s.Load(ctx, mustRequest(t)(s.RequestNextPage()))
	s.Load(ctx, mustRequest(t)(s.GoToPage(2)))

	snap := s.Snapshot()
	if snap.Mode != ModeReplace {
		t.Errorf("Mode = %v, want ModeReplace", snap.Mode)
	}
	if len(snap.Items) != 1 || snap.Items[0].Title != "-p2" {
		t.Errorf("expected page 2 to replace page 1, got %+v", snap.Items)
	}
	if len(src.calls) != 2 || src.calls[0] != "#1" || src.calls[1] != "#2" {
		t.Errorf("calls = %v, want [#1 #2]", src.calls)
	}
}

func TestSearch_ReplacesPages(t *testing.T) {
	src := &fakeSource{total: 4}
	s := NewSearch(src)
	ctx := context.Background()

	req := mustRequest(t)(s.ResetForNewQuery("  alien "))
	if req.Query != "alien" || req.Page != 1 {
		t.Fatalf("unexpected request %+v", req)
	}
	s.Load(ctx, req)

	s.Load(ctx, mustRequest(t)(s.GoToPage(3)))
	snap := s.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0].Title != "alien-p3" {
		t.Fatalf("expected page 3 to replace results, got %+v", snap.Items)
	}
	if snap.LoadedPage != 3 || snap.CurrentPage != 4 {
		t.Errorf("LoadedPage=%d CurrentPage=%d, want 3 and 4", snap.LoadedPage, snap.CurrentPage)
	}
	if !snap.HasPrev() || !snap.HasNext() {
		t.Errorf("HasPrev=%v HasNext=%v, want both true", snap.HasPrev(), snap.HasNext())
	}
}

func TestGoToPage_Bounds(t *testing.T) {
	s := NewSearch(&fakeSource{total: 3})
	s.Load(context.Background(), mustRequest(t)(s.ResetForNewQuery("q")))
	before := s.Snapshot()
	gen := s.Generation()

	for _, n := range []int{0, -1, 4} {
		if _, ok := s.GoToPage(n); ok {
			t.Errorf("GoToPage(%d) should be rejected", n)
		}
	}

	after := s.Snapshot()
	if after.State != before.State || after.CurrentPage != before.CurrentPage || len(after.Items) != len(before.Items) {
		t.Errorf("state changed by rejected GoToPage: before=%+v after=%+v", before, after)
	}
	if s.Generation() != gen {
		t.Error("rejected GoToPage bumped the generation")
	}
}

func TestGoToPage_RejectedWhileLoadingAndInAppendMode(t *testing.T) {
	s := NewSearch(&fakeSource{total: 3})
	s.ResetForNewQuery("q")
	if _, ok := s.GoToPage(1); ok {
		t.Error("GoToPage while loading should be rejected")
	}

	feed := NewFeed(&fakeSource{total: 3})
	if _, ok := feed.GoToPage(1); ok {
		t.Error("GoToPage on an append-mode session should be rejected")
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	s := NewSearch(&fakeSource{total: 2})
	ctx := context.Background()

	reqA := mustRequest(t)(s.ResetForNewQuery("a"))
	reqB := mustRequest(t)(s.ResetForNewQuery("b"))

	// "a" resolves late, after the query changed.
	if s.Complete(reqA, &catalog.Page{Results: []catalog.Movie{{ID: 1, Title: "from-a"}}, TotalPages: 9}, nil) {
		t.Fatal("stale response for \"a\" was applied")
	}
	snap := s.Snapshot()
	if snap.State != StateLoading || len(snap.Items) != 0 || snap.TotalKnown {
		t.Fatalf("stale response mutated state: %+v", snap)
	}

	if !s.Load(ctx, reqB) {
		t.Fatal("current response for \"b\" was not applied")
	}
	snap = s.Snapshot()
	if snap.Query != "b" {
		t.Errorf("query = %q, want b", snap.Query)
	}
	for _, m := range snap.Items {
		if m.Title == "from-a" {
			t.Fatal("data from superseded query leaked into results")
		}
	}
	if len(snap.Items) != 1 || snap.Items[0].Title != "b-p1" {
		t.Errorf("unexpected items: %+v", snap.Items)
	}

	// A late error for "a" must not flip the state either.
	if s.Complete(reqA, nil, errors.New("late failure")) {
		t.Error("stale error was applied")
	}
	if s.Snapshot().State != StateLoaded {
		t.Error("stale error changed state")
	}
}

func TestStaleResponseAfterBlankReset(t *testing.T) {
	s := NewSearch(&fakeSource{total: 2})
	req := mustRequest(t)(s.ResetForNewQuery("a"))
	s.ResetForNewQuery("")

	if s.Complete(req, &catalog.Page{Results: []catalog.Movie{{ID: 1}}, TotalPages: 1}, nil) {
		t.Error("response applied after the session went idle")
	}
	if snap := s.Snapshot(); snap.State != StateIdle || len(snap.Items) != 0 {
		t.Errorf("idle session mutated: %+v", snap)
	}
}

func TestNoResults(t *testing.T) {
	s := NewSearch(&fakeSource{total: 0, titles: func(string, int) []catalog.Movie { return nil }})
	s.Load(context.Background(), mustRequest(t)(s.ResetForNewQuery("zzzz")))

	snap := s.Snapshot()
	if !snap.NoResults() {
		t.Errorf("expected NoResults for empty completed query: %+v", snap)
	}
	if snap.LastError != "" {
		t.Error("empty results must not be an error")
	}
	if _, ok := s.RequestNextPage(); ok {
		t.Error("no further pages expected when total is 0")
	}

	idle := NewSearch(&fakeSource{}).Snapshot()
	if idle.NoResults() {
		t.Error("idle session should not report NoResults")
	}
}

func TestRefresh_Feed(t *testing.T) {
	src := &fakeSource{total: 5}
	s := NewFeed(src)
	ctx := context.Background()
	s.Load(ctx, mustRequest(t)(s.RequestNextPage()))
	s.Load(ctx, mustRequest(t)(s.RequestNextPage()))

	req := mustRequest(t)(s.Refresh())
	if req.Page != 1 {
		t.Fatalf("Refresh requested page %d, want 1", req.Page)
	}
	if len(s.Snapshot().Items) != 0 {
		t.Error("Refresh should clear items")
	}
	s.Load(ctx, req)
	if n := len(s.Snapshot().Items); n != 1 {
		t.Errorf("expected 1 item after refresh, got %d", n)
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	s := NewFeed(&fakeSource{total: 2})
	s.Load(context.Background(), mustRequest(t)(s.RequestNextPage()))

	snap := s.Snapshot()
	snap.Items[0].Title = "mutated"
	if s.Snapshot().Items[0].Title == "mutated" {
		t.Error("Snapshot shares its item slice with the session")
	}
}

func TestSources(t *testing.T) {
	var gotPopular, gotSearch string
	lister := popularFunc(func(_ context.Context, page int) (*catalog.Page, error) {
		gotPopular = fmt.Sprint(page)
		return &catalog.Page{}, nil
	})
	searcher := searchFunc(func(_ context.Context, q string, page int) (*catalog.Page, error) {
		gotSearch = fmt.Sprintf("%s#%d", q, page)
		return &catalog.Page{}, nil
	})

	Popular(lister).FetchPage(context.Background(), "ignored", 4)
	Search(searcher).FetchPage(context.Background(), "dune", 2)

	if gotPopular != "4" {
		t.Errorf("popular page = %q, want 4", gotPopular)
	}
	if gotSearch != "dune#2" {
		t.Errorf("search call = %q, want dune#2", gotSearch)
	}
}

type popularFunc func(ctx context.Context, page int) (*catalog.Page, error)

func (f popularFunc) ListPopular(ctx context.Context, page int) (*catalog.Page, error) {
	return f(ctx, page)
}

type searchFunc func(ctx context.Context, q string, page int) (*catalog.Page, error)

func (f searchFunc) Search(ctx context.Context, q string, page int) (*catalog.Page, error) {
	return f(ctx, q, page)
}

func TestSession_ConcurrentTriggers(t *testing.T) {
	s := NewFeed(&fakeSource{total: 100})
	var wg sync.WaitGroup
	var mu sync.Mutex
	issued := 0
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := s.RequestNextPage(); ok {
				mu.Lock()
				issued++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if issued != 1 {
		t.Errorf("expected exactly one in-flight request, got %d", issued)
	}
}

func TestFailure_StoresUserFacingMessage(t *testing.T) {
	s := NewFeed(&fakeSource{total: 2})
	req := mustRequest(t)(s.RequestNextPage())
	wrapped := fmt.Errorf("list popular page 1: %w", &catalog.NetworkError{Err: context.DeadlineExceeded})
	s.Complete(req, nil, wrapped)

	if got := s.Snapshot().LastError; got != "Network error: No response from TMDB API" {
		t.Errorf("LastError = %q", got)
	}
}
