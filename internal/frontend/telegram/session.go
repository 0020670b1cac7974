package telegram

import (
	"sync"

	"github.com/vadimtrunov/moviedeck/internal/browse"
	"github.com/vadimtrunov/moviedeck/internal/core"
)

// userSession is one user's browsing state: the popular feed and a search.
type userSession struct {
	feed   *browse.Session
	search *browse.Session
}

func newUserSession(cat core.Catalog) *userSession {
	return &userSession{
		feed:   browse.NewFeed(browse.Popular(cat)),
		search: browse.NewSearch(browse.Search(cat)),
	}
}

// sessionManager manages per-user browsing sessions and access control.
type sessionManager struct {
	mu       sync.Mutex
	catalog  core.Catalog
	sessions map[int64]*userSession
	allowed  map[int64]bool // nil or empty = allow all
}

// newSessionManager creates a session manager.
// If allowedUserIDs is empty, all users are allowed.
func newSessionManager(cat core.Catalog, allowedUserIDs []int64) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		catalog:  cat,
		sessions: make(map[int64]*userSession),
		allowed:  allowed,
	}
}

// isAllowed checks if a user is authorized to use the bot.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// getOrCreate returns the user's session, creating it on first use.
func (sm *sessionManager) getOrCreate(userID int64) *userSession {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[userID]; ok {
		return s
	}
	s := newUserSession(sm.catalog)
	sm.sessions[userID] = s
	return s
}

// reset drops a user's session. Both browse sessions are moved to a new
// generation first, so responses still in flight are discarded by Complete.
func (sm *sessionManager) reset(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[userID]; ok {
		s.feed.ResetForNewQuery("")
		s.search.ResetForNewQuery("")
	}
	delete(sm.sessions, userID)
}
