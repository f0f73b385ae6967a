// Package presence tracks which accounts are currently online and therefore
// eligible to transact. Membership lives in process memory only: a restarted
// process has no connected clients, so the set starts empty.
package presence

import (
	"sort"
	"sync"
	"time"
)

type Session struct {
	AccountID string    `json:"account_id"`
	StartedAt time.Time `json:"started_at"`
}

type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[string]Session),
	}
}

// MarkOnline is idempotent: re-marking an online account keeps the original
// session start time.
func (t *Tracker) MarkOnline(accountID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[accountID]; ok {
		return
	}
	t.sessions[accountID] = Session{
		AccountID: accountID,
		StartedAt: time.Now().UTC(),
	}
}

// MarkOffline is idempotent: marking an already-offline account succeeds so
// logout retries never error.
func (t *Tracker) MarkOffline(accountID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, accountID)
}

func (t *Tracker) IsOnline(accountID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.sessions[accountID]
	return ok
}

func (t *Tracker) Session(accountID string) (Session, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	session, ok := t.sessions[accountID]
	return session, ok
}

func (t *Tracker) Online() []Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sessions := make([]Session, 0, len(t.sessions))
	for _, session := range t.sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].AccountID < sessions[j].AccountID
	})
	return sessions
}
