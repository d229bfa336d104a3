package token

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"
)

// RevocationList is an in-memory set of revoked token ids.
// Entries are kept until the token would have expired anyway.
type RevocationList struct {
	mu      sync.RWMutex
	entries map[string]time.Time // jti -> token expiry
	clock   clock.Clock
}

var _ RevocationChecker = (*RevocationList)(nil)

// NewRevocationList creates an empty revocation list
func NewRevocationList(clk clock.Clock) *RevocationList {
	if clk == nil {
		clk = clock.WallClock
	}
	return &RevocationList{
		entries: make(map[string]time.Time),
		clock:   clk,
	}
}

// Revoke blocks a token id until expiresAt
func (l *RevocationList) Revoke(id string, expiresAt time.Time) {
	if id == "" {
		return
	}
	l.mu.Lock()
	l.entries[id] = expiresAt
	l.mu.Unlock()
}

// IsRevoked reports whether id is on the list
func (l *RevocationList) IsRevoked(id string) bool {
	if id == "" {
		return false
	}
	l.mu.RLock()
	_, ok := l.entries[id]
	l.mu.RUnlock()
	return ok
}

// Len returns the number of revoked ids currently held
func (l *RevocationList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// GC drops entries whose tokens have expired and returns how many were removed
func (l *RevocationList) GC() int {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for id, exp := range l.entries {
		if !now.Before(exp) {
			delete(l.entries, id)
			removed++
		}
	}
	return removed
}

// Run calls GC every interval until ctx is done
func (l *RevocationList) Run(ctx context.Context, every time.Duration) {
	if every <= 0 {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.clock.After(every):
			l.GC()
		}
	}
}
