package auth

import (
	"context"
	"sync"
	"time"
)

// Revoker records logged-out tokens by jti until they would have expired.
type Revoker interface {
	Revoke(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// revocationEntry stores metadata about a revoked JWT token.
type revocationEntry struct {
	ExpiresAt time.Time
	UserID    int64
}

// TokenRevocationStore keeps revoked token ids in memory. It is used when no
// Redis is configured and only covers a single server instance.
type TokenRevocationStore struct {
	mu       sync.RWMutex
	entries  map[string]revocationEntry // JTI -> entry
	userJTIs map[int64][]string
	done     chan struct{}
	now      func() time.Time
}

// NewTokenRevocationStore creates a new store and starts a background
// goroutine that cleans up expired entries every 5 minutes.
func NewTokenRevocationStore() *TokenRevocationStore {
	s := &TokenRevocationStore{
		entries:  make(map[string]revocationEntry),
		userJTIs: make(map[int64][]string),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	go s.cleanupLoop()
	return s
}

func (s *TokenRevocationStore) Revoke(_ context.Context, jti string, userID int64, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[jti]; !exists && userID != 0 {
		s.userJTIs[userID] = append(s.userJTIs[userID], jti)
	}
	s.entries[jti] = revocationEntry{ExpiresAt: expiresAt, UserID: userID}
	return nil
}

func (s *TokenRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[jti]
	return ok, nil
}

// RevokedForUser returns how many tracked tokens belong to userID.
func (s *TokenRevocationStore) RevokedForUser(userID int64) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.userJTIs[userID])
}

// Count returns the number of currently revoked tokens.
func (s *TokenRevocationStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}

// Close stops the background cleanup goroutine. Safe to call more than once.
func (s *TokenRevocationStore) Close() {
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

func (s *TokenRevocationStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup drops entries whose tokens are past their natural expiry.
func (s *TokenRevocationStore) cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for jti, entry := range s.entries {
		if !now.After(entry.ExpiresAt) {
			continue
		}
		delete(s.entries, jti)

		if entry.UserID == 0 {
			continue
		}
		jtis := s.userJTIs[entry.UserID]
		for i, id := range jtis {
			if id == jti {
				s.userJTIs[entry.UserID] = append(jtis[:i], jtis[i+1:]...)
				break
			}
		}
		if len(s.userJTIs[entry.UserID]) == 0 {
			delete(s.userJTIs, entry.UserID)
		}
	}
}
