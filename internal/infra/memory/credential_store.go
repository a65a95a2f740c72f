package memory

import (
	"context"
	"sync"
	"time"

	"flashmind-student/internal/domain"
)

// CredentialStore is an in-memory implementation of app.CredentialStore.
// Entries expire ttl after their last save (login or token refresh); a zero
// ttl keeps them forever.
type CredentialStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]credentialEntry
}

type credentialEntry struct {
	creds     domain.Credentials
	expiresAt time.Time
}

func NewCredentialStore(ttl time.Duration) *CredentialStore {
	return &CredentialStore{
		ttl:     ttl,
		clock:   time.Now,
		entries: make(map[string]credentialEntry),
	}
}

func (s *CredentialStore) Load(_ context.Context, sid string) (domain.Credentials, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[sid]
	s.mu.RUnlock()
	if !ok {
		return domain.Credentials{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.clock()) {
		s.mu.Lock()
		delete(s.entries, sid)
		s.mu.Unlock()
		return domain.Credentials{}, false, nil
	}
	return entry.creds, true, nil
}

func (s *CredentialStore) Save(_ context.Context, sid string, creds domain.Credentials) error {
	entry := credentialEntry{creds: creds}
	if s.ttl > 0 {
		entry.expiresAt = s.clock().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[sid] = entry
	s.mu.Unlock()
	return nil
}

func (s *CredentialStore) Clear(_ context.Context, sid string) error {
	s.mu.Lock()
	delete(s.entries, sid)
	s.mu.Unlock()
	return nil
}
