package session

import (
	"context"
	"sync"
	"time"

	"github.com/ytget/pixel-bot/internal/model"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store used when Redis is unavailable
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store with the given TTL
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the chat's selection or ErrNotFound
func (s *MemoryStore) Get(_ context.Context, chatID int64) (*model.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(chatID)
	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return nil, ErrNotFound
	}
	return decode(entry.data)
}

// Put stores the selection with a fresh TTL
func (s *MemoryStore) Put(_ context.Context, chatID int64, sel *model.Selection) error {
	data, err := encode(sel)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeLocked()
	s.entries[Key(chatID)] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Delete removes the chat's selection
func (s *MemoryStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, Key(chatID))
	return nil
}

// Len returns the number of live entries
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	return len(s.entries)
}

// purgeLocked drops expired entries; caller holds mu
func (s *MemoryStore) purgeLocked() {
	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}
