package identity

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrNameTaken reports a registration attempt against an already used name.
var ErrNameTaken = errors.New("name already taken")

// Store exposes token validation and name lookups for the presence
// coordinator and HTTP handlers.
type Store interface {
	Register(name string) (Identity, string, error)
	FindByToken(token string) (Identity, bool)
	FindByID(id string) (Identity, bool)
	NameExists(name string) bool
}

// MemoryStore implements Store with a token-keyed in-memory map, suitable for
// a process-lifetime registry.
type MemoryStore struct {
	mu     sync.RWMutex
	phones map[string]Identity
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied
// token-to-identity pairs.
func NewMemoryStore(seed map[string]Identity) *MemoryStore {
	phones := make(map[string]Identity, len(seed))
	for token, phone := range seed {
		phones[token] = phone
	}
	return &MemoryStore{phones: phones}
}

// Register creates a fresh identity under a fresh bearer token. The name
// check and the insert share one critical section so a token never maps to
// more than one identity.
func (s *MemoryStore) Register(name string) (Identity, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameExistsLocked(name) {
		return Identity{}, "", ErrNameTaken
	}

	phone := Identity{ID: uuid.NewString(), Name: name}
	token := uuid.NewString()
	s.phones[token] = phone
	return phone, token, nil
}

// FindByToken resolves a bearer token to its identity.
func (s *MemoryStore) FindByToken(token string) (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	phone, ok := s.phones[token]
	return phone, ok
}

// FindByID scans stored identities for the given id.
func (s *MemoryStore) FindByID(id string) (Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, phone := range s.phones {
		if phone.ID == id {
			return phone, true
		}
	}
	return Identity{}, false
}

// NameExists reports whether any stored identity has exactly that name.
// Case-sensitive, exact match.
func (s *MemoryStore) NameExists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nameExistsLocked(name)
}

func (s *MemoryStore) nameExistsLocked(name string) bool {
	for _, phone := range s.phones {
		if phone.Name == name {
			return true
		}
	}
	return false
}
