package session

import (
	"sync"
	"time"

	"bookpasal/pkg/domain"
)

// Record is the durable session record: the token pair, the serialized user,
// and any stored countdown deadlines. It is the only cross-component mutable
// state; Store is its only writer.
type Record struct {
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
	User         *domain.User         `json:"user,omitempty"`
	Deadlines    map[string]time.Time `json:"deadlines,omitempty"`
}

// CredentialStore persists the session record across process restarts.
type CredentialStore interface {
	Load() (Record, bool, error)
	Save(Record) error
	Clear() error
}

// MemoryCredentialStore keeps the record in memory. Used in tests and for
// sessions that should not outlive the process.
type MemoryCredentialStore struct {
	mu     sync.Mutex
	record Record
	set    bool
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Load() (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record, s.set, nil
}

func (s *MemoryCredentialStore) Save(r Record) error {
	s.mu.Lock()
	s.record = r
	s.set = true
	s.mu.Unlock()
	return nil
}

func (s *MemoryCredentialStore) Clear() error {
	s.mu.Lock()
	s.record = Record{}
	s.set = false
	s.mu.Unlock()
	return nil
}
