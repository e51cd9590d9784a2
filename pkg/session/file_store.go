package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// FileCredentialStore seals the session record into a single file on disk.
// Tokens are encrypted at rest with ChaCha20-Poly1305 under a key derived
// from the configured secret.
type FileCredentialStore struct {
	path string
	key  []byte
}

// NewFileCredentialStore creates the parent directory if missing.
func NewFileCredentialStore(path, secret string) (*FileCredentialStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("session file path is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("session file secret is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	key := sha256.Sum256([]byte(secret))
	return &FileCredentialStore{path: path, key: key[:]}, nil
}

func (s *FileCredentialStore) Load() (Record, bool, error) {
	sealed, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("read session file: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return Record{}, false, err
	}
	if len(sealed) < aead.NonceSize() {
		return Record{}, false, fmt.Errorf("session file truncated")
	}
	nonce, box := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, box, nil)
	if err != nil {
		return Record{}, false, fmt.Errorf("unseal session file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(plain, &rec); err != nil {
		return Record{}, false, fmt.Errorf("parse session record: %w", err)
	}
	return rec, true, nil
}

func (s *FileCredentialStore) Save(rec Record) error {
	plain, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	sealed := aead.Seal(nonce, nonce, plain, nil)

	// Write-then-rename so a crash never leaves a half-written record.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

func (s *FileCredentialStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
