// Package session owns the authentication session: the token pair, the
// current user, and their durable persistence. All other packages read
// session state through Store; only Store writes it.
package session

import (
	"fmt"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"bookpasal/pkg/domain"
)

// Session is the in-memory view of an authenticated user.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         domain.User
	// AccessExpiry is recovered from the access token's exp claim. Zero when
	// the token carries no expiry.
	AccessExpiry time.Time
}

// Store holds the current session and mirrors every change into the
// credential store.
type Store struct {
	mu      sync.Mutex
	creds   CredentialStore
	current *Session
	record  Record
}

// New bootstraps the store from whatever record the credential store holds.
// A record with both a token and a user restores an authenticated session.
func New(creds CredentialStore) (*Store, error) {
	s := &Store{creds: creds}
	rec, ok, err := creds.Load()
	if err != nil {
		return nil, fmt.Errorf("bootstrap session: %w", err)
	}
	if ok {
		s.record = rec
		if rec.AccessToken != "" && rec.User != nil {
			s.current = &Session{
				AccessToken:  rec.AccessToken,
				RefreshToken: rec.RefreshToken,
				User:         *rec.User,
				AccessExpiry: accessExpiry(rec.AccessToken),
			}
		}
	}
	return s, nil
}

// Login persists the token pair and user and makes IsAuthenticated true.
func (s *Store) Login(user domain.User, access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.record.AccessToken = access
	s.record.RefreshToken = refresh
	s.record.User = &u
	if err := s.creds.Save(s.record); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	s.current = &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
		AccessExpiry: accessExpiry(access),
	}
	return nil
}

// Logout clears every session-derived durable entry, countdown deadlines
// included, and resets to unauthenticated. Safe to call repeatedly.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.record = Record{}
	if err := s.creds.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// SetAccessToken replaces the access token after a refresh. This is the
// gateway's write path; nothing else rotates tokens.
func (s *Store) SetAccessToken(access string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return fmt.Errorf("no active session")
	}
	s.record.AccessToken = access
	if err := s.creds.Save(s.record); err != nil {
		return fmt.Errorf("persist refreshed token: %w", err)
	}
	s.current.AccessToken = access
	s.current.AccessExpiry = accessExpiry(access)
	return nil
}

// Current returns a copy of the active session.
func (s *Store) Current() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Session{}, false
	}
	return *s.current, true
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

func (s *Store) AccessToken() string {
	sess, _ := s.Current()
	return sess.AccessToken
}

func (s *Store) RefreshToken() string {
	sess, _ := s.Current()
	return sess.RefreshToken
}

func (s *Store) User() (domain.User, bool) {
	sess, ok := s.Current()
	return sess.User, ok
}

// accessExpiry reads the exp claim without verifying the signature. The
// server is the verifier; the client only needs the deadline.
func accessExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}
