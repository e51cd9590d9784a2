package session

import (
	"fmt"
	"time"
)

// Countdown names used by the storefront flows.
const (
	CountdownEmailVerification = "email_verification"
)

// StartCountdown stores an absolute deadline for an expiring-code flow.
// Persisting the deadline rather than a remaining count means a reloaded
// process resumes the countdown without drift.
func (s *Store) StartCountdown(name string, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record.Deadlines == nil {
		s.record.Deadlines = make(map[string]time.Time)
	}
	s.record.Deadlines[name] = time.Now().Add(d).UTC()
	if err := s.creds.Save(s.record); err != nil {
		return fmt.Errorf("persist countdown: %w", err)
	}
	return nil
}

// Remaining reports how long is left on a named countdown, zero when the
// deadline passed or was never set.
func (s *Store) Remaining(name string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.record.Deadlines[name]
	if !ok {
		return 0
	}
	left := time.Until(deadline)
	if left < 0 {
		return 0
	}
	return left
}

// ClearCountdown drops a named deadline.
func (s *Store) ClearCountdown(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.record.Deadlines[name]; !ok {
		return nil
	}
	delete(s.record.Deadlines, name)
	if err := s.creds.Save(s.record); err != nil {
		return fmt.Errorf("persist countdown removal: %w", err)
	}
	return nil
}
