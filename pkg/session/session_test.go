package session

import (
	"path/filepath"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"bookpasal/pkg/domain"
)

func mustSignToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func testUser() domain.User {
	return domain.User{ID: 42, Username: "sita", Email: "sita@example.com", Role: domain.RoleReader}
}

func TestLoginLogoutLifecycle(t *testing.T) {
	store, err := New(NewMemoryCredentialStore())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatal("fresh store should be unauthenticated")
	}

	exp := time.Now().Add(15 * time.Minute)
	if err := store.Login(testUser(), mustSignToken(t, exp), "refresh-1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	sess, ok := store.Current()
	if !ok {
		t.Fatal("expected authenticated session")
	}
	if sess.User.Username != "sita" || sess.RefreshToken != "refresh-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if sess.AccessExpiry.Unix() != exp.Unix() {
		t.Fatalf("expiry not recovered from token: got %v want %v", sess.AccessExpiry, exp)
	}

	if err := store.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if store.IsAuthenticated() {
		t.Fatal("logout should clear the session")
	}
	// Logout is idempotent.
	if err := store.Logout(); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestSetAccessTokenRequiresActiveSession(t *testing.T) {
	store, err := New(NewMemoryCredentialStore())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.SetAccessToken("tok"); err == nil {
		t.Fatal("expected error without an active session")
	}
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.bin")
	creds, err := NewFileCredentialStore(path, "storefront-secret")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	store, err := New(creds)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	access := mustSignToken(t, time.Now().Add(time.Hour))
	if err := store.Login(testUser(), access, "refresh-1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	// Simulate a fresh process against the same file.
	creds2, err := NewFileCredentialStore(path, "storefront-secret")
	if err != nil {
		t.Fatalf("reopen file store: %v", err)
	}
	restored, err := New(creds2)
	if err != nil {
		t.Fatalf("bootstrap from file: %v", err)
	}
	sess, ok := restored.Current()
	if !ok {
		t.Fatal("session should survive a restart")
	}
	if sess.AccessToken != access || sess.User.ID != 42 {
		t.Fatalf("restored session mismatch: %+v", sess)
	}
}

func TestFileStoreRejectsWrongSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.bin")
	creds, err := NewFileCredentialStore(path, "right-secret")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := creds.Save(Record{AccessToken: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	wrong, err := NewFileCredentialStore(path, "wrong-secret")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if _, _, err := wrong.Load(); err == nil {
		t.Fatal("expected unseal failure with wrong secret")
	}
}

func TestCountdownReconstructedFromDeadline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.bin")
	creds, err := NewFileCredentialStore(path, "secret")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	store, err := New(creds)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.StartCountdown(CountdownEmailVerification, 10*time.Minute); err != nil {
		t.Fatalf("start countdown: %v", err)
	}

	creds2, err := NewFileCredentialStore(path, "secret")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	restored, err := New(creds2)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	left := restored.Remaining(CountdownEmailVerification)
	if left <= 9*time.Minute || left > 10*time.Minute {
		t.Fatalf("remaining after reload = %v, want just under 10m", left)
	}

	if err := restored.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if got := restored.Remaining(CountdownEmailVerification); got != 0 {
		t.Fatalf("logout should clear countdowns, got %v", got)
	}
}
