package session

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"bookpasal/pkg/domain"
)

func TestRedisCredentialStoreRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	creds := NewRedisCredentialStore(srv.Addr(), "", "bookpasal:session:test")

	if _, ok, err := creds.Load(); err != nil || ok {
		t.Fatalf("empty load: ok=%v err=%v", ok, err)
	}

	user := domain.User{ID: 7, Username: "ram", Role: domain.RolePublisher}
	rec := Record{AccessToken: "access-1", RefreshToken: "refresh-1", User: &user}
	if err := creds.Save(rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := creds.Load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.AccessToken != "access-1" || got.User == nil || got.User.Username != "ram" {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	if err := creds.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := creds.Load(); ok {
		t.Fatal("record should be gone after clear")
	}
	// Clearing an absent record is not an error.
	if err := creds.Clear(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
}
