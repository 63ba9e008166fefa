package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"melodex/database"
)

func newAuthenticator(t *testing.T) (*Authenticator, *database.Database) {
	t.Helper()
	db, err := database.NewMemory()
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewAuthenticator(db), db
}

func issue(t *testing.T, db *database.Database, username string, ttl time.Duration, groups ...string) string {
	t.Helper()
	ctx := context.Background()
	if _, err := db.CreateAuthUser(ctx, username, username+"@example.com", false); err != nil {
		t.Fatalf("CreateAuthUser: %v", err)
	}
	for _, g := range groups {
		if err := db.AddUserToGroup(ctx, username, g); err != nil {
			t.Fatalf("AddUserToGroup: %v", err)
		}
	}
	token, err := db.IssueToken(ctx, username, ttl)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

func TestVerifyBearer(t *testing.T) {
	a, db := newAuthenticator(t)
	ctx := context.Background()

	valid := issue(t, db, "alice", time.Hour, "Contributors")
	expired := issue(t, db, "bob", -time.Minute)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"empty header", "", ErrMissingCredential},
		{"wrong scheme", "Token " + valid, ErrMissingCredential},
		{"scheme only", "Bearer", ErrMissingCredential},
		{"unknown token", "Bearer deadbeef", ErrInvalidToken},
		{"expired token", "Bearer " + expired, ErrTokenExpired},
		{"valid token", "Bearer " + valid, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := a.VerifyBearer(ctx, tc.header)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("VerifyBearer(%q) error = %v; want %v", tc.header, err, tc.wantErr)
			}
			if tc.wantErr != nil {
				return
			}
			if identity.Username != "alice" {
				t.Errorf("username = %q; want alice", identity.Username)
			}
			if !identity.InGroup("Contributors") {
				t.Errorf("identity missing Contributors group: %v", identity.Groups)
			}
		})
	}
}

func TestEnsureAppUser(t *testing.T) {
	a, db := newAuthenticator(t)
	ctx := context.Background()

	token := issue(t, db, "alice", time.Hour)
	identity, err := a.VerifyBearer(ctx, "Bearer "+token)
	if err != nil {
		t.Fatalf("VerifyBearer: %v", err)
	}

	user, err := a.EnsureAppUser(ctx, identity)
	if err != nil {
		t.Fatalf("EnsureAppUser: %v", err)
	}
	if user.Username != "alice" || user.Email != "alice@example.com" {
		t.Errorf("provisioned user = %+v", user)
	}

	again, err := a.EnsureAppUser(ctx, identity)
	if err != nil {
		t.Fatalf("EnsureAppUser again: %v", err)
	}
	if again.ID != user.ID {
		t.Errorf("second call provisioned a new user: %d != %d", again.ID, user.ID)
	}

	if _, err := a.EnsureAppUser(ctx, nil); !errors.Is(err, ErrMissingCredential) {
		t.Errorf("anonymous EnsureAppUser = %v; want ErrMissingCredential", err)
	}
}

func TestPolicies(t *testing.T) {
	anonymous := (*Identity)(nil)
	reader := &Identity{Username: "reader"}
	contributor := &Identity{Username: "editor", Groups: []string{"Contributors"}}
	staff := &Identity{Username: "admin", IsStaff: true}

	tests := []struct {
		name     string
		identity *Identity
		method   string
		want     bool
	}{
		{"anonymous read", anonymous, "GET", false},
		{"anonymous write", anonymous, "POST", false},
		{"reader read", reader, "GET", true},
		{"reader options", reader, "OPTIONS", true},
		{"reader write", reader, "POST", false},
		{"reader delete", reader, "DELETE", false},
		{"contributor write", contributor, "POST", true},
		{"contributor patch", contributor, "PATCH", true},
		{"staff write", staff, "PUT", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := AllowCatalog(tc.identity, tc.method, "artist", "Contributors")
			if got != tc.want {
				t.Errorf("AllowCatalog(%s %s) = %v; want %v", tc.name, tc.method, got, tc.want)
			}
		})
	}
}
