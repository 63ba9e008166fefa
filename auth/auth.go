// Package auth verifies bearer credentials against the access-token store
// and decides catalog read/write permissions.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"melodex/database"
	"melodex/models"
)

var (
	ErrMissingCredential = errors.New("authentication required")
	ErrInvalidToken      = errors.New("invalid token")
	ErrTokenExpired      = errors.New("token expired")
)

// Identity is a verified caller. A nil *Identity means anonymous.
type Identity struct {
	AuthUserID int64
	Username   string
	Email      string
	IsStaff    bool
	Groups     []string
}

func (i *Identity) InGroup(name string) bool {
	if i == nil {
		return false
	}
	for _, g := range i.Groups {
		if g == name {
			return true
		}
	}
	return false
}

type Authenticator struct {
	db *database.Database
}

func NewAuthenticator(db *database.Database) *Authenticator {
	return &Authenticator{db: db}
}

// VerifyBearer resolves an "Authorization: Bearer <token>" header into an
// identity. The token must exist in the store and not be expired.
func (a *Authenticator) VerifyBearer(ctx context.Context, header string) (*Identity, error) {
	if header == "" {
		return nil, ErrMissingCredential
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return nil, ErrMissingCredential
	}

	rec, err := a.db.GetTokenRecord(ctx, parts[1])
	if err != nil {
		if errors.Is(err, database.ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !rec.ExpiresAt.After(time.Now()) {
		return nil, ErrTokenExpired
	}

	return &Identity{
		AuthUserID: rec.User.ID,
		Username:   rec.User.Username,
		Email:      rec.User.Email,
		IsStaff:    rec.User.IsStaff,
		Groups:     rec.User.Groups,
	}, nil
}

// EnsureAppUser lazily provisions the application user for an identity,
// keyed by username, reconciling a changed email.
func (a *Authenticator) EnsureAppUser(ctx context.Context, identity *Identity) (models.User, error) {
	if identity == nil {
		return models.User{}, ErrMissingCredential
	}
	return a.db.GetOrCreateAppUser(ctx, identity.Username, identity.Email)
}
