package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrTokenNotFound = errors.New("token not found")

// AuthUser is an identity row from the auth store, distinct from app_user.
type AuthUser struct {
	ID       int64
	Username string
	Email    string
	IsStaff  bool
	Groups   []string
}

// TokenRecord is a live access token with its resolved identity. Expiry is
// the caller's concern.
type TokenRecord struct {
	Token     string
	ExpiresAt time.Time
	User      AuthUser
}

func (d *Database) CreateAuthUser(ctx context.Context, username, email string, isStaff bool) (AuthUser, error) {
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO auth_user (username, email, is_staff) VALUES (?, ?, ?)`,
		username, email, isStaff,
	)
	if err != nil {
		return AuthUser{}, fmt.Errorf("failed to create auth user %s: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return AuthUser{}, fmt.Errorf("failed to read auth user id: %w", err)
	}
	return AuthUser{ID: id, Username: username, Email: email, IsStaff: isStaff}, nil
}

// AddUserToGroup creates the group if needed and adds the user to it.
func (d *Database) AddUserToGroup(ctx context.Context, username, group string) error {
	if _, err := d.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO auth_group (name) VALUES (?)`, group); err != nil {
		return fmt.Errorf("failed to ensure group %s: %w", group, err)
	}

	res, err := d.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO auth_user_group (user_id, group_id)
		SELECT u.id, g.id FROM auth_user u, auth_group g
		WHERE u.username = ? AND g.name = ?`,
		username, group)
	if err != nil {
		return fmt.Errorf("failed to add %s to group %s: %w", username, group, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Either already a member or the user does not exist; distinguish.
		var count int
		if err := d.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM auth_user WHERE username = ?`, username).Scan(&count); err != nil {
			return fmt.Errorf("failed to check auth user %s: %w", username, err)
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// IssueToken mints an opaque access token for the given auth user.
func (d *Database) IssueToken(ctx context.Context, username string, ttl time.Duration) (string, error) {
	var userID int64
	err := d.db.QueryRowContext(ctx,
		`SELECT id FROM auth_user WHERE username = ?`, username).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up auth user %s: %w", username, err)
	}

	token := uuid.NewString()
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO access_token (token, auth_user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, time.Now().UTC().Add(ttl).Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to issue token for %s: %w", username, err)
	}
	return token, nil
}

// GetTokenRecord resolves a token string into its identity with group
// memberships loaded. Does not check expiry.
func (d *Database) GetTokenRecord(ctx context.Context, token string) (TokenRecord, error) {
	var rec TokenRecord
	var expiresAt string
	err := d.db.QueryRowContext(ctx, `
		SELECT t.token, t.expires_at, u.id, u.username, u.email, u.is_staff
		FROM access_token t
		JOIN auth_user u ON u.id = t.auth_user_id
		WHERE t.token = ?`,
		token).Scan(&rec.Token, &expiresAt, &rec.User.ID, &rec.User.Username, &rec.User.Email, &rec.User.IsStaff)
	if errors.Is(err, sql.ErrNoRows) {
		return TokenRecord{}, ErrTokenNotFound
	}
	if err != nil {
		return TokenRecord{}, fmt.Errorf("failed to look up token: %w", err)
	}
	rec.ExpiresAt = parseTime(expiresAt)

	rows, err := d.db.QueryContext(ctx, `
		SELECT g.name FROM auth_group g
		JOIN auth_user_group ug ON ug.group_id = g.id
		WHERE ug.user_id = ?
		ORDER BY g.name`,
		rec.User.ID)
	if err != nil {
		return TokenRecord{}, fmt.Errorf("failed to load groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return TokenRecord{}, fmt.Errorf("failed to scan group name: %w", err)
		}
		rec.User.Groups = append(rec.User.Groups, name)
	}
	return rec, rows.Err()
}
