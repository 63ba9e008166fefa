package database

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

type Database struct {
	db *sql.DB
}

// Sentinel errors returned by repository methods. Callers map these onto
// HTTP status codes or graph error strings.
var (
	ErrNotFound          = errors.New("not found")
	ErrArtistMismatch    = errors.New("song artist does not match album artist")
	ErrDuplicateSong     = errors.New("song already in playlist")
	ErrSongNotInPlaylist = errors.New("song not in playlist")
)

// New opens the database at dbPath, or DB_PATH / ./data/melodex.db when empty.
func New(dbPath string) (*Database, error) {
	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}
	if dbPath == "" {
		dbPath = "./data/melodex.db"
	}

	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// WAL for concurrent reads; renumbering transactions still serialize writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Infof("Database initialized at %s", dbPath)
	return d, nil
}

// NewMemory opens a throwaway in-memory database, used by tests.
func NewMemory() (*Database, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// The pool must not open a second connection: each :memory: connection
	// is its own database.
	db.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return d, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS artist (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			country TEXT NOT NULL DEFAULT '',
			formed_year INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS album (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			artist_id INTEGER NOT NULL,
			release_year INTEGER NOT NULL DEFAULT 0,
			genre TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_album_artist_id ON album(artist_id)`,
		`CREATE TABLE IF NOT EXISTS song (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			album_id INTEGER NOT NULL,
			artist_id INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL DEFAULT 0,
			track_number INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_song_album_id ON song(album_id)`,
		`CREATE INDEX IF NOT EXISTS idx_song_artist_id ON song(artist_id)`,
		`CREATE TABLE IF NOT EXISTS app_user (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS playlist (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			is_public INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_playlist_user_id ON playlist(user_id)`,
		`CREATE TABLE IF NOT EXISTS playlist_song (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			playlist_id INTEGER NOT NULL,
			song_id INTEGER NOT NULL,
			position INTEGER NOT NULL DEFAULT 1,
			added_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (playlist_id, song_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_playlist_song_playlist ON playlist_song(playlist_id, position)`,
		`CREATE TABLE IF NOT EXISTS auth_user (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			is_staff INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS auth_group (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS auth_user_group (
			user_id INTEGER NOT NULL,
			group_id INTEGER NOT NULL,
			PRIMARY KEY (user_id, group_id)
		)`,
		`CREATE TABLE IF NOT EXISTS access_token (
			token TEXT PRIMARY KEY,
			auth_user_id INTEGER NOT NULL,
			expires_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_access_token_user ON access_token(auth_user_id)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	return nil
}
