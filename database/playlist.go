package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"melodex/models"
)

var (
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrSongNotFound     = errors.New("song not found")
)

// SongPosition is one caller-specified (song, position) pair for reorder.
type SongPosition struct {
	SongID   int64
	Position int
}

// SongNotInPlaylistError reports which song id broke a reorder.
type SongNotInPlaylistError struct {
	SongID int64
}

func (e *SongNotInPlaylistError) Error() string {
	return fmt.Sprintf("song %d not in playlist", e.SongID)
}

func (e *SongNotInPlaylistError) Unwrap() error {
	return ErrSongNotInPlaylist
}

const userSelect = `
	SELECT u.id, u.username, u.email, u.created_at,
		(SELECT COUNT(*) FROM playlist WHERE playlist.user_id = u.id) AS playlist_count
	FROM app_user u`

const playlistSelect = `
	SELECT p.id, p.name, p.is_public, p.created_at, p.user_id,
		u.username, u.email, u.created_at,
		(SELECT COUNT(*) FROM playlist WHERE playlist.user_id = u.id),
		(SELECT COUNT(*) FROM playlist_song WHERE playlist_song.playlist_id = p.id) AS song_count,
		COALESCE((SELECT SUM(s.duration_seconds)
			FROM playlist_song ps JOIN song s ON s.id = ps.song_id
			WHERE ps.playlist_id = p.id), 0) AS total_duration
	FROM playlist p
	JOIN app_user u ON u.id = p.user_id`

// parseTime handles both timestamps written by this code (RFC3339Nano) and
// SQLite's CURRENT_TIMESTAMP default.
func parseTime(value string) time.Time {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, value); err == nil {
			return t
		}
	}
	log.Warnf("failed to parse timestamp '%s' with all known formats", value)
	return time.Time{}
}

func scanUser(row scanner) (models.User, error) {
	var u models.User
	var createdAt string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &createdAt, &u.PlaylistCount); err != nil {
		return u, err
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

func scanPlaylist(row scanner) (models.Playlist, error) {
	var p models.Playlist
	var u models.User
	var createdAt, userCreatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.IsPublic, &createdAt, &p.UserID,
		&u.Username, &u.Email, &userCreatedAt, &u.PlaylistCount,
		&p.SongCount, &p.TotalDuration)
	if err != nil {
		return p, err
	}
	p.CreatedAt = parseTime(createdAt)
	u.ID = p.UserID
	u.CreatedAt = parseTime(userCreatedAt)
	p.User = &u
	return p, nil
}

// --- Users ---

func (d *Database) ListAppUsers(ctx context.Context) ([]models.User, error) {
	rows, err := d.db.QueryContext(ctx, userSelect+" ORDER BY u.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (d *Database) GetAppUser(ctx context.Context, id int64) (models.User, error) {
	u, err := scanUser(d.db.QueryRowContext(ctx, userSelect+" WHERE u.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, nil
}

// GetOrCreateAppUser resolves the application user for an authenticated
// identity, keyed by username. A changed email on the identity overwrites
// the stored one.
func (d *Database) GetOrCreateAppUser(ctx context.Context, username, email string) (models.User, error) {
	u, err := scanUser(d.db.QueryRowContext(ctx, userSelect+" WHERE u.username = ?", username))
	if err == nil {
		if email != "" && u.Email != email {
			if _, err := d.db.ExecContext(ctx,
				`UPDATE app_user SET email = ? WHERE id = ?`, email, u.ID); err != nil {
				return models.User{}, fmt.Errorf("failed to reconcile email for %s: %w", username, err)
			}
			u.Email = email
		}
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, fmt.Errorf("failed to look up user %s: %w", username, err)
	}

	if email == "" {
		email = username + "@placeholder.local"
	}
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO app_user (username, email, created_at) VALUES (?, ?, ?)`,
		username, email, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to read user id: %w", err)
	}
	return d.GetAppUser(ctx, id)
}

// --- Playlists ---

const playlistOrder = " ORDER BY p.created_at DESC, p.id DESC"

func (d *Database) queryPlaylists(ctx context.Context, query string, args ...any) ([]models.Playlist, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	playlists := []models.Playlist{}
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// ListPlaylistsVisibleTo returns public playlists plus, when viewerID is
// set, the viewer's own private ones.
func (d *Database) ListPlaylistsVisibleTo(ctx context.Context, viewerID *int64) ([]models.Playlist, error) {
	if viewerID == nil {
		return d.ListPublicPlaylists(ctx)
	}
	return d.queryPlaylists(ctx,
		playlistSelect+" WHERE p.is_public = 1 OR p.user_id = ?"+playlistOrder, *viewerID)
}

func (d *Database) ListPublicPlaylists(ctx context.Context) ([]models.Playlist, error) {
	return d.queryPlaylists(ctx, playlistSelect+" WHERE p.is_public = 1"+playlistOrder)
}

// ListPlaylistsByUser returns the given user's playlists, restricted to the
// public ones unless the viewer is that user.
func (d *Database) ListPlaylistsByUser(ctx context.Context, userID int64, viewerID *int64) ([]models.Playlist, error) {
	if viewerID != nil && *viewerID == userID {
		return d.ListPlaylistsOwnedBy(ctx, userID)
	}
	return d.queryPlaylists(ctx,
		playlistSelect+" WHERE p.user_id = ? AND p.is_public = 1"+playlistOrder, userID)
}

func (d *Database) ListPlaylistsOwnedBy(ctx context.Context, userID int64) ([]models.Playlist, error) {
	return d.queryPlaylists(ctx, playlistSelect+" WHERE p.user_id = ?"+playlistOrder, userID)
}

func (d *Database) GetPlaylist(ctx context.Context, id int64) (models.Playlist, error) {
	p, err := scanPlaylist(d.db.QueryRowContext(ctx, playlistSelect+" WHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Playlist{}, ErrPlaylistNotFound
	}
	if err != nil {
		return models.Playlist{}, fmt.Errorf("failed to get playlist %d: %w", id, err)
	}
	return p, nil
}

func (d *Database) CreatePlaylist(ctx context.Context, userID int64, name string, isPublic bool) (models.Playlist, error) {
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO playlist (name, user_id, is_public, created_at) VALUES (?, ?, ?, ?)`,
		name, userID, isPublic, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("failed to create playlist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Playlist{}, fmt.Errorf("failed to read playlist id: %w", err)
	}
	return d.GetPlaylist(ctx, id)
}

func (d *Database) UpdatePlaylist(ctx context.Context, id int64, name *string, isPublic *bool) (models.Playlist, error) {
	existing, err := d.GetPlaylist(ctx, id)
	if err != nil {
		return models.Playlist{}, err
	}
	if name != nil {
		existing.Name = *name
	}
	if isPublic != nil {
		existing.IsPublic = *isPublic
	}
	_, err = d.db.ExecContext(ctx,
		`UPDATE playlist SET name = ?, is_public = ? WHERE id = ?`,
		existing.Name, existing.IsPublic, id,
	)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("failed to update playlist %d: %w", id, err)
	}
	return d.GetPlaylist(ctx, id)
}

func (d *Database) DeletePlaylist(ctx context.Context, id int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete playlist tx: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM playlist WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlaylistNotFound
		}
		return fmt.Errorf("failed to check playlist %d: %w", id, err)
	}

	for _, stmt := range []string{
		`DELETE FROM playlist_song WHERE playlist_id = ?`,
		`DELETE FROM playlist WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to cascade delete playlist %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// ListPlaylistEntries returns a playlist's membership rows with their songs,
// ordered by position.
func (d *Database) ListPlaylistEntries(ctx context.Context, playlistID int64) ([]models.PlaylistEntry, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT ps.id, ps.playlist_id, ps.position, ps.added_at,
			s.id, s.title, s.duration_seconds, s.track_number,
			a.id, a.name, a.country, a.formed_year,
			(SELECT COUNT(*) FROM album WHERE album.artist_id = a.id),
			(SELECT COUNT(*) FROM song WHERE song.artist_id = a.id),
			al.id, al.title, al.release_year, al.genre,
			(SELECT COUNT(*) FROM song WHERE song.album_id = al.id),
			COALESCE((SELECT SUM(duration_seconds) FROM song WHERE song.album_id = al.id), 0)
		FROM playlist_song ps
		JOIN song s ON s.id = ps.song_id
		JOIN artist a ON a.id = s.artist_id
		JOIN album al ON al.id = s.album_id
		WHERE ps.playlist_id = ?
		ORDER BY ps.position`,
		playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlist entries: %w", err)
	}
	defer rows.Close()

	entries := []models.PlaylistEntry{}
	for rows.Next() {
		var e models.PlaylistEntry
		var addedAt string
		err := rows.Scan(&e.ID, &e.PlaylistID, &e.Position, &addedAt,
			&e.Song.ID, &e.Song.Title, &e.Song.DurationSeconds, &e.Song.TrackNumber,
			&e.Song.Artist.ID, &e.Song.Artist.Name, &e.Song.Artist.Country, &e.Song.Artist.FormedYear,
			&e.Song.Artist.AlbumCount, &e.Song.Artist.SongCount,
			&e.Song.Album.ID, &e.Song.Album.Title, &e.Song.Album.ReleaseYear, &e.Song.Album.Genre,
			&e.Song.Album.SongCount, &e.Song.Album.TotalDuration)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist entry: %w", err)
		}
		e.AddedAt = parseTime(addedAt)
		e.Song.DurationFormatted = models.FormatDuration(e.Song.DurationSeconds)
		e.Song.Album.Artist = e.Song.Artist
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddSongToPlaylist appends the song at max(position)+1, or 1 when empty.
// A (playlist, song) pair can only appear once.
func (d *Database) AddSongToPlaylist(ctx context.Context, playlistID, songID int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin add song tx: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM playlist WHERE id = ?`, playlistID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlaylistNotFound
		}
		return fmt.Errorf("failed to check playlist %d: %w", playlistID, err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT id FROM song WHERE id = ?`, songID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSongNotFound
		}
		return fmt.Errorf("failed to check song %d: %w", songID, err)
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM playlist_song WHERE playlist_id = ? AND song_id = ?`,
		playlistID, songID).Scan(&count); err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if count > 0 {
		return ErrDuplicateSong
	}

	var maxPosition int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM playlist_song WHERE playlist_id = ?`,
		playlistID).Scan(&maxPosition); err != nil {
		return fmt.Errorf("failed to read max position: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO playlist_song (playlist_id, song_id, position, added_at) VALUES (?, ?, ?, ?)`,
		playlistID, songID, maxPosition+1, time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("failed to add song %d to playlist %d: %w", songID, playlistID, err)
	}
	return tx.Commit()
}

// RemoveSongFromPlaylist deletes the membership row and renumbers the
// remaining entries to a contiguous 1..N sequence in their prior order.
func (d *Database) RemoveSongFromPlaylist(ctx context.Context, playlistID, songID int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin remove song tx: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM playlist WHERE id = ?`, playlistID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlaylistNotFound
		}
		return fmt.Errorf("failed to check playlist %d: %w", playlistID, err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM playlist_song WHERE playlist_id = ? AND song_id = ?`, playlistID, songID)
	if err != nil {
		return fmt.Errorf("failed to remove song %d from playlist %d: %w", songID, playlistID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSongNotInPlaylist
	}

	if err := renumberPlaylistTx(ctx, tx, playlistID); err != nil {
		return err
	}
	return tx.Commit()
}

// ReorderPlaylistSongs applies caller-specified positions all-or-nothing.
// Any song id that is not a member rolls the whole batch back.
func (d *Database) ReorderPlaylistSongs(ctx context.Context, playlistID int64, positions []SongPosition) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reorder tx: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM playlist WHERE id = ?`, playlistID).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPlaylistNotFound
		}
		return fmt.Errorf("failed to check playlist %d: %w", playlistID, err)
	}

	for _, sp := range positions {
		res, err := tx.ExecContext(ctx,
			`UPDATE playlist_song SET position = ? WHERE playlist_id = ? AND song_id = ?`,
			sp.Position, playlistID, sp.SongID)
		if err != nil {
			return fmt.Errorf("failed to reposition song %d: %w", sp.SongID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if affected == 0 {
			return &SongNotInPlaylistError{SongID: sp.SongID}
		}
	}
	return tx.Commit()
}

// renumberPlaylistTx rewrites positions to 1..N preserving the current
// relative order. Runs inside the caller's transaction.
func renumberPlaylistTx(ctx context.Context, tx *sql.Tx, playlistID int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM playlist_song WHERE playlist_id = ? ORDER BY position, id`, playlistID)
	if err != nil {
		return fmt.Errorf("failed to query playlist %d for renumbering: %w", playlistID, err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan playlist_song id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	for i, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE playlist_song SET position = ? WHERE id = ?`, i+1, id); err != nil {
			return fmt.Errorf("failed to renumber playlist %d: %w", playlistID, err)
		}
	}
	return nil
}
