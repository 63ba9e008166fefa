package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"melodex/models"
)

// ErrInvalidReference marks a write that points at a missing parent entity
// (e.g. creating an album for an unknown artist). Surfaces as a 400.
var ErrInvalidReference = errors.New("referenced entity does not exist")

// ListOptions carries free-text search and a validated ORDER BY fragment.
// Callers are responsible for mapping API ordering names onto column
// fragments before they get here; Order is interpolated into SQL.
type ListOptions struct {
	Search string
	Order  string
}

const artistSelect = `
	SELECT a.id, a.name, a.country, a.formed_year,
		(SELECT COUNT(*) FROM album WHERE album.artist_id = a.id) AS album_count,
		(SELECT COUNT(*) FROM song WHERE song.artist_id = a.id) AS song_count
	FROM artist a`

const albumSelect = `
	SELECT al.id, al.title, al.release_year, al.genre,
		(SELECT COUNT(*) FROM song WHERE song.album_id = al.id) AS song_count,
		COALESCE((SELECT SUM(duration_seconds) FROM song WHERE song.album_id = al.id), 0) AS total_duration,
		a.id, a.name, a.country, a.formed_year,
		(SELECT COUNT(*) FROM album WHERE album.artist_id = a.id),
		(SELECT COUNT(*) FROM song WHERE song.artist_id = a.id)
	FROM album al
	JOIN artist a ON a.id = al.artist_id`

const songSelect = `
	SELECT s.id, s.title, s.duration_seconds, s.track_number,
		a.id, a.name, a.country, a.formed_year,
		(SELECT COUNT(*) FROM album WHERE album.artist_id = a.id),
		(SELECT COUNT(*) FROM song WHERE song.artist_id = a.id),
		al.id, al.title, al.release_year, al.genre,
		(SELECT COUNT(*) FROM song WHERE song.album_id = al.id),
		COALESCE((SELECT SUM(duration_seconds) FROM song WHERE song.album_id = al.id), 0)
	FROM song s
	JOIN artist a ON a.id = s.artist_id
	JOIN album al ON al.id = s.album_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanArtist(row scanner) (models.Artist, error) {
	var a models.Artist
	err := row.Scan(&a.ID, &a.Name, &a.Country, &a.FormedYear, &a.AlbumCount, &a.SongCount)
	return a, err
}

func scanAlbum(row scanner) (models.Album, error) {
	var al models.Album
	err := row.Scan(&al.ID, &al.Title, &al.ReleaseYear, &al.Genre, &al.SongCount, &al.TotalDuration,
		&al.Artist.ID, &al.Artist.Name, &al.Artist.Country, &al.Artist.FormedYear,
		&al.Artist.AlbumCount, &al.Artist.SongCount)
	return al, err
}

func scanSong(row scanner) (models.Song, error) {
	var s models.Song
	err := row.Scan(&s.ID, &s.Title, &s.DurationSeconds, &s.TrackNumber,
		&s.Artist.ID, &s.Artist.Name, &s.Artist.Country, &s.Artist.FormedYear,
		&s.Artist.AlbumCount, &s.Artist.SongCount,
		&s.Album.ID, &s.Album.Title, &s.Album.ReleaseYear, &s.Album.Genre,
		&s.Album.SongCount, &s.Album.TotalDuration)
	if err != nil {
		return s, err
	}
	s.DurationFormatted = models.FormatDuration(s.DurationSeconds)
	s.Album.Artist = s.Artist
	return s, nil
}

// --- Artists ---

func (d *Database) ListArtists(ctx context.Context, opts ListOptions) ([]models.Artist, error) {
	query := artistSelect
	var args []any
	if opts.Search != "" {
		query += ` WHERE (a.name LIKE '%' || ? || '%' COLLATE NOCASE
			OR a.country LIKE '%' || ? || '%' COLLATE NOCASE)`
		args = append(args, opts.Search, opts.Search)
	}
	order := opts.Order
	if order == "" {
		order = "a.formed_year DESC"
	}
	query += " ORDER BY " + order

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	artists := []models.Artist{}
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artist row: %w", err)
		}
		artists = append(artists, a)
	}
	return artists, rows.Err()
}

func (d *Database) GetArtist(ctx context.Context, id int64) (models.Artist, error) {
	a, err := scanArtist(d.db.QueryRowContext(ctx, artistSelect+" WHERE a.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Artist{}, ErrNotFound
	}
	if err != nil {
		return models.Artist{}, fmt.Errorf("failed to get artist %d: %w", id, err)
	}
	return a, nil
}

func (d *Database) CreateArtist(ctx context.Context, name, country string, formedYear int) (models.Artist, error) {
	res, err := d.db.ExecContext(ctx,
		`INSERT INTO artist (name, country, formed_year) VALUES (?, ?, ?)`,
		name, country, formedYear,
	)
	if err != nil {
		return models.Artist{}, fmt.Errorf("failed to create artist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Artist{}, fmt.Errorf("failed to read artist id: %w", err)
	}
	return d.GetArtist(ctx, id)
}

type ArtistPatch struct {
	Name       *string
	Country    *string
	FormedYear *int
}

func (d *Database) UpdateArtist(ctx context.Context, id int64, patch ArtistPatch) (models.Artist, error) {
	existing, err := d.GetArtist(ctx, id)
	if err != nil {
		return models.Artist{}, err
	}
	if patch.Name != nil {
		existing.Name = *patch.Name
	}
	if patch.Country != nil {
		existing.Country = *patch.Country
	}
	if patch.FormedYear != nil {
		existing.FormedYear = *patch.FormedYear
	}

	_, err = d.db.ExecContext(ctx,
		`UPDATE artist SET name = ?, country = ?, formed_year = ? WHERE id = ?`,
		existing.Name, existing.Country, existing.FormedYear, id,
	)
	if err != nil {
		return models.Artist{}, fmt.Errorf("failed to update artist %d: %w", id, err)
	}
	return d.GetArtist(ctx, id)
}

// DeleteArtist removes the artist with its albums and songs, drops the songs
// from any playlists and renumbers those playlists, all in one transaction.
func (d *Database) DeleteArtist(ctx context.Context, id int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete artist tx: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM artist WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check artist %d: %w", id, err)
	}

	if err := dropSongsFromPlaylistsTx(ctx, tx,
		`SELECT id FROM song WHERE artist_id = ?`, id); err != nil {
		return err
	}
	for _, stmt := range []string{
		`DELETE FROM song WHERE artist_id = ?`,
		`DELETE FROM album WHERE artist_id = ?`,
		`DELETE FROM artist WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to cascade delete artist %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// --- Albums ---

func (d *Database) ListAlbums(ctx context.Context, opts ListOptions) ([]models.Album, error) {
	query := albumSelect
	var args []any
	if opts.Search != "" {
		query += ` WHERE (al.title LIKE '%' || ? || '%' COLLATE NOCASE
			OR a.name LIKE '%' || ? || '%' COLLATE NOCASE
			OR al.genre LIKE '%' || ? || '%' COLLATE NOCASE)`
		args = append(args, opts.Search, opts.Search, opts.Search)
	}
	order := opts.Order
	if order == "" {
		order = "al.release_year DESC"
	}
	query += " ORDER BY " + order

	return d.queryAlbums(ctx, query, args...)
}

func (d *Database) queryAlbums(ctx context.Context, query string, args ...any) ([]models.Album, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums: %w", err)
	}
	defer rows.Close()

	albums := []models.Album{}
	for rows.Next() {
		al, err := scanAlbum(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan album row: %w", err)
		}
		albums = append(albums, al)
	}
	return albums, rows.Err()
}

func (d *Database) GetAlbum(ctx context.Context, id int64) (models.Album, error) {
	al, err := scanAlbum(d.db.QueryRowContext(ctx, albumSelect+" WHERE al.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Album{}, ErrNotFound
	}
	if err != nil {
		return models.Album{}, fmt.Errorf("failed to get album %d: %w", id, err)
	}
	return al, nil
}

func (d *Database) ListAlbumsByArtist(ctx context.Context, artistID int64) ([]models.Album, error) {
	return d.queryAlbums(ctx, albumSelect+" WHERE al.artist_id = ? ORDER BY al.release_year DESC", artistID)
}

// ListAlbumsByGenre matches genre as a case-insensitive substring.
func (d *Database) ListAlbumsByGenre(ctx context.Context, genre string) ([]models.Album, error) {
	return d.queryAlbums(ctx,
		albumSelect+` WHERE al.genre LIKE '%' || ? || '%' COLLATE NOCASE ORDER BY al.release_year DESC`,
		genre)
}

func (d *Database) CreateAlbum(ctx context.Context, title string, artistID int64, releaseYear int, genre string) (models.Album, error) {
	var exists int64
	err := d.db.QueryRowContext(ctx, `SELECT id FROM artist WHERE id = ?`, artistID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Album{}, fmt.Errorf("artist %d: %w", artistID, ErrInvalidReference)
	}
	if err != nil {
		return models.Album{}, fmt.Errorf("failed to check artist %d: %w", artistID, err)
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO album (title, artist_id, release_year, genre) VALUES (?, ?, ?, ?)`,
		title, artistID, releaseYear, genre,
	)
	if err != nil {
		return models.Album{}, fmt.Errorf("failed to create album: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Album{}, fmt.Errorf("failed to read album id: %w", err)
	}
	return d.GetAlbum(ctx, id)
}

type AlbumPatch struct {
	Title       *string
	ArtistID    *int64
	ReleaseYear *int
	Genre       *string
}

func (d *Database) UpdateAlbum(ctx context.Context, id int64, patch AlbumPatch) (models.Album, error) {
	existing, err := d.GetAlbum(ctx, id)
	if err != nil {
		return models.Album{}, err
	}
	artistID := existing.Artist.ID
	if patch.ArtistID != nil {
		artistID = *patch.ArtistID
		var exists int64
		err := d.db.QueryRowContext(ctx, `SELECT id FROM artist WHERE id = ?`, artistID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return models.Album{}, fmt.Errorf("artist %d: %w", artistID, ErrInvalidReference)
		}
		if err != nil {
			return models.Album{}, fmt.Errorf("failed to check artist %d: %w", artistID, err)
		}
	}
	if patch.Title != nil {
		existing.Title = *patch.Title
	}
	if patch.ReleaseYear != nil {
		existing.ReleaseYear = *patch.ReleaseYear
	}
	if patch.Genre != nil {
		existing.Genre = *patch.Genre
	}

	_, err = d.db.ExecContext(ctx,
		`UPDATE album SET title = ?, artist_id = ?, release_year = ?, genre = ? WHERE id = ?`,
		existing.Title, artistID, existing.ReleaseYear, existing.Genre, id,
	)
	if err != nil {
		return models.Album{}, fmt.Errorf("failed to update album %d: %w", id, err)
	}
	return d.GetAlbum(ctx, id)
}

func (d *Database) DeleteAlbum(ctx context.Context, id int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete album tx: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM album WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check album %d: %w", id, err)
	}

	if err := dropSongsFromPlaylistsTx(ctx, tx,
		`SELECT id FROM song WHERE album_id = ?`, id); err != nil {
		return err
	}
	for _, stmt := range []string{
		`DELETE FROM song WHERE album_id = ?`,
		`DELETE FROM album WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("failed to cascade delete album %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// --- Songs ---

func (d *Database) ListSongs(ctx context.Context, opts ListOptions) ([]models.Song, error) {
	query := songSelect
	var args []any
	if opts.Search != "" {
		query += ` WHERE (s.title LIKE '%' || ? || '%' COLLATE NOCASE
			OR a.name LIKE '%' || ? || '%' COLLATE NOCASE
			OR al.title LIKE '%' || ? || '%' COLLATE NOCASE)`
		args = append(args, opts.Search, opts.Search, opts.Search)
	}
	order := opts.Order
	if order == "" {
		order = "s.album_id, s.track_number"
	}
	query += " ORDER BY " + order

	return d.querySongs(ctx, query, args...)
}

func (d *Database) querySongs(ctx context.Context, query string, args ...any) ([]models.Song, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		s, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

func (d *Database) GetSong(ctx context.Context, id int64) (models.Song, error) {
	s, err := scanSong(d.db.QueryRowContext(ctx, songSelect+" WHERE s.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Song{}, ErrNotFound
	}
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to get song %d: %w", id, err)
	}
	return s, nil
}

func (d *Database) ListSongsByArtist(ctx context.Context, artistID int64) ([]models.Song, error) {
	return d.querySongs(ctx, songSelect+" WHERE s.artist_id = ? ORDER BY s.album_id, s.track_number", artistID)
}

func (d *Database) ListSongsByAlbum(ctx context.Context, albumID int64) ([]models.Song, error) {
	return d.querySongs(ctx, songSelect+" WHERE s.album_id = ? ORDER BY s.track_number", albumID)
}

func (d *Database) CreateSong(ctx context.Context, title string, albumID, artistID int64, durationSeconds, trackNumber int) (models.Song, error) {
	if err := d.checkSongParents(ctx, albumID, artistID); err != nil {
		return models.Song{}, err
	}

	res, err := d.db.ExecContext(ctx,
		`INSERT INTO song (title, album_id, artist_id, duration_seconds, track_number) VALUES (?, ?, ?, ?, ?)`,
		title, albumID, artistID, durationSeconds, trackNumber,
	)
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to create song: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to read song id: %w", err)
	}
	return d.GetSong(ctx, id)
}

// checkSongParents verifies the album exists and is owned by the given
// artist. Storage never enforced this consistency; the repository does.
func (d *Database) checkSongParents(ctx context.Context, albumID, artistID int64) error {
	var albumArtistID int64
	err := d.db.QueryRowContext(ctx, `SELECT artist_id FROM album WHERE id = ?`, albumID).Scan(&albumArtistID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("album %d: %w", albumID, ErrInvalidReference)
	}
	if err != nil {
		return fmt.Errorf("failed to check album %d: %w", albumID, err)
	}
	if albumArtistID != artistID {
		return ErrArtistMismatch
	}
	return nil
}

type SongPatch struct {
	Title           *string
	AlbumID         *int64
	ArtistID        *int64
	DurationSeconds *int
	TrackNumber     *int
}

func (d *Database) UpdateSong(ctx context.Context, id int64, patch SongPatch) (models.Song, error) {
	existing, err := d.GetSong(ctx, id)
	if err != nil {
		return models.Song{}, err
	}
	albumID := existing.Album.ID
	artistID := existing.Artist.ID
	if patch.AlbumID != nil {
		albumID = *patch.AlbumID
	}
	if patch.ArtistID != nil {
		artistID = *patch.ArtistID
	}
	if err := d.checkSongParents(ctx, albumID, artistID); err != nil {
		return models.Song{}, err
	}
	if patch.Title != nil {
		existing.Title = *patch.Title
	}
	if patch.DurationSeconds != nil {
		existing.DurationSeconds = *patch.DurationSeconds
	}
	if patch.TrackNumber != nil {
		existing.TrackNumber = *patch.TrackNumber
	}

	_, err = d.db.ExecContext(ctx,
		`UPDATE song SET title = ?, album_id = ?, artist_id = ?, duration_seconds = ?, track_number = ? WHERE id = ?`,
		existing.Title, albumID, artistID, existing.DurationSeconds, existing.TrackNumber, id,
	)
	if err != nil {
		return models.Song{}, fmt.Errorf("failed to update song %d: %w", id, err)
	}
	return d.GetSong(ctx, id)
}

func (d *Database) DeleteSong(ctx context.Context, id int64) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete song tx: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM song WHERE id = ?`, id).Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to check song %d: %w", id, err)
	}

	if err := dropSongsFromPlaylistsTx(ctx, tx, `SELECT id FROM song WHERE id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM song WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete song %d: %w", id, err)
	}
	return tx.Commit()
}

// dropSongsFromPlaylistsTx removes playlist memberships for every song the
// subquery yields, then renumbers the touched playlists so positions stay a
// contiguous 1..N sequence.
func dropSongsFromPlaylistsTx(ctx context.Context, tx *sql.Tx, songSubquery string, arg int64) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT DISTINCT playlist_id FROM playlist_song WHERE song_id IN (`+songSubquery+`)`, arg)
	if err != nil {
		return fmt.Errorf("failed to find affected playlists: %w", err)
	}
	var affected []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan affected playlist id: %w", err)
		}
		affected = append(affected, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM playlist_song WHERE song_id IN (`+songSubquery+`)`, arg); err != nil {
		return fmt.Errorf("failed to drop playlist memberships: %w", err)
	}
	for _, playlistID := range affected {
		if err := renumberPlaylistTx(ctx, tx, playlistID); err != nil {
			return err
		}
	}
	return nil
}
