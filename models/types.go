package models

import (
	"fmt"
	"time"
)

// Catalog resources. Counts and durations are derived from related rows and
// filled in by the repository, never stored.

type Artist struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Country    string `json:"country"`
	FormedYear int    `json:"formed_year"`
	AlbumCount int    `json:"album_count"`
	SongCount  int    `json:"song_count"`
}

type Album struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Artist        Artist `json:"artist"`
	ReleaseYear   int    `json:"release_year"`
	Genre         string `json:"genre"`
	SongCount     int    `json:"song_count"`
	TotalDuration int    `json:"total_duration"`
}

type Song struct {
	ID                int64  `json:"id"`
	Title             string `json:"title"`
	Artist            Artist `json:"artist"`
	Album             Album  `json:"album"`
	DurationSeconds   int    `json:"duration_seconds"`
	DurationFormatted string `json:"duration_formatted"`
	TrackNumber       int    `json:"track_number"`
}

// User is the application-level user owning playlists, distinct from the
// auth-store identity it is lazily provisioned from.
type User struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	CreatedAt     time.Time `json:"created_at"`
	PlaylistCount int       `json:"playlist_count"`
}

type Playlist struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	IsPublic      bool      `json:"is_public"`
	CreatedAt     time.Time `json:"created_at"`
	UserID        int64     `json:"user_id"`
	User          *User     `json:"user,omitempty"`
	SongCount     int       `json:"song_count"`
	TotalDuration int       `json:"total_duration"`
}

// PlaylistEntry is one ordered membership row of a playlist.
type PlaylistEntry struct {
	ID         int64     `json:"id"`
	PlaylistID int64     `json:"playlist_id"`
	Song       Song      `json:"song"`
	Position   int       `json:"position"`
	AddedAt    time.Time `json:"added_at"`
}

// FormatDuration renders seconds as M:SS with the seconds zero-padded,
// e.g. 382 -> "6:22".
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
