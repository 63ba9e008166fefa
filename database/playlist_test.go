package database

import (
	"context"
	"errors"
	"testing"

	"melodex/models"
)

func seedPlaylist(t *testing.T, d *Database, songCount int) (models.User, models.Playlist, []models.Song) {
	t.Helper()
	ctx := context.Background()
	artist, album, _ := seedCatalog(t, d)

	var songs []models.Song
	for i := 0; i < songCount; i++ {
		song, err := d.CreateSong(ctx, "Track", album.ID, artist.ID, 60+i, 10+i)
		if err != nil {
			t.Fatalf("CreateSong: %v", err)
		}
		songs = append(songs, song)
	}

	user, err := d.GetOrCreateAppUser(ctx, "alice", "alice@example.com")
	if err != nil {
		t.Fatalf("GetOrCreateAppUser: %v", err)
	}
	playlist, err := d.CreatePlaylist(ctx, user.ID, "Morning Mix", false)
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	for _, s := range songs {
		if err := d.AddSongToPlaylist(ctx, playlist.ID, s.ID); err != nil {
			t.Fatalf("AddSongToPlaylist: %v", err)
		}
	}
	return user, playlist, songs
}

func positions(t *testing.T, d *Database, playlistID int64) []int {
	t.Helper()
	entries, err := d.ListPlaylistEntries(context.Background(), playlistID)
	if err != nil {
		t.Fatalf("ListPlaylistEntries: %v", err)
	}
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.Position
	}
	return out
}

func TestGetOrCreateAppUser(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	created, err := d.GetOrCreateAppUser(ctx, "bob", "")
	if err != nil {
		t.Fatalf("GetOrCreateAppUser: %v", err)
	}
	if created.Email != "bob@placeholder.local" {
		t.Errorf("placeholder email = %q", created.Email)
	}

	// Same username with a real email updates the stored record.
	updated, err := d.GetOrCreateAppUser(ctx, "bob", "bob@example.com")
	if err != nil {
		t.Fatalf("GetOrCreateAppUser again: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("second call created a new user: %d != %d", updated.ID, created.ID)
	}
	if updated.Email != "bob@example.com" {
		t.Errorf("email not reconciled: %q", updated.Email)
	}
}

func TestAddSongToPlaylist(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	_, playlist, songs := seedPlaylist(t, d, 3)

	got := positions(t, d, playlist.ID)
	for i, p := range got {
		if p != i+1 {
			t.Fatalf("positions = %v; want 1..3", got)
		}
	}

	if err := d.AddSongToPlaylist(ctx, playlist.ID, songs[0].ID); !errors.Is(err, ErrDuplicateSong) {
		t.Errorf("duplicate add = %v; want ErrDuplicateSong", err)
	}
	if err := d.AddSongToPlaylist(ctx, playlist.ID, 9999); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("missing song add = %v; want ErrSongNotFound", err)
	}
	if err := d.AddSongToPlaylist(ctx, 9999, songs[0].ID); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("missing playlist add = %v; want ErrPlaylistNotFound", err)
	}
}

func TestRemoveSongRenumbers(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	_, playlist, songs := seedPlaylist(t, d, 3)

	if err := d.RemoveSongFromPlaylist(ctx, playlist.ID, songs[1].ID); err != nil {
		t.Fatalf("RemoveSongFromPlaylist: %v", err)
	}
	got := positions(t, d, playlist.ID)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("positions after remove = %v; want [1 2]", got)
	}

	if err := d.RemoveSongFromPlaylist(ctx, playlist.ID, songs[1].ID); !errors.Is(err, ErrSongNotInPlaylist) {
		t.Errorf("second remove = %v; want ErrSongNotInPlaylist", err)
	}
}

func TestReorderPlaylistSongs(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	_, playlist, songs := seedPlaylist(t, d, 3)

	err := d.ReorderPlaylistSongs(ctx, playlist.ID, []SongPosition{
		{SongID: songs[2].ID, Position: 1},
		{SongID: songs[0].ID, Position: 2},
		{SongID: songs[1].ID, Position: 3},
	})
	if err != nil {
		t.Fatalf("ReorderPlaylistSongs: %v", err)
	}
	entries, err := d.ListPlaylistEntries(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("ListPlaylistEntries: %v", err)
	}
	wantOrder := []int64{songs[2].ID, songs[0].ID, songs[1].ID}
	for i, e := range entries {
		if e.Song.ID != wantOrder[i] {
			t.Errorf("entry %d = song %d; want %d", i, e.Song.ID, wantOrder[i])
		}
	}
}

func TestReorderIsAtomic(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	_, playlist, songs := seedPlaylist(t, d, 3)

	err := d.ReorderPlaylistSongs(ctx, playlist.ID, []SongPosition{
		{SongID: songs[2].ID, Position: 1},
		{SongID: 9999, Position: 2},
	})
	var notIn *SongNotInPlaylistError
	if !errors.As(err, &notIn) || notIn.SongID != 9999 {
		t.Fatalf("reorder with unknown song = %v; want SongNotInPlaylistError{9999}", err)
	}

	// The valid update from the same batch must not have been applied.
	entries, listErr := d.ListPlaylistEntries(ctx, playlist.ID)
	if listErr != nil {
		t.Fatalf("ListPlaylistEntries: %v", listErr)
	}
	for i, e := range entries {
		if e.Song.ID != songs[i].ID {
			t.Errorf("order changed after failed reorder: entry %d = song %d", i, e.Song.ID)
		}
	}
}

func TestPlaylistVisibility(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	owner, private, _ := seedPlaylist(t, d, 1)

	public, err := d.CreatePlaylist(ctx, owner.ID, "Shared", true)
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	stranger, err := d.GetOrCreateAppUser(ctx, "carol", "carol@example.com")
	if err != nil {
		t.Fatalf("GetOrCreateAppUser: %v", err)
	}

	tests := []struct {
		name   string
		viewer *int64
		want   int
	}{
		{"anonymous sees public only", nil, 1},
		{"owner sees both", &owner.ID, 2},
		{"stranger sees public only", &stranger.ID, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := d.ListPlaylistsVisibleTo(ctx, tc.viewer)
			if err != nil {
				t.Fatalf("ListPlaylistsVisibleTo: %v", err)
			}
			if len(got) != tc.want {
				t.Errorf("visible playlists = %d; want %d", len(got), tc.want)
			}
		})
	}

	// Filtering by user follows the same rule.
	got, err := d.ListPlaylistsByUser(ctx, owner.ID, &stranger.ID)
	if err != nil {
		t.Fatalf("ListPlaylistsByUser: %v", err)
	}
	if len(got) != 1 || got[0].ID != public.ID {
		t.Errorf("stranger view of owner's playlists = %v; want just the public one", got)
	}
	got, err = d.ListPlaylistsByUser(ctx, owner.ID, &owner.ID)
	if err != nil {
		t.Fatalf("ListPlaylistsByUser: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("owner view of own playlists = %d; want 2", len(got))
	}
	_ = private
}

func TestPlaylistAggregates(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	user, playlist, _ := seedPlaylist(t, d, 2)

	got, err := d.GetPlaylist(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("GetPlaylist: %v", err)
	}
	if got.SongCount != 2 {
		t.Errorf("song_count = %d; want 2", got.SongCount)
	}
	if got.TotalDuration != 121 {
		t.Errorf("total_duration = %d; want 121", got.TotalDuration)
	}
	if got.User == nil || got.User.ID != user.ID {
		t.Errorf("playlist owner not populated: %+v", got.User)
	}

	gotUser, err := d.GetAppUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetAppUser: %v", err)
	}
	if gotUser.PlaylistCount != 1 {
		t.Errorf("playlist_count = %d; want 1", gotUser.PlaylistCount)
	}
}

func TestDeletePlaylistCascades(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	_, playlist, songs := seedPlaylist(t, d, 2)

	if err := d.DeletePlaylist(ctx, playlist.ID); err != nil {
		t.Fatalf("DeletePlaylist: %v", err)
	}
	if _, err := d.GetPlaylist(ctx, playlist.ID); !errors.Is(err, ErrPlaylistNotFound) {
		t.Errorf("playlist survived delete: %v", err)
	}
	// Catalog songs are untouched.
	if _, err := d.GetSong(ctx, songs[0].ID); err != nil {
		t.Errorf("catalog song lost on playlist delete: %v", err)
	}
}
