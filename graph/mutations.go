package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/graphql-go/graphql"

	"melodex/database"
	"melodex/models"
	"melodex/sentry"
)

func okPayload(playlist models.Playlist) playlistPayload {
	return playlistPayload{Playlist: &playlist, Success: true, Errors: []string{}}
}

func failPayload(messages ...string) playlistPayload {
	return playlistPayload{Success: false, Errors: messages}
}

// ownedPlaylist fetches the playlist and checks the caller owns it. The
// returned message goes into the payload's errors list verbatim.
func (h *Handler) ownedPlaylist(ctx context.Context, id int64, owner models.User, denied string) (models.Playlist, string) {
	playlist, err := h.db.GetPlaylist(ctx, id)
	if errors.Is(err, database.ErrPlaylistNotFound) {
		return models.Playlist{}, "Playlist not found"
	}
	if err != nil {
		sentry.ReportError(err)
		return models.Playlist{}, err.Error()
	}
	if playlist.UserID != owner.ID {
		return models.Playlist{}, denied
	}
	return playlist, ""
}

func (h *Handler) newMutationType(playlistType *graphql.Object, songPositionInput *graphql.InputObject) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createPlaylist": &graphql.Field{
				Type: newPlaylistPayloadType("CreatePlaylistPayload", playlistType),
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"isPublic": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					appUser, err := h.requireViewer(p.Context)
					if err != nil {
						return nil, err
					}
					name, _ := p.Args["name"].(string)
					isPublic, _ := p.Args["isPublic"].(bool)

					playlist, err := h.db.CreatePlaylist(p.Context, appUser.ID, name, isPublic)
					if err != nil {
						sentry.ReportError(err)
						return failPayload(fmt.Sprintf("Error creating playlist: %v", err)), nil
					}
					return okPayload(playlist), nil
				},
			},
			"updatePlaylist": &graphql.Field{
				Type: newPlaylistPayloadType("UpdatePlaylistPayload", playlistType),
				Args: graphql.FieldConfigArgument{
					"id":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"name":     &graphql.ArgumentConfig{Type: graphql.String},
					"isPublic": &graphql.ArgumentConfig{Type: graphql.Boolean},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					appUser, err := h.requireViewer(p.Context)
					if err != nil {
						return nil, err
					}
					id, _ := p.Args["id"].(int)
					if _, denied := h.ownedPlaylist(p.Context, int64(id), appUser,
						"You are not the owner of this playlist"); denied != "" {
						return failPayload(denied), nil
					}

					var name *string
					if v, ok := p.Args["name"].(string); ok {
						name = &v
					}
					var isPublic *bool
					if v, ok := p.Args["isPublic"].(bool); ok {
						isPublic = &v
					}

					playlist, err := h.db.UpdatePlaylist(p.Context, int64(id), name, isPublic)
					if err != nil {
						sentry.ReportError(err)
						return failPayload(fmt.Sprintf("Error updating playlist: %v", err)), nil
					}
					return okPayload(playlist), nil
				},
			},
			"deletePlaylist": &graphql.Field{
				Type: newPlaylistPayloadType("DeletePlaylistPayload", playlistType),
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					appUser, err := h.requireViewer(p.Context)
					if err != nil {
						return nil, err
					}
					id, _ := p.Args["id"].(int)
					if _, denied := h.ownedPlaylist(p.Context, int64(id), appUser,
						"You are not the owner of this playlist"); denied != "" {
						return failPayload(denied), nil
					}

					if err := h.db.DeletePlaylist(p.Context, int64(id)); err != nil {
						sentry.ReportError(err)
						return failPayload(fmt.Sprintf("Error deleting playlist: %v", err)), nil
					}
					return playlistPayload{Success: true, Errors: []string{}}, nil
				},
			},
			"addSongToPlaylist": &graphql.Field{
				Type: newPlaylistPayloadType("AddSongToPlaylistPayload", playlistType),
				Args: graphql.FieldConfigArgument{
					"playlistId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"songId":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					appUser, err := h.requireViewer(p.Context)
					if err != nil {
						return nil, err
					}
					playlistID, _ := p.Args["playlistId"].(int)
					songID, _ := p.Args["songId"].(int)
					if _, denied := h.ownedPlaylist(p.Context, int64(playlistID), appUser,
						"You can only add songs to your own playlists"); denied != "" {
						return failPayload(denied), nil
					}

					err = h.db.AddSongToPlaylist(p.Context, int64(playlistID), int64(songID))
					switch {
					case errors.Is(err, database.ErrSongNotFound):
						return failPayload("Song not found"), nil
					case errors.Is(err, database.ErrDuplicateSong):
						return failPayload("Song already in playlist"), nil
					case err != nil:
						sentry.ReportError(err)
						return failPayload(fmt.Sprintf("Error adding song: %v", err)), nil
					}

					playlist, err := h.db.GetPlaylist(p.Context, int64(playlistID))
					if err != nil {
						return failPayload(fmt.Sprintf("Error adding song: %v", err)), nil
					}
					return okPayload(playlist), nil
				},
			},
			"removeSongFromPlaylist": &graphql.Field{
				Type: newPlaylistPayloadType("RemoveSongFromPlaylistPayload", playlistType),
				Args: graphql.FieldConfigArgument{
					"playlistId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"songId":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					appUser, err := h.requireViewer(p.Context)
					if err != nil {
						return nil, err
					}
					playlistID, _ := p.Args["playlistId"].(int)
					songID, _ := p.Args["songId"].(int)
					if _, denied := h.ownedPlaylist(p.Context, int64(playlistID), appUser,
						"You can only remove songs from your own playlists"); denied != "" {
						return failPayload(denied), nil
					}

					err = h.db.RemoveSongFromPlaylist(p.Context, int64(playlistID), int64(songID))
					switch {
					case errors.Is(err, database.ErrSongNotInPlaylist):
						return failPayload("Song not in playlist"), nil
					case err != nil:
						sentry.ReportError(err)
						return failPayload(fmt.Sprintf("Error removing song: %v", err)), nil
					}

					playlist, err := h.db.GetPlaylist(p.Context, int64(playlistID))
					if err != nil {
						return failPayload(fmt.Sprintf("Error removing song: %v", err)), nil
					}
					return okPayload(playlist), nil
				},
			},
			"reorderPlaylistSongs": &graphql.Field{
				Type: newPlaylistPayloadType("ReorderPlaylistSongsPayload", playlistType),
				Args: graphql.FieldConfigArgument{
					"playlistId":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"songPositions": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(songPositionInput)))},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					appUser, err := h.requireViewer(p.Context)
					if err != nil {
						return nil, err
					}
					playlistID, _ := p.Args["playlistId"].(int)
					if _, denied := h.ownedPlaylist(p.Context, int64(playlistID), appUser,
						"You can only reorder your own playlists"); denied != "" {
						return failPayload(denied), nil
					}

					positions := songPositionsFromArg(p.Args["songPositions"])
					err = h.db.ReorderPlaylistSongs(p.Context, int64(playlistID), positions)
					var notMember *database.SongNotInPlaylistError
					switch {
					case errors.As(err, &notMember):
						return failPayload(fmt.Sprintf("Song %d not in playlist", notMember.SongID)), nil
					case err != nil:
						sentry.ReportError(err)
						return failPayload(fmt.Sprintf("Error reordering songs: %v", err)), nil
					}

					playlist, err := h.db.GetPlaylist(p.Context, int64(playlistID))
					if err != nil {
						return failPayload(fmt.Sprintf("Error reordering songs: %v", err)), nil
					}
					return okPayload(playlist), nil
				},
			},
		},
	})
}
