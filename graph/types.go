package graph

import (
	"github.com/graphql-go/graphql"

	"melodex/database"
	"melodex/models"
)

// Object types for the playlist graph. Field resolution relies on the
// default resolver matching struct fields case-insensitively
// (isPublic -> IsPublic).

func newSongType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Song",
		Fields: graphql.Fields{
			"id":                &graphql.Field{Type: graphql.Int},
			"title":             &graphql.Field{Type: graphql.String},
			"durationSeconds":   &graphql.Field{Type: graphql.Int},
			"durationFormatted": &graphql.Field{Type: graphql.String},
			"trackNumber":       &graphql.Field{Type: graphql.Int},
		},
	})
}

func newUserType() *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.Int},
			"username":      &graphql.Field{Type: graphql.String},
			"email":         &graphql.Field{Type: graphql.String},
			"createdAt":     &graphql.Field{Type: graphql.DateTime},
			"playlistCount": &graphql.Field{Type: graphql.Int},
		},
	})
}

func (h *Handler) newPlaylistSongType(songType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "PlaylistSong",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.Int},
			"song":     &graphql.Field{Type: songType},
			"position": &graphql.Field{Type: graphql.Int},
			"addedAt":  &graphql.Field{Type: graphql.DateTime},
		},
	})
}

func (h *Handler) newPlaylistType(userType, playlistSongType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Playlist",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.Int},
			"name":          &graphql.Field{Type: graphql.String},
			"isPublic":      &graphql.Field{Type: graphql.Boolean},
			"createdAt":     &graphql.Field{Type: graphql.DateTime},
			"user":          &graphql.Field{Type: userType},
			"songCount":     &graphql.Field{Type: graphql.Int},
			"totalDuration": &graphql.Field{Type: graphql.Int},
			"songs": &graphql.Field{
				Type: graphql.NewList(playlistSongType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch playlist := p.Source.(type) {
					case models.Playlist:
						return h.db.ListPlaylistEntries(p.Context, playlist.ID)
					case *models.Playlist:
						return h.db.ListPlaylistEntries(p.Context, playlist.ID)
					}
					return nil, nil
				},
			},
		},
	})
}

func newSongPositionInput() *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "SongPositionInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"songId":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
			"position": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		},
	})
}

// playlistPayload is the uniform mutation result: the affected playlist (nil
// on failure), a success flag and human-readable error strings.
type playlistPayload struct {
	Playlist *models.Playlist
	Success  bool
	Errors   []string
}

func newPlaylistPayloadType(name string, playlistType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"playlist": &graphql.Field{Type: playlistType},
			"success":  &graphql.Field{Type: graphql.Boolean},
			"errors":   &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})
}

func songPositionsFromArg(arg interface{}) []database.SongPosition {
	items, ok := arg.([]interface{})
	if !ok {
		return nil
	}
	positions := make([]database.SongPosition, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		songID, _ := fields["songId"].(int)
		position, _ := fields["position"].(int)
		positions = append(positions, database.SongPosition{
			SongID:   int64(songID),
			Position: position,
		})
	}
	return positions
}
