package graph

import (
	"errors"

	"github.com/graphql-go/graphql"

	"melodex/database"
)

func (h *Handler) newQueryType(userType, playlistType *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"allUsers": &graphql.Field{
				Type: graphql.NewList(userType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return h.db.ListAppUsers(p.Context)
				},
			},
			"user": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(int)
					user, err := h.db.GetAppUser(p.Context, int64(id))
					if errors.Is(err, database.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, err
					}
					return user, nil
				},
			},
			// allPlaylists never fails for an anonymous caller: it degrades
			// to the public listing.
			"allPlaylists": &graphql.Field{
				Type: graphql.NewList(playlistType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					identity := viewer(p.Context)
					if identity == nil {
						return h.db.ListPublicPlaylists(p.Context)
					}
					appUser, err := h.auth.EnsureAppUser(p.Context, identity)
					if err != nil {
						return h.db.ListPublicPlaylists(p.Context)
					}
					return h.db.ListPlaylistsVisibleTo(p.Context, &appUser.ID)
				},
			},
			"playlist": &graphql.Field{
				Type: playlistType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(int)
					playlist, err := h.db.GetPlaylist(p.Context, int64(id))
					if errors.Is(err, database.ErrPlaylistNotFound) {
						return nil, errors.New("Playlist not found")
					}
					if err != nil {
						return nil, err
					}
					if playlist.IsPublic {
						return playlist, nil
					}

					identity := viewer(p.Context)
					if identity == nil {
						return nil, errors.New("You must be logged in to view this private playlist")
					}
					appUser, err := h.auth.EnsureAppUser(p.Context, identity)
					if err != nil {
						return nil, err
					}
					if playlist.UserID != appUser.ID {
						return nil, errors.New("You are not the owner of this private playlist")
					}
					return playlist, nil
				},
			},
			"publicPlaylists": &graphql.Field{
				Type: graphql.NewList(playlistType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return h.db.ListPublicPlaylists(p.Context)
				},
			},
			"playlistsByUser": &graphql.Field{
				Type: graphql.NewList(playlistType),
				Args: graphql.FieldConfigArgument{
					"userId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID, _ := p.Args["userId"].(int)
					var viewerID *int64
					if identity := viewer(p.Context); identity != nil {
						if appUser, err := h.auth.EnsureAppUser(p.Context, identity); err == nil {
							viewerID = &appUser.ID
						}
					}
					return h.db.ListPlaylistsByUser(p.Context, int64(userID), viewerID)
				},
			},
			"myPlaylists": &graphql.Field{
				Type: graphql.NewList(playlistType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					appUser, err := h.requireViewer(p.Context)
					if err != nil {
						return nil, err
					}
					return h.db.ListPlaylistsOwnedBy(p.Context, appUser.ID)
				},
			},
		},
	})
}
