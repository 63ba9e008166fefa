// Package graph serves the playlist API: queries and mutations over users
// and playlists behind a single POST endpoint, authenticated per operation
// with bearer tokens.
package graph

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	log "github.com/sirupsen/logrus"

	"melodex/auth"
	"melodex/database"
	"melodex/models"
)

type contextKey string

const viewerKey contextKey = "viewer"

type Handler struct {
	db     *database.Database
	auth   *auth.Authenticator
	schema graphql.Schema
}

func New(db *database.Database, authenticator *auth.Authenticator) (*Handler, error) {
	h := &Handler{db: db, auth: authenticator}

	songType := newSongType()
	userType := newUserType()
	playlistSongType := h.newPlaylistSongType(songType)
	playlistType := h.newPlaylistType(userType, playlistSongType)
	songPositionInput := newSongPositionInput()

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    h.newQueryType(userType, playlistType),
		Mutation: h.newMutationType(playlistType, songPositionInput),
	})
	if err != nil {
		return nil, err
	}
	h.schema = schema
	return h, nil
}

// Register mounts the graph endpoint.
func (h *Handler) Register(router *gin.Engine) {
	router.POST("/graphql", h.serve)
}

type graphRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

// serve executes one query/mutation document. A request without an
// Authorization header runs as anonymous; a present but bad credential is
// rejected at the transport with 403 before any resolver runs.
func (h *Handler) serve(c *gin.Context) {
	var req graphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if header := c.GetHeader("Authorization"); header != "" {
		identity, err := h.auth.VerifyBearer(ctx, header)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenExpired) ||
				errors.Is(err, auth.ErrMissingCredential) {
				c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
				return
			}
			log.Errorf("graph: token verification: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		ctx = context.WithValue(ctx, viewerKey, identity)
	}

	result := graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        ctx,
	})
	c.JSON(http.StatusOK, result)
}

// viewer returns the verified identity from the request context, nil when
// anonymous.
func viewer(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(viewerKey).(*auth.Identity)
	return identity
}

// requireViewer is the explicit per-operation guard: it demands a verified
// identity and resolves it into the application user, provisioning one on
// first contact.
func (h *Handler) requireViewer(ctx context.Context) (models.User, error) {
	identity := viewer(ctx)
	if identity == nil {
		return models.User{}, auth.ErrMissingCredential
	}
	return h.auth.EnsureAppUser(ctx, identity)
}
