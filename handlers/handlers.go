// Package handlers exposes the catalog REST API: CRUD over artists, albums
// and songs plus the nested listings, with authentication, the combined
// read/write policies and throttling applied per request.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"melodex/auth"
	"melodex/database"
	"melodex/sentry"
	"melodex/throttle"
)

const identityKey = "identity"

type Manager struct {
	db            *database.Database
	auth          *auth.Authenticator
	contributors  string
	artistCreates *throttle.Window
	defaultRate   *throttle.Limiter
}

type Options struct {
	ContributorsGroup  string
	ArtistCreateLimit  int
	ArtistCreateWindow time.Duration
	DefaultPerSecond   int
}

func NewManager(db *database.Database, authenticator *auth.Authenticator, opts Options) *Manager {
	return &Manager{
		db:            db,
		auth:          authenticator,
		contributors:  opts.ContributorsGroup,
		artistCreates: throttle.NewWindow(opts.ArtistCreateLimit, opts.ArtistCreateWindow),
		defaultRate:   throttle.NewLimiter(opts.DefaultPerSecond),
	}
}

// Register mounts the catalog routes under /api/catalog.
func (m *Manager) Register(router *gin.Engine) {
	api := router.Group("/api/catalog")
	api.Use(m.Authenticate(), m.Throttle())

	artists := api.Group("/artists")
	artists.Use(m.RequireCatalogAccess("artists"))
	artists.GET("", m.listArtists)
	artists.POST("", m.createArtist)
	artists.GET("/:id", m.getArtist)
	artists.PUT("/:id", m.updateArtist)
	artists.PATCH("/:id", m.patchArtist)
	artists.DELETE("/:id", m.deleteArtist)
	artists.GET("/:id/albums", m.listArtistAlbums)
	artists.GET("/:id/songs", m.listArtistSongs)

	albums := api.Group("/albums")
	albums.Use(m.RequireCatalogAccess("albums"))
	albums.GET("", m.listAlbums)
	albums.POST("", m.createAlbum)
	albums.GET("/by_genre", m.listAlbumsByGenre)
	albums.GET("/:id", m.getAlbum)
	albums.PUT("/:id", m.updateAlbum)
	albums.PATCH("/:id", m.patchAlbum)
	albums.DELETE("/:id", m.deleteAlbum)
	albums.GET("/:id/songs", m.listAlbumSongs)

	songs := api.Group("/songs")
	songs.Use(m.RequireCatalogAccess("songs"))
	songs.GET("", m.listSongs)
	songs.POST("", m.createSong)
	songs.GET("/:id", m.getSong)
	songs.PUT("/:id", m.updateSong)
	songs.PATCH("/:id", m.patchSong)
	songs.DELETE("/:id", m.deleteSong)
}

// Authenticate resolves a bearer credential when present. A missing header
// leaves the request anonymous; a bad credential is rejected outright.
func (m *Manager) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		identity, err := m.auth.VerifyBearer(c.Request.Context(), header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": err.Error()})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, _ := v.(*auth.Identity)
	return identity
}

// RequireCatalogAccess applies the combined catalog policies: 401 for
// anonymous callers, 403 for authenticated callers the policies deny.
func (m *Manager) RequireCatalogAccess(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := identityFrom(c)
		if identity == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Authentication credentials were not provided."})
			return
		}
		if !auth.AllowCatalog(identity, c.Request.Method, resource, m.contributors) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "You do not have permission to perform this action."})
			return
		}
		c.Next()
	}
}

// Throttle applies the system-wide default limit, keyed on the caller's
// username when authenticated, client IP otherwise.
func (m *Manager) Throttle() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if identity := identityFrom(c); identity != nil {
			key = identity.Username
		}
		if !m.defaultRate.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Request was throttled."})
			return
		}
		c.Next()
	}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return 0, false
	}
	return id, true
}

// orderingFrom maps the ?ordering= query parameter onto a SQL fragment via
// the resource's allowed-field map. ok is false for unknown fields.
func orderingFrom(c *gin.Context, allowed map[string]string) (string, bool) {
	ordering := c.Query("ordering")
	if ordering == "" {
		return "", true
	}
	fragment, ok := allowed[ordering]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ordering field: " + ordering})
		return "", false
	}
	return fragment, true
}

func (m *Manager) internalError(c *gin.Context, err error) {
	log.Errorf("catalog: %v", err)
	sentry.ReportError(err)
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error."})
}
