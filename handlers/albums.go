package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"melodex/database"
)

var albumOrderings = map[string]string{
	"title":         "al.title",
	"-title":        "al.title DESC",
	"release_year":  "al.release_year",
	"-release_year": "al.release_year DESC",
}

func (m *Manager) listAlbums(c *gin.Context) {
	order, ok := orderingFrom(c, albumOrderings)
	if !ok {
		return
	}
	albums, err := m.db.ListAlbums(c.Request.Context(), database.ListOptions{
		Search: c.Query("search"),
		Order:  order,
	})
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, albums)
}

func (m *Manager) getAlbum(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	album, err := m.db.GetAlbum(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}

// listAlbumsByGenre filters on a case-insensitive genre substring. The
// genre query parameter is mandatory.
func (m *Manager) listAlbumsByGenre(c *gin.Context) {
	genre := c.Query("genre")
	if genre == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Genre parameter is required"})
		return
	}
	albums, err := m.db.ListAlbumsByGenre(c.Request.Context(), genre)
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, albums)
}

type albumInput struct {
	Title       string `json:"title" binding:"required"`
	ArtistID    int64  `json:"artist_id" binding:"required"`
	ReleaseYear int    `json:"release_year"`
	Genre       string `json:"genre"`
}

func (m *Manager) createAlbum(c *gin.Context) {
	var input albumInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	album, err := m.db.CreateAlbum(c.Request.Context(), input.Title, input.ArtistID, input.ReleaseYear, input.Genre)
	if errors.Is(err, database.ErrInvalidReference) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, album)
}

func (m *Manager) updateAlbum(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input albumInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m.applyAlbumPatch(c, id, database.AlbumPatch{
		Title:       &input.Title,
		ArtistID:    &input.ArtistID,
		ReleaseYear: &input.ReleaseYear,
		Genre:       &input.Genre,
	})
}

func (m *Manager) patchAlbum(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch struct {
		Title       *string `json:"title"`
		ArtistID    *int64  `json:"artist_id"`
		ReleaseYear *int    `json:"release_year"`
		Genre       *string `json:"genre"`
	}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m.applyAlbumPatch(c, id, database.AlbumPatch{
		Title:       patch.Title,
		ArtistID:    patch.ArtistID,
		ReleaseYear: patch.ReleaseYear,
		Genre:       patch.Genre,
	})
}

func (m *Manager) applyAlbumPatch(c *gin.Context, id int64, patch database.AlbumPatch) {
	album, err := m.db.UpdateAlbum(c.Request.Context(), id, patch)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if errors.Is(err, database.ErrInvalidReference) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, album)
}

func (m *Manager) deleteAlbum(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := m.db.DeleteAlbum(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listAlbumSongs returns the album's songs in track order.
func (m *Manager) listAlbumSongs(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := m.db.GetAlbum(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		m.internalError(c, err)
		return
	}
	songs, err := m.db.ListSongsByAlbum(c.Request.Context(), id)
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, songs)
}
