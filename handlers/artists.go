package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"melodex/database"
)

var artistOrderings = map[string]string{
	"name":         "a.name",
	"-name":        "a.name DESC",
	"formed_year":  "a.formed_year",
	"-formed_year": "a.formed_year DESC",
}

func (m *Manager) listArtists(c *gin.Context) {
	order, ok := orderingFrom(c, artistOrderings)
	if !ok {
		return
	}
	artists, err := m.db.ListArtists(c.Request.Context(), database.ListOptions{
		Search: c.Query("search"),
		Order:  order,
	})
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, artists)
}

func (m *Manager) getArtist(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	artist, err := m.db.GetArtist(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

type artistInput struct {
	Name       string `json:"name" binding:"required"`
	Country    string `json:"country"`
	FormedYear int    `json:"formed_year"`
}

func (m *Manager) createArtist(c *gin.Context) {
	// Artist creation carries its own, tighter limit on top of the default.
	identity := identityFrom(c)
	if !m.artistCreates.Allow(identity.Username) {
		c.JSON(http.StatusTooManyRequests, gin.H{"detail": "Request was throttled."})
		return
	}

	var input artistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	artist, err := m.db.CreateArtist(c.Request.Context(), input.Name, input.Country, input.FormedYear)
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, artist)
}

func (m *Manager) updateArtist(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input artistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	artist, err := m.db.UpdateArtist(c.Request.Context(), id, database.ArtistPatch{
		Name:       &input.Name,
		Country:    &input.Country,
		FormedYear: &input.FormedYear,
	})
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

func (m *Manager) patchArtist(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch struct {
		Name       *string `json:"name"`
		Country    *string `json:"country"`
		FormedYear *int    `json:"formed_year"`
	}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	artist, err := m.db.UpdateArtist(c.Request.Context(), id, database.ArtistPatch{
		Name:       patch.Name,
		Country:    patch.Country,
		FormedYear: patch.FormedYear,
	})
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, artist)
}

func (m *Manager) deleteArtist(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := m.db.DeleteArtist(c.Request.Context(), id)
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

func (m *Manager) listArtistAlbums(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := m.db.GetArtist(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		m.internalError(c, err)
		return
	}
	albums, err := m.db.ListAlbumsByArtist(c.Request.Context(), id)
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, albums)
}

func (m *Manager) listArtistSongs(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if _, err := m.db.GetArtist(c.Request.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
			return
		}
		m.internalError(c, err)
		return
	}
	songs, err := m.db.ListSongsByArtist(c.Request.Context(), id)
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, songs)
}
