package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"melodex/database"
)

var songOrderings = map[string]string{
	"title":             "s.title",
	"-title":            "s.title DESC",
	"duration_seconds":  "s.duration_seconds",
	"-duration_seconds": "s.duration_seconds DESC",
	"track_number":      "s.track_number",
	"-track_number":     "s.track_number DESC",
}

func (m *Manager) listSongs(c *gin.Context) {
	order, ok := orderingFrom(c, songOrderings)
	if !ok {
		return
	}
	songs, err := m.db.ListSongs(c.Request.Context(), database.ListOptions{
		Search: c.Query("search"),
		Order:  order,
	})
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, songs)
}

func (m *Manager) getSong(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	song, err := m.db.GetSong(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, song)
}

type songInput struct {
	Title           string `json:"title" binding:"required"`
	AlbumID         int64  `json:"album_id" binding:"required"`
	ArtistID        int64  `json:"artist_id" binding:"required"`
	DurationSeconds int    `json:"duration_seconds"`
	TrackNumber     int    `json:"track_number"`
}

func (m *Manager) createSong(c *gin.Context) {
	var input songInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	song, err := m.db.CreateSong(c.Request.Context(),
		input.Title, input.AlbumID, input.ArtistID, input.DurationSeconds, input.TrackNumber)
	if errors.Is(err, database.ErrInvalidReference) || errors.Is(err, database.ErrArtistMismatch) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, song)
}

func (m *Manager) updateSong(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input songInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m.applySongPatch(c, id, database.SongPatch{
		Title:           &input.Title,
		AlbumID:         &input.AlbumID,
		ArtistID:        &input.ArtistID,
		DurationSeconds: &input.DurationSeconds,
		TrackNumber:     &input.TrackNumber,
	})
}

func (m *Manager) patchSong(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var patch struct {
		Title           *string `json:"title"`
		AlbumID         *int64  `json:"album_id"`
		ArtistID        *int64  `json:"artist_id"`
		DurationSeconds *int    `json:"duration_seconds"`
		TrackNumber     *int    `json:"track_number"`
	}
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m.applySongPatch(c, id, database.SongPatch{
		Title:           patch.Title,
		AlbumID:         patch.AlbumID,
		ArtistID:        patch.ArtistID,
		DurationSeconds: patch.DurationSeconds,
		TrackNumber:     patch.TrackNumber,
	})
}

func (m *Manager) applySongPatch(c *gin.Context, id int64, patch database.SongPatch) {
	song, err := m.db.UpdateSong(c.Request.Context(), id, patch)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
		return
	}
	if errors.Is(err, database.ErrInvalidReference) || errors.Is(err, database.ErrArtistMismatch) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		m.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, song)
}

func (m *Manager) deleteSong(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	err := m.db.DeleteSong(c.Request.Context(), id)
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
