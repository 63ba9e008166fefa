package config

import (
	"os"
	"strconv"
)

type ConfigStruct struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Throttle ThrottleConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Path string
}

type AuthConfig struct {
	// ContributorsGroup members may write to the catalog.
	ContributorsGroup string
	TokenTTLHours     int
}

type ThrottleConfig struct {
	// ArtistCreateLimit creations allowed per ArtistCreateWindowMinutes per user.
	ArtistCreateLimit         int
	ArtistCreateWindowMinutes int
	// DefaultPerSecond is the system-wide per-caller request rate.
	DefaultPerSecond int
}

var Config *ConfigStruct

func NewConfig() {
	config := &ConfigStruct{
		Server: ServerConfig{
			Port: os.Getenv("PORT"),
		},
		Database: DatabaseConfig{
			Path: os.Getenv("DB_PATH"),
		},
		Auth: AuthConfig{
			ContributorsGroup: getContributorsGroup(),
			TokenTTLHours:     getTokenTTLHours(),
		},
		Throttle: ThrottleConfig{
			ArtistCreateLimit:         getArtistCreateLimit(),
			ArtistCreateWindowMinutes: getArtistCreateWindow(),
			DefaultPerSecond:          getDefaultPerSecond(),
		},
	}

	Config = config
}

func getContributorsGroup() string {
	group := os.Getenv("CONTRIBUTORS_GROUP")
	if group == "" {
		return "Contributors"
	}
	return group
}

func getTokenTTLHours() int {
	ttlStr := os.Getenv("TOKEN_TTL_HOURS")
	if ttlStr == "" {
		return 24
	}
	ttl, err := strconv.Atoi(ttlStr)
	if err != nil || ttl <= 0 {
		return 24
	}
	return ttl
}

func getArtistCreateLimit() int {
	limitStr := os.Getenv("ARTIST_CREATE_LIMIT")
	if limitStr == "" {
		return 10
	}
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		return 10
	}
	return limit
}

func getArtistCreateWindow() int {
	windowStr := os.Getenv("ARTIST_CREATE_WINDOW_MINUTES")
	if windowStr == "" {
		return 60
	}
	window, err := strconv.Atoi(windowStr)
	if err != nil || window <= 0 {
		return 60
	}
	return window
}

func getDefaultPerSecond() int {
	rateStr := os.Getenv("DEFAULT_RATE_PER_SECOND")
	if rateStr == "" {
		return 20
	}
	r, err := strconv.Atoi(rateStr)
	if err != nil || r <= 0 {
		return 20
	}
	if r > 1000 {
		return 1000 // Cap to keep per-key limiters reasonable
	}
	return r
}
