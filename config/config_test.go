package config

import "testing"

func TestGetTokenTTLHours(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"empty", "", 24},
		{"invalid", "abc", 24},
		{"zero", "0", 24},
		{"negative", "-5", 24},
		{"valid_small", "1", 1},
		{"valid_week", "168", 168},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TOKEN_TTL_HOURS", tt.env)
			if got := getTokenTTLHours(); got != tt.want {
				t.Errorf("getTokenTTLHours() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestGetArtistCreateLimit(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"empty", "", 10},
		{"invalid", "ten", 10},
		{"zero", "0", 10},
		{"negative", "-1", 10},
		{"valid", "25", 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("ARTIST_CREATE_LIMIT", tt.env)
			if got := getArtistCreateLimit(); got != tt.want {
				t.Errorf("getArtistCreateLimit() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestGetDefaultPerSecond(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want int
	}{
		{"empty", "", 20},
		{"invalid", "fast", 20},
		{"zero", "0", 20},
		{"valid", "50", 50},
		{"over_cap", "5000", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DEFAULT_RATE_PER_SECOND", tt.env)
			if got := getDefaultPerSecond(); got != tt.want {
				t.Errorf("getDefaultPerSecond() = %d; want %d", got, tt.want)
			}
		})
	}
}

func TestGetContributorsGroup(t *testing.T) {
	t.Setenv("CONTRIBUTORS_GROUP", "")
	if got := getContributorsGroup(); got != "Contributors" {
		t.Errorf("getContributorsGroup() = %q; want %q", got, "Contributors")
	}
	t.Setenv("CONTRIBUTORS_GROUP", "Editors")
	if got := getContributorsGroup(); got != "Editors" {
		t.Errorf("getContributorsGroup() = %q; want %q", got, "Editors")
	}
}
