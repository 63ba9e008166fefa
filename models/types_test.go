package models

import "testing"

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    string
	}{
		{"zero", 0, "0:00"},
		{"under_minute", 45, "0:45"},
		{"exact_minute", 60, "1:00"},
		{"several_minutes", 382, "6:22"},
		{"padded_seconds", 305, "5:05"},
		{"long", 3671, "61:11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%d) = %q; want %q", tt.seconds, got, tt.want)
			}
		})
	}
}
