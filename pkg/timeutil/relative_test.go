package timeutil

import (
	"testing"
	"time"
)

func TestRelativeTo(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-1 * time.Minute), "1 minute ago"},
		{now.Add(-5 * time.Minute), "5 minutes ago"},
		{now.Add(-3 * time.Hour), "3 hours ago"},
		{now.Add(-49 * time.Hour), "2 days ago"},
		{now.Add(2 * time.Hour), "in 2 hours"},
		{now.Add(-60 * 24 * time.Hour), "2026-01-09"},
	}
	for _, tt := range tests {
		if got := RelativeTo(tt.at, now); got != tt.want {
			t.Errorf("RelativeTo(%v) = %q, want %q", tt.at, got, tt.want)
		}
	}
}
