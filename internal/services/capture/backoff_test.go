package capture

import (
	"testing"
	"time"
)

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		name    string
		attempt int
		min     time.Duration
		max     time.Duration
		want    time.Duration
	}{
		{name: "first attempt uses min", attempt: 0, min: 5 * time.Second, max: time.Minute, want: 5 * time.Second},
		{name: "grows exponentially", attempt: 4, min: time.Second, max: time.Minute, want: 16 * time.Second},
		{name: "clamped to max", attempt: 10, min: time.Second, max: 30 * time.Second, want: 30 * time.Second},
		{name: "huge attempt does not overflow", attempt: 1000, min: time.Second, max: time.Minute, want: time.Minute},
		{name: "negative attempt", attempt: -3, min: 2 * time.Second, max: time.Minute, want: 2 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BackoffDelay(tt.attempt, tt.min, tt.max, 0); got != tt.want {
				t.Errorf("BackoffDelay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBackoffDelayJitter(t *testing.T) {
	base := 8 * time.Second
	for i := 0; i < 100; i++ {
		got := BackoffDelay(3, time.Second, time.Minute, 20)
		if got < base*8/10 || got > base*12/10 {
			t.Fatalf("BackoffDelay() = %v outside ±20%% of %v", got, base)
		}
	}
}

func TestIsNetworkSource(t *testing.T) {
	tests := []struct {
		source string
		want   bool
	}{
		{source: "0", want: false},
		{source: "/videos/markers.mp4", want: false},
		{source: "rtsp://cam.local/stream", want: true},
		{source: "HTTP://cam.local/mjpeg", want: true},
	}
	for _, tt := range tests {
		if got := isNetworkSource(tt.source); got != tt.want {
			t.Errorf("isNetworkSource(%q) = %v, want %v", tt.source, got, tt.want)
		}
	}
}
