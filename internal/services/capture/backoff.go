package capture

import (
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// BackoffDelay returns the delay before reopen attempt n (0-based): minDelay doubled
// per attempt and capped at maxDelay, then jittered by ±jitterPct percent.
func BackoffDelay(attempt int, minDelay, maxDelay time.Duration, jitterPct int) time.Duration {
	delay := minDelay
	if delay <= 0 {
		delay = time.Second
	}
	for i := 0; i < attempt && i < 30; i++ {
		if maxDelay > 0 && delay >= maxDelay {
			break
		}
		delay *= 2
	}
	if maxDelay > 0 && delay > maxDelay {
		delay = maxDelay
	}

	if jitterPct <= 0 {
		return delay
	}
	jitter := time.Duration(float64(delay) * float64(jitterPct) / 100.0 * (rand.Float64()*2 - 1))
	return delay + jitter
}

// isNetworkSource reports whether the source is a stream URL rather than a device or file
func isNetworkSource(source string) bool {
	for _, scheme := range []string{"rtsp://", "rtsps://", "http://", "https://", "rtmp://", "udp://", "tcp://"} {
		if strings.HasPrefix(strings.ToLower(source), scheme) {
			return true
		}
	}
	return false
}

// configureFFmpegOptions tunes the OpenCV FFmpeg backend for low-latency network streams.
// An OPENCV_FFMPEG_CAPTURE_OPTIONS already set in the environment wins.
func configureFFmpegOptions() {
	if os.Getenv("OPENCV_FFMPEG_CAPTURE_OPTIONS") != "" {
		return
	}

	opts := []string{
		"rtsp_transport;tcp",
		"max_delay;500000", // 0.5s
		"stimeout;5000000", // 5s
		"rw_timeout;5000000",
		"flags;low_delay",
		"fflags;nobuffer+flush_packets",
		"analyzeduration;500000",
		"probesize;2000000",
		"allowed_media_types;video",
	}
	value := strings.Join(opts, "|")
	os.Setenv("OPENCV_FFMPEG_CAPTURE_OPTIONS", value)

	log.Debug().Str("ffmpeg_options", value).Msg("FFmpeg capture options configured")
}
