// Command markergen writes a printable DICT_6X6_250 marker as PNG.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"aruco-worker-go/internal/vision/markers"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var (
		id   = flag.Int("id", 23, "marker id (0-249)")
		size = flag.Int("size", 200, "side length in pixels")
		out  = flag.String("out", "", "output file (default marker_<id>.png)")
	)
	flag.Parse()

	path := *out
	if path == "" {
		path = fmt.Sprintf("marker_%d.png", *id)
	}

	png, err := markers.EncodePNG(*id, *size)
	if err != nil {
		log.Fatal().Err(err).Int("id", *id).Int("size", *size).Msg("Failed to render marker")
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("Failed to write marker")
	}

	log.Info().Int("id", *id).Int("size", *size).Str("path", path).Msg("Marker written")
}
