package mjpeg

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"aruco-worker-go/internal/vision/frame"
)

type Publisher struct {
	quality     int
	jpegMutex   sync.RWMutex
	latestJPEG  map[string][]byte
	// one channel per connected client, grouped by source
	frameNotify map[string]map[chan struct{}]struct{}
	notifyMutex sync.Mutex
}

func NewPublisher(quality int) *Publisher {
	if quality < 1 || quality > 100 {
		quality = 85
	}
	return &Publisher{
		quality:     quality,
		latestJPEG:  make(map[string][]byte),
		frameNotify: make(map[string]map[chan struct{}]struct{}),
	}
}

// PublishFrame encodes an annotated RGBA frame and wakes up streamers of sourceID
func (p *Publisher) PublishFrame(sourceID string, f frame.Frame) error {
	if err := p.updateLatestJPEG(sourceID, f); err != nil {
		return err
	}

	p.notifyStreamers(sourceID)
	return nil
}

// Latest returns the most recent JPEG of sourceID
func (p *Publisher) Latest(sourceID string) ([]byte, bool) {
	p.jpegMutex.RLock()
	defer p.jpegMutex.RUnlock()
	b, ok := p.latestJPEG[sourceID]
	return b, ok && len(b) > 0
}

func (p *Publisher) updateLatestJPEG(sourceID string, f frame.Frame) error {
	mat, err := f.BGR()
	if err != nil {
		return fmt.Errorf("failed to convert frame for JPEG: %w", err)
	}
	defer mat.Close()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, p.quality})
	if err != nil {
		return fmt.Errorf("failed to encode JPEG: %w", err)
	}

	b := buf.GetBytes()
	jpegCopy := make([]byte, len(b))
	copy(jpegCopy, b)
	buf.Close()

	p.jpegMutex.Lock()
	p.latestJPEG[sourceID] = jpegCopy
	p.jpegMutex.Unlock()
	return nil
}

func (p *Publisher) notifyStreamers(sourceID string) {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()

	for notify := range p.frameNotify[sourceID] {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
}

// subscribe registers a client channel for sourceID. Channels are never closed;
// unsubscribe only removes them, so a concurrent notify cannot hit a closed channel.
func (p *Publisher) subscribe(sourceID string) chan struct{} {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()

	clients, ok := p.frameNotify[sourceID]
	if !ok {
		clients = make(map[chan struct{}]struct{})
		p.frameNotify[sourceID] = clients
	}
	notify := make(chan struct{}, 1)
	clients[notify] = struct{}{}
	return notify
}

func (p *Publisher) unsubscribe(sourceID string, notify chan struct{}) {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()

	clients := p.frameNotify[sourceID]
	delete(clients, notify)
	if len(clients) == 0 {
		delete(p.frameNotify, sourceID)
	}
}

// Clients returns how many streams of sourceID are connected
func (p *Publisher) Clients(sourceID string) int {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()
	return len(p.frameNotify[sourceID])
}

func (p *Publisher) StreamMJPEGHTTP(w http.ResponseWriter, r *http.Request, sourceID string) {
	boundary := "frame"
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	notify := p.subscribe(sourceID)
	defer p.unsubscribe(sourceID, notify)

	writePart := func(jpeg []byte) bool {
		if _, err := io.WriteString(w, "--"+boundary+"\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "Content-Type: image/jpeg\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, fmt.Sprintf("Content-Length: %d\r\n\r\n", len(jpeg))); err != nil {
			return false
		}
		if _, err := w.Write(jpeg); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	first, ok := p.Latest(sourceID)
	if !ok {
		first = p.placeholder(sourceID)
	}
	if len(first) > 0 {
		if !writePart(first) {
			return
		}
	}

	keepaliveTicker := time.NewTicker(2 * time.Second)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
		case <-keepaliveTicker.C:
		}
		if buf, ok := p.Latest(sourceID); ok {
			if !writePart(buf) {
				return
			}
		}
	}
}

func (p *Publisher) placeholder(sourceID string) []byte {
	img := gocv.NewMatWithSize(360, 640, gocv.MatTypeCV8UC3)
	defer img.Close()

	img.SetTo(gocv.Scalar{Val1: 64, Val2: 64, Val3: 64, Val4: 0})

	textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.PutText(&img, fmt.Sprintf("Source: %s", sourceID),
		image.Pt(20, 180), gocv.FontHersheySimplex, 1.0, textColor, 2)
	gocv.PutText(&img, "Waiting for frames...",
		image.Pt(20, 220), gocv.FontHersheySimplex, 0.8, textColor, 2)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, p.quality})
	if err != nil {
		return nil
	}
	defer buf.Close()

	b := buf.GetBytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (p *Publisher) Shutdown() {
	log.Info().Msg("MJPEG Publisher shutting down")
}
