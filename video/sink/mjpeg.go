package sink

import (
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// MJPEG streaming, framed the same way as the implementation by saljam:
// https://github.com/saljam/mjpeg/blob/master/stream.go

const BoundaryWord = "frame"
const headerf = "\r\n" +
	"--" + BoundaryWord + "\r\n" +
	"Content-Type: image/jpeg\r\n" +
	"Content-Length: %d\r\n" +
	"\r\n"

// FrameSource produces encoded JPEG frames. GetFrame may block while waiting
// for a frame but must always return an image.
type FrameSource interface {
	GetFrame() []byte
}

// MJPEGHandler serves a FrameSource as a multipart MJPEG stream. Each client
// pulls frames from the source for as long as it stays connected.
type MJPEGHandler struct {
	Source FrameSource

	// MaxFPS limits the rate at which frames are sent to one client. Zero
	// sends frames as fast as the source produces them.
	MaxFPS int
}

// ServeHTTP implements http.Handler interface, serving MJPEG.
func (h *MJPEGHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clog := log.WithField("addr", r.RemoteAddr)
	clog.Infof("MJPEG stream connected")
	defer clog.Infof("MJPEG stream disconnected")

	w.Header().Set("Content-Type", "multipart/x-mixed-replace;boundary="+BoundaryWord)
	w.Header().Set("Cache-Control", "no-cache")
	flusher, _ := w.(http.Flusher)

	var tick <-chan time.Time
	if h.MaxFPS > 0 {
		t := time.NewTicker(time.Second / time.Duration(h.MaxFPS))
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	var frame []byte
	for ctx.Err() == nil {
		jpeg := h.Source.GetFrame()

		header := fmt.Sprintf(headerf, len(jpeg))
		if cap(frame) < len(jpeg)+len(header) {
			frame = make([]byte, (len(jpeg)+len(header))*2)
		}
		frame = frame[:len(header)+len(jpeg)]
		copy(frame, header)
		copy(frame[len(header):], jpeg)

		if _, err := w.Write(frame); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}

		if tick != nil {
			select {
			case <-tick:
			case <-ctx.Done():
			}
		}
	}
}
