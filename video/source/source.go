package source

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ErrNotOpened is returned by an Opener when the source exists as a
// descriptor but the backend refused to open it.
var ErrNotOpened = errors.New("video source not opened")

// Params carries capture property hints for local devices. Zero values mean
// "leave the device default".
type Params struct {
	PixelFormat string
	Width       int
	Height      int
	FrameRate   float64
}

// Capture is an open video source handle. It is owned by a single goroutine
// at a time and is not safe for concurrent use.
type Capture interface {
	// Configure applies property hints to the handle.
	Configure(p Params) error

	// Read decodes the next frame into m, reporting whether a frame was read.
	Read(m *gocv.Mat) bool

	// Close releases the underlying device or stream.
	Close() error
}

// Opener opens a capture handle for a source descriptor.
type Opener func(descriptor string) (Capture, error)

const defaultValue = "default"

// ParseParams converts the string hints used by the configuration layer
// ("MJPG", "1280x720", "30") into Params. Empty and "default" values are left
// zero. All malformed values are reported but the well formed ones are still
// returned.
func ParseParams(pixelFormat, resolution, frameRate string) (Params, error) {
	var p Params
	var errs []string

	if pf := strings.TrimSpace(pixelFormat); pf != "" && pf != defaultValue {
		if len(pf) != 4 {
			errs = append(errs, "pixel format must be a fourcc: "+strconv.Quote(pf))
		} else {
			p.PixelFormat = pf
		}
	}

	if res := strings.TrimSpace(resolution); res != "" && res != defaultValue {
		w, h, err := ParseResolution(res)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			p.Width, p.Height = w, h
		}
	}

	if fr := strings.TrimSpace(frameRate); fr != "" && fr != defaultValue {
		f, err := parseFrameRate(fr)
		if err != nil {
			errs = append(errs, err.Error())
		} else {
			p.FrameRate = f
		}
	}

	if len(errs) > 0 {
		return p, errors.Errorf("invalid capture params: %s", strings.Join(errs, "; "))
	}
	return p, nil
}

// ParseResolution parses "WIDTHxHEIGHT".
func ParseResolution(s string) (int, int, error) {
	parts := strings.Split(strings.ToLower(s), "x")
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("resolution %q is not WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil || w <= 0 {
		return 0, 0, errors.Errorf("bad resolution width in %q", s)
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil || h <= 0 {
		return 0, 0, errors.Errorf("bad resolution height in %q", s)
	}
	return w, h, nil
}

// parseFrameRate accepts plain numbers as well as fractions such as "30000/1001".
func parseFrameRate(s string) (float64, error) {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, errors.Wrapf(err, "bad frame rate %q", s)
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, errors.Errorf("bad frame rate denominator in %q", s)
		}
		return n / d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad frame rate %q", s)
	}
	if f <= 0 {
		return 0, errors.Errorf("frame rate must be positive, got %q", s)
	}
	return f, nil
}
