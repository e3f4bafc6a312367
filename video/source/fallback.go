package source

import (
	"image"
	"image/color"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Fallback is the still image served whenever live capture is unavailable.
// It is created once and never mutated.
type Fallback struct {
	frame *Frame
	jpeg  []byte
}

// LoadFallback reads and decodes the image at path. JPEG files are served
// as-is; other formats are re-encoded once.
func LoadFallback(path string) (*Fallback, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read fallback image")
	}
	m, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode fallback image %v", path)
	}
	if m.Empty() {
		m.Close()
		return nil, errors.Errorf("fallback image %v decoded to an empty image", path)
	}

	jpeg := raw
	if !isJPEG(raw) {
		if jpeg, err = EncodeJPEG(m); err != nil {
			m.Close()
			return nil, errors.Wrapf(err, "failed to encode fallback image %v", path)
		}
	}
	log.Infof("Loaded fallback image %v (%dx%d)", path, m.Cols(), m.Rows())
	return &Fallback{
		frame: newPinnedFrame(m),
		jpeg:  jpeg,
	}, nil
}

var barColors = []gocv.Scalar{
	gocv.NewScalar(192, 192, 192, 0), // white
	gocv.NewScalar(0, 192, 192, 0),   // yellow
	gocv.NewScalar(192, 192, 0, 0),   // cyan
	gocv.NewScalar(0, 192, 0, 0),     // green
	gocv.NewScalar(192, 0, 192, 0),   // magenta
	gocv.NewScalar(0, 0, 192, 0),     // red
	gocv.NewScalar(192, 0, 0, 0),     // blue
}

// NewTestPattern generates a color bar fallback of the given size. Used when
// no fallback file is configured.
func NewTestPattern(width, height int) (*Fallback, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid test pattern size %dx%d", width, height)
	}
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), height, width, gocv.MatTypeCV8UC3)

	bar := width / len(barColors)
	for i, c := range barColors {
		r := image.Rect(i*bar, 0, (i+1)*bar, height)
		if i == len(barColors)-1 {
			r.Max.X = width
		}
		region := m.Region(r)
		region.SetTo(c)
		region.Close()
	}

	text := "NO SIGNAL"
	font := gocv.FontHersheySimplex
	scale := float64(width) / 640
	thickness := 2
	sz := gocv.GetTextSize(text, font, scale, thickness)
	org := image.Point{X: (width - sz.X) / 2, Y: (height + sz.Y) / 2}
	gocv.PutText(&m, text, org, font, scale, color.RGBA{R: 255, G: 255, B: 255, A: 255}, thickness)

	jpeg, err := EncodeJPEG(m)
	if err != nil {
		m.Close()
		return nil, err
	}
	return &Fallback{
		frame: newPinnedFrame(m),
		jpeg:  jpeg,
	}, nil
}

// Frame returns the decoded still. The frame is pinned; Retain and Release
// are no-ops on it.
func (f *Fallback) Frame() *Frame {
	return f.frame
}

// JPEG returns a copy of the pre-encoded still.
func (f *Fallback) JPEG() []byte {
	out := make([]byte, len(f.jpeg))
	copy(out, f.jpeg)
	return out
}
