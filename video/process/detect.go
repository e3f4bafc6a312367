package process

import (
	"fmt"
	"image"
	"math"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	ErrBadResizeFactor = errors.New("bad resize factor")
	ErrNoClassifier    = errors.New("no classifier")
)

const (
	cascadeScaleFactor  = 1.3
	cascadeMinNeighbors = 5
)

// Classifier finds objects in a grayscale image.
type Classifier interface {
	Detect(gray gocv.Mat) ([]image.Rectangle, error)
	Close() error
}

// CascadeClassifier is a Classifier backed by a pretrained OpenCV Haar or
// LBP cascade.
type CascadeClassifier struct {
	Name string

	c gocv.CascadeClassifier
}

// LoadCascade loads the cascade definition file name from dir.
func LoadCascade(dir, name string) (*CascadeClassifier, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, errors.Errorf("invalid classifier name %q", name)
	}
	path := filepath.Join(dir, name)
	c := gocv.NewCascadeClassifier()
	if !c.Load(path) {
		c.Close()
		return nil, errors.Errorf("error reading cascade file: %v", path)
	}
	return &CascadeClassifier{
		Name: name,
		c:    c,
	}, nil
}

func (cc *CascadeClassifier) Detect(gray gocv.Mat) ([]image.Rectangle, error) {
	if gray.Empty() {
		return nil, errors.New("cannot classify an empty image")
	}
	return cc.c.DetectMultiScaleWithParams(gray, cascadeScaleFactor, cascadeMinNeighbors, 0, image.Point{}, image.Point{}), nil
}

func (cc *CascadeClassifier) Close() error {
	return cc.c.Close()
}

// Detector overlays classifier detections on frames.
type Detector struct {
	classifier   Classifier
	resizeFactor float64
}

// NewDetector takes ownership of c.
func NewDetector(c Classifier, resizeFactor float64) *Detector {
	return &Detector{
		classifier:   c,
		resizeFactor: resizeFactor,
	}
}

func (d *Detector) ResizeFactor() float64 {
	return d.resizeFactor
}

// Result is the outcome of Detector.Run. Mat is always valid and owned by
// the caller. When Err is set, Mat holds the frame as it stood before the
// failing step.
type Result struct {
	Mat   gocv.Mat
	Rects []image.Rectangle
	Err   error
}

// Run resizes input by the resize factor, classifies it and draws a box on
// the resized image around each detection. input is never modified.
func (d *Detector) Run(input gocv.Mat) Result {
	start := time.Now()
	defer func() {
		detectionSeconds.Observe(time.Since(start).Seconds())
	}()

	if d.classifier == nil {
		return failed(input.Clone(), ErrNoClassifier)
	}

	size, err := scaledSize(input, d.resizeFactor)
	if err != nil {
		return failed(input.Clone(), err)
	}

	resized := gocv.NewMat()
	if size.X == input.Cols() && size.Y == input.Rows() {
		input.CopyTo(&resized)
	} else {
		gocv.Resize(input, &resized, size, 0, 0, gocv.InterpolationArea)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	switch resized.Channels() {
	case 1:
		resized.CopyTo(&gray)
	case 3:
		gocv.CvtColor(resized, &gray, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(resized, &gray, gocv.ColorBGRAToGray)
	default:
		return failed(resized, errors.Errorf("unsupported channel count %d", resized.Channels()))
	}

	rects, err := d.detect(gray)
	if err != nil {
		return failed(resized, err)
	}

	DrawDetections(&resized, rects)
	log.Debugf("Detected %d objects in %v", len(rects), time.Since(start))
	return Result{
		Mat:   resized,
		Rects: rects,
	}
}

// detect calls the classifier, converting a panic into an error so a faulty
// classifier can't take down frame delivery.
func (d *Detector) detect(gray gocv.Mat) (rects []image.Rectangle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("classifier panic: %v", r)
		}
	}()
	rects, err = d.classifier.Detect(gray)
	return rects, errors.Wrap(err, "classifier failed")
}

// Close releases the classifier.
func (d *Detector) Close() error {
	if d.classifier == nil {
		return nil
	}
	return d.classifier.Close()
}

func failed(m gocv.Mat, err error) Result {
	detectionFailures.Inc()
	return Result{
		Mat: m,
		Err: err,
	}
}

func scaledSize(m gocv.Mat, factor float64) (image.Point, error) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
		return image.Point{}, errors.Wrap(ErrBadResizeFactor, fmt.Sprint(factor))
	}
	if m.Empty() {
		return image.Point{}, errors.New("cannot resize an empty image")
	}
	p := image.Point{
		X: int(math.Round(float64(m.Cols()) * factor)),
		Y: int(math.Round(float64(m.Rows()) * factor)),
	}
	if p.X < 1 || p.Y < 1 {
		return image.Point{}, errors.Wrapf(ErrBadResizeFactor, "%v shrinks %dx%d to nothing", factor, m.Cols(), m.Rows())
	}
	return p, nil
}
