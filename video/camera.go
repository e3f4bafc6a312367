package video

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"edgecam/util"
	"edgecam/video/process"
	"edgecam/video/source"
)

type State string

const (
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
)

const (
	DefaultQueueSize      = 10
	DefaultFrameWait      = 500 * time.Millisecond
	DefaultReadRetryDelay = 10 * time.Millisecond
	DefaultCapturePath    = "static/capture/frame.jpg"
)

// ClassifierLoader loads the named classifier from dir.
type ClassifierLoader func(dir, name string) (process.Classifier, error)

// Options configure a Session for its whole lifetime. Zero values take the
// package defaults.
type Options struct {
	QueueSize   int
	QueuePolicy DropPolicy

	// FrameWait bounds how long GetFrame waits for a queued frame.
	FrameWait time.Duration
	// ReadRetryDelay is the pause after a failed read.
	ReadRetryDelay time.Duration

	// CapturePath is where WriteFrame stores the current frame.
	CapturePath   string
	ClassifierDir string

	// Timestamp stamps served frames with the camera type and capture time.
	Timestamp bool

	Open           source.Opener
	LoadClassifier ClassifierLoader
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.QueuePolicy == "" {
		o.QueuePolicy = DropNewest
	}
	if o.FrameWait <= 0 {
		o.FrameWait = DefaultFrameWait
	}
	if o.ReadRetryDelay <= 0 {
		o.ReadRetryDelay = DefaultReadRetryDelay
	}
	if o.CapturePath == "" {
		o.CapturePath = DefaultCapturePath
	}
	if o.ClassifierDir == "" {
		o.ClassifierDir = process.DefaultClassifierDir
	}
	if o.Open == nil {
		o.Open = source.OpenVideoCapture
	}
	if o.LoadClassifier == nil {
		o.LoadClassifier = loadCascade
	}
	return o
}

func loadCascade(dir, name string) (process.Classifier, error) {
	c, err := process.LoadCascade(dir, name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// StartParams select what a Session captures.
type StartParams struct {
	Source string `json:"source"`

	// Capture hints, applied to local devices only. Empty or "default"
	// leaves the device setting alone.
	PixelFormat string `json:"pixel_format"`
	Resolution  string `json:"resolution"`
	FrameRate   string `json:"frame_rate"`

	// Classifier names a cascade in the classifier directory; "" or "none"
	// disables detection.
	Classifier   string  `json:"classifier"`
	ResizeFactor float64 `json:"resize_factor"`
}

// Status is a point in time view of a Session.
type Status struct {
	ID           string
	State        State
	Source       string
	CameraType   source.Kind
	Classifier   string
	ResizeFactor float64
	QueuePolicy  DropPolicy
	QueueLen     int
	QueueCap     int
	QueuePushed  uint64
	QueueDropped uint64
}

// Session drives one video source. A background goroutine reads frames into
// a bounded queue and a current frame slot; GetFrame serves them as JPEG,
// falling back to a still image whenever live data is unavailable.
//
// The owner must call Close (or Stop) on every exit path:
//
//	s := video.NewSession(fallback, opts)
//	defer s.Close()
type Session struct {
	id       string
	opts     Options
	fallback *source.Fallback
	encode   func(gocv.Mat) ([]byte, error)

	queue   *FrameQueue
	current atomic.Pointer[source.Frame]

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex
	stop      *util.Event
	done      chan struct{}

	mu     sync.RWMutex
	state  State
	params StartParams

	// detMu keeps Start from closing a detector that GetFrame is using.
	detMu    sync.RWMutex
	detector *process.Detector

	log *log.Entry
}

func NewSession(fallback *source.Fallback, opts Options) *Session {
	opts = opts.withDefaults()
	id := uuid.NewString()
	return &Session{
		id:       id,
		opts:     opts,
		fallback: fallback,
		encode:   source.EncodeJPEG,
		queue:    NewFrameQueue(opts.QueueSize, opts.QueuePolicy),
		state:    StateIdle,
		log:      log.WithField("session", id),
	}
}

// Start stops any running capture and begins capturing from p.Source. If the
// source cannot be opened the failure is logged and the session stays idle,
// serving the fallback image.
func (s *Session) Start(p StartParams) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.stopLocked()
	s.setDetector(s.resolveDetector(p))
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()

	clog := s.log.WithField("source", util.ObscurePassword(p.Source))
	clog.Infof("Opening camera")
	c, err := s.opts.Open(p.Source)
	if err != nil {
		clog.Errorf("Failed to open camera: %v", err)
		return
	}

	// Network streams are configured through their URL.
	if source.IsLocalDevice(p.Source) {
		params, err := source.ParseParams(p.PixelFormat, p.Resolution, p.FrameRate)
		if err != nil {
			clog.Warnf("Ignoring capture hints: %v", err)
		}
		if err := c.Configure(params); err != nil {
			clog.Warnf("Failed to configure camera: %v", err)
		}
	}

	s.stop = util.NewEvent()
	s.done = make(chan struct{})

	s.mu.Lock()
	s.state = StateCapturing
	s.mu.Unlock()
	sessionsCapturing.Inc()

	go s.capture(c, s.stop, s.done, clog)
}

// Stop signals the capture loop and waits for it to release the source. It
// is a no-op on an idle session.
func (s *Session) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.done == nil {
		return
	}
	select {
	case <-s.done:
		// Worker already gone.
	default:
		s.log.Info("Stopping capture loop")
		s.stop.Notify()
		<-s.done
		s.log.Info("Capture loop stopped")
	}
	s.stop = nil
	s.done = nil
}

// Close stops capture and releases the detector.
func (s *Session) Close() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stopLocked()
	s.setDetector(nil)
}

func (s *Session) capture(c source.Capture, stop *util.Event, done chan struct{}, clog *log.Entry) {
	defer close(done)
	defer s.cleanup(c, clog)

	clog.Info("Starting capture loop")
	failing := false
	for !stop.HasBeenNotified() {
		f, ok := s.read(c)
		switch {
		case !ok && !failing:
			clog.Warn("Read failed, substituting fallback frames")
			failing = true
		case !ok:
			clog.Debug("Read failure.")
		case failing:
			clog.Info("Reads recovered")
			failing = false
		}

		s.publish(f)
		s.queue.Push(f)
		f.Release()

		if !ok {
			stop.WaitTimeout(s.opts.ReadRetryDelay)
			continue
		}
		runtime.Gosched()
	}
}

func (s *Session) read(c source.Capture) (*source.Frame, bool) {
	m := gocv.NewMat()
	if ok := c.Read(&m); !ok || m.Empty() {
		m.Close()
		readFailures.Inc()
		return s.fallback.Frame(), false
	}
	framesCaptured.Inc()
	return source.NewFrame(m), true
}

// publish makes f the current frame.
func (s *Session) publish(f *source.Frame) {
	f.Retain()
	if old := s.current.Swap(f); old != nil {
		old.Release()
	}
}

// cleanup runs once, on the capture goroutine, when the loop exits.
func (s *Session) cleanup(c source.Capture, clog *log.Entry) {
	clog.Info("Releasing camera")
	if err := c.Close(); err != nil {
		clog.Errorf("Failed to release camera: %v", err)
	}
	if old := s.current.Swap(nil); old != nil {
		old.Release()
	}
	s.queue.Clear()

	s.mu.Lock()
	s.state = StateIdle
	s.params.Source = ""
	s.mu.Unlock()
	sessionsCapturing.Dec()
	clog.Info("Ending capture loop")
}

// GetFrame returns the oldest queued frame as JPEG, waiting up to FrameWait
// for one. It never fails: with no live frame, or when encoding fails, the
// fallback image bytes are returned.
func (s *Session) GetFrame() []byte {
	f, ok := s.queue.Pop(s.opts.FrameWait)
	// The fallback is served as its pre-encoded bytes, never detected on.
	if !ok || f.Pinned() {
		fallbackServed.Inc()
		return s.fallback.JPEG()
	}
	defer f.Release()

	m, release := s.annotate(f)
	defer release()

	jpeg, err := s.encode(m)
	if err != nil {
		encodeFailures.Inc()
		fallbackServed.Inc()
		s.log.Errorf("JPEG encode failed: %v", err)
		return s.fallback.JPEG()
	}
	return jpeg
}

// annotate runs the detector, if any, over the frame and stamps it when
// enabled. The returned func releases whatever annotate allocated.
func (s *Session) annotate(f *source.Frame) (gocv.Mat, func()) {
	m, release := s.detect(f.Mat)
	if !s.opts.Timestamp {
		return m, release
	}
	if m.Ptr() == f.Mat.Ptr() {
		// Shared frames are never drawn on.
		m = f.Mat.Clone()
		release = func() { m.Close() }
	}
	s.mu.RLock()
	label := string(source.CameraType(s.params.Source))
	s.mu.RUnlock()
	process.DrawTimestamp(&m, label, f.Time)
	return m, release
}

func (s *Session) detect(m gocv.Mat) (gocv.Mat, func()) {
	s.detMu.RLock()
	defer s.detMu.RUnlock()
	if s.detector == nil {
		return m, func() {}
	}

	res := s.detector.Run(m)
	if res.Err != nil {
		s.log.Warnf("Detection skipped: %v", res.Err)
	}
	return res.Mat, func() { res.Mat.Close() }
}

// WriteFrame stores the current frame, or the fallback image when there is
// none, as a JPEG at the configured capture path.
func (s *Session) WriteFrame() error {
	f := s.currentFrame()
	defer f.Release()

	if f.Pinned() {
		s.log.Info("Capture set to fallback image")
	}
	if err := source.WriteJPEG(s.opts.CapturePath, f.Mat); err != nil {
		s.log.Errorf("Failed to write frame to %v: %v", s.opts.CapturePath, err)
		return err
	}
	s.log.Infof("Frame written to %v", s.opts.CapturePath)
	return nil
}

// currentFrame returns a reference to the latest captured frame, or the
// fallback frame when there is none.
func (s *Session) currentFrame() *source.Frame {
	for {
		f := s.current.Load()
		if f == nil {
			return s.fallback.Frame()
		}
		// Lost a race with the capture loop replacing f; reload.
		if f.TryRetain() {
			return f
		}
	}
}

func (s *Session) resolveDetector(p StartParams) *process.Detector {
	if process.IsNone(p.Classifier) {
		return nil
	}
	c, err := s.opts.LoadClassifier(s.opts.ClassifierDir, p.Classifier)
	if err != nil {
		s.log.Errorf("Failed to load classifier %v, continuing without detection: %v", p.Classifier, err)
		return nil
	}
	factor := p.ResizeFactor
	if factor == 0 {
		factor = 1
	}
	s.log.Infof("Using classifier %v with resize factor %v", p.Classifier, factor)
	return process.NewDetector(c, factor)
}

func (s *Session) setDetector(d *process.Detector) {
	s.detMu.Lock()
	old := s.detector
	s.detector = d
	s.detMu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			s.log.Errorf("Failed to close classifier: %v", err)
		}
	}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Source returns the descriptor being captured, or "" when idle.
func (s *Session) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateIdle {
		return ""
	}
	return s.params.Source
}

func (s *Session) Status() Status {
	s.mu.RLock()
	state, p := s.state, s.params
	s.mu.RUnlock()
	if state == StateIdle {
		p.Source = ""
	}

	s.detMu.RLock()
	classifier, factor := "none", 0.0
	if s.detector != nil {
		classifier, factor = p.Classifier, s.detector.ResizeFactor()
	}
	s.detMu.RUnlock()

	pushed, dropped := s.queue.Stats()
	return Status{
		ID:           s.id,
		State:        state,
		Source:       p.Source,
		CameraType:   source.CameraType(p.Source),
		Classifier:   classifier,
		ResizeFactor: factor,
		QueuePolicy:  s.queue.Policy(),
		QueueLen:     s.queue.Len(),
		QueueCap:     s.queue.Cap(),
		QueuePushed:  pushed,
		QueueDropped: dropped,
	}
}
