package config

import (
	"time"

	"github.com/pkg/errors"

	"edgecam/video"
	"edgecam/video/process"
)

// Config is the camera configuration of the device. It is the only place
// process-wide settings live; the capture core receives what it needs through
// video.Options and video.StartParams.
type Config struct {
	// Source is a device node (/dev/video0), stream URL or file.
	Source      string `json:"source" yaml:"source"`
	PixelFormat string `json:"pixel_format" yaml:"pixel_format"`
	Resolution  string `json:"resolution" yaml:"resolution"`
	FrameRate   string `json:"frame_rate" yaml:"frame_rate"`

	Classifier    string  `json:"classifier" yaml:"classifier"`
	ResizeFactor  float64 `json:"resize_factor" yaml:"resize_factor"`
	ClassifierDir string  `json:"classifier_dir" yaml:"classifier_dir"`

	QueueSize   int    `json:"queue_size" yaml:"queue_size"`
	QueuePolicy string `json:"queue_policy" yaml:"queue_policy"`
	FrameWaitMs int    `json:"frame_wait_ms" yaml:"frame_wait_ms"`
	ReadRetryMs int    `json:"read_retry_ms" yaml:"read_retry_ms"`

	CapturePath  string `json:"capture_path" yaml:"capture_path"`
	FallbackPath string `json:"fallback_path" yaml:"fallback_path"`
	Timestamp    bool   `json:"timestamp" yaml:"timestamp"`

	Port     int    `json:"port" yaml:"port"`
	LogLevel string `json:"log_level" yaml:"log_level"`
}

func (c *Config) setDefaults() {
	if c.Classifier == "" {
		c.Classifier = "none"
	}
	if c.ResizeFactor == 0 {
		c.ResizeFactor = 1
	}
	if c.ClassifierDir == "" {
		c.ClassifierDir = process.DefaultClassifierDir
	}
	if c.QueueSize == 0 {
		c.QueueSize = video.DefaultQueueSize
	}
	if c.QueuePolicy == "" {
		c.QueuePolicy = string(video.DropNewest)
	}
	if c.FrameWaitMs == 0 {
		c.FrameWaitMs = int(video.DefaultFrameWait / time.Millisecond)
	}
	if c.ReadRetryMs == 0 {
		c.ReadRetryMs = int(video.DefaultReadRetryDelay / time.Millisecond)
	}
	if c.CapturePath == "" {
		c.CapturePath = video.DefaultCapturePath
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) validate() error {
	switch video.DropPolicy(c.QueuePolicy) {
	case video.DropNewest, video.DropOldest:
	default:
		return errors.Errorf("unknown queue_policy %q", c.QueuePolicy)
	}
	if c.ResizeFactor < 0 || c.ResizeFactor > 1 {
		return errors.Errorf("resize_factor must be in (0, 1], got %v", c.ResizeFactor)
	}
	if c.QueueSize < 0 {
		return errors.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.FrameWaitMs < 0 || c.ReadRetryMs < 0 {
		return errors.New("frame_wait_ms and read_retry_ms must not be negative")
	}
	return nil
}

// Options returns the session options described by c.
func (c *Config) Options() video.Options {
	return video.Options{
		QueueSize:      c.QueueSize,
		QueuePolicy:    video.DropPolicy(c.QueuePolicy),
		FrameWait:      time.Duration(c.FrameWaitMs) * time.Millisecond,
		ReadRetryDelay: time.Duration(c.ReadRetryMs) * time.Millisecond,
		CapturePath:    c.CapturePath,
		ClassifierDir:  c.ClassifierDir,
		Timestamp:      c.Timestamp,
	}
}

// StartParams returns what a session should capture according to c.
func (c *Config) StartParams() video.StartParams {
	return video.StartParams{
		Source:       c.Source,
		PixelFormat:  c.PixelFormat,
		Resolution:   c.Resolution,
		FrameRate:    c.FrameRate,
		Classifier:   c.Classifier,
		ResizeFactor: c.ResizeFactor,
	}
}

// CameraChanged reports whether other selects a different capture than c,
// i.e. whether a running session must be restarted.
func (c *Config) CameraChanged(other *Config) bool {
	if c == nil || other == nil {
		return c != other
	}
	return c.StartParams() != other.StartParams()
}
