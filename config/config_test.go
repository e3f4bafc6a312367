package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"edgecam/video"
)

func TestParseJSONDefaults(t *testing.T) {
	c, err := Parse("camera.json", []byte(`{"source": "/dev/video0"}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if c.Source != "/dev/video0" {
		t.Errorf("unexpected source %q", c.Source)
	}
	if c.QueueSize != video.DefaultQueueSize || c.FrameWaitMs != 500 || c.Classifier != "none" || c.ResizeFactor != 1 {
		t.Errorf("defaults not applied: %+v", c)
	}

	opts := c.Options()
	if opts.FrameWait != video.DefaultFrameWait || opts.QueuePolicy != video.DropNewest {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestParseYAML(t *testing.T) {
	doc := `
source: rtsp://cam.local/axis-media/media.amp
classifier: haarcascade_frontalface_default.xml
resize_factor: 0.5
queue_policy: drop-oldest
frame_wait_ms: 250
`
	c, err := Parse("camera.yaml", []byte(doc))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	p := c.StartParams()
	if p.Source != "rtsp://cam.local/axis-media/media.amp" || p.Classifier != "haarcascade_frontalface_default.xml" || p.ResizeFactor != 0.5 {
		t.Errorf("unexpected start params %+v", p)
	}
	if opts := c.Options(); opts.QueuePolicy != video.DropOldest || opts.FrameWait != 250*time.Millisecond {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	for _, doc := range []string{
		`{"queue_policy": "drop-random"}`,
		`{"resize_factor": 2}`,
		`{"queue_size": -1}`,
		`{"unknown_field": true}`,
		`{not json`,
	} {
		if _, err := Parse("camera.json", []byte(doc)); err == nil {
			t.Errorf("Parse(%s) should fail", doc)
		}
	}
}

func TestCameraChanged(t *testing.T) {
	a, _ := Parse("a.json", []byte(`{"source": "/dev/video0"}`))
	b, _ := Parse("b.json", []byte(`{"source": "/dev/video0", "port": 9090}`))
	c, _ := Parse("c.json", []byte(`{"source": "/dev/video1"}`))
	if a.CameraChanged(b) {
		t.Error("port change should not restart the camera")
	}
	if !a.CameraChanged(c) {
		t.Error("source change should restart the camera")
	}
	if !a.CameraChanged(nil) {
		t.Error("nil config differs")
	}
}

func TestLoadAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.json")
	if err := os.WriteFile(path, []byte(`{"source": "/dev/video0"}`), 0644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	if err := Load(ctx, path, func(old, new *Config) {
		changes <- new
	}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if Get().Source != "/dev/video0" {
		t.Fatalf("unexpected source %q", Get().Source)
	}

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`{"source": "rtsp://cam/stream"}`), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-changes:
		if c.Source != "rtsp://cam/stream" {
			t.Errorf("reloaded source %q", c.Source)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
	if Get().Source != "rtsp://cam/stream" {
		t.Errorf("Get returned stale config %q", Get().Source)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.json"), nil); err == nil {
		t.Error("expected error for missing file")
	}
}
