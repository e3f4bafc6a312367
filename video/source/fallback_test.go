package source

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"gocv.io/x/gocv"
)

func TestNewTestPattern(t *testing.T) {
	fb, err := NewTestPattern(320, 240)
	if err != nil {
		t.Fatalf("NewTestPattern failed: %v", err)
	}
	if fb.Frame().Mat.Cols() != 320 || fb.Frame().Mat.Rows() != 240 {
		t.Errorf("unexpected size %dx%d", fb.Frame().Mat.Cols(), fb.Frame().Mat.Rows())
	}
	if !isJPEG(fb.JPEG()) {
		t.Error("fallback bytes are not a JPEG")
	}
	if !fb.Frame().Pinned() {
		t.Error("fallback frame should be pinned")
	}
}

func TestNewTestPatternRejectsBadSize(t *testing.T) {
	if _, err := NewTestPattern(0, 10); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestFallbackJPEGIsACopy(t *testing.T) {
	fb, err := NewTestPattern(64, 48)
	if err != nil {
		t.Fatalf("NewTestPattern failed: %v", err)
	}
	a := fb.JPEG()
	a[0] = 0
	if !bytes.Equal(fb.JPEG()[1:], a[1:]) || fb.JPEG()[0] != 0xFF {
		t.Error("mutating returned bytes must not affect the fallback")
	}
}

func TestLoadFallback(t *testing.T) {
	pattern, err := NewTestPattern(160, 120)
	if err != nil {
		t.Fatalf("NewTestPattern failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "test_pattern.jpg")
	if err := os.WriteFile(path, pattern.JPEG(), 0644); err != nil {
		t.Fatal(err)
	}

	fb, err := LoadFallback(path)
	if err != nil {
		t.Fatalf("LoadFallback failed: %v", err)
	}
	if !bytes.Equal(fb.JPEG(), pattern.JPEG()) {
		t.Error("JPEG fallback file should be served byte for byte")
	}
	if fb.Frame().Mat.Cols() != 160 {
		t.Errorf("unexpected width %d", fb.Frame().Mat.Cols())
	}
}

func TestLoadFallbackReencodesPNG(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 8, 8, gocv.MatTypeCV8UC3)
	defer m.Close()
	path := filepath.Join(t.TempDir(), "pattern.png")
	if !gocv.IMWrite(path, m) {
		t.Fatal("failed to write png")
	}

	fb, err := LoadFallback(path)
	if err != nil {
		t.Fatalf("LoadFallback failed: %v", err)
	}
	if !isJPEG(fb.JPEG()) {
		t.Error("expected png fallback to be re-encoded as JPEG")
	}
}

func TestLoadFallbackMissingFile(t *testing.T) {
	if _, err := LoadFallback(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestWriteJPEG(t *testing.T) {
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 255, 0, 0), 16, 16, gocv.MatTypeCV8UC3)
	defer m.Close()
	path := filepath.Join(t.TempDir(), "capture", "frame.jpg")
	if err := WriteJPEG(path, m); err != nil {
		t.Fatalf("WriteJPEG failed: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !isJPEG(b) {
		t.Error("written file is not a JPEG")
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the capture in its directory, found %d entries", len(entries))
	}
}

func TestEncodeJPEGEmpty(t *testing.T) {
	m := gocv.NewMat()
	defer m.Close()
	if _, err := EncodeJPEG(m); err == nil {
		t.Error("expected error encoding an empty Mat")
	}
}
