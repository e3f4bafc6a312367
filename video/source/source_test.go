package source

import "testing"

func TestParseParams(t *testing.T) {
	p, err := ParseParams("MJPG", "1280x720", "30")
	if err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	want := Params{PixelFormat: "MJPG", Width: 1280, Height: 720, FrameRate: 30}
	if p != want {
		t.Errorf("got %+v, want %+v", p, want)
	}
}

func TestParseParamsDefaults(t *testing.T) {
	p, err := ParseParams("", "default", "default")
	if err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	if p != (Params{}) {
		t.Errorf("expected zero params, got %+v", p)
	}
}

func TestParseParamsFractionalRate(t *testing.T) {
	p, err := ParseParams("YUYV", "", "30000/1001")
	if err != nil {
		t.Fatalf("ParseParams failed: %v", err)
	}
	if p.FrameRate < 29.96 || p.FrameRate > 29.98 {
		t.Errorf("expected ~29.97 fps, got %v", p.FrameRate)
	}
}

func TestParseParamsKeepsValidValues(t *testing.T) {
	p, err := ParseParams("MJPEG", "640x480", "fast")
	if err == nil {
		t.Fatal("expected error for malformed params")
	}
	if p.Width != 640 || p.Height != 480 {
		t.Errorf("expected resolution to survive, got %+v", p)
	}
	if p.PixelFormat != "" || p.FrameRate != 0 {
		t.Errorf("expected malformed values to stay zero, got %+v", p)
	}
}

func TestParseResolution(t *testing.T) {
	for _, bad := range []string{"640", "640x", "x480", "0x480", "640x480x3", "axb"} {
		if _, _, err := ParseResolution(bad); err == nil {
			t.Errorf("ParseResolution(%q) should fail", bad)
		}
	}
	w, h, err := ParseResolution("1920X1080")
	if err != nil || w != 1920 || h != 1080 {
		t.Errorf("ParseResolution(1920X1080) = %d, %d, %v", w, h, err)
	}
}
