package source

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// VideoCapture is a Capture backed by an OpenCV VideoCapture. Device nodes,
// files and network URLs are all opened through the same backend.
type VideoCapture struct {
	cap *gocv.VideoCapture
}

// OpenVideoCapture is the default Opener.
func OpenVideoCapture(descriptor string) (Capture, error) {
	if descriptor == "" {
		return nil, errors.Wrap(ErrNotOpened, "empty source descriptor")
	}
	cap, err := gocv.OpenVideoCapture(descriptor)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open video capture %v", descriptor)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, errors.Wrapf(ErrNotOpened, "video capture %v", descriptor)
	}
	return &VideoCapture{cap: cap}, nil
}

func (v *VideoCapture) Configure(p Params) error {
	if p.PixelFormat != "" {
		v.cap.Set(gocv.VideoCaptureFOURCC, v.cap.ToCodec(p.PixelFormat))
	}
	if p.Width > 0 && p.Height > 0 {
		v.cap.Set(gocv.VideoCaptureFrameWidth, float64(p.Width))
		v.cap.Set(gocv.VideoCaptureFrameHeight, float64(p.Height))
	}
	if p.FrameRate > 0 {
		v.cap.Set(gocv.VideoCaptureFPS, p.FrameRate)
	}
	log.Debugf("Capture configured to %dx%d @ %.2f fps",
		int(v.cap.Get(gocv.VideoCaptureFrameWidth)),
		int(v.cap.Get(gocv.VideoCaptureFrameHeight)),
		v.cap.Get(gocv.VideoCaptureFPS))
	return nil
}

func (v *VideoCapture) Read(m *gocv.Mat) bool {
	return v.cap.Read(m)
}

func (v *VideoCapture) Close() error {
	return v.cap.Close()
}
