package source

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const extTemp = ".temp"

// EncodeJPEG compresses m into a newly allocated JPEG buffer.
func EncodeJPEG(m gocv.Mat) ([]byte, error) {
	if m.Empty() {
		return nil, errors.New("cannot encode empty image")
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, m)
	if err != nil {
		return nil, errors.Wrap(err, "jpeg encode failed")
	}
	defer buf.Close()

	b := buf.GetBytes()
	if len(b) == 0 {
		return nil, errors.New("jpeg encode produced no data")
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// WriteJPEG encodes m and writes it to path. The file is written next to its
// destination and renamed into place, so readers never see a partial image.
func WriteJPEG(path string, m gocv.Mat) error {
	jpeg, err := EncodeJPEG(m)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create capture directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*"+extTemp)
	if err != nil {
		return errors.Wrap(err, "failed to create capture")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(jpeg); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write capture")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write capture")
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return errors.Wrap(err, "failed to write capture")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(err, "failed to move capture to its final destination")
	}
	return nil
}

func isJPEG(b []byte) bool {
	return len(b) > 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF
}
