package serve

import (
	"io"
	"net/http"
	"os"
)

// CaptureServer stores the current frame and serves the stored file.
type CaptureServer struct {
	Camera Camera
	Path   string
}

func (s *CaptureServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := s.Camera.WriteFrame(); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	f, err := os.Open(s.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer f.Close()

	w.Header().Add("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-cache")
	io.Copy(w, f)
}
