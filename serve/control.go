package serve

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"

	"edgecam/video"
)

// ControlServer starts or stops the camera. Start requests may carry a JSON
// video.StartParams body overriding the configured parameters.
type ControlServer struct {
	Camera Camera
	// Params returns the configured start parameters.
	Params func() video.StartParams
	Stop   bool
}

func NewStartServer(c Camera, params func() video.StartParams) *ControlServer {
	return &ControlServer{Camera: c, Params: params}
}

func NewStopServer(c Camera) *ControlServer {
	return &ControlServer{Camera: c, Stop: true}
}

func (s *ControlServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	clog := log.WithField("addr", r.RemoteAddr)

	if s.Stop {
		clog.Info("Camera stop requested")
		s.Camera.Stop()
	} else {
		var p video.StartParams
		if s.Params != nil {
			p = s.Params()
		}
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil && err != io.EOF {
			http.Error(w, fmt.Sprintf("bad start parameters: %v", err), http.StatusBadRequest)
			return
		}
		clog.Info("Camera start requested")
		s.Camera.Start(p)
	}

	w.Header().Add("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, s.Camera.Status().State)
}
