package serve

import (
	"encoding/json"
	"net/http"

	log "github.com/sirupsen/logrus"

	"edgecam/util"
	"edgecam/video"
	"edgecam/video/process"
)

type QueueStatus struct {
	Policy  string
	Len     int
	Cap     int
	Pushed  uint64
	Dropped uint64
}

type StatusResponse struct {
	ID           string
	State        video.State
	Source       string
	CameraType   string
	Classifier   string
	ResizeFactor float64
	Queue        QueueStatus

	// Classifiers lists what can be selected, "none" first.
	Classifiers []string
}

type StatusServer struct {
	Camera        Camera
	ClassifierDir string
}

func (s *StatusServer) BuildResponse() *StatusResponse {
	st := s.Camera.Status()
	resp := &StatusResponse{
		ID:           st.ID,
		State:        st.State,
		Source:       util.ObscurePassword(st.Source),
		CameraType:   string(st.CameraType),
		Classifier:   st.Classifier,
		ResizeFactor: st.ResizeFactor,
		Queue: QueueStatus{
			Policy:  string(st.QueuePolicy),
			Len:     st.QueueLen,
			Cap:     st.QueueCap,
			Pushed:  st.QueuePushed,
			Dropped: st.QueueDropped,
		},
		Classifiers: []string{"none"},
	}
	names, err := process.AvailableClassifiers(s.ClassifierDir)
	if err != nil {
		log.Warnf("No classifiers available: %v", err)
	}
	resp.Classifiers = append(resp.Classifiers, names...)
	return resp
}

func (s *StatusServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	js, err := json.Marshal(s.BuildResponse())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(js)
}
