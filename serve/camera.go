package serve

import "edgecam/video"

// Camera is the part of a video.Session the HTTP handlers use.
type Camera interface {
	Start(p video.StartParams)
	Stop()
	GetFrame() []byte
	WriteFrame() error
	Status() video.Status
}
