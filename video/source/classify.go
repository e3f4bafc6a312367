package source

import "strings"

// Kind classifies a source descriptor.
type Kind string

const (
	KindLocalDevice   Kind = "USB"
	KindNetworkStream Kind = "RTSP"
	KindOther         Kind = "Other"
)

const (
	localDevicePrefix   = "/dev/video"
	networkStreamPrefix = "rtsp"
)

// IsLocalDevice reports whether the descriptor names a V4L2 device node such
// as /dev/video0. The bare prefix is not a device.
func IsLocalDevice(descriptor string) bool {
	return len(descriptor) > len(localDevicePrefix) && strings.HasPrefix(descriptor, localDevicePrefix)
}

// IsNetworkStream reports whether the descriptor is an RTSP URL.
func IsNetworkStream(descriptor string) bool {
	return strings.HasPrefix(descriptor, networkStreamPrefix)
}

func CameraType(descriptor string) Kind {
	switch {
	case IsLocalDevice(descriptor):
		return KindLocalDevice
	case IsNetworkStream(descriptor):
		return KindNetworkStream
	default:
		return KindOther
	}
}
