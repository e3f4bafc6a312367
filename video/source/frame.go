package source

import (
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// Frame is an immutable, reference counted decoded image. Nobody may draw on
// Mat; derive a new Mat instead. The Mat is closed when the last reference is
// released.
type Frame struct {
	Mat  gocv.Mat
	Time time.Time

	refs   int32
	pinned bool
}

// NewFrame wraps m, taking ownership of it. The caller holds one reference.
func NewFrame(m gocv.Mat) *Frame {
	return &Frame{
		Mat:  m,
		Time: time.Now(),
		refs: 1,
	}
}

// newPinnedFrame returns a frame that ignores reference counting and is
// never closed. Used for process lifetime images.
func newPinnedFrame(m gocv.Mat) *Frame {
	return &Frame{
		Mat:    m,
		Time:   time.Now(),
		refs:   1,
		pinned: true,
	}
}

// Retain adds a reference. The caller must already hold one.
func (f *Frame) Retain() {
	if f.pinned {
		return
	}
	if atomic.AddInt32(&f.refs, 1) <= 1 {
		panic("frame retained after release")
	}
}

// TryRetain adds a reference unless the frame has already been released. It
// is used by readers that found the frame through a shared pointer and
// therefore do not hold a reference yet.
func (f *Frame) TryRetain() bool {
	if f.pinned {
		return true
	}
	for {
		n := atomic.LoadInt32(&f.refs)
		if n <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&f.refs, n, n+1) {
			return true
		}
	}
}

// Release drops a reference, closing the Mat when none remain.
func (f *Frame) Release() {
	if f.pinned {
		return
	}
	switch n := atomic.AddInt32(&f.refs, -1); {
	case n == 0:
		f.Mat.Close()
	case n < 0:
		panic("frame already released")
	}
}

// Pinned reports whether the frame is exempt from reference counting.
func (f *Frame) Pinned() bool {
	return f.pinned
}
