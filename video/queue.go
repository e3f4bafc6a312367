package video

import (
	"sync/atomic"
	"time"

	"edgecam/video/source"
)

// DropPolicy decides what a full FrameQueue does with a new frame.
type DropPolicy string

const (
	// DropNewest rejects the incoming frame, keeping capture order intact.
	DropNewest DropPolicy = "drop-newest"
	// DropOldest evicts the head to make room, favoring fresh frames.
	DropOldest DropPolicy = "drop-oldest"
)

// FrameQueue is a bounded FIFO of frames with one producer and any number of
// consumers. The queue holds one reference on every frame it contains.
type FrameQueue struct {
	policy DropPolicy
	c      chan *source.Frame

	pushed  uint64
	dropped uint64
}

func NewFrameQueue(capacity int, policy DropPolicy) *FrameQueue {
	if capacity < 1 {
		capacity = 1
	}
	if policy != DropOldest {
		policy = DropNewest
	}
	return &FrameQueue{
		policy: policy,
		c:      make(chan *source.Frame, capacity),
	}
}

// Push appends f without blocking, retaining it on success. It reports
// whether f was queued.
func (q *FrameQueue) Push(f *source.Frame) bool {
	f.Retain()
	for {
		select {
		case q.c <- f:
			atomic.AddUint64(&q.pushed, 1)
			return true
		default:
		}

		if q.policy == DropNewest {
			f.Release()
			q.drop()
			return false
		}

		// Evict the head and retry. A consumer may have emptied the slot in
		// the meantime, in which case nothing is evicted.
		select {
		case old := <-q.c:
			old.Release()
			q.drop()
		default:
		}
	}
}

func (q *FrameQueue) drop() {
	atomic.AddUint64(&q.dropped, 1)
	queueDropped.Inc()
}

// Pop removes the head frame, waiting up to timeout for one to arrive. The
// caller owns the returned reference.
func (q *FrameQueue) Pop(timeout time.Duration) (*source.Frame, bool) {
	select {
	case f := <-q.c:
		return f, true
	default:
	}
	if timeout <= 0 {
		return nil, false
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case f := <-q.c:
		return f, true
	case <-t.C:
		return nil, false
	}
}

// Clear drains the queue, releasing every frame.
func (q *FrameQueue) Clear() {
	for {
		select {
		case f := <-q.c:
			f.Release()
		default:
			return
		}
	}
}

func (q *FrameQueue) Len() int {
	return len(q.c)
}

func (q *FrameQueue) Cap() int {
	return cap(q.c)
}

func (q *FrameQueue) Policy() DropPolicy {
	return q.policy
}

// Stats returns the number of frames accepted and dropped since creation.
func (q *FrameQueue) Stats() (pushed, dropped uint64) {
	return atomic.LoadUint64(&q.pushed), atomic.LoadUint64(&q.dropped)
}
