package video

import (
	"testing"
	"time"

	"gocv.io/x/gocv"

	"edgecam/video/source"
)

func newFrames(n int) []*source.Frame {
	frames := make([]*source.Frame, n)
	for i := range frames {
		frames[i] = source.NewFrame(gocv.NewMatWithSize(2, 2, gocv.MatTypeCV8UC3))
	}
	return frames
}

func TestFrameQueueDropNewest(t *testing.T) {
	q := NewFrameQueue(10, DropNewest)
	frames := newFrames(15)
	for i, f := range frames {
		ok := q.Push(f)
		if want := i < 10; ok != want {
			t.Errorf("push %d: got %v, want %v", i, ok, want)
		}
		if q.Len() > q.Cap() {
			t.Fatalf("queue length %d exceeds capacity %d", q.Len(), q.Cap())
		}
		f.Release()
	}

	if q.Len() != 10 {
		t.Fatalf("expected 10 queued frames, got %d", q.Len())
	}
	for i := 0; i < 10; i++ {
		f, ok := q.Pop(0)
		if !ok {
			t.Fatalf("pop %d: queue unexpectedly empty", i)
		}
		if f != frames[i] {
			t.Errorf("pop %d: frames out of order", i)
		}
		f.Release()
	}
	if _, ok := q.Pop(0); ok {
		t.Error("queue should be empty")
	}

	pushed, dropped := q.Stats()
	if pushed != 10 || dropped != 5 {
		t.Errorf("stats = %d pushed, %d dropped; want 10, 5", pushed, dropped)
	}
	// Dropped frames were released by the queue.
	for i := 10; i < 15; i++ {
		if frames[i].TryRetain() {
			t.Errorf("dropped frame %d still referenced", i)
		}
	}
}

func TestFrameQueueDropOldest(t *testing.T) {
	q := NewFrameQueue(10, DropOldest)
	frames := newFrames(15)
	for _, f := range frames {
		if !q.Push(f) {
			t.Error("drop-oldest push should always succeed")
		}
		f.Release()
	}
	for i := 5; i < 15; i++ {
		f, ok := q.Pop(0)
		if !ok || f != frames[i] {
			t.Fatalf("pop: expected frame %d", i)
		}
		f.Release()
	}
	for i := 0; i < 5; i++ {
		if frames[i].TryRetain() {
			t.Errorf("evicted frame %d still referenced", i)
		}
	}
}

func TestFrameQueuePopTimeout(t *testing.T) {
	q := NewFrameQueue(1, DropNewest)
	start := time.Now()
	if _, ok := q.Pop(30 * time.Millisecond); ok {
		t.Fatal("expected no frame")
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Errorf("Pop returned after %v, expected to wait", elapsed)
	}
}

func TestFrameQueuePopWaitsForPush(t *testing.T) {
	q := NewFrameQueue(1, DropNewest)
	f := newFrames(1)[0]
	go func() {
		time.Sleep(10 * time.Millisecond)
		q.Push(f)
		f.Release()
	}()
	got, ok := q.Pop(time.Second)
	if !ok || got != f {
		t.Fatal("expected the pushed frame")
	}
	got.Release()
}

func TestFrameQueueClear(t *testing.T) {
	q := NewFrameQueue(4, DropNewest)
	frames := newFrames(3)
	for _, f := range frames {
		q.Push(f)
		f.Release()
	}
	q.Clear()
	if q.Len() != 0 {
		t.Errorf("expected empty queue, got %d", q.Len())
	}
	for i, f := range frames {
		if f.TryRetain() {
			t.Errorf("frame %d not released by Clear", i)
		}
	}
}

func TestNewFrameQueueNormalizes(t *testing.T) {
	q := NewFrameQueue(0, "bogus")
	if q.Cap() != 1 {
		t.Errorf("expected capacity 1, got %d", q.Cap())
	}
	if q.Policy() != DropNewest {
		t.Errorf("expected drop-newest, got %v", q.Policy())
	}
}
