package util

import (
	"sync"
	"time"
)

// Event is a level-triggered, one-way flag. Once notified it stays notified;
// use a new Event to reset.
type Event struct {
	once sync.Once
	c    chan struct{}
}

func NewEvent() *Event {
	return &Event{
		c: make(chan struct{}),
	}
}

// Notify raises the flag. Safe to call any number of times.
func (e *Event) Notify() {
	e.once.Do(func() {
		close(e.c)
	})
}

// WaitTimeout blocks until the event is notified or d elapses, and reports
// whether the event was notified.
func (e *Event) WaitTimeout(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-e.c:
		return true
	case <-t.C:
		return false
	}
}

func (e *Event) HasBeenNotified() bool {
	select {
	case <-e.c:
		return true
	default:
		return false
	}
}
