package relay

import (
	"sync"
	"time"
)

// Coalescer rate-limits emissions per key to at most one per interval,
// always delivering the latest value offered for that key. Continuous
// streams of updates (drag gestures moving a video tile) collapse to a
// bounded broadcast rate without losing the final position.
type Coalescer[T any] struct {
	mu       sync.Mutex
	interval time.Duration
	emit     func(key string, v T)
	entries  map[string]*coalesceEntry[T]
}

type coalesceEntry[T any] struct {
	last    time.Time
	pending bool
	value   T
	timer   *time.Timer
}

// NewCoalescer creates a coalescer that calls emit for each allowed
// emission. emit may be called from the offering goroutine or from a timer
// goroutine; it must be safe for either.
func NewCoalescer[T any](interval time.Duration, emit func(key string, v T)) *Coalescer[T] {
	return &Coalescer[T]{
		interval: interval,
		emit:     emit,
		entries:  make(map[string]*coalesceEntry[T]),
	}
}

// Offer submits a new value for key. It either emits immediately (if the
// key is outside its rate window) or replaces the value scheduled for the
// end of the current window.
func (c *Coalescer[T]) Offer(key string, v T) {
	c.mu.Lock()

	e, ok := c.entries[key]
	if !ok {
		e = &coalesceEntry[T]{}
		c.entries[key] = e
	}

	now := time.Now()
	if e.pending {
		e.value = v
		c.mu.Unlock()
		return
	}

	if since := now.Sub(e.last); since >= c.interval {
		e.last = now
		c.mu.Unlock()
		c.emit(key, v)
		return
	}

	e.value = v
	e.pending = true
	e.timer = time.AfterFunc(c.interval-now.Sub(e.last), func() { c.fire(key) })
	c.mu.Unlock()
}

func (c *Coalescer[T]) fire(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !e.pending {
		c.mu.Unlock()
		return
	}
	e.pending = false
	e.last = time.Now()
	v := e.value
	c.mu.Unlock()
	c.emit(key, v)
}

// Drop discards any scheduled emission for key and forgets its rate
// window. Called when the participant behind the key goes away.
func (c *Coalescer[T]) Drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(c.entries, key)
	}
}
