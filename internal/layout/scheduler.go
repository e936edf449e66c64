package layout

import (
	"context"
	"sync"
	"time"
)

// FrameScheduler runs a callback on the host's next frame.
type FrameScheduler interface {
	Schedule(frame func())
}

// ManualScheduler queues frames until the caller runs them. It is meant for
// tests and batch use where the caller owns the loop.
type ManualScheduler struct {
	queue []func()
}

// Schedule queues frame.
func (m *ManualScheduler) Schedule(frame func()) {
	m.queue = append(m.queue, frame)
}

// Pending returns the number of queued frames.
func (m *ManualScheduler) Pending() int { return len(m.queue) }

// Step runs the oldest queued frame. It returns false if none was queued.
func (m *ManualScheduler) Step() bool {
	if len(m.queue) == 0 {
		return false
	}
	frame := m.queue[0]
	m.queue = m.queue[1:]
	frame()
	return true
}

// Drain runs frames until the queue is empty or limit frames ran.
// It returns the number of frames run.
func (m *ManualScheduler) Drain(limit int) int {
	n := 0
	for n < limit && m.Step() {
		n++
	}
	return n
}

// TickerScheduler runs frames at a fixed rate on the goroutine that calls
// Loop. Other goroutines hand work to the loop with Post.
type TickerScheduler struct {
	interval time.Duration

	mu     sync.Mutex
	frames []func()
	posted []func()
}

// NewTickerScheduler returns a scheduler running fps frames per second.
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &TickerScheduler{interval: time.Second / time.Duration(fps)}
}

// Schedule queues frame for the next tick of the loop.
func (t *TickerScheduler) Schedule(frame func()) {
	t.mu.Lock()
	t.frames = append(t.frames, frame)
	t.mu.Unlock()
}

// Post queues fn to run on the loop goroutine before the next frame.
func (t *TickerScheduler) Post(fn func()) {
	t.mu.Lock()
	t.posted = append(t.posted, fn)
	t.mu.Unlock()
}

// Idle reports whether nothing is queued.
func (t *TickerScheduler) Idle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames) == 0 && len(t.posted) == 0
}

// Loop runs queued work once per interval until ctx is done, or until the
// queue runs empty when untilIdle is set.
func (t *TickerScheduler) Loop(ctx context.Context, untilIdle bool) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		t.mu.Lock()
		posted, frames := t.posted, t.frames
		t.posted, t.frames = nil, nil
		t.mu.Unlock()

		for _, fn := range posted {
			fn()
		}
		for _, frame := range frames {
			frame()
		}
		if untilIdle && t.Idle() {
			return nil
		}
	}
}
