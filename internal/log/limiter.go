package log

import (
	"sync"
	"time"
)

// Limiter rate-limits repeated warnings from the capture hot path.
// Overflow signals can arrive once per read when a driver misbehaves;
// the first warning in each interval is emitted, the rest are counted
// and summarized with the next emitted message.
type Limiter struct {
	interval time.Duration

	mu        sync.Mutex
	last      time.Time
	suppressed int
}

// NewLimiter returns a Limiter that emits at most one warning per
// interval. A non-positive interval defaults to one second.
func NewLimiter(interval time.Duration) *Limiter {
	if interval <= 0 {
		interval = time.Second
	}
	return &Limiter{interval: interval}
}

// Warnf logs the message unless one was already emitted within the
// interval. Suppressed occurrences are reported in the next message.
func (l *Limiter) Warnf(format string, v ...interface{}) {
	l.mu.Lock()
	now := time.Now()
	if now.Sub(l.last) < l.interval {
		l.suppressed++
		l.mu.Unlock()
		return
	}
	suppressed := l.suppressed
	l.suppressed = 0
	l.last = now
	l.mu.Unlock()

	if suppressed > 0 {
		Warnf(format+" (%d similar suppressed)", append(v, suppressed)...)
		return
	}
	Warnf(format, v...)
}
