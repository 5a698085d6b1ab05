package log

import (
	"testing"
	"time"
)

func TestLimiterSuppressesWithinInterval(t *testing.T) {
	l := NewLimiter(time.Hour)

	l.Warnf("first")
	for i := 0; i < 10; i++ {
		l.Warnf("repeat")
	}

	l.mu.Lock()
	suppressed := l.suppressed
	l.mu.Unlock()

	if suppressed != 10 {
		t.Errorf("suppressed = %d, expected 10", suppressed)
	}
}

func TestLimiterEmitsAfterInterval(t *testing.T) {
	l := NewLimiter(time.Millisecond)

	l.Warnf("first")
	time.Sleep(5 * time.Millisecond)
	l.Warnf("second")

	l.mu.Lock()
	suppressed := l.suppressed
	l.mu.Unlock()

	if suppressed != 0 {
		t.Errorf("suppressed = %d, expected 0 after interval elapsed", suppressed)
	}
}

func TestNewLimiterDefaultInterval(t *testing.T) {
	l := NewLimiter(0)
	if l.interval != time.Second {
		t.Errorf("interval = %s, expected 1s default", l.interval)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in    string
		level LogLevel
		ok    bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"Warning", LevelWarn, true},
		{"error", LevelError, true},
		{"bogus", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			level, ok := ParseLevel(tt.in)
			if level != tt.level || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = (%v, %v), expected (%v, %v)",
					tt.in, level, ok, tt.level, tt.ok)
			}
		})
	}
}
