package runner

import "time"

// Ticker is a cancellable periodic signal driving Tick.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory acquires a new ticker with the given period.
type TickerFactory func(period time.Duration) Ticker

type stdTicker struct {
	t *time.Ticker
}

// NewTicker is the TickerFactory backed by time.Ticker.
func NewTicker(period time.Duration) Ticker {
	return &stdTicker{t: time.NewTicker(period)}
}

func (s *stdTicker) C() <-chan time.Time { return s.t.C }
func (s *stdTicker) Stop()               { s.t.Stop() }

// ManualTicker is fired by hand; tests use it to step the clock.
type ManualTicker struct {
	ch      chan time.Time
	stopped chan struct{}
}

// NewManualTicker returns an unbuffered ticker so that Fire blocks until the
// consumer has taken the tick.
func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *ManualTicker) C() <-chan time.Time { return m.ch }

// Stop is idempotent.
func (m *ManualTicker) Stop() {
	select {
	case <-m.stopped:
	default:
		close(m.stopped)
	}
}

// Fire delivers one tick. It returns false if the ticker was stopped first.
func (m *ManualTicker) Fire() bool {
	select {
	case m.ch <- time.Now():
		return true
	case <-m.stopped:
		return false
	}
}

// Stopped reports whether Stop has been called.
func (m *ManualTicker) Stopped() bool {
	select {
	case <-m.stopped:
		return true
	default:
		return false
	}
}
