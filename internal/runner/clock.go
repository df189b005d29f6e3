package runner

import "time"

// TickSource delivers the once-per-interval ticks that drive a session.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

// NewTicker returns a TickSource backed by time.Ticker.
func NewTicker(interval time.Duration) TickSource {
	return timeTicker{ticker: time.NewTicker(interval)}
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}
