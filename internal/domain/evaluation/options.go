package evaluation

import "time"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithClock sets the time source used to stamp review dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
