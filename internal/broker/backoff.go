package broker

import "time"

const (
	// DefaultBaseDelay is the first reconnect delay
	DefaultBaseDelay = 1 * time.Second
	// DefaultMaxDelay caps the reconnect delay
	DefaultMaxDelay = 300 * time.Second
	// DefaultMaxRetries is the number of reconnects attempted before giving up
	DefaultMaxRetries = 10
)

// Backoff is an exponential reconnect policy
type Backoff struct {
	Base       time.Duration
	Max        time.Duration
	MaxRetries int
}

// DefaultBackoff returns the 1s..300s, 10 retries policy
func DefaultBackoff() Backoff {
	return Backoff{Base: DefaultBaseDelay, Max: DefaultMaxDelay, MaxRetries: DefaultMaxRetries}
}

// Delay returns min(Base * 2^retry, Max)
func (b Backoff) Delay(retry int) time.Duration {
	d := b.Base
	for i := 0; i < retry; i++ {
		if d >= b.Max {
			break
		}
		d *= 2
	}
	if d > b.Max {
		return b.Max
	}
	return d
}

// Exhausted reports whether no further retry may be scheduled
func (b Backoff) Exhausted(retry int) bool {
	return retry >= b.MaxRetries
}
