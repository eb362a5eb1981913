package mqtt311

import "time"

// BackoffStrategy is a function that computes the next reconnect delay.
// It receives the current attempt number (1-based, reset after every
// successful connect), the previous delay, and the error that ended the
// last connection attempt. Return the duration to wait before dialing
// again. This allows implementing jitter, server hints, or custom
// strategies.
type BackoffStrategy func(attempt int, previousDelay time.Duration, err error) time.Duration

// backoffShiftCap bounds the exponent of the default strategy so the
// shift cannot overflow time.Duration even before clamping.
const backoffShiftCap = 16

// backoff tracks consecutive failed connection attempts and computes the
// delay before the next attempt. Create with newBackoff.
type backoff struct {
	base     time.Duration
	max      time.Duration
	strategy BackoffStrategy

	attempt  int
	previous time.Duration
}

func newBackoff(base, maxDelay time.Duration, strategy BackoffStrategy) *backoff {
	return &backoff{base: base, max: maxDelay, strategy: strategy}
}

// Next advances the attempt counter and returns the delay to wait before
// the next connection attempt. The default strategy doubles the delay on
// every attempt, starting from the base and clamped at the maximum.
func (b *backoff) Next(err error) time.Duration {
	b.attempt++

	var delay time.Duration
	if b.strategy != nil {
		delay = b.strategy(b.attempt, b.previous, err)
	} else {
		shift := b.attempt - 1
		if shift > backoffShiftCap {
			shift = backoffShiftCap
		}
		delay = b.base << shift
		if delay > b.max || delay <= 0 {
			delay = b.max
		}
	}

	b.previous = delay
	return delay
}

// Reset clears the attempt counter after a successful connection so the
// next failure starts over from the base delay.
func (b *backoff) Reset() {
	b.attempt = 0
	b.previous = 0
}

// Attempt returns the number of consecutive failed attempts.
func (b *backoff) Attempt() int {
	return b.attempt
}
