package worker

import "time"

// RetryPolicy controls how long a failed sync task waits before the
// next attempt. The delay grows by BackoffFactor per attempt and is
// capped at MaxDelay.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns the wait before the given attempt. Attempts are
// 1-based; the first retry waits InitialDelay.
func (p RetryPolicy) NextDelay(attempt int) time.Duration {
	d := p.InitialDelay
	if d <= 0 {
		d = time.Second
	}
	factor := p.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * factor)
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
		if d <= 0 {
			// overflow from an absurd attempt count
			return maxOrDefault(p.MaxDelay)
		}
	}
	return d
}

func maxOrDefault(max time.Duration) time.Duration {
	if max > 0 {
		return max
	}
	return time.Second
}
