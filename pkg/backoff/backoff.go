// Package backoff computes retry intervals for reconnect loops.
package backoff

import (
	"math/rand"
	"time"
)

// Next grows current by half, capped at max.
func Next(current, max time.Duration) time.Duration {
	next := time.Duration(float64(current) * 1.5)
	if next > max {
		next = max
	}
	return next
}

// Jitter spreads interval by up to 20% either way, never going below min.
func Jitter(interval, min time.Duration) time.Duration {
	jitterRange := float64(interval) * 0.2
	jitter := (rand.Float64() - 0.5) * 2 * jitterRange
	result := time.Duration(float64(interval) + jitter)
	if result < min {
		result = min
	}
	return result
}
