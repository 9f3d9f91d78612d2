package resilience

import (
	"cmp"
	"time"
)

// CircuitBreakerConfig mirrors the LEDGER_CIRCUIT_* settings. Enabled is
// read by callers; the breaker itself is always armed.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 15 * time.Second
	defaultHalfOpenMaxReq   = 2
)

// withDefaults replaces non-positive limits.
func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	c.FailureThreshold = cmp.Or(max(c.FailureThreshold, 0), defaultFailureThreshold)
	c.OpenTimeout = cmp.Or(max(c.OpenTimeout, 0), defaultOpenTimeout)
	c.HalfOpenMaxReq = cmp.Or(max(c.HalfOpenMaxReq, 0), defaultHalfOpenMaxReq)
	return c
}
