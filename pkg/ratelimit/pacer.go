package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// DefaultRequestsPerSecond is Etsy's documented per-key request rate.
const DefaultRequestsPerSecond = 10

// Pacer spaces outbound requests so a single process stays under the
// per-second limit. It is safe for concurrent use.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer creates a pacer allowing rps requests per second.
// rps <= 0 disables pacing.
func NewPacer(rps float64) *Pacer {
	if rps <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Wait blocks until a request may be sent or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// Limit returns the configured rate in requests per second.
func (p *Pacer) Limit() float64 {
	return float64(p.limiter.Limit())
}
