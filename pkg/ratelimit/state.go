// Package ratelimit tracks the Etsy API request quota and paces outbound requests.
// Quota state comes from the X-RateLimit-Limit and X-RateLimit-Remaining headers
// that Etsy attaches to every response, and can be shared between processes
// using the same API key through Redis.
package ratelimit

import (
	"time"
)

// Header names carrying the quota for the API key.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
)

// Quota thresholds as a fraction of the window limit.
const (
	// QuotaThresholdLow marks the quota as low when remaining falls below this fraction.
	QuotaThresholdLow = 0.05

	// QuotaThresholdHealthy marks the quota as healthy at or above this fraction.
	QuotaThresholdHealthy = 0.20
)

// QuotaState is the last observed request quota for an API key.
type QuotaState struct {
	// Limit is the number of requests allowed in the current window.
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the current window.
	Remaining int `json:"remaining"`

	// LastUpdate is when the headers were observed.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= QuotaThresholdHealthy * Limit.
	IsHealthy bool `json:"is_healthy"`
}

// fraction returns Remaining/Limit, or 1 when the limit is unknown.
func (s *QuotaState) fraction() float64 {
	if s.Limit <= 0 {
		return 1
	}
	return float64(s.Remaining) / float64(s.Limit)
}

// IsExhausted returns true if no requests remain in the window.
func (s *QuotaState) IsExhausted() bool {
	return s.Limit > 0 && s.Remaining <= 0
}

// IsLow returns true if the remaining quota is below QuotaThresholdLow.
func (s *QuotaState) IsLow() bool {
	return s.fraction() < QuotaThresholdLow
}

// IsStale returns true if the state is older than maxAge.
func (s *QuotaState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// UpdateHealth updates IsHealthy from the current Remaining and Limit.
func (s *QuotaState) UpdateHealth() {
	s.IsHealthy = s.fraction() >= QuotaThresholdHealthy
}
