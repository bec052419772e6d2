package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/etsy-terms/pkg/metrics"
)

// Prometheus metrics for quota tracking.
var (
	etsyQuotaRemaining = promauto.With(metrics.Registry).NewGauge(prometheus.GaugeOpts{
		Name: "etsy_quota_remaining",
		Help: "Requests remaining in the current Etsy quota window",
	})

	etsyQuotaLowTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "etsy_quota_low_total",
		Help: "Total number of responses observed while the Etsy quota was low",
	})

	etsyQuotaBlocksTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "etsy_quota_blocks_total",
		Help: "Total number of requests held back because the Etsy quota was exhausted",
	})
)

// DefaultExhaustedHold is how long an exhausted quota blocks requests before
// one is let through to refresh the state.
const DefaultExhaustedHold = 10 * time.Second

// Tracker records the Etsy request quota observed on responses.
type Tracker struct {
	store  Store
	hold   time.Duration
	logger zerolog.Logger
}

// NewTracker creates a new quota tracker. A nil store falls back to memory.
func NewTracker(store Store, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Tracker{
		store:  store,
		hold:   DefaultExhaustedHold,
		logger: logger,
	}
}

// SetExhaustedHold changes how long an exhausted quota blocks requests.
func (t *Tracker) SetExhaustedHold(d time.Duration) {
	t.hold = d
}

// ShouldAllowRequest reports whether a request may be sent.
// It returns false while the last observed quota, possibly recorded by another
// process sharing the store, is exhausted and younger than the hold period.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.State(ctx)
	if err != nil {
		return false, err
	}

	if state.IsExhausted() && !state.IsStale(t.hold) {
		t.logger.Warn().
			Int("limit", state.Limit).
			Int("remaining", state.Remaining).
			Time("last_update", state.LastUpdate).
			Msg("Etsy quota exhausted - holding request")
		etsyQuotaBlocksTotal.Inc()
		return false, nil
	}

	return true, nil
}

// State returns the last observed quota state.
// Returns a healthy state with unknown limit if nothing has been observed.
func (t *Tracker) State(ctx context.Context) (*QuotaState, error) {
	state, err := t.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get quota state: %w", err)
	}

	if state == nil {
		t.logger.Debug().Msg("No quota state recorded, returning default healthy state")
		return &QuotaState{
			LastUpdate: time.Now(),
			IsHealthy:  true,
		}, nil
	}

	state.UpdateHealth()
	return state, nil
}

// UpdateFromHeaders parses the quota headers and stores the new state.
// Responses without quota headers are ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(HeaderRemaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", HeaderRemaining, err)
	}

	limit := 0
	if limitStr := headers.Get(HeaderLimit); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return fmt.Errorf("parse %s header: %w", HeaderLimit, err)
		}
	}

	state := &QuotaState{
		Limit:      limit,
		Remaining:  remain,
		LastUpdate: time.Now(),
	}
	state.UpdateHealth()

	if err := t.store.Set(ctx, state); err != nil {
		return fmt.Errorf("store quota state: %w", err)
	}

	etsyQuotaRemaining.Set(float64(remain))

	switch {
	case state.IsExhausted():
		etsyQuotaLowTotal.Inc()
		t.logger.Error().
			Int("limit", limit).
			Int("remaining", remain).
			Msg("Etsy quota exhausted - requests will be rejected until the window resets")
	case state.IsLow():
		etsyQuotaLowTotal.Inc()
		t.logger.Warn().
			Int("limit", limit).
			Int("remaining", remain).
			Msg("Etsy quota low")
	default:
		t.logger.Debug().
			Int("limit", limit).
			Int("remaining", remain).
			Bool("is_healthy", state.IsHealthy).
			Msg("Etsy quota state updated")
	}

	return nil
}
