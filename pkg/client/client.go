// Package client provides the Etsy API client used to collect shop listings,
// with request pacing, quota tracking, rate limit retries and pagination.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/etsy-terms/pkg/listing"
	"github.com/Sternrassler/etsy-terms/pkg/logging"
	"github.com/Sternrassler/etsy-terms/pkg/metrics"
	"github.com/Sternrassler/etsy-terms/pkg/pagination"
	"github.com/Sternrassler/etsy-terms/pkg/ratelimit"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for Etsy client operations.
var (
	etsyRequestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "etsy_requests_total",
		Help: "Total Etsy requests by endpoint and status",
	}, []string{"endpoint", "status"})

	etsyRequestDuration = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etsy_request_duration_seconds",
		Help:    "Etsy request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	etsyErrorsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "etsy_errors_total",
		Help: "Total Etsy errors by class",
	}, []string{"class"})

	etsyPagesFetchedTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "etsy_pages_fetched_total",
		Help: "Total listing pages fetched",
	})
)

// Endpoint labels used in metrics and operation names.
const (
	endpointShop           = "shop"
	endpointActiveListings = "listings_active"
)

// DefaultBaseURL is the Etsy v2 API root.
const DefaultBaseURL = "https://openapi.etsy.com/v2"

// maxErrorBodyBytes bounds how much of an error body is read for the detail message.
const maxErrorBodyBytes = 4096

// Client is the Etsy API client.
type Client struct {
	httpClient *http.Client
	tracker    *ratelimit.Tracker
	pacer      *ratelimit.Pacer
	retrier    *Retrier
	classify   Classifier
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root, without trailing slash
	BaseURL string

	// APIKey is the static Etsy API key (REQUIRED)
	APIKey string

	// Pagination
	PageLimit int // Listings per page, 1..100

	// Retry (rate limit only)
	MaxAttempts    int
	InitialBackoff time.Duration

	// Pacing
	RequestsPerSecond float64 // 0 disables client-side pacing

	// HTTP
	HTTPTimeout time.Duration

	// Redis client for sharing quota state between processes (optional)
	Redis *redis.Client

	// Logger overrides the component logger (optional)
	Logger *zerolog.Logger
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(apiKey string) Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		APIKey:            apiKey,
		PageLimit:         pagination.DefaultLimit,
		MaxAttempts:       DefaultRetryConfig().MaxAttempts,
		InitialBackoff:    DefaultRetryConfig().InitialBackoff,
		RequestsPerSecond: ratelimit.DefaultRequestsPerSecond,
		HTTPTimeout:       30 * time.Second,
	}
}

// New creates a new Etsy client.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	if cfg.PageLimit < 1 || cfg.PageLimit > pagination.DefaultLimit {
		return nil, fmt.Errorf("page_limit must be between 1 and %d (got %d)", pagination.DefaultLimit, cfg.PageLimit)
	}

	if cfg.MaxAttempts < 1 || cfg.MaxAttempts > MaxAttemptsLimit {
		return nil, fmt.Errorf("max_attempts must be between 1 and %d (got %d)", MaxAttemptsLimit, cfg.MaxAttempts)
	}

	if cfg.InitialBackoff <= 0 {
		return nil, fmt.Errorf("initial_backoff must be > 0 (got %s)", cfg.InitialBackoff)
	}

	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests_per_second must be >= 0 (got %v)", cfg.RequestsPerSecond)
	}

	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	// Initialize logger
	logger := logging.NewLogger("etsy-client")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	// Quota state is shared through Redis when configured
	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.Redis != nil {
		store = ratelimit.NewRedisStore(cfg.Redis, cfg.APIKey)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		tracker: ratelimit.NewTracker(store, logger),
		pacer:   ratelimit.NewPacer(cfg.RequestsPerSecond),
		retrier: NewRetrier(RetryConfig{
			MaxAttempts:    cfg.MaxAttempts,
			InitialBackoff: cfg.InitialBackoff,
		}, logger),
		classify: ClassifyResponse,
		config:   cfg,
		logger:   logger,
	}, nil
}

// get performs one GET request and returns the body of a 200 response.
// Any other response is turned into an error by the classifier.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	startTime := time.Now()
	defer func() {
		etsyRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	allowed, err := c.tracker.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Quota check failed")
		return nil, fmt.Errorf("quota check: %w", err)
	}
	if !allowed {
		etsyRequestsTotal.WithLabelValues(endpoint, "blocked").Inc()
		etsyErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
		return nil, fmt.Errorf("%w: quota exhausted, request held back", ErrRateLimitExceeded)
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for request slot: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.config.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("endpoint", endpoint).
		Str("path", path).
		Msg("Executing Etsy request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		etsyErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		etsyRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	etsyRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if err := c.tracker.UpdateFromHeaders(ctx, resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update quota from headers")
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		classErr := c.classify(resp.StatusCode, resp.Header, body)
		if classErr == nil {
			classErr = &APIError{StatusCode: resp.StatusCode, Detail: resp.Status}
		}

		errClass := classOf(classErr)
		etsyErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Etsy request error")
		return nil, classErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		etsyErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

// decodeError wraps a body that does not match the expected schema.
func decodeError(err error) error {
	etsyErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
	return fmt.Errorf("%w: decode response: %v", ErrMalformedRecord, err)
}

// envelopeError reports a response missing one of its top-level blocks.
func envelopeError(field string) error {
	etsyErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
	return &listing.MalformedRecordError{Index: listing.EnvelopeIndex, Field: field}
}

// shopListingsResponse is the body of /shops/{shop_id}/listings/active.
// Results and Pagination are pointers so a missing block is told apart from an empty one.
type shopListingsResponse struct {
	Count      int                    `json:"count"`
	Results    *[]json.RawMessage     `json:"results"`
	Pagination *pagination.Pagination `json:"pagination"`
}

// shopResponse is the body of /shops/{shop_id}.
type shopResponse struct {
	Results []struct {
		ListingActiveCount *int `json:"listing_active_count"`
	} `json:"results"`
}

func shopPath(shopID string) string {
	return "/shops/" + url.PathEscape(shopID)
}

// GetShopListingsPage fetches a single page of active listings, retrying on rate limits.
func (c *Client) GetShopListingsPage(ctx context.Context, shopID string, limit, offset int) (*pagination.Page[listing.Listing], error) {
	op := Operation{Name: "GetShopListingsPage", Args: []any{shopID, limit, offset}}

	return Retry(ctx, c.retrier, op, func(ctx context.Context) (*pagination.Page[listing.Listing], error) {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(limit))
		params.Set("offset", strconv.Itoa(offset))

		body, err := c.get(ctx, endpointActiveListings, shopPath(shopID)+"/listings/active", params)
		if err != nil {
			return nil, err
		}

		var raw shopListingsResponse
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, decodeError(err)
		}

		if raw.Results == nil {
			return nil, envelopeError("results")
		}
		if raw.Pagination == nil {
			return nil, envelopeError("pagination")
		}

		listings, err := listing.DecodeAll(*raw.Results)
		if err != nil {
			etsyErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
			return nil, err
		}

		if raw.Pagination.EffectiveLimit > 0 && len(listings) > raw.Pagination.EffectiveLimit {
			c.logger.Warn().
				Str("shop_id", shopID).
				Int("results", len(listings)).
				Int("effective_limit", raw.Pagination.EffectiveLimit).
				Msg("Page holds more results than its effective limit")
		}

		etsyPagesFetchedTotal.Inc()
		return &pagination.Page[listing.Listing]{
			Count:      raw.Count,
			Results:    listings,
			Pagination: *raw.Pagination,
		}, nil
	})
}

// GetShopListingActiveCount returns the number of active listings of a shop, retrying on rate limits.
func (c *Client) GetShopListingActiveCount(ctx context.Context, shopID string) (int, error) {
	op := Operation{Name: "GetShopListingActiveCount", Args: []any{shopID}}

	return Retry(ctx, c.retrier, op, func(ctx context.Context) (int, error) {
		body, err := c.get(ctx, endpointShop, shopPath(shopID), nil)
		if err != nil {
			return 0, err
		}

		var raw shopResponse
		if err := json.Unmarshal(body, &raw); err != nil {
			return 0, decodeError(err)
		}
		if len(raw.Results) == 0 {
			return 0, &listing.MalformedRecordError{Index: 0, Field: "results"}
		}
		if raw.Results[0].ListingActiveCount == nil {
			return 0, &listing.MalformedRecordError{Index: 0, Field: "listing_active_count"}
		}

		return *raw.Results[0].ListingActiveCount, nil
	})
}

// GetShopListings fetches every active listing of a shop, following the
// pagination chain until the last page. Either all listings are returned
// or an error; partial results are discarded.
func (c *Client) GetShopListings(ctx context.Context, shopID string) ([]listing.Listing, error) {
	logger := c.logger.With().
		Str("shop_id", shopID).
		Str("fetch_id", uuid.NewString()).
		Logger()

	if c.infoEnabled() {
		count, err := c.GetShopListingActiveCount(ctx, shopID)
		if err != nil {
			logger.Warn().Err(err).Msg("Could not retrieve active listing count")
		} else {
			logger.Info().Int("listing_active_count", count).
				Msgf("Retrieving %d active listings for shop %s", count, shopID)
		}
	}

	start := time.Now()
	listings, err := pagination.FetchAll(ctx, c.config.PageLimit, func(ctx context.Context, limit, offset int) (*pagination.Page[listing.Listing], error) {
		return c.GetShopListingsPage(ctx, shopID, limit, offset)
	})
	if err != nil {
		logger.Error().Err(err).Msg("Fetching shop listings failed")
		return nil, fmt.Errorf("get listings for shop %s: %w", shopID, err)
	}

	logger.Info().
		Int("listings", len(listings)).
		Dur("duration", time.Since(start)).
		Msg("Shop listings fetched")

	return listings, nil
}

// infoEnabled reports whether info events of the client logger are written.
func (c *Client) infoEnabled() bool {
	return c.logger.GetLevel() <= zerolog.InfoLevel && zerolog.GlobalLevel() <= zerolog.InfoLevel
}

// QuotaState returns the last observed request quota.
func (c *Client) QuotaState(ctx context.Context) (*ratelimit.QuotaState, error) {
	return c.tracker.State(ctx)
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetSleep replaces the backoff wait (for testing).
func (c *Client) SetSleep(sleep SleepFunc) {
	c.retrier.sleep = sleep
}

// SetClassifier replaces the response classifier.
func (c *Client) SetClassifier(classify Classifier) {
	c.classify = classify
}
