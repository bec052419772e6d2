// Package testutil provides testing utilities for the Etsy client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockEtsyResponse defines the behavior for a mock Etsy endpoint response.
type MockEtsyResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockEtsy is a configurable mock Etsy v2 server for testing.
type MockEtsy struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount int
	Requests     []*url.URL
}

// NewMockEtsy creates a new mock Etsy server.
func NewMockEtsy() *MockEtsy {
	mock := &MockEtsy{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		u := *r.URL
		mock.Requests = append(mock.Requests, &u)
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		writeResponse(w, NewNotFoundResponse())
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockEtsy) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockEtsy) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockEtsy) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.Requests = nil
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockEtsy) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetRequests returns copies of the request URLs in arrival order.
func (m *MockEtsy) GetRequests() []*url.URL {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*url.URL, len(m.Requests))
	copy(out, m.Requests)
	return out
}

// SetHandler sets a custom handler for a specific path.
func (m *MockEtsy) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockEtsy) SetResponse(path string, resp MockEtsyResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		writeResponse(w, resp)
	})
}

// SetSequence serves the responses in order; the last one repeats.
func (m *MockEtsy) SetSequence(path string, resps ...MockEtsyResponse) {
	var mu sync.Mutex
	next := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		resp := resps[next]
		if next < len(resps)-1 {
			next++
		}
		mu.Unlock()
		writeResponse(w, resp)
	})
}

// SetListingPages serves listing pages keyed by the offset query parameter.
func (m *MockEtsy) SetListingPages(shopID string, pages map[string]MockEtsyResponse) {
	m.SetHandler(ListingsPath(shopID), func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		resp, ok := pages[offset]
		if !ok {
			writeResponse(w, NewBadRequestResponse("Invalid offset "+offset))
			return
		}
		writeResponse(w, resp)
	})
}

// ShopPath returns the path of the shop endpoint.
func ShopPath(shopID string) string {
	return "/shops/" + shopID
}

// ListingsPath returns the path of the active listings endpoint.
func ListingsPath(shopID string) string {
	return "/shops/" + shopID + "/listings/active"
}

func writeResponse(w http.ResponseWriter, resp MockEtsyResponse) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewHealthyResponse creates a standard 200 OK response with quota headers.
func NewHealthyResponse(data string) MockEtsyResponse {
	return MockEtsyResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"X-RateLimit-Limit":     "10000",
			"X-RateLimit-Remaining": "9999",
			"Content-Type":          "application/json; charset=utf-8",
		},
	}
}

// NewQuotaExceededResponse creates the 400 Etsy returns when rate limited.
func NewQuotaExceededResponse() MockEtsyResponse {
	return MockEtsyResponse{
		StatusCode: http.StatusBadRequest,
		Body:       "You have exceeded your quota of: 10 requests per 1 second(s)",
		Headers: map[string]string{
			"X-Error-Detail":        "You have exceeded your quota of: 10 requests per 1 second(s)",
			"X-RateLimit-Limit":     "10000",
			"X-RateLimit-Remaining": "9000",
			"Content-Type":          "text/plain;charset=UTF-8",
		},
	}
}

// NewBadRequestResponse creates a 400 that is not rate limiting.
func NewBadRequestResponse(detail string) MockEtsyResponse {
	return MockEtsyResponse{
		StatusCode: http.StatusBadRequest,
		Body:       detail,
		Headers: map[string]string{
			"X-Error-Detail": detail,
			"Content-Type":   "text/plain;charset=UTF-8",
		},
	}
}

// NewNotFoundResponse creates a 404 response.
func NewNotFoundResponse() MockEtsyResponse {
	return MockEtsyResponse{
		StatusCode: http.StatusNotFound,
		Body:       "Resource not found",
		Headers: map[string]string{
			"X-Error-Detail": "Resource not found",
			"Content-Type":   "text/plain;charset=UTF-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockEtsyResponse {
	return MockEtsyResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal server error",
		Headers: map[string]string{
			"X-Error-Detail": "Internal server error",
			"Content-Type":   "text/plain;charset=UTF-8",
		},
	}
}
