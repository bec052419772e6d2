package client

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Sternrassler/etsy-terms/pkg/listing"
)

// HeaderErrorDetail carries Etsy's human readable error message.
const HeaderErrorDetail = "X-Error-Detail"

// QuotaExceededPrefix starts the error detail of a rate limited request.
const QuotaExceededPrefix = "You have exceeded your quota"

// ErrorClass represents a classification of request errors.
type ErrorClass string

const (
	// ErrorClassRateLimit represents a 400 carrying the quota exceeded message.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassAPI represents any other non-200 response.
	ErrorClassAPI ErrorClass = "api"

	// ErrorClassNetwork represents transport errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents responses that do not match the expected schema.
	ErrorClassDecode ErrorClass = "decode"
)

// Classifier turns a received response into nil (success) or an error.
type Classifier func(statusCode int, header http.Header, body []byte) error

// ClassifyResponse is the default Classifier.
//
// Etsy returns a 400 when the rate limit is exceeded, the same status used for
// malformed requests. The only way to tell them apart is the message in the
// X-Error-Detail header.
func ClassifyResponse(statusCode int, header http.Header, body []byte) error {
	if statusCode == http.StatusOK {
		return nil
	}

	detail := header.Get(HeaderErrorDetail)
	if detail == "" {
		detail = strings.TrimSpace(string(body))
	}

	if statusCode == http.StatusBadRequest && strings.HasPrefix(detail, QuotaExceededPrefix) {
		return ErrRateLimitExceeded
	}

	return &APIError{
		StatusCode: statusCode,
		Detail:     detail,
	}
}

// classOf maps an error to its class for metrics and logging.
func classOf(err error) ErrorClass {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrRateLimitExceeded):
		return ErrorClassRateLimit
	case errors.As(err, &apiErr):
		return ErrorClassAPI
	case errors.Is(err, listing.ErrMalformedRecord):
		return ErrorClassDecode
	default:
		return ErrorClassNetwork
	}
}
