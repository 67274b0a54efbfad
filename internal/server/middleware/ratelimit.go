package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimitByIP returns an HTTP middleware limiting requests per client IP
// using a sliding window. Key issuance is the only unauthenticated mutating
// endpoint, so it carries this limit to slow down bulk account creation.
func RateLimitByIP(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}

// RateLimitByKey returns an HTTP middleware limiting requests per presented
// credential. Requests without the header share one bucket.
func RateLimitByKey(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return r.Header.Get(HeaderAPIKey), nil
		}),
	)
}
