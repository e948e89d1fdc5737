package fetch

import (
	"fmt"
	"net/http"
	"time"
)

// DefaultHeaders is the browser-like header set sent with every request.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		"Accept-Language": "en-US,en;q=0.9",
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Encoding": "gzip, deflate, br",
	}
}

// DefaultRetryStatuses are the status codes that are considered transient.
func DefaultRetryStatuses() []int {
	return []int{
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	}
}

// Options is the fetch policy of a Session.
type Options struct {
	// MinDelay and MaxDelay bound the random pause taken before every fetch.
	MinDelay time.Duration
	MaxDelay time.Duration
	// Timeout applies to each attempt separately.
	Timeout time.Duration
	// MaxAttempts counts the first request, 3 means at most 2 retries.
	MaxAttempts int
	// BackoffFactor is the wait before the first retry, every later wait doubles.
	BackoffFactor time.Duration
	RetryStatuses []int
	Headers       map[string]string
	// RequestsPerSecond caps the request rate of the session, 0 means no cap.
	RequestsPerSecond float64
	// DumpDir, when set, receives a text dump of every HTTP exchange.
	DumpDir string
}

func DefaultOptions() Options {
	return Options{
		MinDelay:      time.Second,
		MaxDelay:      3 * time.Second,
		Timeout:       10 * time.Second,
		MaxAttempts:   3,
		BackoffFactor: time.Second,
		RetryStatuses: DefaultRetryStatuses(),
		Headers:       DefaultHeaders(),
	}
}

func (o Options) Validate() error {
	if o.MinDelay < 0 {
		return fmt.Errorf("min delay must be non-negative, got %s", o.MinDelay)
	}
	if o.MaxDelay < o.MinDelay {
		return fmt.Errorf("max delay %s is smaller than min delay %s", o.MaxDelay, o.MinDelay)
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", o.Timeout)
	}
	if o.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", o.MaxAttempts)
	}
	if o.BackoffFactor < 0 {
		return fmt.Errorf("backoff factor must be non-negative, got %s", o.BackoffFactor)
	}
	if o.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must be non-negative, got %v", o.RequestsPerSecond)
	}
	return nil
}
