// Package fetch implements a polite HTTP session for scraping product pages:
// a random pause before every page, browser-like headers, and bounded
// exponential retries on transient failures.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"pricetracker/internal/assert"
	"pricetracker/internal/components/telemetry"
	"pricetracker/lib/restyutil"
	"pricetracker/lib/tracing"
	"slices"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
)

const (
	report_session_pause = "session.pause"
	report_session_get   = "session.get"
)

const instrumentationName = "pricetracker/internal/fetch"

// StatusError is returned when the server answers with a non-success status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Page is a successfully fetched and parsed HTML page.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Document   *goquery.Document
}

// Session is an HTTP client bound to a fetch policy. It is meant to be used by
// one caller at a time, fetches are sequential.
type Session struct {
	http *resty.Client
	opts Options
	tel  telemetry.API

	// replaced in tests
	sleep   func(ctx context.Context, d time.Duration) error
	timer   backoff.Timer
	uniform func() float64

	attempts metric.Int64Counter
	failures metric.Int64Counter
}

func NewSession(opts Options, tel telemetry.API) (*Session, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("fetch", tel)

	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetTimeout(opts.Timeout)
	for key, value := range opts.Headers {
		client.SetHeader(key, value)
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	// burst 1 means requests are spaced out, never dropped
	limiter := rate.NewLimiter(limit, 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return limiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, tel)
	tracing.InstrumentResty(client, instrumentationName)

	if opts.DumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(opts.DumpDir)
		if err != nil {
			return nil, fmt.Errorf("create dump dir: %w", err)
		}
		restyutil.DumpResponses(client, output)
	}

	meter := otel.Meter(instrumentationName)
	attempts, err := meter.Int64Counter(
		"fetch.attempts",
		metric.WithDescription("HTTP GET attempts, retries included"),
	)
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter(
		"fetch.failures",
		metric.WithDescription("GETs that failed after exhausting the retry policy"),
	)
	if err != nil {
		return nil, err
	}

	return &Session{
		http:     client,
		opts:     opts,
		tel:      tel,
		sleep:    sleepContext,
		uniform:  rand.Float64,
		attempts: attempts,
		failures: failures,
	}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Options returns the policy the session was created with.
func (s *Session) Options() Options {
	return s.opts
}

// Pause blocks for a duration drawn uniformly from [MinDelay, MaxDelay] and
// returns that duration. It returns early with the context's error if ctx is done.
func (s *Session) Pause(ctx context.Context) (time.Duration, error) {
	d := s.opts.MinDelay
	if spread := s.opts.MaxDelay - s.opts.MinDelay; spread > 0 {
		d += time.Duration(s.uniform() * float64(spread))
	}
	if d <= 0 {
		return 0, nil
	}
	s.tel.ReportDebug(report_session_pause, d.String())
	return d, s.sleep(ctx, d)
}

func (s *Session) retryable(status int) bool {
	return slices.Contains(s.opts.RetryStatuses, status)
}

func (s *Session) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.BackoffFactor
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 0
	b.Reset()
	return backoff.WithMaxRetries(
		backoff.WithContext(b, ctx),
		uint64(s.opts.MaxAttempts-1),
	)
}

// Get issues a GET under the retry policy. Transport errors and the
// configured retry statuses are retried, any other non-success status fails
// immediately. The response of the last attempt is returned when there is one.
func (s *Session) Get(ctx context.Context, url string) (*resty.Response, error) {
	var res *resty.Response
	attempt := 0

	operation := func() error {
		attempt++
		s.attempts.Add(ctx, 1)

		r, err := s.http.R().SetContext(ctx).Get(url)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("attempt %d: %w", attempt, err)
		}
		res = r
		if r.IsSuccess() {
			return nil
		}

		statusErr := StatusError{URL: url, StatusCode: r.StatusCode()}
		if s.retryable(r.StatusCode()) {
			return statusErr
		}
		return backoff.Permanent(statusErr)
	}
	notify := func(err error, wait time.Duration) {
		s.tel.ReportWarning(report_session_get, err, "retrying in", wait.String())
	}

	err := backoff.RetryNotifyWithTimer(operation, s.newBackOff(ctx), notify, s.timer)
	if err != nil {
		s.failures.Add(ctx, 1, metric.WithAttributes(attribute.Int("attempts", attempt)))
		return res, err
	}
	return res, nil
}

// Fetch pauses, GETs `url` and parses the response body as HTML.
func (s *Session) Fetch(ctx context.Context, url string) (Page, error) {
	_, err := s.Pause(ctx)
	if err != nil {
		return Page{}, err
	}

	res, err := s.Get(ctx, url)
	if err != nil {
		return Page{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	return Page{
		URL:        url,
		StatusCode: res.StatusCode(),
		Body:       res.Body(),
		Document:   doc,
	}, nil
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, status int) bool {
	var statusErr StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == status
}
