package fetch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"pricetracker/internal/components/telemetry"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingTimer fires immediately and remembers every wait it was asked for.
type recordingTimer struct {
	waits []time.Duration
	c     chan time.Time
}

func (t *recordingTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.c = make(chan time.Time, 1)
	t.c <- time.Time{}
}

func (t *recordingTimer) Stop() {}

func (t *recordingTimer) C() <-chan time.Time {
	return t.c
}

type testSession struct {
	*Session
	timer  *recordingTimer
	pauses []time.Duration
	tel    *telemetry.Recorder
}

func newTestSession(t testing.TB, opts Options) *testSession {
	t.Helper()

	tel := &telemetry.Recorder{}
	session, err := NewSession(opts, tel)
	require.NoError(t, err)

	ts := &testSession{Session: session, timer: &recordingTimer{}, tel: tel}
	session.timer = ts.timer
	session.sleep = func(_ context.Context, d time.Duration) error {
		ts.pauses = append(ts.pauses, d)
		return nil
	}
	session.uniform = rand.New(rand.NewPCG(1, 2)).Float64
	return ts
}

// statusServer answers with the given statuses in order, repeating the last one.
func statusServer(t testing.TB, statuses ...int) (*httptest.Server, *int64) {
	t.Helper()

	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&hits, 1)
		idx := min(int(n)-1, len(statuses)-1)
		w.WriteHeader(statuses[idx])
		fmt.Fprint(w, "<html><head><title>Product</title></head></html>")
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestGetRetriesTransientStatus(t *testing.T) {
	srv, hits := statusServer(t, http.StatusInternalServerError)
	session := newTestSession(t, DefaultOptions())

	_, err := session.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.True(t, IsStatus(err, http.StatusInternalServerError))
	require.Equal(t, int64(3), atomic.LoadInt64(hits))
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, session.timer.waits)
	require.Len(t, session.tel.Reports("warning"), 2)
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	srv, hits := statusServer(t, http.StatusNotFound)
	session := newTestSession(t, DefaultOptions())

	res, err := session.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.True(t, IsStatus(err, http.StatusNotFound))
	require.Equal(t, http.StatusNotFound, res.StatusCode())
	require.Equal(t, int64(1), atomic.LoadInt64(hits))
	require.Empty(t, session.timer.waits)
}

func TestGetRetryStatusSet(t *testing.T) {
	testCases := []struct {
		status   int
		attempts int64
	}{
		{status: http.StatusTooManyRequests, attempts: 3},
		{status: http.StatusInternalServerError, attempts: 3},
		{status: http.StatusBadGateway, attempts: 3},
		{status: http.StatusServiceUnavailable, attempts: 3},
		{status: http.StatusGatewayTimeout, attempts: 3},
		{status: http.StatusBadRequest, attempts: 1},
		{status: http.StatusUnauthorized, attempts: 1},
		{status: http.StatusForbidden, attempts: 1},
		{status: http.StatusNotFound, attempts: 1},
		{status: http.StatusNotImplemented, attempts: 1},
	}

	for _, test := range testCases {
		t.Run(http.StatusText(test.status), func(t *testing.T) {
			srv, hits := statusServer(t, test.status)
			session := newTestSession(t, DefaultOptions())

			_, err := session.Get(context.Background(), srv.URL)
			require.Error(t, err)
			require.Equal(t, test.attempts, atomic.LoadInt64(hits))
		})
	}
}

func TestGetRecoversAfterTransientFailures(t *testing.T) {
	srv, hits := statusServer(
		t,
		http.StatusServiceUnavailable,
		http.StatusTooManyRequests,
		http.StatusOK,
	)
	session := newTestSession(t, DefaultOptions())

	res, err := session.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode())
	require.Equal(t, int64(3), atomic.LoadInt64(hits))
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, session.timer.waits)
}

func TestGetBackoffDoubles(t *testing.T) {
	srv, hits := statusServer(t, http.StatusBadGateway)
	opts := DefaultOptions()
	opts.MaxAttempts = 5
	opts.BackoffFactor = 500 * time.Millisecond
	session := newTestSession(t, opts)

	_, err := session.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.Equal(t, int64(5), atomic.LoadInt64(hits))
	require.Equal(t, []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
	}, session.timer.waits)
}

func TestGetIgnoresRetryAfter(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	session := newTestSession(t, DefaultOptions())

	_, err := session.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, session.timer.waits)
}

func TestGetRetriesTransportErrors(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	session := newTestSession(t, DefaultOptions())

	_, err := session.Get(context.Background(), url)
	require.Error(t, err)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, session.timer.waits)
	require.NotEmpty(t, session.tel.Reports("broken"))
}

func TestGetStopsWhenCancelled(t *testing.T) {
	srv, hits := statusServer(t, http.StatusInternalServerError)
	session := newTestSession(t, DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := session.Get(ctx, srv.URL)
	require.ErrorIs(t, err, context.Canceled)
	require.LessOrEqual(t, atomic.LoadInt64(hits), int64(1))
}

func TestPauseStaysWithinBounds(t *testing.T) {
	session := newTestSession(t, DefaultOptions())

	for range 500 {
		d, err := session.Pause(context.Background())
		require.NoError(t, err)
		require.GreaterOrEqual(t, d, time.Second)
		require.LessOrEqual(t, d, 3*time.Second)
	}
	require.Len(t, session.pauses, 500)

	opts := DefaultOptions()
	opts.MinDelay = 250 * time.Millisecond
	opts.MaxDelay = 250 * time.Millisecond
	fixed := newTestSession(t, opts)
	d, err := fixed.Pause(context.Background())
	require.NoError(t, err)
	require.Equal(t, 250*time.Millisecond, d)
}

func TestPauseDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.MinDelay = 0
	opts.MaxDelay = 0
	session := newTestSession(t, opts)

	d, err := session.Pause(context.Background())
	require.NoError(t, err)
	require.Zero(t, d)
	require.Empty(t, session.pauses)
}

func TestPauseHonorsContext(t *testing.T) {
	session, err := NewSession(DefaultOptions(), &telemetry.Recorder{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err = session.Pause(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}

func TestFetch(t *testing.T) {
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		fmt.Fprint(w, `<html><head><title>Sample Product</title></head><body><span class="price">R$ 1.234,56</span></body></html>`)
	}))
	defer srv.Close()

	session := newTestSession(t, DefaultOptions())
	page, err := session.Fetch(context.Background(), srv.URL+"/product/1")
	require.NoError(t, err)
	require.Len(t, session.pauses, 1)

	require.Equal(t, http.StatusOK, page.StatusCode)
	require.Equal(t, srv.URL+"/product/1", page.URL)
	require.Equal(t, "Sample Product", page.Document.Find("title").Text())
	require.Equal(t, "R$ 1.234,56", page.Document.Find(".price").Text())

	require.Equal(t, DefaultHeaders()["User-Agent"], header.Get("User-Agent"))
	require.Equal(t, "en-US,en;q=0.9", header.Get("Accept-Language"))
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())

	invalid := []func(o *Options){
		func(o *Options) { o.MinDelay = -time.Second },
		func(o *Options) { o.MaxDelay = 0 },
		func(o *Options) { o.Timeout = 0 },
		func(o *Options) { o.MaxAttempts = 0 },
		func(o *Options) { o.BackoffFactor = -time.Second },
		func(o *Options) { o.RequestsPerSecond = -1 },
	}
	for i, mutate := range invalid {
		opts := DefaultOptions()
		mutate(&opts)
		require.Error(t, opts.Validate(), "case %d", i)

		_, err := NewSession(opts, &telemetry.Recorder{})
		require.Error(t, err, "case %d", i)
	}
}
