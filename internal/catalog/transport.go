package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"pitchdna/internal/logging"
)

// ErrCircuitOpen is returned while the breaker rejects calls after repeated
// upstream failures.
var ErrCircuitOpen = errors.New("circuit breaker is open")

const maxBodyBytes = 64 << 20

// TransportOptions tunes the shared HTTP path of a catalog client.
type TransportOptions struct {
	Name              string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BreakerFailures   uint32
	BreakerOpen       time.Duration
}

func (o TransportOptions) withDefaults() TransportOptions {
	if o.Name == "" {
		o.Name = "catalog"
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Burst <= 0 {
		o.Burst = 1
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.InitialBackoff <= 0 {
		o.InitialBackoff = 500 * time.Millisecond
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 30 * time.Second
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = 5
	}
	if o.BreakerOpen <= 0 {
		o.BreakerOpen = 30 * time.Second
	}
	return o
}

// Transport performs rate limited GETs behind a circuit breaker and retries
// transient failures with exponential backoff.
type Transport struct {
	opts       TransportOptions
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewTransport builds a transport. A nil httpClient gets one with the
// configured timeout.
func NewTransport(opts TransportOptions, httpClient *http.Client, logger *slog.Logger) *Transport {
	opts = opts.withDefaults()
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	logger = logging.NewComponentLogger(logger, opts.Name)
	t := &Transport{
		opts:       opts,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, opts.Burst),
		logger:     logger,
	}
	t.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: 1,
		Timeout:     opts.BreakerOpen,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		// Client errors such as an unknown game are answers, not outages.
		IsSuccessful: func(err error) bool {
			return err == nil || !IsRetriable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.WarnWithContext(logger, "catalog circuit breaker changed state", "circuit_breaker",
				logging.String("breaker", name),
				logging.String("from", from.String()),
				logging.String("to", to.String()),
				logging.String(logging.FieldErrorHint, "check upstream availability"),
				logging.String(logging.FieldImpact, "requests fail fast while the breaker is open"),
			)
		},
	})
	return t
}

// Get fetches endpoint and returns the response body.
func (t *Transport) Get(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= t.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := backoffFor(attempt-1, t.opts.InitialBackoff, t.opts.MaxBackoff)
			t.logger.Debug("retrying catalog request",
				logging.Int("attempt", attempt),
				logging.Duration("backoff", wait),
				logging.Error(lastErr),
			)
			if err := SleepWithContext(ctx, wait); err != nil {
				return nil, err
			}
		}
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
		body, err := t.breaker.Execute(func() (interface{}, error) {
			return t.do(ctx, endpoint)
		})
		if err == nil {
			return body.([]byte), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%s: %w", t.opts.Name, ErrCircuitOpen)
		}
		lastErr = err
		if ctx.Err() != nil || !IsRetriable(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%s: giving up after %d attempts: %w", t.opts.Name, t.opts.MaxRetries+1, lastErr)
}

// State reports the breaker state.
func (t *Transport) State() string {
	return t.breaker.State().String()
}

func (t *Transport) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "pitchdna/1")

	requestStart := time.Now()
	resp, err := t.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Service: t.opts.Name, StatusCode: resp.StatusCode, Latency: latency}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response (latency=%v): %w", latency, err)
	}
	t.logger.Debug("catalog request complete",
		logging.String("url", endpoint),
		logging.Duration("latency", latency),
		logging.Int("bytes", len(body)),
	)
	return body, nil
}
