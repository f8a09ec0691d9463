// Copyright (c) 2023 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package httpclient builds the [http.Client] used by exporters which
// speak OTLP over HTTP, optionally with request retries and a circuit breaker.
package httpclient

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// RetryConfig configures request retries. Retries happen in addition to
// any retries the exporter itself performs.
type RetryConfig struct {
	Enabled     bool          `config:"enabled"`
	MaxAttempts int           `config:"max_attempts"`
	MinWait     time.Duration `config:"min_wait"`
	MaxWait     time.Duration `config:"max_wait"`
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	Enabled bool `config:"enabled"`

	// MaxRequests is the maximum number of requests allowed to pass through
	// when the circuit is half-open.
	MaxRequests uint32 `config:"max_requests"`

	// Interval is the cyclic period of the closed state after which the
	// failure counts are cleared. Zero never clears them.
	Interval time.Duration `config:"interval"`

	// Timeout is the period of the open state, after which the circuit
	// becomes half-open.
	Timeout time.Duration `config:"timeout"`

	// TripCount is the number of consecutive failures which opens the circuit.
	TripCount uint32 `config:"trip_count"`

	// StatusCodes are the response status codes counted as failures.
	StatusCodes []int `config:"status_codes"`
}

// Config is the "http_client" block accepted by OTLP/HTTP exporters.
type Config struct {
	Timeout        time.Duration        `config:"timeout"`
	Retry          RetryConfig          `config:"retry"`
	CircuitBreaker CircuitBreakerConfig `config:"circuit_breaker"`
}

// IsZero reports whether nothing was configured, in which case
// the exporter's own client should be used.
func (cfg Config) IsZero() bool {
	return cfg.Timeout == 0 && !cfg.Retry.Enabled && !cfg.CircuitBreaker.Enabled
}

type options struct {
	logger    *zap.Logger
	name      string
	transport http.RoundTripper
}

// Option customizes a client built by [New].
type Option func(*options)

// Logger sets the logger for retry attempts and circuit state changes.
func Logger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Name names the circuit breaker and the logger it reports through.
func Name(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Transport sets the innermost round tripper.
func Transport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// New returns an [http.Client] configured by cfg.
func New(cfg Config, opts ...Option) *http.Client {
	o := &options{
		logger:    zap.NewNop(),
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(o)
	}

	rt := o.transport
	if cfg.CircuitBreaker.Enabled {
		rt = newCircuitRoundTripper(rt, cfg.CircuitBreaker, o.logger.Named(o.name))
	}

	c := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: rt,
	}
	if !cfg.Retry.Enabled {
		return c
	}

	retry := cfg.Retry
	if retry.MinWait == 0 {
		retry.MinWait = 100 * time.Millisecond
	}
	if retry.MaxWait == 0 {
		retry.MaxWait = 5 * time.Second
	}
	if retry.MaxAttempts == 0 {
		retry.MaxAttempts = 2
	}

	log := o.logger
	rc := retryablehttp.Client{
		HTTPClient:   c,
		Logger:       nil,
		RetryWaitMin: retry.MinWait,
		RetryWaitMax: retry.MaxWait,
		RetryMax:     retry.MaxAttempts,
		RequestLogHook: func(l retryablehttp.Logger, req *http.Request, i int) {
			log.Debug("sending http request", zap.String("url", req.URL.String()), zap.Int("request_attempt_count", i))
		},
		ResponseLogHook: func(l retryablehttp.Logger, resp *http.Response) {
			log.Debug("received http response", zap.String("url", resp.Request.URL.String()), zap.Int("http_status_code", resp.StatusCode))
		},
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return rc.StandardClient()
}

var errStatusCode = errors.New("status code error")

// notConnError reports whether err was not caused by failing to reach the
// remote address. Connection failures always count against the circuit.
func notConnError(err error) bool {
	var addrErr *net.AddrError
	var dnsErr *net.DNSError
	var opErr *net.OpError
	return !errors.As(err, &addrErr) && !errors.As(err, &dnsErr) && !errors.As(err, &opErr)
}

func notStatusCodeError(err error) bool {
	return !errors.Is(err, errStatusCode)
}

type circuitRoundTripper struct {
	http.RoundTripper
	cb    *gobreaker.CircuitBreaker
	codes map[int]struct{}
}

func newCircuitRoundTripper(rt http.RoundTripper, cfg CircuitBreakerConfig, log *zap.Logger) *circuitRoundTripper {
	if cfg.TripCount == 0 {
		cfg.TripCount = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRequests == 0 {
		cfg.MaxRequests = 1
	}
	if len(cfg.StatusCodes) == 0 {
		cfg.StatusCodes = []int{
			http.StatusTooManyRequests,    // 429
			http.StatusBadGateway,         // 502
			http.StatusServiceUnavailable, // 503
			http.StatusGatewayTimeout,     // 504
		}
	}

	codes := make(map[int]struct{}, len(cfg.StatusCodes))
	for _, code := range cfg.StatusCodes {
		codes[code] = struct{}{}
	}

	return &circuitRoundTripper{
		RoundTripper: rt,
		codes:        codes,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        log.Name(),
			MaxRequests: cfg.MaxRequests,
			Interval:    cfg.Interval,
			Timeout:     cfg.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= cfg.TripCount
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				switch to {
				case gobreaker.StateOpen:
					log.Error("circuit has been opened")
				case gobreaker.StateHalfOpen:
					log.Warn("circuit is now half open and letting some requests through", zap.Uint32("max_requests_allowed_through", cfg.MaxRequests))
				case gobreaker.StateClosed:
					log.Info("circuit has been closed")
				}
			},
			IsSuccessful: func(err error) bool {
				return notStatusCodeError(err) && notConnError(err)
			},
		}),
	}
}

// RoundTrip implements the [http.RoundTripper] interface. A response whose
// status code counts as a failure is still returned to the caller.
func (rt *circuitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	var failed *http.Response
	v, err := rt.cb.Execute(func() (interface{}, error) {
		resp, err := rt.RoundTripper.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		if _, ok := rt.codes[resp.StatusCode]; ok {
			failed = resp
			return nil, errStatusCode
		}
		return resp, nil
	})
	if failed != nil {
		return failed, nil
	}
	if err != nil {
		return nil, err
	}
	return v.(*http.Response), nil
}
