// Package backend is the HTTP client for the remote chat backend. Every call
// is rate limited, guarded by a circuit breaker, instrumented, and fails with
// a *RequestError naming the endpoint.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/papercomputeco/chatdeck/pkg/config"
	"github.com/papercomputeco/chatdeck/pkg/sse"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second

	// maxErrorBody caps how much of a failed response is kept for logging.
	maxErrorBody = 512
)

// Backend is the set of operations the dashboard and CLI need from the
// remote backend.
type Backend interface {
	ListSessions(ctx context.Context) ([]Session, error)
	ChatHistory(ctx context.Context, sessionID string) (*ChatHistory, error)
	Analytics(ctx context.Context, dates DateRange) (*AnalyticsReport, error)
	HubSpotSessions(ctx context.Context, dates DateRange, page Page) (*HubSpotPage, error)
	SendChat(ctx context.Context, req ChatRequest, sink sse.Sink) (*ChatResult, error)
	SubmitFeedback(ctx context.Context, feedback Feedback) error
	ReportHubSpot(ctx context.Context, report HubSpotReport) error
}

// Config is the Client configuration. It is passed explicitly at
// construction; there is no package-level client.
type Config struct {
	// BaseURL is the backend root. An empty BaseURL yields a client whose
	// calls fail with a RequestError wrapping config.ErrMissingBaseURL.
	BaseURL string

	// Timeout bounds non-streaming calls. Chat streams are bounded only by
	// the caller's context.
	Timeout time.Duration

	// RateLimit is requests per second; zero disables limiting.
	RateLimit float64
	Burst     int

	// BreakerFailures is the consecutive failure count that opens the circuit.
	BreakerFailures uint32

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client

	// Registerer receives the client's Prometheus collectors. Optional.
	Registerer prometheus.Registerer

	Logger *zap.Logger
}

// ConfigFromApp adapts the persisted application config.
func ConfigFromApp(cfg *config.Config) Config {
	return Config{
		BaseURL:         cfg.Backend.BaseURL,
		Timeout:         cfg.TimeoutDuration(),
		RateLimit:       cfg.Client.RateLimit,
		Burst:           cfg.Client.Burst,
		BreakerFailures: uint32(min(cfg.Client.BreakerFailures, 1<<31)),
	}
}

// Client implements Backend over HTTP.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*http.Response]
	metrics *metrics
	logger  *zap.Logger
}

// Ensure Client implements Backend
var _ Backend = (*Client)(nil)

// NewClient builds a Client from c.
func NewClient(c Config) *Client {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = defaultBreakerFailures
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if c.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(c.RateLimit), max(c.Burst, 1))
	}

	logger := c.Logger.Named("backend")
	maxFailures := c.BreakerFailures

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     defaultBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL: strings.TrimRight(c.BaseURL, "/"),
		timeout: c.Timeout,
		http:    c.HTTPClient,
		limiter: limiter,
		breaker: breaker,
		metrics: newMetrics(c.Registerer),
		logger:  logger,
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// statusError records a non-2xx response. It counts as a breaker failure
// only for server side statuses.
type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return http.StatusText(e.code)
	}
	return fmt.Sprintf("%s: %s", http.StatusText(e.code), e.body)
}

// do sends one request and returns the response for a 2xx status. The
// caller owns the response body.
func (c *Client) do(ctx context.Context, endpoint Endpoint, method, path string, query url.Values, body any, accept string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.send(ctx, endpoint, method, path, query, body, accept)
	c.metrics.observe(endpoint, start, err)

	fields := []zap.Field{
		zap.String("endpoint", string(endpoint)),
		zap.String("method", method),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		c.logger.Debug("backend request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	c.logger.Debug("backend request", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}

func (c *Client) send(ctx context.Context, endpoint Endpoint, method, path string, query url.Values, body any, accept string) (*http.Response, error) {
	if c.baseURL == "" {
		return nil, &RequestError{Endpoint: endpoint, Err: config.ErrMissingBaseURL}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Endpoint: endpoint, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &RequestError{Endpoint: endpoint, Err: fmt.Errorf("creating request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", accept)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &RequestError{Endpoint: endpoint, Err: err}
	}

	var clientErr *statusError
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = resp.Body.Close()
		statusErr := &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}

		// Client errors are the caller's fault, not the backend's health.
		if resp.StatusCode < 500 {
			clientErr = statusErr
			return nil, nil
		}
		return nil, statusErr
	})

	if clientErr != nil {
		return nil, &RequestError{Endpoint: endpoint, StatusCode: clientErr.code, Err: clientErr}
	}
	if err != nil {
		reqErr := &RequestError{Endpoint: endpoint, Err: err}
		if se, ok := err.(*statusError); ok {
			reqErr.StatusCode = se.code
		}
		return nil, reqErr
	}

	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint Endpoint, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, endpoint, http.MethodGet, path, query, nil, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return nil
}

func (c *Client) postJSON(ctx context.Context, endpoint Endpoint, path string, body any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.do(ctx, endpoint, http.MethodPost, path, nil, body, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
