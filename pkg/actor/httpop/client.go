// Package httpop holds the HTTP side of the actor framework: named clients
// with rate limiting and circuit breaking, the operator configuration shared
// by every HTTP actor, and the request and polling helpers their operations
// are built from.
package httpop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	perrors "github.com/thc1006/onap-policy-actors/pkg/errors"
	"github.com/thc1006/onap-policy-actors/pkg/logging"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
)

const defaultClientTimeout = 30 * time.Second

// RateLimitConfig bounds the request rate of a client.
type RateLimitConfig struct {
	Enabled           bool    `json:"enabled"`
	RequestsPerSecond float64 `json:"requestsPerSecond"`
	Burst             int     `json:"burst"`
}

// CircuitBreakerConfig configures the breaker of a client.
type CircuitBreakerConfig struct {
	Enabled          bool `json:"enabled"`
	FailureThreshold int  `json:"failureThreshold"`
	TimeoutSec       int  `json:"timeoutSec"`
	HalfOpenMaxCalls int  `json:"halfOpenMaxCalls"`
}

// ClientConfig describes one named HTTP client.
type ClientConfig struct {
	Name           string                `json:"name"`
	BaseURL        string                `json:"baseUrl"`
	Username       string                `json:"username,omitempty"`
	Password       string                `json:"password,omitempty"`
	Headers        map[string]string     `json:"headers,omitempty"`
	TimeoutSec     int                   `json:"timeoutSec,omitempty"`
	RateLimit      *RateLimitConfig      `json:"rateLimit,omitempty"`
	CircuitBreaker *CircuitBreakerConfig `json:"circuitBreaker,omitempty"`
}

// Validate checks the configuration.
func (c ClientConfig) Validate() error {
	if c.Name == "" {
		return errors.New("client name is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("client %s: baseUrl is required", c.Name)
	}
	if c.TimeoutSec < 0 {
		return fmt.Errorf("client %s: timeoutSec must not be negative", c.Name)
	}
	if rl := c.RateLimit; rl != nil && rl.Enabled && (rl.RequestsPerSecond <= 0 || rl.Burst < 1) {
		return fmt.Errorf("client %s: rate limit needs requestsPerSecond > 0 and burst >= 1", c.Name)
	}
	return nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v interface{}) error {
	if len(r.Body) == 0 {
		return errors.New("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Client sends requests to one external system.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	log        logging.Logger
}

// NewClient builds a client from cfg.
func NewClient(cfg ClientConfig, m *metrics.Metrics) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := defaultClientTimeout
	if cfg.TimeoutSec > 0 {
		timeout = time.Duration(cfg.TimeoutSec) * time.Second
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    m,
		log:        logging.NewLogger(logging.ComponentHTTPClient).WithValues("client", cfg.Name),
	}
	c.initCircuitBreaker()
	c.initRateLimiter()
	return c, nil
}

// initCircuitBreaker installs the breaker when it is enabled.
func (c *Client) initCircuitBreaker() {
	cb := c.cfg.CircuitBreaker
	if cb == nil || !cb.Enabled {
		return
	}

	settings := gobreaker.Settings{
		Name:        c.cfg.Name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.log.InfoEvent("Circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			c.metrics.SetCircuitBreakerState(name, float64(to))
		},
	}

	if cb.FailureThreshold > 0 {
		threshold := uint32(cb.FailureThreshold)
		settings.ReadyToTrip = func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		}
	}
	if cb.TimeoutSec > 0 {
		settings.Timeout = time.Duration(cb.TimeoutSec) * time.Second
	}
	if cb.HalfOpenMaxCalls > 0 {
		settings.MaxRequests = uint32(cb.HalfOpenMaxCalls)
	}

	c.breaker = gobreaker.NewCircuitBreaker(settings)
}

// initRateLimiter installs the limiter when it is enabled.
func (c *Client) initRateLimiter() {
	if rl := c.cfg.RateLimit; rl != nil && rl.Enabled {
		c.limiter = rate.NewLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst)
	}
}

// Name returns the client name.
func (c *Client) Name() string { return c.cfg.Name }

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// URL resolves path against the base URL.
func (c *Client) URL(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// Do sends a request and reads the whole response. body is sent as-is when
// it is a []byte and JSON-encoded otherwise. Non-2xx responses are returned
// together with a status ServiceError.
func (c *Client) Do(ctx context.Context, method, path string, body interface{}, headers map[string]string) (*Response, error) {
	errs := perrors.NewErrorBuilder(c.cfg.Name, method+" "+path)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, errs.ContextError(ctx)
			}
			return nil, errs.NetworkError("rate limiter", err)
		}
	}

	payload, err := encodeBody(body)
	if err != nil {
		return nil, errs.ValidationError("invalid_body", err.Error())
	}

	url := c.URL(path)
	start := time.Now()

	send := func() (*Response, error) {
		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		c.setHeaders(req, headers, payload != nil)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errs.ContextError(ctx)
			}
			return nil, errs.NetworkError("failed to send request", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errs.NetworkError("failed to read response", err)
		}

		r := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}
		if resp.StatusCode >= http.StatusInternalServerError {
			return r, errs.StatusError(resp.StatusCode, string(data))
		}
		return r, nil
	}

	var resp *Response
	if c.breaker != nil {
		var result interface{}
		result, err = c.breaker.Execute(func() (interface{}, error) { return send() })
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = errs.CircuitOpenError(err)
		}
		resp, _ = result.(*Response)
	} else {
		resp, err = send()
	}

	duration := time.Since(start)
	status := "error"
	if resp != nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	c.metrics.RecordClientRequest(c.cfg.Name, method, status, duration)

	if err != nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		c.log.HTTPError(method, url, code, err, duration.Seconds())
		return resp, err
	}

	c.log.HTTPRequest(method, url, resp.StatusCode, duration.Seconds())
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, errs.StatusError(resp.StatusCode, string(resp.Body))
	}
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request, headers map[string]string, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

func encodeBody(body interface{}) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	default:
		return json.Marshal(b)
	}
}
