package httpop

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "github.com/thc1006/onap-policy-actors/pkg/errors"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
)

func TestClientConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
		ok   bool
	}{
		{"valid", ClientConfig{Name: "sdnc", BaseURL: "http://sdnc"}, true},
		{"no name", ClientConfig{BaseURL: "http://sdnc"}, false},
		{"no base url", ClientConfig{Name: "sdnc"}, false},
		{"negative timeout", ClientConfig{Name: "sdnc", BaseURL: "http://sdnc", TimeoutSec: -1}, false},
		{"bad rate limit", ClientConfig{Name: "sdnc", BaseURL: "http://sdnc",
			RateLimit: &RateLimitConfig{Enabled: true, RequestsPerSecond: 0, Burst: 1}}, false},
		{"disabled rate limit", ClientConfig{Name: "sdnc", BaseURL: "http://sdnc",
			RateLimit: &RateLimitConfig{Enabled: false}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestClientDo(t *testing.T) {
	var gotAuth, gotHeader, gotContentType string
	var gotBody map[string]interface{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		gotAuth = user + ":" + pass
		gotHeader = r.Header.Get("X-ONAP-RequestID")
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		assert.Equal(t, "/restconf/operations/heal", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	c, err := NewClient(ClientConfig{
		Name:     "sdnc",
		BaseURL:  srv.URL + "/restconf/",
		Username: "admin",
		Password: "secret",
		Headers:  map[string]string{"X-ONAP-RequestID": "static"},
	}, metrics.New(reg))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), http.MethodPost, "/operations/heal",
		map[string]string{"input": "x"}, map[string]string{"X-ONAP-RequestID": "per-request"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "admin:secret", gotAuth)
	assert.Equal(t, "per-request", gotHeader)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "x", gotBody["input"])

	var decoded map[string]bool
	require.NoError(t, resp.Decode(&decoded))
	assert.True(t, decoded["ok"])

	count, err := testutil.GatherAndCount(reg, "policy_actor_http_client_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestClientStatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		errType   perrors.ErrorType
		retryable bool
	}{
		{http.StatusNotFound, perrors.ErrorTypeNotFound, false},
		{http.StatusBadRequest, perrors.ErrorTypeExternal, false},
		{http.StatusTooManyRequests, perrors.ErrorTypeRateLimit, true},
		{http.StatusInternalServerError, perrors.ErrorTypeExternal, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": "nope"}`))
			}))
			defer srv.Close()

			c, err := NewClient(ClientConfig{Name: "so", BaseURL: srv.URL}, nil)
			require.NoError(t, err)

			resp, err := c.Do(context.Background(), http.MethodGet, "x", nil, nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.errType, perrors.TypeOf(err))
			assert.Equal(t, tt.retryable, perrors.IsRetryable(err))
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(ClientConfig{Name: "vfc", BaseURL: url}, nil)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), http.MethodGet, "jobs/1", nil, nil)
	assert.Nil(t, resp)
	assert.Equal(t, perrors.ErrorTypeNetwork, perrors.TypeOf(err))
}

func TestClientContextDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{Name: "so", BaseURL: srv.URL}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Do(ctx, http.MethodGet, "slow", nil, nil)
	require.Error(t, err)
	assert.True(t, perrors.IsTimeout(err))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClientCircuitBreakerOpens(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{
		Name:    "appc",
		BaseURL: srv.URL,
		CircuitBreaker: &CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			TimeoutSec:       60,
		},
	}, metrics.Noop())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := c.Do(context.Background(), http.MethodGet, "x", nil, nil)
		assert.Equal(t, perrors.ErrorTypeExternal, perrors.TypeOf(err))
	}

	_, err = c.Do(context.Background(), http.MethodGet, "x", nil, nil)
	assert.Equal(t, perrors.ErrorTypeCircuit, perrors.TypeOf(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClientBreakerIgnoresClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{
		Name:           "aai",
		BaseURL:        srv.URL,
		CircuitBreaker: &CircuitBreakerConfig{Enabled: true, FailureThreshold: 1},
	}, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := c.Do(context.Background(), http.MethodGet, "pnf", nil, nil)
		assert.Equal(t, perrors.ErrorTypeNotFound, perrors.TypeOf(err))
	}
}

func TestClientRateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{
		Name:      "xacml",
		BaseURL:   srv.URL,
		RateLimit: &RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, Burst: 1},
	}, nil)
	require.NoError(t, err)

	_, err = c.Do(context.Background(), http.MethodGet, "decision", nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Do(ctx, http.MethodGet, "decision", nil, nil)
	assert.Error(t, err)
}

func TestClientURL(t *testing.T) {
	c, err := NewClient(ClientConfig{Name: "so", BaseURL: "http://so:8080/onap/so/infra/"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "http://so:8080/onap/so/infra/orchestrationRequests/v5/r1", c.URL("/orchestrationRequests/v5/r1"))
	assert.Equal(t, "http://other/x", c.URL("http://other/x"))
}

func TestClientFactory(t *testing.T) {
	f := NewClientFactory(nil)
	require.NoError(t, f.Build(
		ClientConfig{Name: "sdnc", BaseURL: "http://sdnc"},
		ClientConfig{Name: "so", BaseURL: "http://so"},
	))

	c, err := f.Get("so")
	require.NoError(t, err)
	assert.Equal(t, "http://so", c.BaseURL())
	assert.Equal(t, []string{"sdnc", "so"}, f.Names())

	assert.Error(t, f.Build(ClientConfig{Name: "so", BaseURL: "http://so2"}))
	assert.Error(t, f.Build(ClientConfig{Name: "bad"}))

	_, err = f.Get("vfc")
	assert.Error(t, err)

	f.Destroy()
	assert.Empty(t, f.Names())
}
