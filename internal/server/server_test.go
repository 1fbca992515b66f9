package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	"github.com/thc1006/onap-policy-actors/pkg/actors/sdnc"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
	sdncmodel "github.com/thc1006/onap-policy-actors/pkg/models/sdnc"
)

// newTestServer runs the SDNC actor, without guard, against a stub SDNC.
func newTestServer(t *testing.T) (*Server, *prometheus.Registry, *sdncmodel.Wrapper) {
	t.Helper()
	var last sdncmodel.Wrapper

	stub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&last)
		_ = json.NewEncoder(w).Encode(sdncmodel.Response{Output: &sdncmodel.ResponseOutput{ResponseCode: "200", ResponseMessage: "done"}})
	}))
	t.Cleanup(stub.Close)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	factory := httpop.NewClientFactory(m)
	require.NoError(t, factory.Build(httpop.ClientConfig{Name: "sdnc", BaseURL: stub.URL}))

	svc := actor.NewService(actor.WithMetrics(m), actor.WithGuard(actor.GuardConfig{}))
	require.NoError(t, svc.Register(sdnc.NewActor(factory, m)))
	require.NoError(t, svc.Configure(map[string]map[string]interface{}{
		sdnc.Name: {"clientName": "sdnc", "path": "topology"},
	}))
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(svc.Shutdown)

	return New(Config{}, svc, reg), reg, &last
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body)))
	return rec
}

func TestListActors(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/actors", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []ActorInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, sdnc.Name, infos[0].Name)
	assert.True(t, infos[0].Alive)
	assert.Equal(t, []OperatorInfo{
		{Name: sdnc.RerouteName, Configured: true, Alive: true},
		{Name: sdnc.BandwidthOnDemandName, Configured: true, Alive: true},
	}, infos[0].Operators)
}

func TestRunOperation(t *testing.T) {
	s, _, last := newTestServer(t)
	requestID := uuid.New()

	body := fmt.Sprintf(`{
		"requestId": %q,
		"closedLoopControlName": "cl-sotn",
		"targetEntityIds": {
			"service-instance.service-instance-id": "svc-1",
			"network-information.network-id": "net-1"
		}
	}`, requestID)
	rec := post(t, s.Handler(), "/v1/actors/SDNC/operations/Reroute", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var outcome actor.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, actor.Success, outcome.Result)
	assert.Equal(t, "done", outcome.Message)
	assert.True(t, outcome.Final)
	assert.Equal(t, "svc-1", last.Input.ServiceInfo.ServiceInstanceID)
}

func TestRunOperationFromEvent(t *testing.T) {
	s, _, last := newTestServer(t)

	body := fmt.Sprintf(`{"event": {
		"closedLoopControlName": "cl-sotn",
		"requestID": %q,
		"closedLoopEventStatus": "ONSET",
		"target": "vnf-1",
		"AAI": {
			"service-instance.service-instance-id": "svc-ev",
			"network-information.network-id": "net-ev"
		}
	}}`, uuid.New())
	rec := post(t, s.Handler(), "/v1/actors/SDNC/operations/Reroute", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "net-ev", last.Input.NetworkInfo.NetworkID)
}

func TestRunOperationErrors(t *testing.T) {
	s, _, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown actor", "/v1/actors/NOPE/operations/Reroute", `{}`, http.StatusNotFound},
		{"unknown operation", "/v1/actors/SDNC/operations/Nope", `{}`, http.StatusNotFound},
		{"invalid json", "/v1/actors/SDNC/operations/Reroute", `{`, http.StatusBadRequest},
		{"invalid request id", "/v1/actors/SDNC/operations/Reroute", `{"requestId": "x"}`, http.StatusBadRequest},
		{"negative retry", "/v1/actors/SDNC/operations/Reroute", `{"retry": -1}`, http.StatusBadRequest},
		{"invalid event", "/v1/actors/SDNC/operations/Reroute", `{"event": {"closedLoopEventStatus": "ONSET"}}`, http.StatusBadRequest},
		{"invalid property", "/v1/actors/SDNC/operations/Reroute", `{"properties": {"aai.customQuery": "x"}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s.Handler(), tt.path, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestFailedOperationIsStillOK(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := post(t, s.Handler(), "/v1/actors/SDNC/operations/Reroute", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var outcome actor.Outcome
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &outcome))
	assert.Equal(t, actor.FailureException, outcome.Result)
}

func TestHealthAndMetrics(t *testing.T) {
	s, _, _ := newTestServer(t)
	post(t, s.Handler(), "/v1/actors/SDNC/operations/Reroute", `{}`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "policy_actor_operations_total")
}

func TestStartAndShutdown(t *testing.T) {
	s, _, _ := newTestServer(t)
	s.cfg.Address = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	require.Eventually(t, func() bool { return s.Addr() != "" }, 2*time.Second, 10*time.Millisecond)
	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, <-done)
}
