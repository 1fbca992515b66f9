package sdnc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
	"github.com/thc1006/onap-policy-actors/pkg/models/sdnc"
)

// sdncServer answers 200 unless the service instance id is "error".
func sdncServer(t *testing.T, got chan<- *sdnc.HealRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body sdnc.Wrapper
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		got <- body.Input

		code, message := "200", "Success"
		if body.Input.ServiceInfo.ServiceInstanceID == "error" {
			code, message = "404", "service instance not found"
		}
		_ = json.NewEncoder(w).Encode(sdnc.Response{
			Output: &sdnc.ResponseOutput{ResponseCode: code, ResponseMessage: message, AckFinalIndicator: "Y"},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func startActor(t *testing.T, baseURL string) actor.Actor {
	t.Helper()
	factory := httpop.NewClientFactory(nil)
	require.NoError(t, factory.Build(httpop.ClientConfig{Name: "sdnc", BaseURL: baseURL}))

	a := NewActor(factory, nil)
	require.NoError(t, a.Configure(map[string]interface{}{
		"clientName": "sdnc",
		"timeoutSec": 5,
		"operations": map[string]interface{}{
			RerouteName: map[string]interface{}{
				"path": "GENERIC-RESOURCE-API:network-topology-operation",
			},
			BandwidthOnDemandName: map[string]interface{}{
				"path": "GENERIC-RESOURCE-API:vnf-topology-operation",
			},
		},
	}))
	require.NoError(t, a.Start())
	t.Cleanup(a.Shutdown)
	return a
}

func run(t *testing.T, a actor.Actor, params actor.Params) *actor.Outcome {
	t.Helper()
	op, err := a.Operator(params.Operation)
	require.NoError(t, err)
	params.Actor = Name
	params.RequestID = uuid.New()
	operation, err := op.BuildOperation(params)
	require.NoError(t, err)
	return operation.Start(context.Background())
}

func TestReroute(t *testing.T) {
	got := make(chan *sdnc.HealRequest, 1)
	a := startActor(t, sdncServer(t, got).URL)

	outcome := run(t, a, actor.Params{
		Operation: RerouteName,
		TargetEntityIDs: map[string]string{
			controlloop.ServiceInstanceID:       "svc-1",
			controlloop.NetworkInformationNetID: "net-1",
		},
	})
	require.Equal(t, actor.Success, outcome.Result, outcome.Message)
	assert.Equal(t, "Success", outcome.Message)

	req := <-got
	assert.Equal(t, sdnc.ActionReoptimizeSOTNInstance, req.RequestInfo.RequestAction)
	assert.Equal(t, "svc-1", req.ServiceInfo.ServiceInstanceID)
	assert.Equal(t, "net-1", req.NetworkInfo.NetworkID)
	assert.Equal(t, outcome.SubRequestID, req.RequestHeaderInfo.SvcRequestID)
}

func TestRerouteFromPayload(t *testing.T) {
	got := make(chan *sdnc.HealRequest, 1)
	a := startActor(t, sdncServer(t, got).URL)

	outcome := run(t, a, actor.Params{
		Operation:       RerouteName,
		TargetEntityIDs: map[string]string{controlloop.ServiceInstanceID: "svc-1"},
		Payload: map[string]interface{}{
			controlloop.ServiceInstanceID:       "svc-ignored",
			controlloop.NetworkInformationNetID: "net-2",
		},
	})
	require.Equal(t, actor.Success, outcome.Result, outcome.Message)

	req := <-got
	assert.Equal(t, "svc-1", req.ServiceInfo.ServiceInstanceID)
	assert.Equal(t, "net-2", req.NetworkInfo.NetworkID)
}

func TestRerouteFailureCode(t *testing.T) {
	got := make(chan *sdnc.HealRequest, 1)
	a := startActor(t, sdncServer(t, got).URL)

	outcome := run(t, a, actor.Params{
		Operation: RerouteName,
		TargetEntityIDs: map[string]string{
			controlloop.ServiceInstanceID:       "error",
			controlloop.NetworkInformationNetID: "net-1",
		},
	})
	assert.Equal(t, actor.Failure, outcome.Result)
	assert.Equal(t, "service instance not found", outcome.Message)
}

func TestBandwidthOnDemand(t *testing.T) {
	got := make(chan *sdnc.HealRequest, 1)
	a := startActor(t, sdncServer(t, got).URL)

	outcome := run(t, a, actor.Params{
		Operation:       BandwidthOnDemandName,
		TargetEntityIDs: map[string]string{controlloop.ServiceInstanceID: "svc-1", FieldVnfID: "vnf-1"},
		Payload:         map[string]interface{}{FieldBandwidth: 500, FieldBandwidthChangeTime: "2026-10-19T08:00:00Z"},
	})
	require.Equal(t, actor.Success, outcome.Result, outcome.Message)

	req := <-got
	assert.Equal(t, sdnc.ActionSdwanBandwidthChange, req.RequestInfo.RequestAction)
	assert.Equal(t, "vnf-1", req.VnfInfo.VnfID)
	assert.Equal(t, []sdnc.HealVfModuleParameter{
		{Name: FieldBandwidth, Value: "500"},
		{Name: FieldBandwidthChangeTime, Value: "2026-10-19T08:00:00Z"},
	}, req.RequestParameters.VfModuleInputParameters.Params)
}

func TestMissingEnrichment(t *testing.T) {
	got := make(chan *sdnc.HealRequest, 1)
	a := startActor(t, sdncServer(t, got).URL)

	tests := []actor.Params{
		{Operation: RerouteName, TargetEntityIDs: map[string]string{controlloop.ServiceInstanceID: "svc-1"}},
		{Operation: BandwidthOnDemandName, TargetEntityIDs: map[string]string{controlloop.ServiceInstanceID: "svc-1"}},
	}
	for _, params := range tests {
		t.Run(params.Operation, func(t *testing.T) {
			outcome := run(t, a, params)
			assert.Equal(t, actor.FailureException, outcome.Result)
			assert.Empty(t, got)
		})
	}
}

func TestBandwidthOnDemandFallsBackToGenericVnf(t *testing.T) {
	req, err := buildBandwidthOnDemand(actor.Params{
		TargetEntityIDs: map[string]string{
			controlloop.ServiceInstanceID: "svc-1",
			controlloop.GenericVnfVnfID:   "vnf-9",
			FieldBandwidth:                "100",
			FieldBandwidthChangeTime:      "now",
		},
	}, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "vnf-9", req.VnfInfo.VnfID)
	assert.Equal(t, "update", req.RequestHeaderInfo.SvcAction)
}
