package aai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	"github.com/thc1006/onap-policy-actors/pkg/models/aai"
	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
)

const cqBody = `{"results": [
	{"vserver": {"vserver-id": "vs-1", "vserver-name": "vserver-01"}},
	{"generic-vnf": {"vnf-id": "vnf-1", "model-invariant-id": "vnf-model"}},
	{"service-instance": {"service-instance-id": "svc-1"}},
	{"tenant": {"tenant-id": "tenant-1"}},
	{"cloud-region": {"cloud-owner": "CloudOwner", "cloud-region-id": "RegionOne"}}
]}`

func aaiServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/aai/v21/query", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "resource", req.URL.Query().Get("format"))

		var body aai.CustomQueryRequest
		data, _ := io.ReadAll(req.Body)
		assert.NoError(t, json.Unmarshal(data, &body))
		assert.Equal(t, aai.ClosedLoopQuery, body.Query)
		if body.Start != "/aai/v21/cloud-infrastructure/vserver/vs-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(cqBody))
	})
	r.HandleFunc("/aai/v21/search/nodes-query", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "vserver", req.URL.Query().Get("search-node-type"))
		assert.Equal(t, "vserver-name:EQUALS:vserver-01", req.URL.Query().Get("filter"))
		_, _ = w.Write([]byte(`{"result-data": [{"resource-type": "vserver",
			"resource-link": "/aai/v21/cloud-infrastructure/vserver/vs-1"}]}`))
	})
	r.HandleFunc("/aai/v21/network/pnfs/pnf/{name}", func(w http.ResponseWriter, req *http.Request) {
		name := mux.Vars(req)["name"]
		if name == "error" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(aai.Pnf{PnfName: name, InMaint: false})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func startActor(t *testing.T, baseURL string) actor.Actor {
	t.Helper()
	factory := httpop.NewClientFactory(nil)
	require.NoError(t, factory.Build(httpop.ClientConfig{Name: "aai", BaseURL: baseURL + "/aai/v21"}))

	a := NewActor(factory, nil)
	require.NoError(t, a.Configure(map[string]interface{}{
		"clientName": "aai",
		"timeoutSec": 5,
		"operations": map[string]interface{}{
			CustomQueryName: map[string]interface{}{"path": "query"},
			TenantName:      map[string]interface{}{"path": "search/nodes-query"},
			PnfName:         map[string]interface{}{"path": "network/pnfs/pnf"},
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

func TestCustomQueryWithSelfLink(t *testing.T) {
	a := startActor(t, aaiServer(t).URL)

	outcome := run(t, a, actor.Params{
		Operation:       CustomQueryName,
		TargetEntityIDs: map[string]string{controlloop.VserverSelfLink: "/aai/v21/cloud-infrastructure/vserver/vs-1"},
	})
	require.Equal(t, actor.Success, outcome.Result, outcome.Message)

	cq := outcome.Response.(*aai.CqResponse)
	assert.Equal(t, "svc-1", cq.ServiceInstance().ServiceInstanceID)
	assert.Equal(t, "RegionOne", cq.DefaultCloudRegion().CloudRegionID)
}

func TestCustomQueryNeedsTenant(t *testing.T) {
	a := startActor(t, aaiServer(t).URL)
	op, err := a.Operator(CustomQueryName)
	require.NoError(t, err)

	operation, err := op.BuildOperation(actor.Params{Actor: Name, Operation: CustomQueryName, RequestID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, []string{PropertyTenant}, operation.PropertyNames())

	outcome := operation.Start(context.Background())
	assert.Equal(t, actor.FailureException, outcome.Result)
	assert.Contains(t, outcome.Message, PropertyTenant)
}

func TestTenant(t *testing.T) {
	a := startActor(t, aaiServer(t).URL)

	outcome := run(t, a, actor.Params{
		Operation:       TenantName,
		TargetEntityIDs: map[string]string{controlloop.VserverVserverName: "vserver-01"},
	})
	require.Equal(t, actor.Success, outcome.Result, outcome.Message)
	assert.Equal(t, "/aai/v21/cloud-infrastructure/vserver/vs-1", outcome.Response.(*aai.NodesQueryResponse).ResourceLink())

	missing := run(t, a, actor.Params{Operation: TenantName})
	assert.Equal(t, actor.FailureException, missing.Result)
}

func TestPnf(t *testing.T) {
	a := startActor(t, aaiServer(t).URL)

	tests := []struct {
		name   string
		params actor.Params
		want   actor.Result
	}{
		{"from entity ids", actor.Params{Operation: PnfName,
			TargetEntityIDs: map[string]string{controlloop.PnfPnfName: "pnf-01"}}, actor.Success},
		{"from target", actor.Params{Operation: PnfName, TargetEntity: "pnf-02"}, actor.Success},
		{"not found", actor.Params{Operation: PnfName, TargetEntity: "error"}, actor.Failure},
		{"no name", actor.Params{Operation: PnfName}, actor.FailureException},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := run(t, a, tt.params)
			assert.Equal(t, tt.want, outcome.Result, outcome.Message)
		})
	}
}

func TestResolversChainThroughService(t *testing.T) {
	srv := aaiServer(t)
	factory := httpop.NewClientFactory(nil)
	require.NoError(t, factory.Build(httpop.ClientConfig{Name: "aai", BaseURL: srv.URL + "/aai/v21"}))

	svc := actor.NewService()
	require.NoError(t, svc.Register(NewActor(factory, nil)))
	for name, r := range Resolvers(svc.Query) {
		svc.RegisterResolver(name, r)
	}
	require.NoError(t, svc.Configure(map[string]map[string]interface{}{
		Name: {
			"clientName": "aai",
			"operations": map[string]interface{}{
				CustomQueryName: map[string]interface{}{"path": "query"},
				TenantName:      map[string]interface{}{"path": "search/nodes-query"},
				PnfName:         map[string]interface{}{"path": "network/pnfs/pnf"},
			},
		},
	}))
	require.NoError(t, svc.Start(context.Background()))
	defer svc.Shutdown()

	resolve := Resolvers(svc.Query)[PropertyCustomQuery]
	v, err := resolve(context.Background(), actor.Params{
		Actor:           "SO",
		Operation:       "VF Module Create",
		RequestID:       uuid.New(),
		TargetEntityIDs: map[string]string{controlloop.VserverVserverName: "vserver-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, "vnf-1", v.(*aai.CqResponse).GenericVnfs[0].VnfID)

	_, err = Resolvers(svc.Query)[PropertyPnf](context.Background(), actor.Params{
		Actor: "SDNC", Operation: "Reroute", RequestID: uuid.New(), TargetEntity: "error",
	})
	assert.Error(t, err)
}
