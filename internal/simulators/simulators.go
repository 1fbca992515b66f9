// Package simulators holds stand-ins for the systems the actors talk to.
// The HTTP simulators share one gorilla/mux router, one path prefix each;
// APPC LCM is simulated on a topic bus and CDS on a gRPC server.
package simulators

import (
	"embed"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/thc1006/onap-policy-actors/pkg/logging"
	"github.com/thc1006/onap-policy-actors/pkg/models/decision"
	"github.com/thc1006/onap-policy-actors/pkg/models/sdnc"
	"github.com/thc1006/onap-policy-actors/pkg/models/so"
	"github.com/thc1006/onap-policy-actors/pkg/models/vfc"
)

//go:embed fixtures/*.json
var fixtures embed.FS

// Path prefixes the HTTP simulators are mounted on.
const (
	SdncPrefix  = "/sdnc"
	SoPrefix    = "/so"
	XacmlPrefix = "/xacml"
	VfcPrefix   = "/vfc"
	AaiPrefix   = "/aai"
)

// Request values that make a simulator fail.
const (
	SdncErrorServiceInstance = "error"
	DenyGuardClosedLoop      = "denyGuard"
	AaiErrorName             = "error"
	SoFailMarker             = "fail"
)

// HTTP serves the SDNC, SO, XACML, VF-C and A&AI simulators.
type HTTP struct {
	log    logging.Logger
	router *mux.Router

	mu    sync.Mutex
	polls map[string]int
}

// NewHTTP returns the HTTP simulators with their routes installed.
func NewHTTP() *HTTP {
	h := &HTTP{
		log:    logging.NewLogger(logging.ComponentSimulator),
		router: mux.NewRouter(),
		polls:  make(map[string]int),
	}
	h.router.Use(h.logRequests)

	r := h.router.PathPrefix(SdncPrefix).Subrouter()
	r.PathPrefix("/").HandlerFunc(h.sdnc).Methods(http.MethodPost)

	r = h.router.PathPrefix(SoPrefix).Subrouter()
	vfModules := "/serviceInstantiation/v7/serviceInstances/{svc}/vnfs/{vnf}/vfModules"
	r.HandleFunc(vfModules, h.soAccept).Methods(http.MethodPost)
	r.HandleFunc(vfModules+"/{vfModule}", h.soAccept).Methods(http.MethodDelete)
	r.HandleFunc("/orchestrationRequests/v5/{requestId}", h.soPoll).Methods(http.MethodGet)

	r = h.router.PathPrefix(XacmlPrefix).Subrouter()
	r.HandleFunc("/policy/pdpx/v1/decision", h.decision).Methods(http.MethodPost)

	r = h.router.PathPrefix(VfcPrefix).Subrouter()
	r.HandleFunc("/api/nslcm/v1/ns/{nsInstanceId}/heal", h.vfcHeal).Methods(http.MethodPost)
	r.HandleFunc("/api/nslcm/v1/jobs/{jobId}", h.vfcJob).Methods(http.MethodGet)

	r = h.router.PathPrefix(AaiPrefix).Subrouter()
	r.HandleFunc("/aai/v21/query", h.aaiCustomQuery).Methods(http.MethodPut)
	r.HandleFunc("/aai/v21/search/nodes-query", h.aaiTenant).Methods(http.MethodGet)
	r.HandleFunc("/aai/v21/network/pnfs/pnf/{pnfName}", h.aaiPnf).Methods(http.MethodGet)

	return h
}

// ServeHTTP implements http.Handler.
func (h *HTTP) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *HTTP) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.HTTPRequest(r.Method, r.URL.Path, rec.status, time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (h *HTTP) sdnc(w http.ResponseWriter, r *http.Request) {
	var req sdnc.Wrapper
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Input == nil {
		http.Error(w, "invalid SDNC request", http.StatusBadRequest)
		return
	}

	var resp sdnc.Response
	if err := readFixture("sdnc-success.json", &resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if req.Input.RequestHeaderInfo != nil {
		resp.Output.SvcRequestID = req.Input.RequestHeaderInfo.SvcRequestID
	}
	if req.Input.ServiceInfo != nil && req.Input.ServiceInfo.ServiceInstanceID == SdncErrorServiceInstance {
		resp.Output.ResponseCode = "404"
		resp.Output.ResponseMessage = "service instance not found"
	}
	writeJSON(w, http.StatusOK, &resp)
}

// soAccept answers VF module create and delete. Requests against a
// service instance containing "fail" get a request id that polls to FAILED.
func (h *HTTP) soAccept(w http.ResponseWriter, r *http.Request) {
	var req so.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid SO request", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	requestID := uuid.NewString()
	if strings.Contains(vars["svc"], SoFailMarker) {
		requestID = SoFailMarker + "-" + requestID
	}
	instanceID := vars["vfModule"]
	if instanceID == "" {
		instanceID = uuid.NewString()
	}

	writeJSON(w, http.StatusAccepted, &so.Response{
		HTTPResponseCode:  http.StatusAccepted,
		RequestReferences: &so.RequestReferences{RequestID: requestID, InstanceID: instanceID},
	})
}

// soPoll reports IN_PROGRESS on the first poll of a request.
func (h *HTTP) soPoll(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["requestId"]

	state := so.RequestStateInProgress
	if h.poll(requestID) > 1 {
		state = so.RequestStateComplete
		if strings.Contains(requestID, SoFailMarker) {
			state = so.RequestStateFailed
		}
	}

	writeJSON(w, http.StatusOK, &so.Response{
		Request: &so.Request{
			RequestID: requestID,
			RequestStatus: &so.RequestStatus{
				RequestState:  state,
				StatusMessage: "request " + strings.ToLower(state),
				Timestamp:     time.Now().UTC().Format(time.RFC1123),
			},
		},
	})
}

func (h *HTTP) decision(w http.ResponseWriter, r *http.Request) {
	var req decision.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid decision request", http.StatusBadRequest)
		return
	}

	resp := decision.Response{Status: decision.StatusPermit}
	switch req.Action {
	case decision.ActionGuard:
		guard, _ := req.Resource["guard"].(map[string]interface{})
		if clname, _ := guard["clname"].(string); clname == DenyGuardClosedLoop {
			resp.Status = decision.StatusDeny
		}
	case decision.ActionConfigure:
		resp.Policies = map[string]interface{}{}
	default:
		resp = decision.Response{Message: "unsupported action " + req.Action}
	}
	writeJSON(w, http.StatusOK, &resp)
}

func (h *HTTP) vfcHeal(w http.ResponseWriter, r *http.Request) {
	var req vfc.HealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid heal request", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusAccepted, &vfc.Response{JobID: uuid.NewString()})
}

// vfcJob reports processing on the first poll of a job.
func (h *HTTP) vfcJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["jobId"]

	desc := &vfc.ResponseDescriptor{Status: vfc.StatusProcessing, Progress: "50", StatusDescription: "heal in progress"}
	if h.poll(jobID) > 1 {
		desc = &vfc.ResponseDescriptor{Status: vfc.StatusFinished, Progress: "100", StatusDescription: "heal finished"}
	}
	writeJSON(w, http.StatusOK, &vfc.Response{JobID: jobID, ResponseDescriptor: desc})
}

func (h *HTTP) aaiCustomQuery(w http.ResponseWriter, r *http.Request) {
	writeFixture(w, "aai-custom-query.json")
}

func (h *HTTP) aaiTenant(w http.ResponseWriter, r *http.Request) {
	if strings.HasSuffix(r.URL.Query().Get("filter"), ":"+AaiErrorName) {
		http.Error(w, "vserver not found", http.StatusNotFound)
		return
	}
	writeFixture(w, "aai-tenant.json")
}

func (h *HTTP) aaiPnf(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["pnfName"]
	if name == AaiErrorName {
		http.Error(w, "pnf not found", http.StatusNotFound)
		return
	}

	var pnf map[string]interface{}
	if err := readFixture("aai-pnf.json", &pnf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	pnf["pnf-name"] = name
	writeJSON(w, http.StatusOK, pnf)
}

// poll counts the polls of id, returning the new count.
func (h *HTTP) poll(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.polls[id]++
	return h.polls[id]
}

func readFixture(name string, v interface{}) error {
	data, err := fixtures.ReadFile("fixtures/" + name)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeFixture(w http.ResponseWriter, name string) {
	data, err := fixtures.ReadFile("fixtures/" + name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
