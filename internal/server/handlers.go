package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	aaiactor "github.com/thc1006/onap-policy-actors/pkg/actors/aai"
	"github.com/thc1006/onap-policy-actors/pkg/models/aai"
	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
)

const maxBodyBytes = 1 << 20

// ActorInfo describes one actor in the actor listing.
type ActorInfo struct {
	Name      string         `json:"name"`
	Alive     bool           `json:"alive"`
	Operators []OperatorInfo `json:"operators"`
}

// OperatorInfo describes one operator of an actor.
type OperatorInfo struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Alive      bool   `json:"alive"`
}

// OperationRequest is the body of an operation run. Fields left empty are
// taken from Event when one is given.
type OperationRequest struct {
	RequestID       string                               `json:"requestId,omitempty"`
	ClosedLoopName  string                               `json:"closedLoopControlName,omitempty"`
	TargetEntity    string                               `json:"targetEntity,omitempty"`
	TargetType      controlloop.TargetType               `json:"targetType,omitempty"`
	TargetEntityIDs map[string]string                    `json:"targetEntityIds,omitempty"`
	Payload         map[string]interface{}               `json:"payload,omitempty"`
	Properties      map[string]json.RawMessage           `json:"properties,omitempty"`
	Retry           int                                  `json:"retry,omitempty"`
	TimeoutSec      int                                  `json:"timeoutSec,omitempty"`
	Event           *controlloop.VirtualControlLoopEvent `json:"event,omitempty"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if !s.service.IsAlive() {
		status, code = "stopped", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{"status": status, "actors": s.service.Names()})
}

func (s *Server) handleListActors(w http.ResponseWriter, r *http.Request) {
	infos := []ActorInfo{}
	for _, name := range s.service.Names() {
		a, err := s.service.Actor(name)
		if err != nil {
			continue
		}
		info := ActorInfo{Name: name, Alive: a.IsAlive(), Operators: []OperatorInfo{}}
		for _, op := range a.Operators() {
			info.Operators = append(info.Operators, OperatorInfo{
				Name:       op.Name(),
				Configured: op.IsConfigured(),
				Alive:      op.IsAlive(),
			})
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleRunOperation(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	actorName, operation := vars["actor"], vars["operation"]

	if _, err := s.service.Operator(actorName, operation); err != nil {
		if errors.Is(err, actor.ErrUnknownActor) || errors.Is(err, actor.ErrUnknownOperator) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req OperationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	params, err := req.toParams(actorName, operation)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome := s.service.Execute(r.Context(), params)
	writeJSON(w, http.StatusOK, outcome)
}

// toParams builds the run parameters, filling gaps from the event.
func (req *OperationRequest) toParams(actorName, operation string) (actor.Params, error) {
	p := actor.Params{
		Actor:           actorName,
		Operation:       operation,
		ClosedLoopName:  req.ClosedLoopName,
		TargetEntity:    req.TargetEntity,
		TargetType:      req.TargetType,
		TargetEntityIDs: req.TargetEntityIDs,
		Payload:         req.Payload,
		Retry:           req.Retry,
		Timeout:         time.Duration(req.TimeoutSec) * time.Second,
	}

	if req.RequestID != "" {
		id, err := uuid.Parse(req.RequestID)
		if err != nil {
			return p, fmt.Errorf("invalid requestId: %w", err)
		}
		p.RequestID = id
	}

	if ev := req.Event; ev != nil {
		if err := ev.Validate(); err != nil {
			return p, fmt.Errorf("invalid event: %w", err)
		}
		if p.RequestID == uuid.Nil {
			p.RequestID = ev.RequestID
		}
		if p.ClosedLoopName == "" {
			p.ClosedLoopName = ev.ClosedLoopControlName
		}
		if p.TargetEntity == "" {
			p.TargetEntity = ev.Target
		}
		if p.TargetType == "" {
			p.TargetType = ev.TargetType
		}
		ids := ev.TargetEntityIDs()
		for k, v := range p.TargetEntityIDs {
			ids[k] = v
		}
		p.TargetEntityIDs = ids
	}

	if p.RequestID == uuid.Nil {
		p.RequestID = uuid.New()
	}

	props, err := decodeProperties(req.Properties)
	if err != nil {
		return p, err
	}
	p.Properties = props

	return p, p.Validate()
}

// decodeProperties decodes the A&AI properties into the types the actors
// expect. Other properties are passed through as decoded JSON.
func decodeProperties(raw map[string]json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	props := make(map[string]interface{}, len(raw))
	for name, data := range raw {
		var (
			v   interface{}
			err error
		)
		switch name {
		case aaiactor.PropertyCustomQuery:
			v, err = aai.ParseCqResponse(data)
		case aaiactor.PropertyTenant:
			var tenant aai.NodesQueryResponse
			err = json.Unmarshal(data, &tenant)
			v = &tenant
		case aaiactor.PropertyPnf:
			var pnf aai.Pnf
			err = json.Unmarshal(data, &pnf)
			v = &pnf
		default:
			err = json.Unmarshal(data, &v)
		}
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}
		props[name] = v
	}
	return props, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
