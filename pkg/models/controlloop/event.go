// Package controlloop holds the control-loop event and operation records
// exchanged between the policy engine and the actors.
package controlloop

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventStatus is the closed-loop status carried by an event.
type EventStatus string

const (
	EventStatusOnset  EventStatus = "ONSET"
	EventStatusAbated EventStatus = "ABATED"
)

// TargetType names the kind of entity an event (or an operation) targets.
type TargetType string

const (
	TargetTypeVM       TargetType = "VM"
	TargetTypeVNF      TargetType = "VNF"
	TargetTypeVFModule TargetType = "VFMODULE"
	TargetTypePNF      TargetType = "PNF"
)

// Well known keys of the AAI map and of target entity ids.
const (
	GenericVnfVnfID         = "generic-vnf.vnf-id"
	GenericVnfVnfName       = "generic-vnf.vnf-name"
	VserverVserverName      = "vserver.vserver-name"
	VserverVserverID        = "vserver.vserver-id"
	VserverProvStatus       = "vserver.prov-status"
	VserverSelfLink         = "vserver.selflink"
	PnfPnfName              = "pnf.pnf-name"
	ServiceInstanceID       = "service-instance.service-instance-id"
	NetworkInformationNetID = "network-information.network-id"
	ResourceID              = "resourceID"
	ModelInvariantID        = "modelInvariantId"
	ModelVersionID          = "modelVersionId"
	ModelName               = "modelName"
	ModelVersion            = "modelVersion"
	ModelCustomizationID    = "modelCustomizationId"
)

// VirtualControlLoopEvent is the ONSET/ABATED event raised by analytics
// for a closed loop.
type VirtualControlLoopEvent struct {
	ClosedLoopControlName string            `json:"closedLoopControlName"`
	Version               string            `json:"version,omitempty"`
	RequestID             uuid.UUID         `json:"requestID"`
	ClosedLoopEventClient string            `json:"closedLoopEventClient,omitempty"`
	TargetType            TargetType        `json:"target_type,omitempty"`
	Target                string            `json:"target,omitempty"`
	From                  string            `json:"from,omitempty"`
	PolicyScope           string            `json:"policyScope,omitempty"`
	PolicyName            string            `json:"policyName,omitempty"`
	PolicyVersion         string            `json:"policyVersion,omitempty"`
	ClosedLoopEventStatus EventStatus       `json:"closedLoopEventStatus"`
	ClosedLoopAlarmStart  int64             `json:"closedLoopAlarmStart,omitempty"`
	ClosedLoopAlarmEnd    int64             `json:"closedLoopAlarmEnd,omitempty"`
	AAI                   map[string]string `json:"AAI,omitempty"`
	Payload               string            `json:"payload,omitempty"`
}

// Validate checks the fields every closed loop relies on.
func (e *VirtualControlLoopEvent) Validate() error {
	if e.ClosedLoopControlName == "" {
		return fmt.Errorf("no closed loop control name")
	}
	if e.RequestID == uuid.Nil {
		return fmt.Errorf("no request id")
	}
	switch e.ClosedLoopEventStatus {
	case EventStatusOnset, EventStatusAbated:
	default:
		return fmt.Errorf("invalid closed loop event status %q", e.ClosedLoopEventStatus)
	}
	if e.ClosedLoopEventStatus == EventStatusOnset && e.Target == "" {
		return fmt.Errorf("no target field")
	}
	return nil
}

// IsProvStatusActive reports whether the vserver/vnf is ACTIVE. A missing
// prov-status counts as active.
func (e *VirtualControlLoopEvent) IsProvStatusActive() bool {
	for _, key := range []string{VserverProvStatus, "generic-vnf.prov-status"} {
		if v, ok := e.AAI[key]; ok {
			return strings.EqualFold(v, "ACTIVE")
		}
	}
	return true
}

// TargetEntityIDs extracts the AAI entries relevant to operations.
func (e *VirtualControlLoopEvent) TargetEntityIDs() map[string]string {
	ids := make(map[string]string, len(e.AAI))
	for k, v := range e.AAI {
		ids[k] = v
	}
	return ids
}

// Operation is the history record of one actor operation, as reported back
// to the policy engine.
type Operation struct {
	Actor        string    `json:"actor"`
	Operation    string    `json:"operation"`
	Target       string    `json:"target,omitempty"`
	SubRequestID string    `json:"subRequestId,omitempty"`
	Outcome      string    `json:"outcome,omitempty"`
	Message      string    `json:"message,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end,omitempty"`
}

// String renders the record the way operation history prints it.
func (o Operation) String() string {
	return fmt.Sprintf("ControlLoopOperation [actor=%s, operation=%s, target=%s, subRequestId=%s, outcome=%s, message=%s]",
		o.Actor, o.Operation, o.Target, o.SubRequestID, o.Outcome, o.Message)
}
