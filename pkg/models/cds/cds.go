// Package cds holds the CDS blueprint-processing messages exchanged over the
// BluePrintProcessingService/process stream.
package cds

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// EventType is the status event of an ExecutionServiceOutput.
type EventType string

const (
	EventComponentFailure      EventType = "EVENT_COMPONENT_FAILURE"
	EventComponentProcessing   EventType = "EVENT_COMPONENT_PROCESSING"
	EventComponentNotification EventType = "EVENT_COMPONENT_NOTIFICATION"
	EventComponentExecuted     EventType = "EVENT_COMPONENT_EXECUTED"
	EventComponentTrace        EventType = "EVENT_COMPONENT_TRACE"
)

// Execution modes.
const (
	ModeSync  = "sync"
	ModeAsync = "async"
)

// OriginatorPolicy is the originator id the actor stamps on requests.
const OriginatorPolicy = "POLICY"

// ExecutionServiceInput is one request on the process stream.
type ExecutionServiceInput struct {
	CommonHeader      *CommonHeader          `json:"commonHeader"`
	ActionIdentifiers *ActionIdentifiers     `json:"actionIdentifiers"`
	Payload           map[string]interface{} `json:"payload,omitempty"`
}

// ExecutionServiceOutput is one response on the process stream.
type ExecutionServiceOutput struct {
	CommonHeader      *CommonHeader          `json:"commonHeader,omitempty"`
	ActionIdentifiers *ActionIdentifiers     `json:"actionIdentifiers,omitempty"`
	Status            *Status                `json:"status,omitempty"`
	Payload           map[string]interface{} `json:"payload,omitempty"`
}

// CommonHeader correlates the stream messages.
type CommonHeader struct {
	Timestamp    time.Time `json:"timestamp"`
	OriginatorID string    `json:"originatorId"`
	RequestID    string    `json:"requestId"`
	SubRequestID string    `json:"subRequestId"`
}

// ActionIdentifiers names the blueprint workflow to run.
type ActionIdentifiers struct {
	BlueprintName    string `json:"blueprintName"`
	BlueprintVersion string `json:"blueprintVersion"`
	ActionName       string `json:"actionName"`
	Mode             string `json:"mode"`
}

// Status is the execution status of one output.
type Status struct {
	Code         int       `json:"code"`
	EventType    EventType `json:"eventType"`
	Timestamp    time.Time `json:"timestamp"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// EventType returns the status event, or "" when there is no status.
func (o *ExecutionServiceOutput) EventType() EventType {
	if o == nil || o.Status == nil {
		return ""
	}
	return o.Status.EventType
}

// NewPayload builds the "<action>-request" payload CDS expects. The
// properties go through structpb so only values representable in a
// google.protobuf.Struct are accepted.
func NewPayload(actionName string, properties map[string]interface{}) (map[string]interface{}, error) {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	st, err := structpb.NewStruct(map[string]interface{}{
		actionName + "-request": properties,
	})
	if err != nil {
		return nil, fmt.Errorf("payload for %s is not a valid struct: %w", actionName, err)
	}
	return st.AsMap(), nil
}
