// Package actor is the framework the policy actors plug into: the Actor,
// Operator and Operation contracts, the Runner that drives an operation
// through its retries and timeouts, and the Service that hosts the actors.
package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
)

// Result is the outcome class of an operation.
type Result string

const (
	Success          Result = "SUCCESS"
	Failure          Result = "FAILURE"
	FailureTimeout   Result = "FAILURE_TIMEOUT"
	FailureRetries   Result = "FAILURE_RETRIES"
	FailureException Result = "FAILURE_EXCEPTION"
	FailureGuard     Result = "FAILURE_GUARD"
)

// IsSuccess reports whether r is Success.
func (r Result) IsSuccess() bool {
	return r == Success
}

// Sentinel errors returned by the framework.
var (
	ErrUnknownActor    = errors.New("unknown actor")
	ErrUnknownOperator = errors.New("unknown operator")
	ErrNotConfigured   = errors.New("not configured")
	ErrAlreadyRunning  = errors.New("already running")
	ErrMissingProperty = errors.New("missing property")
	ErrInvalidParams   = errors.New("invalid operation parameters")
)

// Outcome is the result of an operation attempt. The final outcome of a
// run has Final set.
type Outcome struct {
	Actor        string      `json:"actor"`
	Operation    string      `json:"operation"`
	Target       string      `json:"target,omitempty"`
	SubRequestID string      `json:"subRequestId,omitempty"`
	Attempt      int         `json:"attempt"`
	Start        time.Time   `json:"start"`
	End          time.Time   `json:"end"`
	Result       Result      `json:"result"`
	Message      string      `json:"message,omitempty"`
	Response     interface{} `json:"response,omitempty"`
	Final        bool        `json:"final"`
}

// SetResult sets the result and a message.
func (o *Outcome) SetResult(result Result, message string) *Outcome {
	o.Result = result
	o.Message = message
	return o
}

// ToOperation converts the outcome into the control-loop history record.
func (o *Outcome) ToOperation() controlloop.Operation {
	return controlloop.Operation{
		Actor:        o.Actor,
		Operation:    o.Operation,
		Target:       o.Target,
		SubRequestID: o.SubRequestID,
		Outcome:      string(o.Result),
		Message:      o.Message,
		Start:        o.Start,
		End:          o.End,
	}
}

// Callback observes outcomes as an operation progresses.
type Callback func(outcome *Outcome)

// Params are the parameters of one operation run.
type Params struct {
	Actor           string                 `json:"actor"`
	Operation       string                 `json:"operation"`
	RequestID       uuid.UUID              `json:"requestId"`
	ClosedLoopName  string                 `json:"closedLoopControlName,omitempty"`
	TargetEntity    string                 `json:"targetEntity,omitempty"`
	TargetType      controlloop.TargetType `json:"targetType,omitempty"`
	TargetEntityIDs map[string]string      `json:"targetEntityIds,omitempty"`
	Payload         map[string]interface{} `json:"payload,omitempty"`
	Properties      map[string]interface{} `json:"-"`
	Retry           int                    `json:"retry,omitempty"`
	Timeout         time.Duration          `json:"-"`

	StartCallback    Callback `json:"-"`
	CompleteCallback Callback `json:"-"`
}

// Validate checks the fields every operation needs.
func (p Params) Validate() error {
	switch {
	case p.Actor == "":
		return fmt.Errorf("%w: actor is required", ErrInvalidParams)
	case p.Operation == "":
		return fmt.Errorf("%w: operation is required", ErrInvalidParams)
	case p.RequestID == uuid.Nil:
		return fmt.Errorf("%w: requestId is required", ErrInvalidParams)
	case p.Retry < 0:
		return fmt.Errorf("%w: retry must not be negative", ErrInvalidParams)
	case p.Timeout < 0:
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidParams)
	}
	return nil
}

// FullName returns actor.operation.
func (p Params) FullName() string {
	return p.Actor + "." + p.Operation
}

// TargetEntityID returns the target entity id stored under key.
func (p Params) TargetEntityID(key string) string {
	return p.TargetEntityIDs[key]
}

// PayloadString returns the payload value under key when it is a string.
func (p Params) PayloadString(key string) string {
	if v, ok := p.Payload[key].(string); ok {
		return v
	}
	return ""
}

// MakeOutcome returns a fresh outcome for these params.
func (p Params) MakeOutcome() *Outcome {
	return &Outcome{
		Actor:     p.Actor,
		Operation: p.Operation,
		Target:    p.TargetEntity,
		Start:     time.Now(),
	}
}
