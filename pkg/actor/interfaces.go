package actor

import (
	"context"
	"time"
)

// Lifecycle is shared by actors and operators. Configure is only allowed
// while stopped.
type Lifecycle interface {
	Configure(params map[string]interface{}) error
	Start() error
	Stop() error
	Shutdown()
	IsAlive() bool
	IsConfigured() bool
}

// Actor groups the operators that talk to one external system.
type Actor interface {
	Lifecycle
	Name() string
	Operators() []Operator
	Operator(name string) (Operator, error)
}

// Operator builds operations of one kind.
type Operator interface {
	Lifecycle
	ActorName() string
	Name() string
	FullName() string
	BuildOperation(params Params) (Operation, error)
}

// Operation is one run of an operator against a target.
type Operation interface {
	Name() string
	Params() Params
	// PropertyNames lists the properties that must be set before Start.
	PropertyNames() []string
	SetProperty(name string, value interface{})
	GetProperty(name string) interface{}
	Start(ctx context.Context) *Outcome
}

// Doer performs a single attempt of an operation, filling in outcome.
// Returning an error lets the Runner classify the failure.
type Doer interface {
	DoOperation(ctx context.Context, attempt int, outcome *Outcome) error
}

// GuardPayloader is implemented by operations that add fields to the guard
// request, such as the VF module count.
type GuardPayloader interface {
	GuardPayload() map[string]interface{}
}

// TimeoutProvider is implemented by operators that have a default
// per-attempt timeout.
type TimeoutProvider interface {
	DefaultTimeout() time.Duration
}
