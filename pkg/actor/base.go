package actor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/thc1006/onap-policy-actors/pkg/logging"
)

// OperationsKey holds the per-operation overrides inside an actor's
// parameters.
const OperationsKey = "operations"

// OperatorParams derives the parameters of one operator from its actor's
// parameters: every top-level entry except "operations", overridden by the
// entries under operations.<name>.
func OperatorParams(actorParams map[string]interface{}, operator string) map[string]interface{} {
	out := make(map[string]interface{}, len(actorParams))
	for k, v := range actorParams {
		if k != OperationsKey {
			out[k] = v
		}
	}

	ops, _ := actorParams[OperationsKey].(map[string]interface{})
	if overrides, ok := ops[operator].(map[string]interface{}); ok {
		for k, v := range overrides {
			out[k] = v
		}
	}
	return out
}

// BaseOperator carries the identity and lifecycle state shared by all
// operators. Concrete operators embed it and supply Configure and
// BuildOperation.
type BaseOperator struct {
	actorName string
	name      string

	mu         sync.RWMutex
	configured bool
	alive      bool
}

// NewBaseOperator returns the base of operator name of actorName.
func NewBaseOperator(actorName, name string) *BaseOperator {
	return &BaseOperator{actorName: actorName, name: name}
}

func (o *BaseOperator) ActorName() string { return o.actorName }
func (o *BaseOperator) Name() string      { return o.name }
func (o *BaseOperator) FullName() string  { return o.actorName + "." + o.name }

// IsAlive reports whether the operator is started.
func (o *BaseOperator) IsAlive() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.alive
}

// IsConfigured reports whether Configure succeeded.
func (o *BaseOperator) IsConfigured() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.configured
}

// DoConfigure runs apply while the operator is stopped, marking it
// configured when apply succeeds.
func (o *BaseOperator) DoConfigure(apply func() error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.alive {
		return fmt.Errorf("configure %s: %w", o.FullName(), ErrAlreadyRunning)
	}
	if err := apply(); err != nil {
		o.configured = false
		return fmt.Errorf("configure %s: %w", o.FullName(), err)
	}
	o.configured = true
	return nil
}

// Start marks a configured operator alive.
func (o *BaseOperator) Start() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.configured {
		return fmt.Errorf("start %s: %w", o.FullName(), ErrNotConfigured)
	}
	o.alive = true
	return nil
}

// Stop marks the operator stopped.
func (o *BaseOperator) Stop() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.alive = false
	return nil
}

// Shutdown stops the operator.
func (o *BaseOperator) Shutdown() {
	_ = o.Stop()
}

// BaseActor is an Actor holding a fixed set of operators.
type BaseActor struct {
	name string
	log  logging.Logger

	mu         sync.RWMutex
	operators  map[string]Operator
	order      []string
	configured bool
	alive      bool
}

// NewBaseActor returns an actor named name with the given operators.
func NewBaseActor(name string, operators ...Operator) *BaseActor {
	a := &BaseActor{
		name:      name,
		log:       logging.NewLogger(logging.ComponentActorService).WithValues("actor", name),
		operators: make(map[string]Operator),
	}
	for _, op := range operators {
		// Duplicates are a programming error.
		if err := a.AddOperator(op); err != nil {
			panic(err)
		}
	}
	return a
}

// Name returns the actor name.
func (a *BaseActor) Name() string { return a.name }

// AddOperator registers an operator while the actor is stopped.
func (a *BaseActor) AddOperator(op Operator) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.alive {
		return fmt.Errorf("add operator to %s: %w", a.name, ErrAlreadyRunning)
	}
	if _, ok := a.operators[op.Name()]; ok {
		return fmt.Errorf("actor %s already has operator %s", a.name, op.Name())
	}
	a.operators[op.Name()] = op
	a.order = append(a.order, op.Name())
	return nil
}

// Operators returns the operators in registration order.
func (a *BaseActor) Operators() []Operator {
	a.mu.RLock()
	defer a.mu.RUnlock()

	ops := make([]Operator, 0, len(a.order))
	for _, name := range a.order {
		ops = append(ops, a.operators[name])
	}
	return ops
}

// Operator returns the named operator.
func (a *BaseActor) Operator(name string) (Operator, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	op, ok := a.operators[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOperator, a.name, name)
	}
	return op, nil
}

// Configure configures every operator from params. Operators that fail to
// configure stay unconfigured and are skipped by Start; their errors are
// returned joined.
func (a *BaseActor) Configure(params map[string]interface{}) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.alive {
		return fmt.Errorf("configure %s: %w", a.name, ErrAlreadyRunning)
	}

	var errs []error
	for _, name := range a.order {
		if err := a.operators[name].Configure(OperatorParams(params, name)); err != nil {
			a.log.ErrorEvent(err, "Operator configuration failed", "operator", name)
			errs = append(errs, err)
		}
	}
	a.configured = true
	return errors.Join(errs...)
}

// Unconfigure marks a stopped actor unconfigured so that Start skips it.
func (a *BaseActor) Unconfigure() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.alive {
		return
	}
	a.configured = false
}

// IsConfigured reports whether Configure has run.
func (a *BaseActor) IsConfigured() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.configured
}

// IsAlive reports whether the actor is started.
func (a *BaseActor) IsAlive() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.alive
}

// Start starts every configured operator.
func (a *BaseActor) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.configured {
		return fmt.Errorf("start %s: %w", a.name, ErrNotConfigured)
	}

	for _, name := range a.order {
		op := a.operators[name]
		if !op.IsConfigured() {
			a.log.InfoEvent("Skipping unconfigured operator", "operator", name)
			continue
		}
		if err := op.Start(); err != nil {
			return fmt.Errorf("start %s: %w", op.FullName(), err)
		}
	}
	a.alive = true
	return nil
}

// Stop stops every operator.
func (a *BaseActor) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for _, name := range a.order {
		if err := a.operators[name].Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	a.alive = false
	return errors.Join(errs...)
}

// Shutdown stops every operator, ignoring errors.
func (a *BaseActor) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, name := range a.order {
		a.operators[name].Shutdown()
	}
	a.alive = false
}
