package actor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/thc1006/onap-policy-actors/pkg/logging"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
)

// PropertyResolver computes a property an operation needs, typically by
// running an A&AI query.
type PropertyResolver func(ctx context.Context, params Params) (interface{}, error)

// GuardConfig selects the operation consulted before every other
// operation.
type GuardConfig struct {
	Enabled   bool   `json:"enabled"`
	Actor     string `json:"actor"`
	Operation string `json:"operation"`
	// Exempt actors never go through guard, e.g. inventory queries.
	Exempt []string `json:"exempt,omitempty"`
}

// DefaultGuardConfig routes guard checks to XACML Decision, exempting A&AI.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Enabled:   true,
		Actor:     "XACML",
		Operation: "Decision",
		Exempt:    []string{"AAI"},
	}
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(log logging.Logger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// WithMetrics sets the collectors outcomes are recorded to.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithGuard sets the guard configuration.
func WithGuard(cfg GuardConfig) ServiceOption {
	return func(s *Service) { s.guard = cfg }
}

// Service hosts the actors and runs operations against them.
type Service struct {
	log     logging.Logger
	metrics *metrics.Metrics
	guard   GuardConfig

	mu        sync.RWMutex
	actors    map[string]Actor
	resolvers map[string]PropertyResolver
	alive     bool
}

// NewService returns an empty service.
func NewService(opts ...ServiceOption) *Service {
	s := &Service{
		log:       logging.NewLogger(logging.ComponentActorService),
		guard:     DefaultGuardConfig(),
		actors:    make(map[string]Actor),
		resolvers: make(map[string]PropertyResolver),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds an actor. Names must be unique.
func (s *Service) Register(a Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alive {
		return fmt.Errorf("register %s: %w", a.Name(), ErrAlreadyRunning)
	}
	if _, ok := s.actors[a.Name()]; ok {
		return fmt.Errorf("actor %s is already registered", a.Name())
	}
	s.actors[a.Name()] = a
	return nil
}

// RegisterResolver installs the resolver of a property.
func (s *Service) RegisterResolver(property string, resolver PropertyResolver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolvers[property] = resolver
}

// Actor returns the named actor.
func (s *Service) Actor(name string) (Actor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.actors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownActor, name)
	}
	return a, nil
}

// Operator returns the named operator of the named actor.
func (s *Service) Operator(actorName, operator string) (Operator, error) {
	a, err := s.Actor(actorName)
	if err != nil {
		return nil, err
	}
	return a.Operator(operator)
}

// Names returns the sorted actor names.
func (s *Service) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.actors))
	for name := range s.actors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Guard returns the guard configuration.
func (s *Service) Guard() GuardConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guard
}

// SetGuard replaces the guard configuration. It applies to operations
// executed afterwards.
func (s *Service) SetGuard(cfg GuardConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard = cfg
}

// IsAlive reports whether the service is started.
func (s *Service) IsAlive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alive
}

// unconfigurer is implemented by actors that can drop their configuration,
// such as BaseActor.
type unconfigurer interface {
	Unconfigure()
}

// Configure configures each actor from its entry in params. Actors without
// an entry are left unconfigured, dropping any earlier configuration, and
// are skipped by Start. Configuration errors are returned joined; the
// actors that did configure can still be started.
func (s *Service) Configure(params map[string]map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alive {
		return fmt.Errorf("configure actor service: %w", ErrAlreadyRunning)
	}

	var errs []error
	for name, a := range s.actors {
		actorParams, ok := params[name]
		if !ok {
			s.log.InfoEvent("No parameters for actor", "actor", name)
			if u, ok := a.(unconfigurer); ok {
				u.Unconfigure()
			}
			continue
		}
		if err := a.Configure(actorParams); err != nil {
			errs = append(errs, fmt.Errorf("actor %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Start starts every configured actor concurrently.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.alive {
		return fmt.Errorf("start actor service: %w", ErrAlreadyRunning)
	}

	g, _ := errgroup.WithContext(ctx)
	for name, a := range s.actors {
		if !a.IsConfigured() {
			s.log.InfoEvent("Skipping unconfigured actor", "actor", name)
			continue
		}
		a := a
		g.Go(a.Start)
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("start actor service: %w", err)
	}

	s.alive = true
	s.log.InfoEvent("Actor service started", "actors", len(s.actors))
	return nil
}

// Stop stops every actor.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var g errgroup.Group
	for _, a := range s.actors {
		a := a
		g.Go(a.Stop)
	}
	err := g.Wait()
	s.alive = false
	return err
}

// Shutdown stops every actor, ignoring errors.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.actors {
		a.Shutdown()
	}
	s.alive = false
}

// Execute runs one operation: it builds the operation, resolves missing
// properties, consults guard and then starts it. The returned outcome is
// final and never nil.
func (s *Service) Execute(ctx context.Context, params Params) *Outcome {
	return s.run(ctx, params, s.guardRequired(params))
}

// Query runs an operation without consulting guard. Property resolvers use
// it to run inventory lookups.
func (s *Service) Query(ctx context.Context, params Params) *Outcome {
	return s.run(ctx, params, false)
}

func (s *Service) run(ctx context.Context, params Params, guarded bool) *Outcome {
	log := s.log.WithOperation(params.Actor, params.Operation).WithRequestID(params.RequestID.String())

	if err := params.Validate(); err != nil {
		return s.fail(params, FailureException, err.Error())
	}

	op, err := s.Operator(params.Actor, params.Operation)
	if err != nil {
		return s.fail(params, FailureException, err.Error())
	}
	if !op.IsAlive() {
		return s.fail(params, FailureException, fmt.Sprintf("operator %s is not running", op.FullName()))
	}

	operation, err := op.BuildOperation(params)
	if err != nil {
		log.ErrorEvent(err, "Cannot build operation")
		return s.fail(params, FailureException, err.Error())
	}

	if err := s.resolveProperties(ctx, params, operation); err != nil {
		log.ErrorEvent(err, "Cannot resolve operation properties")
		return s.fail(params, Failure, err.Error())
	}

	if guarded {
		if decision := s.checkGuard(ctx, params, operation); !decision.Result.IsSuccess() {
			log.InfoEvent("Operation denied by guard", "message", decision.Message)
			return s.fail(params, FailureGuard, decision.Message)
		}
	}

	return operation.Start(ctx)
}

func (s *Service) resolveProperties(ctx context.Context, params Params, operation Operation) error {
	for _, name := range operation.PropertyNames() {
		if operation.GetProperty(name) != nil {
			continue
		}
		if v, ok := params.Properties[name]; ok && v != nil {
			operation.SetProperty(name, v)
			continue
		}

		s.mu.RLock()
		resolver, ok := s.resolvers[name]
		s.mu.RUnlock()
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingProperty, name)
		}

		v, err := resolver(ctx, params)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", name, err)
		}
		operation.SetProperty(name, v)
	}
	return nil
}

func (s *Service) guardRequired(params Params) bool {
	guard := s.Guard()
	if !guard.Enabled || params.Actor == guard.Actor {
		return false
	}
	for _, exempt := range guard.Exempt {
		if params.Actor == exempt {
			return false
		}
	}
	return true
}

func (s *Service) checkGuard(ctx context.Context, params Params, operation Operation) *Outcome {
	payload := map[string]interface{}{
		"actor":     params.Actor,
		"operation": params.Operation,
		"target":    params.TargetEntity,
		"requestId": params.RequestID.String(),
		"clname":    params.ClosedLoopName,
	}
	if gp, ok := operation.(GuardPayloader); ok {
		for k, v := range gp.GuardPayload() {
			payload[k] = v
		}
	}

	guard := s.Guard()
	return s.run(ctx, Params{
		Actor:          guard.Actor,
		Operation:      guard.Operation,
		RequestID:      params.RequestID,
		ClosedLoopName: params.ClosedLoopName,
		TargetEntity:   params.TargetEntity,
		Payload:        payload,
	}, false)
}

// fail builds the final outcome of a run that never reached its target.
func (s *Service) fail(params Params, result Result, message string) *Outcome {
	outcome := params.MakeOutcome().SetResult(result, message)
	outcome.End = time.Now()
	outcome.Final = true

	s.metrics.RecordOperation(params.Actor, params.Operation, string(result), outcome.End.Sub(outcome.Start))
	if params.CompleteCallback != nil {
		params.CompleteCallback(outcome)
	}
	return outcome
}
