package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	perrors "github.com/thc1006/onap-policy-actors/pkg/errors"
	"github.com/thc1006/onap-policy-actors/pkg/logging"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
)

const tracerName = "github.com/thc1006/onap-policy-actors/pkg/actor"

var errPanic = errors.New("operation panicked")

// RunnerConfig tunes a Runner.
type RunnerConfig struct {
	// DefaultTimeout applies to each attempt when the params carry none.
	DefaultTimeout time.Duration
	// PropertyNames are the properties the operation needs before Start.
	PropertyNames []string
	Metrics       *metrics.Metrics
	Logger        *logging.Logger
}

// Runner implements Operation on top of a Doer. It owns the retry loop,
// per-attempt timeouts, sub-request ids, callbacks, metrics and spans, so
// concrete operations only implement a single attempt.
type Runner struct {
	params Params
	doer   Doer
	cfg    RunnerConfig
	tracer trace.Tracer
	log    logging.Logger

	mu    sync.RWMutex
	props map[string]interface{}
}

// NewRunner returns a Runner that drives doer with params.
func NewRunner(params Params, doer Doer, cfg RunnerConfig) *Runner {
	log := logging.NewLogger(logging.ComponentActorService)
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	r := &Runner{
		params: params,
		doer:   doer,
		cfg:    cfg,
		tracer: otel.Tracer(tracerName),
		log:    log.WithOperation(params.Actor, params.Operation).WithRequestID(params.RequestID.String()),
		props:  make(map[string]interface{}),
	}
	for k, v := range params.Properties {
		r.props[k] = v
	}
	return r
}

// Name returns the operation name.
func (r *Runner) Name() string { return r.params.Operation }

// Params returns the run parameters.
func (r *Runner) Params() Params { return r.params }

// Logger returns the operation's logger.
func (r *Runner) Logger() logging.Logger { return r.log }

// PropertyNames returns the properties required before Start.
func (r *Runner) PropertyNames() []string {
	return append([]string(nil), r.cfg.PropertyNames...)
}

// SetProperty sets a property.
func (r *Runner) SetProperty(name string, value interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.props[name] = value
}

// GetProperty returns a property, or nil.
func (r *Runner) GetProperty(name string) interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.props[name]
}

// RequireProperty returns the named property or ErrMissingProperty.
func (r *Runner) RequireProperty(name string) (interface{}, error) {
	v := r.GetProperty(name)
	if v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingProperty, name)
	}
	return v, nil
}

// Start runs the operation, retrying failed attempts up to params.Retry
// times. An attempt that failed with an error is only retried when the
// error is retryable. It always returns a final outcome.
func (r *Runner) Start(ctx context.Context) *Outcome {
	began := time.Now()

	var outcome *Outcome
	for attempt := 1; ; attempt++ {
		var err error
		outcome, err = r.runAttempt(ctx, attempt)
		if outcome.Result != Failure || r.params.Retry <= 0 {
			break
		}
		if err != nil && !perrors.IsRetryable(err) {
			r.log.DebugEvent("Attempt error is not retryable", "attempt", attempt, "message", outcome.Message)
			break
		}
		if attempt > r.params.Retry {
			outcome.Result = FailureRetries
			break
		}
		if ctx.Err() != nil {
			break
		}
		r.log.InfoEvent("Retrying operation", "attempt", attempt+1, "message", outcome.Message)
	}

	outcome.Final = true
	r.cfg.Metrics.RecordOperation(r.params.Actor, r.params.Operation, string(outcome.Result), time.Since(began))
	r.log.OperationCompleted(string(outcome.Result), time.Since(began))

	if r.params.CompleteCallback != nil {
		r.params.CompleteCallback(outcome)
	}
	return outcome
}

func (r *Runner) runAttempt(ctx context.Context, attempt int) (*Outcome, error) {
	outcome := r.params.MakeOutcome()
	outcome.Attempt = attempt
	outcome.SubRequestID = uuid.NewString()

	if r.params.StartCallback != nil {
		started := *outcome
		r.params.StartCallback(&started)
	}

	timeout := r.params.Timeout
	if timeout == 0 {
		timeout = r.cfg.DefaultTimeout
	}
	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	defer cancel()

	spanCtx, span := r.tracer.Start(attemptCtx, "actor."+r.params.FullName(),
		trace.WithAttributes(
			attribute.String("actor", r.params.Actor),
			attribute.String("operation", r.params.Operation),
			attribute.String("request.id", r.params.RequestID.String()),
			attribute.String("subrequest.id", outcome.SubRequestID),
			attribute.Int("attempt", attempt),
		))
	defer span.End()

	r.cfg.Metrics.RecordAttempt(r.params.Actor, r.params.Operation)
	r.log.OperationStarted(outcome.SubRequestID, attempt)

	err := r.safeDo(spanCtx, attempt, outcome)
	outcome.End = time.Now()

	if err != nil {
		classify(attemptCtx, err, outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome.Message)
	} else if outcome.Result == "" {
		outcome.Result = Success
	}
	span.SetAttributes(attribute.String("result", string(outcome.Result)))

	return outcome, err
}

func (r *Runner) safeDo(ctx context.Context, attempt int, outcome *Outcome) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", errPanic, p)
		}
	}()
	return r.doer.DoOperation(ctx, attempt, outcome)
}

// classify maps an attempt error onto a result.
func classify(ctx context.Context, err error, outcome *Outcome) {
	outcome.Message = err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		outcome.Result = FailureTimeout
		return
	case errors.Is(err, context.Canceled), errors.Is(err, errPanic):
		outcome.Result = FailureException
		return
	}

	switch perrors.TypeOf(err) {
	case perrors.ErrorTypeNetwork, perrors.ErrorTypeExternal, perrors.ErrorTypeNotFound,
		perrors.ErrorTypeRateLimit, perrors.ErrorTypeCircuit, perrors.ErrorTypeRejected,
		perrors.ErrorTypeTimeout:
		outcome.Result = Failure
	default:
		outcome.Result = FailureException
	}
}
