// Package cds is the CDS actor. Each configured operation runs a blueprint
// workflow over the BluePrintProcessingService process stream.
package cds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	perrors "github.com/thc1006/onap-policy-actors/pkg/errors"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
	"github.com/thc1006/onap-policy-actors/pkg/models/cds"
)

const Name = "CDS"

// ResolutionKey is the request field naming the resolved entity.
const ResolutionKey = "resolution-key"

var errStreamEnded = errors.New("CDS stream ended without a final status")

// Params are the operator parameters of a CDS operation.
type Params struct {
	Target           string `json:"target"`
	TimeoutSec       int    `json:"timeoutSec,omitempty"`
	BlueprintName    string `json:"blueprintName"`
	BlueprintVersion string `json:"blueprintVersion"`
	// ActionName defaults to the operation name.
	ActionName string `json:"actionName,omitempty"`
	Mode       string `json:"mode,omitempty"`
}

// Validate checks the parameters.
func (p Params) Validate() error {
	switch {
	case p.Target == "":
		return errors.New("target is required")
	case p.BlueprintName == "":
		return errors.New("blueprintName is required")
	case p.BlueprintVersion == "":
		return errors.New("blueprintVersion is required")
	case p.TimeoutSec < 0:
		return errors.New("timeoutSec must not be negative")
	}
	return nil
}

// Actor is the CDS actor. Its operators are the workflows named under
// "operations" in its parameters.
type Actor struct {
	*actor.BaseActor

	metrics *metrics.Metrics
}

// NewActor returns a CDS actor without operators.
func NewActor(m *metrics.Metrics) *Actor {
	return &Actor{BaseActor: actor.NewBaseActor(Name), metrics: m}
}

// Configure adds an operator for every new workflow before configuring
// them all.
func (a *Actor) Configure(params map[string]interface{}) error {
	ops, _ := params[actor.OperationsKey].(map[string]interface{})
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := a.Operator(name); err == nil {
			continue
		}
		if err := a.AddOperator(NewOperator(name, a.metrics)); err != nil {
			return err
		}
	}
	return a.BaseActor.Configure(params)
}

// Operator runs one blueprint workflow. It holds a gRPC connection to CDS
// while started.
type Operator struct {
	*actor.BaseOperator

	metrics *metrics.Metrics

	mu     sync.RWMutex
	params Params
	conn   *grpc.ClientConn
}

// NewOperator returns the operator of workflow name.
func NewOperator(name string, m *metrics.Metrics) *Operator {
	return &Operator{BaseOperator: actor.NewBaseOperator(Name, name), metrics: m}
}

// Configure decodes and validates params.
func (o *Operator) Configure(params map[string]interface{}) error {
	return o.DoConfigure(func() error {
		var p Params
		if err := actor.DecodeParams(params, &p); err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if p.ActionName == "" {
			p.ActionName = o.Name()
		}
		if p.Mode == "" {
			p.Mode = cds.ModeSync
		}

		o.mu.Lock()
		defer o.mu.Unlock()
		o.params = p
		return nil
	})
}

// Params returns the configured parameters.
func (o *Operator) Params() Params {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.params
}

// Start creates the connection. It does not wait for CDS to be reachable.
func (o *Operator) Start() error {
	if err := o.BaseOperator.Start(); err != nil {
		return err
	}

	conn, err := grpc.NewClient(o.Params().Target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		_ = o.BaseOperator.Stop()
		return fmt.Errorf("connect to CDS at %s: %w", o.Params().Target, err)
	}

	o.mu.Lock()
	o.conn = conn
	o.mu.Unlock()
	return nil
}

// Stop closes the connection.
func (o *Operator) Stop() error {
	o.mu.Lock()
	conn := o.conn
	o.conn = nil
	o.mu.Unlock()

	err := o.BaseOperator.Stop()
	if conn != nil {
		if cerr := conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// Shutdown closes the connection, ignoring errors.
func (o *Operator) Shutdown() {
	_ = o.Stop()
}

// DefaultTimeout is the configured per-attempt timeout.
func (o *Operator) DefaultTimeout() time.Duration {
	return time.Duration(o.Params().TimeoutSec) * time.Second
}

func (o *Operator) connection() (*grpc.ClientConn, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.conn == nil {
		return nil, fmt.Errorf("%s: %w", o.FullName(), actor.ErrNotConfigured)
	}
	return o.conn, nil
}

// BuildOperation builds an operation of the workflow.
func (o *Operator) BuildOperation(params actor.Params) (actor.Operation, error) {
	if !o.IsConfigured() {
		return nil, actor.ErrNotConfigured
	}
	op := &Operation{operator: o, config: o.Params()}
	op.Runner = actor.NewRunner(params, op, actor.RunnerConfig{
		DefaultTimeout: o.DefaultTimeout(),
		Metrics:        o.metrics,
	})
	return op, nil
}

// Operation runs the workflow once per attempt.
type Operation struct {
	*actor.Runner

	operator *Operator
	config   Params
}

// MakeRequest builds the execution request of one attempt. The workflow
// properties are the target entity ids overlaid with the payload.
func (o *Operation) MakeRequest(subRequestID string) (*cds.ExecutionServiceInput, error) {
	p := o.Params()

	properties := make(map[string]interface{}, len(p.TargetEntityIDs)+len(p.Payload))
	for k, v := range p.TargetEntityIDs {
		properties[k] = v
	}
	for k, v := range p.Payload {
		properties[k] = v
	}

	request := map[string]interface{}{ResolutionKey: p.TargetEntity}
	request[o.config.ActionName+"-properties"] = properties

	payload, err := cds.NewPayload(o.config.ActionName, request)
	if err != nil {
		return nil, err
	}

	return &cds.ExecutionServiceInput{
		CommonHeader: &cds.CommonHeader{
			Timestamp:    time.Now().UTC(),
			OriginatorID: cds.OriginatorPolicy,
			RequestID:    p.RequestID.String(),
			SubRequestID: subRequestID,
		},
		ActionIdentifiers: &cds.ActionIdentifiers{
			BlueprintName:    o.config.BlueprintName,
			BlueprintVersion: o.config.BlueprintVersion,
			ActionName:       o.config.ActionName,
			Mode:             o.config.Mode,
		},
		Payload: payload,
	}, nil
}

// DoOperation implements actor.Doer.
func (o *Operation) DoOperation(ctx context.Context, _ int, outcome *actor.Outcome) error {
	request, err := o.MakeRequest(outcome.SubRequestID)
	if err != nil {
		return err
	}
	conn, err := o.operator.connection()
	if err != nil {
		return err
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := OpenProcess(streamCtx, conn)
	if err != nil {
		return transportError(ctx, err)
	}
	if err := stream.Send(request); err != nil {
		return transportError(ctx, err)
	}
	if err := stream.CloseSend(); err != nil {
		return transportError(ctx, err)
	}

	for {
		out, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			outcome.SetResult(actor.Failure, errStreamEnded.Error())
			return nil
		}
		if err != nil {
			return transportError(ctx, err)
		}

		switch out.EventType() {
		case cds.EventComponentExecuted:
			outcome.Response = out
			outcome.SetResult(actor.Success, out.Status.Message)
			return nil
		case cds.EventComponentFailure:
			outcome.Response = out
			message := out.Status.ErrorMessage
			if message == "" {
				message = out.Status.Message
			}
			outcome.SetResult(actor.Failure, message)
			return nil
		default:
			o.Logger().DebugEvent("CDS event", "eventType", string(out.EventType()))
		}
	}
}

// transportError maps a gRPC error, preferring the context's own error so
// deadlines are reported as timeouts.
func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	errs := perrors.NewErrorBuilder(Name, "process")
	switch status.Code(err) {
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	case codes.Unavailable, codes.Canceled, codes.Aborted, codes.ResourceExhausted:
		return errs.NetworkError(status.Convert(err).Message(), err)
	}
	return errs.RejectedError(status.Code(err).String(), status.Convert(err).Message())
}
