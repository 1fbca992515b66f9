// Package xacml is the XACML PDP actor. Decision answers guard queries and
// Configure fetches configuration decisions.
package xacml

import (
	"context"
	"fmt"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
	"github.com/thc1006/onap-policy-actors/pkg/models/decision"
)

const Name = "XACML"

// Operation names.
const (
	DecisionName  = "Decision"
	ConfigureName = "Configure"
)

// DisabledMessage is the outcome message of a disabled guard.
const DisabledMessage = "Guard is disabled"

// Params are the extra operator parameters of the XACML operators.
type Params struct {
	OnapName      string `json:"onapName,omitempty"`
	OnapComponent string `json:"onapComponent,omitempty"`
	OnapInstance  string `json:"onapInstance,omitempty"`
	Action        string `json:"action,omitempty"`
	// Disabled makes Decision permit everything without calling the PDP.
	Disabled bool `json:"disabled,omitempty"`
}

func (p *Params) defaults(action string) {
	if p.OnapName == "" {
		p.OnapName = "Policy"
	}
	if p.OnapComponent == "" {
		p.OnapComponent = "drools-pdp"
	}
	if p.OnapInstance == "" {
		p.OnapInstance = "usecases"
	}
	if p.Action == "" {
		p.Action = action
	}
}

// NewActor returns the XACML actor.
func NewActor(factory *httpop.ClientFactory, m *metrics.Metrics) *actor.BaseActor {
	return actor.NewBaseActor(Name,
		httpop.NewOperator(Name, DecisionName, factory, m, maker(decision.ActionGuard)),
		httpop.NewOperator(Name, ConfigureName, factory, m, maker(decision.ActionConfigure)),
	)
}

// Operation posts a decision request. With the guard action the payload is
// the guard resource and the decision status sets the result; with any
// other action a 2xx reply is a success.
type Operation struct {
	*httpop.Operation

	params Params
}

func maker(action string) httpop.OperationMaker {
	return func(op *httpop.Operator, params actor.Params) (actor.Operation, error) {
		o := &Operation{}
		if err := actor.DecodeParams(op.RawParams(), &o.params); err != nil {
			return nil, fmt.Errorf("%s: %w", op.FullName(), err)
		}
		o.params.defaults(action)
		o.Operation = httpop.NewOperation(op, params, o)
		return o, nil
	}
}

// MakeRequest builds the decision request of the operation.
func (o *Operation) MakeRequest() *decision.Request {
	resource := o.Params().Payload
	if o.params.Action == decision.ActionGuard {
		resource = map[string]interface{}{"guard": o.Params().Payload}
	}
	return &decision.Request{
		OnapName:      o.params.OnapName,
		OnapComponent: o.params.OnapComponent,
		OnapInstance:  o.params.OnapInstance,
		RequestID:     o.Params().RequestID.String(),
		Action:        o.params.Action,
		Resource:      resource,
	}
}

// DoOperation implements actor.Doer.
func (o *Operation) DoOperation(ctx context.Context, _ int, outcome *actor.Outcome) error {
	guard := o.params.Action == decision.ActionGuard
	if guard && o.params.Disabled {
		outcome.SetResult(actor.Success, DisabledMessage)
		return nil
	}

	var resp decision.Response
	if _, err := o.PostJSON(ctx, o.Config.Path, o.MakeRequest(), &resp); err != nil {
		return err
	}
	outcome.Response = &resp

	switch {
	case !guard:
		outcome.SetResult(actor.Success, resp.Status)
	case resp.Permitted():
		outcome.SetResult(actor.Success, resp.Status)
	default:
		message := resp.Status
		if resp.Message != "" {
			message = resp.Message
		}
		if message == "" {
			message = "no decision status"
		}
		outcome.SetResult(actor.Failure, message)
	}
	return nil
}
