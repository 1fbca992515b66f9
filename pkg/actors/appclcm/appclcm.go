// Package appclcm is the APPC LCM actor. Requests go out on the LCM
// request topic and responses are matched back by sub-request id.
package appclcm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/topic"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
	"github.com/thc1006/onap-policy-actors/pkg/models/appclcm"
	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
)

const Name = "APPC"

var errNoStatus = errors.New("LCM response has no status")

// Operation names.
const (
	RestartName      = "Restart"
	RebuildName      = "Rebuild"
	MigrateName      = "Migrate"
	ConfigModifyName = "ConfigModify"
)

// ResponseKey is the path of the sub-request id in an LCM response.
const ResponseKey = "body.output.common-header.sub-request-id"

// Action identifier keys.
const (
	IdentifierVnfID     = "vnf-id"
	IdentifierVserverID = "vserver-id"
)

// Actor is the APPC LCM actor. It owns the topic handlers of its
// operators.
type Actor struct {
	*actor.BaseActor

	manager *topic.Manager
}

// NewActor returns the APPC LCM actor publishing and subscribing on bus.
func NewActor(bus topic.Bus, m *metrics.Metrics) *Actor {
	manager := topic.NewManager(bus, m)
	keys := []string{ResponseKey}

	var ops []actor.Operator
	for _, name := range []string{RestartName, RebuildName, MigrateName, ConfigModifyName} {
		ops = append(ops, topic.NewOperator(Name, name, manager, m, keys, newOperation))
	}
	return &Actor{BaseActor: actor.NewBaseActor(Name, ops...), manager: manager}
}

// Stop stops the operators and unsubscribes from the response topics.
func (a *Actor) Stop() error {
	err := a.BaseActor.Stop()
	if herr := a.manager.Stop(); err == nil {
		err = herr
	}
	return err
}

// Shutdown stops the actor, ignoring errors.
func (a *Actor) Shutdown() {
	_ = a.Stop()
}

// Operation runs one LCM request.
type Operation struct {
	*topic.Operation
}

func newOperation(op *topic.Operator, params actor.Params) (actor.Operation, error) {
	o := &Operation{}
	o.Operation = topic.NewOperation(op, params, o)
	return o, nil
}

// RPCName converts an operation name to the LCM rpc name, e.g.
// ConfigModify to config-modify.
func RPCName(operation string) string {
	var b strings.Builder
	for i, r := range operation {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// MakeRequest builds the LCM request of one attempt.
func (o *Operation) MakeRequest(subRequestID string) (*appclcm.DmaapWrapper, error) {
	p := o.Params()

	ids := map[string]string{}
	vnfID := p.TargetEntityID(controlloop.GenericVnfVnfID)
	if vnfID == "" {
		vnfID = p.TargetEntity
	}
	if vnfID == "" {
		return nil, fmt.Errorf("%w: %s", actor.ErrMissingProperty, controlloop.GenericVnfVnfID)
	}
	ids[IdentifierVnfID] = vnfID
	if vserverID := p.TargetEntityID(controlloop.VserverVserverID); vserverID != "" {
		ids[IdentifierVserverID] = vserverID
	}

	return appclcm.NewRequest(RPCName(p.Operation), p.Operation, p.RequestID.String(), subRequestID, ids, p.Payload)
}

// DoOperation implements actor.Doer.
func (o *Operation) DoOperation(ctx context.Context, _ int, outcome *actor.Outcome) error {
	request, err := o.MakeRequest(outcome.SubRequestID)
	if err != nil {
		return err
	}

	var last appclcm.DmaapWrapper
	status, _, err := o.Exchange(ctx, request, []string{outcome.SubRequestID}, func(raw []byte) (topic.Status, error) {
		last = appclcm.DmaapWrapper{}
		if err := json.Unmarshal(raw, &last); err != nil {
			return topic.Failed, fmt.Errorf("decode LCM response: %w", err)
		}
		return detmStatus(&last)
	})
	if err != nil {
		return err
	}

	outcome.Response = &last
	message := last.Body.Output.Status.Message
	if status == topic.Succeeded {
		outcome.SetResult(actor.Success, message)
	} else {
		outcome.SetResult(actor.Failure, message)
	}
	return nil
}

// detmStatus classifies one response by its status code.
func detmStatus(resp *appclcm.DmaapWrapper) (topic.Status, error) {
	if resp.Body == nil || resp.Body.Output == nil || resp.Body.Output.Status == nil {
		return topic.Failed, errNoStatus
	}

	value, ok := appclcm.ToResponseValue(resp.Body.Output.Status.Code)
	switch {
	case !ok:
		return topic.Failed, nil
	case value == appclcm.Accepted:
		return topic.StillWaiting, nil
	case value == appclcm.Success:
		return topic.Succeeded, nil
	}
	return topic.Failed, nil
}
