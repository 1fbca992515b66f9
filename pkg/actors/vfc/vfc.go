// Package vfc is the VF-C actor. Restart heals the target VM through its
// network service and polls the resulting job.
package vfc

import (
	"context"
	"fmt"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
	"github.com/thc1006/onap-policy-actors/pkg/models/vfc"
)

const Name = "VFC"

const RestartName = "Restart"

// NewActor returns the VF-C actor.
func NewActor(factory *httpop.ClientFactory, m *metrics.Metrics) *actor.BaseActor {
	return actor.NewBaseActor(Name,
		httpop.NewPollingOperator(Name, RestartName, factory, m, newRestart),
	)
}

// Restart posts an NS heal with the restartvm action.
type Restart struct {
	*httpop.Operation
}

func newRestart(op *httpop.Operator, params actor.Params) (actor.Operation, error) {
	o := &Restart{}
	o.Operation = httpop.NewOperation(op, params, o)
	return o, nil
}

// MakeRequest builds the heal request from the target entity ids.
func (o *Restart) MakeRequest() (nsInstanceID string, req *vfc.HealRequest, err error) {
	p := o.Params()
	nsInstanceID = p.TargetEntityID(controlloop.ServiceInstanceID)
	vnfID := p.TargetEntityID(controlloop.GenericVnfVnfID)
	if nsInstanceID == "" || vnfID == "" {
		return "", nil, fmt.Errorf("%w: %s and %s are required", actor.ErrMissingProperty,
			controlloop.ServiceInstanceID, controlloop.GenericVnfVnfID)
	}

	return nsInstanceID, &vfc.HealRequest{
		VnfInstanceID: vnfID,
		Cause:         "vm is down",
		AdditionalParams: &vfc.HealAdditionalParams{
			Action: vfc.HealActionRestartVM,
			ActionInfo: &vfc.HealActionInfo{
				VMID:   p.TargetEntityID(controlloop.VserverVserverID),
				VMName: p.TargetEntityID(controlloop.VserverVserverName),
			},
		},
	}, nil
}

// DoOperation implements actor.Doer.
func (o *Restart) DoOperation(ctx context.Context, _ int, outcome *actor.Outcome) error {
	nsInstanceID, request, err := o.MakeRequest()
	if err != nil {
		return err
	}

	var accepted vfc.Response
	if _, err := o.PostJSON(ctx, httpop.JoinPath(o.Config.Path, nsInstanceID, "heal"), request, &accepted); err != nil {
		return err
	}
	if accepted.JobID == "" {
		outcome.SetResult(actor.Failure, "VF-C response has no job id")
		outcome.Response = &accepted
		return nil
	}

	var job vfc.Response
	_, err = o.Poll(ctx, httpop.JoinPath(o.Config.PollPath, accepted.JobID), func(resp *httpop.Response) (bool, error) {
		job = vfc.Response{}
		if err := resp.Decode(&job); err != nil {
			return false, err
		}
		status := job.Status()
		return status == vfc.StatusFinished || status == vfc.StatusError, nil
	})
	if err != nil {
		return httpop.PollFailure(err, outcome)
	}

	outcome.Response = &job
	message := job.ResponseDescriptor.StatusDescription
	if message == "" {
		message = job.Status()
	}
	if job.Status() == vfc.StatusFinished {
		outcome.SetResult(actor.Success, message)
	} else {
		outcome.SetResult(actor.Failure, message)
	}
	return nil
}
