// Package sdnc is the SDNC actor: network topology heal requests for SOTN
// reroute and SD-WAN bandwidth changes.
package sdnc

import (
	"context"
	"fmt"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
	"github.com/thc1006/onap-policy-actors/pkg/models/sdnc"
)

const Name = "SDNC"

// Operation names.
const (
	RerouteName           = "Reroute"
	BandwidthOnDemandName = "BandwidthOnDemand"
)

// Enrichment fields read by BandwidthOnDemand.
const (
	FieldVnfID               = "vnfId"
	FieldBandwidth           = "bandwidth"
	FieldBandwidthChangeTime = "bandwidth-change-time"
)

// NewActor returns the SDNC actor.
func NewActor(factory *httpop.ClientFactory, m *metrics.Metrics) *actor.BaseActor {
	return actor.NewBaseActor(Name,
		httpop.NewOperator(Name, RerouteName, factory, m, maker(buildReroute)),
		httpop.NewOperator(Name, BandwidthOnDemandName, factory, m, maker(buildBandwidthOnDemand)),
	)
}

// requestBuilder maps the run parameters onto a heal request.
type requestBuilder func(params actor.Params, subRequestID string) (*sdnc.HealRequest, error)

// Operation posts one heal request and maps the response code.
type Operation struct {
	*httpop.Operation

	build requestBuilder
}

func maker(build requestBuilder) httpop.OperationMaker {
	return func(op *httpop.Operator, params actor.Params) (actor.Operation, error) {
		o := &Operation{build: build}
		o.Operation = httpop.NewOperation(op, params, o)
		return o, nil
	}
}

// DoOperation implements actor.Doer.
func (o *Operation) DoOperation(ctx context.Context, _ int, outcome *actor.Outcome) error {
	request, err := o.build(o.Params(), outcome.SubRequestID)
	if err != nil {
		return err
	}

	var resp sdnc.Response
	if _, err := o.PostJSON(ctx, o.Config.Path, &sdnc.Wrapper{Input: request}, &resp); err != nil {
		return err
	}

	outcome.Response = &resp
	if resp.Succeeded() {
		outcome.SetResult(actor.Success, resp.Message())
		return nil
	}

	message := resp.Message()
	if message == "" && resp.Output != nil {
		message = "response code " + resp.Output.ResponseCode
	}
	outcome.SetResult(actor.Failure, message)
	return nil
}

func header(subRequestID, svcAction string) *sdnc.HealRequestHeaderInfo {
	return &sdnc.HealRequestHeaderInfo{SvcRequestID: subRequestID, SvcAction: svcAction}
}

func buildReroute(params actor.Params, subRequestID string) (*sdnc.HealRequest, error) {
	serviceID := enrichment(params, controlloop.ServiceInstanceID)
	networkID := enrichment(params, controlloop.NetworkInformationNetID)
	if serviceID == "" || networkID == "" {
		return nil, fmt.Errorf("%w: %s and %s are required", actor.ErrMissingProperty,
			controlloop.ServiceInstanceID, controlloop.NetworkInformationNetID)
	}

	return &sdnc.HealRequest{
		RequestHeaderInfo: header(subRequestID, "reoptimize"),
		RequestInfo:       &sdnc.HealRequestInfo{RequestAction: sdnc.ActionReoptimizeSOTNInstance},
		ServiceInfo:       &sdnc.HealServiceInfo{ServiceInstanceID: serviceID},
		NetworkInfo:       &sdnc.HealNetworkInfo{NetworkID: networkID},
	}, nil
}

func buildBandwidthOnDemand(params actor.Params, subRequestID string) (*sdnc.HealRequest, error) {
	serviceID := enrichment(params, controlloop.ServiceInstanceID)
	vnfID := enrichment(params, FieldVnfID)
	if vnfID == "" {
		vnfID = params.TargetEntityID(controlloop.GenericVnfVnfID)
	}
	bandwidth := enrichment(params, FieldBandwidth)
	changeTime := enrichment(params, FieldBandwidthChangeTime)
	if serviceID == "" || vnfID == "" || bandwidth == "" || changeTime == "" {
		return nil, fmt.Errorf("%w: %s, %s, %s and %s are required", actor.ErrMissingProperty,
			controlloop.ServiceInstanceID, FieldVnfID, FieldBandwidth, FieldBandwidthChangeTime)
	}

	return &sdnc.HealRequest{
		RequestHeaderInfo: header(subRequestID, "update"),
		RequestInfo:       &sdnc.HealRequestInfo{RequestAction: sdnc.ActionSdwanBandwidthChange},
		ServiceInfo:       &sdnc.HealServiceInfo{ServiceInstanceID: serviceID},
		VnfInfo:           &sdnc.HealVnfInfo{VnfID: vnfID},
		RequestParameters: &sdnc.HealRequestParameters{
			VfModuleInputParameters: &sdnc.HealVfModuleParameters{
				Params: []sdnc.HealVfModuleParameter{
					{Name: FieldBandwidth, Value: bandwidth},
					{Name: FieldBandwidthChangeTime, Value: changeTime},
				},
			},
		},
	}, nil
}

// enrichment reads an enrichment field from the target entity ids, then
// from the payload.
func enrichment(params actor.Params, field string) string {
	if v := params.TargetEntityID(field); v != "" {
		return v
	}
	if v, ok := params.Payload[field]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}
