// Package so is the Service Orchestrator actor. It scales VF modules out
// and in, polling SO's orchestration request until it completes.
package so

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	aaiactor "github.com/thc1006/onap-policy-actors/pkg/actors/aai"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
	"github.com/thc1006/onap-policy-actors/pkg/models/aai"
	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
	"github.com/thc1006/onap-policy-actors/pkg/models/so"
)

const Name = "SO"

// Operation names.
const (
	VfModuleCreateName = "VF Module Create"
	VfModuleDeleteName = "VF Module Delete"
)

// Payload keys carrying SO request fragments, as JSON text or objects.
const (
	PayloadRequestParameters       = "requestParameters"
	PayloadConfigurationParameters = "configurationParameters"
)

// GuardVfCount is the guard payload key of the VF module count after the
// operation.
const GuardVfCount = "vfCount"

const requestorID = "policy"

var errInventory = errors.New("inventory lookup failed")

// NewActor returns the SO actor.
func NewActor(factory *httpop.ClientFactory, m *metrics.Metrics) *actor.BaseActor {
	return actor.NewBaseActor(Name,
		httpop.NewPollingOperator(Name, VfModuleCreateName, factory, m, maker(true)),
		httpop.NewPollingOperator(Name, VfModuleDeleteName, factory, m, maker(false)),
	)
}

// VfModule creates or deletes a VF module of the target VNF.
type VfModule struct {
	*httpop.Operation

	create bool
}

func maker(create bool) httpop.OperationMaker {
	return func(op *httpop.Operator, params actor.Params) (actor.Operation, error) {
		o := &VfModule{create: create}
		o.Operation = httpop.NewOperation(op, params, o, aaiactor.PropertyCustomQuery)
		return o, nil
	}
}

// GuardPayload adds the VF module count the operation would leave behind.
func (o *VfModule) GuardPayload() map[string]interface{} {
	cq, err := o.customQuery()
	if err != nil {
		return nil
	}
	count := o.vfCount(cq)
	if o.create {
		count++
	} else if count > 0 {
		count--
	}
	return map[string]interface{}{GuardVfCount: count}
}

// DoOperation implements actor.Doer.
func (o *VfModule) DoOperation(ctx context.Context, _ int, outcome *actor.Outcome) error {
	cq, err := o.customQuery()
	if err != nil {
		return err
	}
	target, err := o.resolveTarget(cq)
	if err != nil {
		return err
	}
	request, err := o.buildRequest(cq, target)
	if err != nil {
		return err
	}

	path := httpop.JoinPath(o.Config.Path, "serviceInstances", target.service.ServiceInstanceID,
		"vnfs", target.vnf.VnfID, "vfModules")
	method := http.MethodPost
	if !o.create {
		path = httpop.JoinPath(path, target.vfModuleID)
		method = http.MethodDelete
	}

	var accepted so.Response
	if _, err := o.Send(ctx, method, path, request, &accepted); err != nil {
		return err
	}
	if accepted.RequestReferences == nil || accepted.RequestReferences.RequestID == "" {
		outcome.SetResult(actor.Failure, "SO response has no request id")
		outcome.Response = &accepted
		return nil
	}

	var final so.Response
	_, err = o.Poll(ctx, httpop.JoinPath(o.Config.PollPath, accepted.RequestReferences.RequestID),
		func(resp *httpop.Response) (bool, error) {
			final = so.Response{}
			if err := resp.Decode(&final); err != nil {
				return false, err
			}
			return so.IsFinal(final.State()), nil
		})
	if err != nil {
		return httpop.PollFailure(err, outcome)
	}

	outcome.Response = &final
	message := final.State()
	if final.Request.RequestStatus.StatusMessage != "" {
		message = final.Request.RequestStatus.StatusMessage
	}
	if final.State() == so.RequestStateComplete {
		outcome.SetResult(actor.Success, message)
	} else {
		outcome.SetResult(actor.Failure, message)
	}
	return nil
}

func (o *VfModule) customQuery() (*aai.CqResponse, error) {
	v, err := o.RequireProperty(aaiactor.PropertyCustomQuery)
	if err != nil {
		return nil, err
	}
	cq, ok := v.(*aai.CqResponse)
	if !ok {
		return nil, fmt.Errorf("%w: %s has type %T", errInventory, aaiactor.PropertyCustomQuery, v)
	}
	return cq, nil
}

// vfModuleModel is the model of the VF module named by the target entity
// ids.
func (o *VfModule) vfModuleModel() *so.ModelInfo {
	p := o.Params()
	return &so.ModelInfo{
		ModelType:              so.ModelTypeVfModule,
		ModelInvariantID:       p.TargetEntityID(controlloop.ModelInvariantID),
		ModelVersionID:         p.TargetEntityID(controlloop.ModelVersionID),
		ModelName:              p.TargetEntityID(controlloop.ModelName),
		ModelVersion:           p.TargetEntityID(controlloop.ModelVersion),
		ModelCustomizationID:   p.TargetEntityID(controlloop.ModelCustomizationID),
		ModelCustomizationName: p.TargetEntityID(controlloop.ModelName),
	}
}

func (o *VfModule) vfCount(cq *aai.CqResponse) int {
	m := o.vfModuleModel()
	return cq.VfModuleCount(m.ModelCustomizationID, m.ModelInvariantID, m.ModelVersionID)
}

type target struct {
	service    *aai.ServiceInstance
	vnf        *aai.GenericVnf
	vfModuleID string
}

// resolveTarget finds the service, the VNF owning the VF module model and,
// for deletes, the newest non-base instance of that model.
func (o *VfModule) resolveTarget(cq *aai.CqResponse) (*target, error) {
	t := &target{service: cq.ServiceInstance()}
	if t.service == nil {
		return nil, fmt.Errorf("%w: no service instance", errInventory)
	}

	m := o.vfModuleModel()
	if resourceID := o.Params().TargetEntityID(controlloop.ResourceID); resourceID != "" {
		t.vnf = cq.GenericVnfByModelInvariantID(resourceID)
	}
	if t.vnf == nil {
		t.vnf = cq.GenericVnfByVfModuleModelInvariantID(m.ModelInvariantID)
	}
	if t.vnf == nil {
		return nil, fmt.Errorf("%w: no VNF for VF module model %s", errInventory, m.ModelInvariantID)
	}

	if !o.create {
		for _, vf := range t.vnf.VfModules.VfModule {
			if !vf.IsBaseVfModule && vf.ModelCustomID == m.ModelCustomizationID {
				t.vfModuleID = vf.VfModuleID
			}
		}
		if t.vfModuleID == "" {
			return nil, fmt.Errorf("%w: no VF module to delete", errInventory)
		}
	}
	return t, nil
}

func (o *VfModule) buildRequest(cq *aai.CqResponse, t *target) (*so.Request, error) {
	details := &so.RequestDetails{
		ModelInfo: o.vfModuleModel(),
		RequestInfo: &so.RequestInfo{
			Source:           "POLICY",
			SuppressRollback: false,
			RequestorID:      requestorID,
		},
		RelatedInstanceList: []so.RelatedInstanceListElement{
			{RelatedInstance: so.RelatedInstance{
				InstanceID: t.service.ServiceInstanceID,
				ModelInfo: &so.ModelInfo{
					ModelType:        so.ModelTypeService,
					ModelInvariantID: t.service.ModelInvariantID,
					ModelVersionID:   t.service.ModelVersionID,
				},
			}},
			{RelatedInstance: so.RelatedInstance{
				InstanceID: t.vnf.VnfID,
				ModelInfo: &so.ModelInfo{
					ModelType:            so.ModelTypeVnf,
					ModelInvariantID:     t.vnf.ModelInvariantID,
					ModelVersionID:       t.vnf.ModelVersionID,
					ModelCustomizationID: t.vnf.ModelCustomID,
					ModelName:            t.vnf.VnfType,
				},
			}},
		},
	}
	if ver := cq.ModelVerByVersionID(t.service.ModelVersionID); ver != nil {
		details.RelatedInstanceList[0].RelatedInstance.ModelInfo.ModelName = ver.ModelName
		details.RelatedInstanceList[0].RelatedInstance.ModelInfo.ModelVersion = ver.ModelVersion
	}

	cloud := &so.CloudConfiguration{}
	if tenant := cq.DefaultTenant(); tenant != nil {
		cloud.TenantID = tenant.TenantID
	}
	if region := cq.DefaultCloudRegion(); region != nil {
		cloud.LcpCloudRegionID = region.CloudRegionID
		cloud.CloudOwner = region.CloudOwner
	}
	details.CloudConfiguration = cloud

	if o.create {
		details.RequestInfo.InstanceName = fmt.Sprintf("%s_%d", t.vnf.VnfName, o.vfCount(cq)+1)

		payload := o.Params().Payload
		if v, ok := payload[PayloadRequestParameters]; ok {
			details.RequestParameters = &so.RequestParameters{}
			if err := decodeFragment(v, details.RequestParameters); err != nil {
				return nil, fmt.Errorf("payload %s: %w", PayloadRequestParameters, err)
			}
		}
		if v, ok := payload[PayloadConfigurationParameters]; ok {
			if err := decodeFragment(v, &details.ConfigurationParameters); err != nil {
				return nil, fmt.Errorf("payload %s: %w", PayloadConfigurationParameters, err)
			}
		}
	}

	return &so.Request{RequestDetails: details}, nil
}

// decodeFragment decodes v, either JSON text or an already decoded value,
// into out.
func decodeFragment(v interface{}, out interface{}) error {
	var data []byte
	if s, ok := v.(string); ok {
		data = []byte(s)
	} else {
		var err error
		if data, err = json.Marshal(v); err != nil {
			return err
		}
	}
	return json.Unmarshal(data, out)
}
