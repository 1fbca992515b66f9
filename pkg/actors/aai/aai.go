// Package aai is the A&AI inventory actor. Its operations are queries run
// without guard to supply other operations with inventory data.
package aai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
	"github.com/thc1006/onap-policy-actors/pkg/models/aai"
	"github.com/thc1006/onap-policy-actors/pkg/models/controlloop"
)

const Name = "AAI"

// Operation names.
const (
	CustomQueryName = "CustomQuery"
	TenantName      = "Tenant"
	PnfName         = "Pnf"
)

// Properties holding the query results.
const (
	PropertyCustomQuery = "aai.customQuery"
	PropertyTenant      = "aai.tenant"
	PropertyPnf         = "aai.pnf"
)

var errNoTarget = errors.New("no A&AI target")

// NewActor returns the A&AI actor.
func NewActor(factory *httpop.ClientFactory, m *metrics.Metrics) *actor.BaseActor {
	return actor.NewBaseActor(Name,
		httpop.NewOperator(Name, CustomQueryName, factory, m, newCustomQuery),
		httpop.NewOperator(Name, TenantName, factory, m, newTenant),
		httpop.NewOperator(Name, PnfName, factory, m, newPnf),
	)
}

// CustomQuery runs the closed-loop custom query starting at the target's
// vserver. Without a vserver self link in the target entity ids it needs
// the tenant query result to find one.
type CustomQuery struct {
	*httpop.Operation
}

func newCustomQuery(op *httpop.Operator, params actor.Params) (actor.Operation, error) {
	o := &CustomQuery{}
	var props []string
	if params.TargetEntityID(controlloop.VserverSelfLink) == "" {
		props = append(props, PropertyTenant)
	}
	o.Operation = httpop.NewOperation(op, params, o, props...)
	return o, nil
}

// DoOperation implements actor.Doer.
func (o *CustomQuery) DoOperation(ctx context.Context, _ int, outcome *actor.Outcome) error {
	start, err := o.startLink()
	if err != nil {
		return err
	}

	path := o.Config.Path + "?format=resource"
	resp, err := o.PutJSON(ctx, path, aai.CustomQueryRequest{Start: start, Query: aai.ClosedLoopQuery}, nil)
	if err != nil {
		return err
	}

	cq, err := aai.ParseCqResponse(resp.Body)
	if err != nil {
		return err
	}
	outcome.SetResult(actor.Success, "custom query complete")
	outcome.Response = cq
	return nil
}

func (o *CustomQuery) startLink() (string, error) {
	if link := o.Params().TargetEntityID(controlloop.VserverSelfLink); link != "" {
		return link, nil
	}

	v, err := o.RequireProperty(PropertyTenant)
	if err != nil {
		return "", err
	}
	tenant, ok := v.(*aai.NodesQueryResponse)
	if !ok || tenant.ResourceLink() == "" {
		return "", fmt.Errorf("%w: tenant query returned no vserver link", errNoTarget)
	}
	return tenant.ResourceLink(), nil
}

// Tenant finds the vserver named in the target entity ids.
type Tenant struct {
	*httpop.Operation
}

func newTenant(op *httpop.Operator, params actor.Params) (actor.Operation, error) {
	o := &Tenant{}
	o.Operation = httpop.NewOperation(op, params, o)
	return o, nil
}

// DoOperation implements actor.Doer.
func (o *Tenant) DoOperation(ctx context.Context, _ int, outcome *actor.Outcome) error {
	name := o.Params().TargetEntityID(controlloop.VserverVserverName)
	if name == "" {
		return fmt.Errorf("%w: %s is missing", errNoTarget, controlloop.VserverVserverName)
	}

	query := url.Values{}
	query.Set("search-node-type", "vserver")
	query.Set("filter", "vserver-name:EQUALS:"+name)

	var result aai.NodesQueryResponse
	if _, err := o.GetJSON(ctx, o.Config.Path+"?"+query.Encode(), &result); err != nil {
		return err
	}
	outcome.SetResult(actor.Success, fmt.Sprintf("found %d vserver(s)", len(result.ResultData)))
	outcome.Response = &result
	return nil
}

// Pnf reads the PNF named in the target entity ids, or the target itself.
type Pnf struct {
	*httpop.Operation
}

func newPnf(op *httpop.Operator, params actor.Params) (actor.Operation, error) {
	o := &Pnf{}
	o.Operation = httpop.NewOperation(op, params, o)
	return o, nil
}

// DoOperation implements actor.Doer.
func (o *Pnf) DoOperation(ctx context.Context, _ int, outcome *actor.Outcome) error {
	name := o.Params().TargetEntityID(controlloop.PnfPnfName)
	if name == "" {
		name = o.Params().TargetEntity
	}
	if name == "" {
		return fmt.Errorf("%w: %s is missing", errNoTarget, controlloop.PnfPnfName)
	}

	var pnf aai.Pnf
	if _, err := o.Send(ctx, http.MethodGet, httpop.JoinPath(o.Config.Path, name)+"?depth=0", nil, &pnf); err != nil {
		return err
	}
	outcome.SetResult(actor.Success, "found pnf "+pnf.PnfName)
	outcome.Response = &pnf
	return nil
}

// Resolvers returns the property resolvers backed by the A&AI queries.
// Each runs its query through query, normally actor.Service.Query, with the
// parent operation's target.
func Resolvers(query func(context.Context, actor.Params) *actor.Outcome) map[string]actor.PropertyResolver {
	resolver := func(operation string) actor.PropertyResolver {
		return func(ctx context.Context, parent actor.Params) (interface{}, error) {
			outcome := query(ctx, actor.Params{
				Actor:           Name,
				Operation:       operation,
				RequestID:       parent.RequestID,
				ClosedLoopName:  parent.ClosedLoopName,
				TargetEntity:    parent.TargetEntity,
				TargetType:      parent.TargetType,
				TargetEntityIDs: parent.TargetEntityIDs,
				Properties:      parent.Properties,
			})
			if !outcome.Result.IsSuccess() {
				return nil, fmt.Errorf("%s.%s: %s: %s", Name, operation, outcome.Result, outcome.Message)
			}
			return outcome.Response, nil
		}
	}

	return map[string]actor.PropertyResolver{
		PropertyCustomQuery: resolver(CustomQueryName),
		PropertyTenant:      resolver(TenantName),
		PropertyPnf:         resolver(PnfName),
	}
}
