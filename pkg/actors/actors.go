// Package actors assembles the actor service from every actor in this
// repository.
package actors

import (
	"errors"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/actor/httpop"
	"github.com/thc1006/onap-policy-actors/pkg/actor/topic"
	"github.com/thc1006/onap-policy-actors/pkg/actors/aai"
	"github.com/thc1006/onap-policy-actors/pkg/actors/appclcm"
	"github.com/thc1006/onap-policy-actors/pkg/actors/cds"
	"github.com/thc1006/onap-policy-actors/pkg/actors/sdnc"
	"github.com/thc1006/onap-policy-actors/pkg/actors/so"
	"github.com/thc1006/onap-policy-actors/pkg/actors/vfc"
	"github.com/thc1006/onap-policy-actors/pkg/actors/xacml"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
)

// Deps are the resources shared by the actors.
type Deps struct {
	Clients *httpop.ClientFactory
	Bus     topic.Bus
	Metrics *metrics.Metrics
}

// All returns one instance of every actor.
func All(d Deps) []actor.Actor {
	return []actor.Actor{
		aai.NewActor(d.Clients, d.Metrics),
		sdnc.NewActor(d.Clients, d.Metrics),
		so.NewActor(d.Clients, d.Metrics),
		xacml.NewActor(d.Clients, d.Metrics),
		vfc.NewActor(d.Clients, d.Metrics),
		appclcm.NewActor(d.Bus, d.Metrics),
		cds.NewActor(d.Metrics),
	}
}

// NewService registers every actor and the A&AI property resolvers on a
// new service.
func NewService(d Deps, opts ...actor.ServiceOption) (*actor.Service, error) {
	if d.Clients == nil {
		return nil, errors.New("actors: HTTP client factory is required")
	}
	if d.Bus == nil {
		return nil, errors.New("actors: topic bus is required")
	}
	if d.Metrics != nil {
		opts = append([]actor.ServiceOption{actor.WithMetrics(d.Metrics)}, opts...)
	}

	svc := actor.NewService(opts...)
	for _, a := range All(d) {
		if err := svc.Register(a); err != nil {
			return nil, err
		}
	}
	for property, resolver := range aai.Resolvers(svc.Query) {
		svc.RegisterResolver(property, resolver)
	}
	return svc, nil
}
