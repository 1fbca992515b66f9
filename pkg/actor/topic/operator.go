package topic

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
)

// Params are the operator parameters shared by every topic operator.
type Params struct {
	SinkTopic   string `json:"sinkTopic"`
	SourceTopic string `json:"sourceTopic"`
	TimeoutSec  int    `json:"timeoutSec,omitempty"`
}

// Validate checks the topic names and timeout.
func (p Params) Validate() error {
	if p.SinkTopic == "" {
		return errors.New("sinkTopic is required")
	}
	if p.SourceTopic == "" {
		return errors.New("sourceTopic is required")
	}
	if p.TimeoutSec < 0 {
		return errors.New("timeoutSec must not be negative")
	}
	return nil
}

// Config is a topic operator's resolved configuration.
type Config struct {
	Handler   *Handler
	Forwarder *Forwarder
	Timeout   time.Duration
}

// OperationMaker builds an operation of op.
type OperationMaker func(op *Operator, params actor.Params) (actor.Operation, error)

// Operator is a topic operator. Responses are matched to requests by the
// values at keys, dotted paths into the response JSON.
type Operator struct {
	*actor.BaseOperator

	manager *Manager
	metrics *metrics.Metrics
	keys    []string
	maker   OperationMaker

	mu     sync.RWMutex
	config *Config
	raw    map[string]interface{}
}

// NewOperator returns an operator whose handlers come from manager.
func NewOperator(actorName, name string, manager *Manager, m *metrics.Metrics, keys []string, maker OperationMaker) *Operator {
	return &Operator{
		BaseOperator: actor.NewBaseOperator(actorName, name),
		manager:      manager,
		metrics:      m,
		keys:         keys,
		maker:        maker,
	}
}

// Configure decodes params and binds the operator to its topic pair.
func (o *Operator) Configure(params map[string]interface{}) error {
	return o.DoConfigure(func() error {
		var p Params
		if err := actor.DecodeParams(params, &p); err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return err
		}

		h := o.manager.Handler(p.SinkTopic, p.SourceTopic)

		o.mu.Lock()
		defer o.mu.Unlock()
		o.config = &Config{
			Handler:   h,
			Forwarder: h.Forwarder(o.keys),
			Timeout:   time.Duration(p.TimeoutSec) * time.Second,
		}
		o.raw = params
		return nil
	})
}

// Start subscribes the operator's handler and marks the operator alive.
func (o *Operator) Start() error {
	if err := o.BaseOperator.Start(); err != nil {
		return err
	}
	if err := o.Config().Handler.Start(context.Background()); err != nil {
		_ = o.BaseOperator.Stop()
		return err
	}
	return nil
}

// Config returns the resolved configuration, nil before Configure.
func (o *Operator) Config() *Config {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.config
}

// RawParams returns the parameters the operator was configured with.
func (o *Operator) RawParams() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.raw
}

// DefaultTimeout is the configured per-attempt timeout.
func (o *Operator) DefaultTimeout() time.Duration {
	if cfg := o.Config(); cfg != nil {
		return cfg.Timeout
	}
	return 0
}

// Metrics returns the collectors operations report to.
func (o *Operator) Metrics() *metrics.Metrics { return o.metrics }

// BuildOperation builds an operation with the concrete actor's maker.
func (o *Operator) BuildOperation(params actor.Params) (actor.Operation, error) {
	if o.Config() == nil {
		return nil, actor.ErrNotConfigured
	}
	return o.maker(o, params)
}
