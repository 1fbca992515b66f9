package httpop

import (
	"sync"
	"time"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
)

// OperationMaker builds an operation of op.
type OperationMaker func(op *Operator, params actor.Params) (actor.Operation, error)

// Operator is an HTTP operator. Its parameters are the common Params plus
// whatever extra keys the concrete actor reads from RawParams.
type Operator struct {
	*actor.BaseOperator

	factory *ClientFactory
	metrics *metrics.Metrics
	polling bool
	maker   OperationMaker

	mu     sync.RWMutex
	config *Config
	raw    map[string]interface{}
}

// NewOperator returns an operator that sends a single request.
func NewOperator(actorName, name string, factory *ClientFactory, m *metrics.Metrics, maker OperationMaker) *Operator {
	return &Operator{
		BaseOperator: actor.NewBaseOperator(actorName, name),
		factory:      factory,
		metrics:      m,
		maker:        maker,
	}
}

// NewPollingOperator returns an operator whose operations poll for
// completion, requiring maxPolls in its parameters.
func NewPollingOperator(actorName, name string, factory *ClientFactory, m *metrics.Metrics, maker OperationMaker) *Operator {
	op := NewOperator(actorName, name, factory, m, maker)
	op.polling = true
	return op
}

// Configure decodes params and resolves the operator's client.
func (o *Operator) Configure(params map[string]interface{}) error {
	return o.DoConfigure(func() error {
		cfg, err := NewConfig(params, o.factory, o.polling)
		if err != nil {
			return err
		}

		o.mu.Lock()
		defer o.mu.Unlock()
		o.config = cfg
		o.raw = params
		return nil
	})
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
