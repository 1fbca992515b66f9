package topic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	perrors "github.com/thc1006/onap-policy-actors/pkg/errors"
)

// Status is a decider's verdict on one response.
type Status int

const (
	// StillWaiting means the response is intermediate, e.g. "accepted".
	StillWaiting Status = iota
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "success"
	case Failed:
		return "failure"
	}
	return "still waiting"
}

// Decider inspects one response matched to the request.
type Decider func(raw []byte) (Status, error)

// Operation is the base of topic operations. Concrete operations embed it
// and implement actor.Doer.
type Operation struct {
	*actor.Runner

	Config *Config
}

// NewOperation returns the base of an operation of op, run through doer.
func NewOperation(op *Operator, params actor.Params, doer actor.Doer, propertyNames ...string) *Operation {
	cfg := op.Config()
	return &Operation{
		Runner: actor.NewRunner(params, doer, actor.RunnerConfig{
			DefaultTimeout: cfg.Timeout,
			PropertyNames:  propertyNames,
			Metrics:        op.Metrics(),
		}),
		Config: cfg,
	}
}

// Exchange publishes request on the sink topic and feeds the responses
// whose keys equal keyValues to decide until it returns a final status or
// ctx ends. The listener is registered before publishing so an immediate
// response is not lost.
func (o *Operation) Exchange(ctx context.Context, request interface{}, keyValues []string, decide Decider) (Status, []byte, error) {
	payload, err := encode(request)
	if err != nil {
		return Failed, nil, err
	}

	responses := make(chan []byte, subscriptionBuffer)
	unregister, err := o.Config.Forwarder.Register(keyValues, func(_ map[string]interface{}, raw []byte) {
		select {
		case responses <- raw:
		default:
			o.Logger().WarnEvent("Response dropped, operation not keeping up", "keys", keyValues)
		}
	})
	if err != nil {
		return Failed, nil, err
	}
	defer unregister()

	if err := o.Config.Handler.Send(ctx, payload); err != nil {
		return Failed, nil, perrors.NewErrorBuilder("topic", "publish").
			NetworkError("publish to "+o.Config.Handler.SinkTopic(), err)
	}
	o.Logger().DebugEvent("Request published", "topic", o.Config.Handler.SinkTopic(), "keys", keyValues)

	for {
		select {
		case <-ctx.Done():
			return Failed, nil, ctx.Err()
		case raw := <-responses:
			status, err := decide(raw)
			if err != nil {
				return Failed, raw, err
			}
			if status == StillWaiting {
				o.Logger().DebugEvent("Intermediate response", "keys", keyValues)
				continue
			}
			return status, raw, nil
		}
	}
}

func encode(request interface{}) ([]byte, error) {
	switch r := request.(type) {
	case []byte:
		return r, nil
	case string:
		return []byte(r), nil
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return payload, nil
}
