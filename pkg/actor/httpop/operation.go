package httpop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
)

// ErrPollExhausted is returned by Poll when maxPolls responses arrived
// without reaching a final state.
var ErrPollExhausted = errors.New("polling exhausted")

// Operation is the base of HTTP operations. Concrete operations embed it
// and implement actor.Doer.
type Operation struct {
	*actor.Runner

	Config *Config
	Client *Client
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
		Client: cfg.Client,
	}
}

// JoinPath joins the configured path with escaped segments.
func JoinPath(base string, segments ...string) string {
	parts := []string{strings.TrimRight(base, "/")}
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/")
}

// Send issues a request and decodes a 2xx body into out when out is
// non-nil. The response is returned even on error when one arrived.
func (o *Operation) Send(ctx context.Context, method, path string, body, out interface{}) (*Response, error) {
	resp, err := o.Client.Do(ctx, method, path, body, nil)
	if err != nil {
		return resp, err
	}
	if out != nil && len(resp.Body) > 0 {
		if err := resp.Decode(out); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// PostJSON posts body to path.
func (o *Operation) PostJSON(ctx context.Context, path string, body, out interface{}) (*Response, error) {
	return o.Send(ctx, http.MethodPost, path, body, out)
}

// PutJSON puts body to path.
func (o *Operation) PutJSON(ctx context.Context, path string, body, out interface{}) (*Response, error) {
	return o.Send(ctx, http.MethodPut, path, body, out)
}

// GetJSON gets path.
func (o *Operation) GetJSON(ctx context.Context, path string, out interface{}) (*Response, error) {
	return o.Send(ctx, http.MethodGet, path, nil, out)
}

// PollCheck inspects one poll response and reports whether it is final.
type PollCheck func(resp *Response) (done bool, err error)

// Poll gets path up to MaxPolls times, waiting PollWait before each poll,
// until check reports a final state. It returns ErrPollExhausted when no
// response was final.
func (o *Operation) Poll(ctx context.Context, path string, check PollCheck) (*Response, error) {
	log := o.Logger()

	for poll := 1; poll <= o.Config.MaxPolls; poll++ {
		if err := sleep(ctx, o.Config.PollWait); err != nil {
			return nil, err
		}

		resp, err := o.GetJSON(ctx, path, nil)
		if err != nil {
			return resp, fmt.Errorf("poll %d: %w", poll, err)
		}

		done, err := check(resp)
		if err != nil {
			return resp, err
		}
		if done {
			return resp, nil
		}
		log.DebugEvent("Operation still in progress", "poll", poll, "maxPolls", o.Config.MaxPolls)
	}
	return nil, fmt.Errorf("%w after %d polls", ErrPollExhausted, o.Config.MaxPolls)
}

// PollFailure maps an exhausted poll onto a Failure outcome and returns
// nil; any other error is returned unchanged.
func PollFailure(err error, outcome *actor.Outcome) error {
	if errors.Is(err, ErrPollExhausted) {
		outcome.SetResult(actor.Failure, ErrPollExhausted.Error())
		return nil
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
