package simulators

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/thc1006/onap-policy-actors/pkg/actor/topic"
	"github.com/thc1006/onap-policy-actors/pkg/logging"
	"github.com/thc1006/onap-policy-actors/pkg/models/appclcm"
)

// Default APPC LCM topics.
const (
	AppcRequestTopic  = "APPC-LCM-READ"
	AppcResponseTopic = "APPC-LCM-WRITE"
)

// AppcFailVnf is the vnf-id APPC fails requests for.
const AppcFailVnf = "fail"

// Appc answers APPC LCM requests on a bus with ACCEPTED followed by
// SUCCESS, or FAILURE for AppcFailVnf.
type Appc struct {
	bus           topic.Bus
	requestTopic  string
	responseTopic string
	log           logging.Logger

	mu   sync.Mutex
	sub  topic.Subscription
	done chan struct{}
}

// NewAppc returns a simulator for the given topics. Empty names select the
// defaults.
func NewAppc(bus topic.Bus, requestTopic, responseTopic string) *Appc {
	if requestTopic == "" {
		requestTopic = AppcRequestTopic
	}
	if responseTopic == "" {
		responseTopic = AppcResponseTopic
	}
	return &Appc{
		bus:           bus,
		requestTopic:  requestTopic,
		responseTopic: responseTopic,
		log:           logging.NewLogger(logging.ComponentSimulator).WithValues("simulator", "appc-lcm"),
	}
}

// Start subscribes to the request topic.
func (a *Appc) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sub != nil {
		return nil
	}

	sub, err := a.bus.Subscribe(ctx, a.requestTopic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", a.requestTopic, err)
	}
	a.sub = sub
	a.done = make(chan struct{})
	go a.loop(sub, a.done)

	a.log.InfoEvent("APPC LCM simulator started", "requestTopic", a.requestTopic, "responseTopic", a.responseTopic)
	return nil
}

// Stop unsubscribes and waits for in-flight replies.
func (a *Appc) Stop() error {
	a.mu.Lock()
	sub, done := a.sub, a.done
	a.sub = nil
	a.mu.Unlock()

	if sub == nil {
		return nil
	}
	err := sub.Close()
	<-done
	return err
}

func (a *Appc) loop(sub topic.Subscription, done chan struct{}) {
	defer close(done)
	for raw := range sub.Messages() {
		var req appclcm.DmaapWrapper
		if err := json.Unmarshal(raw, &req); err != nil {
			a.log.DebugEvent("Ignoring undecodable message", "error", err.Error())
			continue
		}
		if req.Type != appclcm.TypeRequest || req.Body == nil || req.Body.Input == nil {
			continue
		}
		a.reply(&req)
	}
}

func (a *Appc) reply(req *appclcm.DmaapWrapper) {
	final, message := 400, "SUCCESS"
	if req.Body.Input.ActionIdentifiers["vnf-id"] == AppcFailVnf {
		final, message = 401, "FAILURE"
	}

	for _, resp := range []*appclcm.DmaapWrapper{
		appclcm.NewResponse(req, 100, "ACCEPTED"),
		appclcm.NewResponse(req, final, message),
	} {
		data, err := json.Marshal(resp)
		if err != nil {
			a.log.ErrorEvent(err, "Cannot encode response")
			return
		}
		if err := a.bus.Publish(context.Background(), a.responseTopic, data); err != nil {
			a.log.ErrorEvent(err, "Cannot publish response", "topic", a.responseTopic)
			return
		}
	}
}
