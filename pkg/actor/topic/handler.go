package topic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/thc1006/onap-policy-actors/pkg/logging"
	"github.com/thc1006/onap-policy-actors/pkg/metrics"
)

// Handler owns one sink and source topic pair. It subscribes to the source
// once and hands every message to its forwarders.
type Handler struct {
	bus     Bus
	sink    string
	source  string
	metrics *metrics.Metrics
	log     logging.Logger

	mu         sync.Mutex
	forwarders map[string]*Forwarder
	sub        Subscription
	stop       chan struct{}
	done       chan struct{}
}

// NewHandler returns a stopped handler for the pair.
func NewHandler(bus Bus, sink, source string, m *metrics.Metrics) *Handler {
	return &Handler{
		bus:        bus,
		sink:       sink,
		source:     source,
		metrics:    m,
		log:        logging.NewLogger(logging.ComponentTopic).WithValues("sink", sink, "source", source),
		forwarders: make(map[string]*Forwarder),
	}
}

// SinkTopic is the topic requests are published to.
func (h *Handler) SinkTopic() string { return h.sink }

// SourceTopic is the topic responses are read from.
func (h *Handler) SourceTopic() string { return h.source }

// Forwarder returns the forwarder for keys, creating it on first use.
func (h *Handler) Forwarder(keys []string) *Forwarder {
	id := strings.Join(keys, ",")

	h.mu.Lock()
	defer h.mu.Unlock()
	if f, ok := h.forwarders[id]; ok {
		return f
	}
	f := NewForwarder(keys)
	h.forwarders[id] = f
	return f
}

// Start subscribes to the source topic. Starting a running handler is a
// no-op.
func (h *Handler) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sub != nil {
		return nil
	}
	sub, err := h.bus.Subscribe(ctx, h.source)
	if err != nil {
		return fmt.Errorf("start topic handler: %w", err)
	}
	h.sub = sub
	h.stop = make(chan struct{})
	h.done = make(chan struct{})
	go h.loop(sub, h.stop, h.done)

	h.log.InfoEvent("Topic handler started")
	return nil
}

// Stop unsubscribes and waits for the dispatch loop to exit.
func (h *Handler) Stop() error {
	h.mu.Lock()
	sub, stop, done := h.sub, h.stop, h.done
	h.sub = nil
	h.mu.Unlock()

	if sub == nil {
		return nil
	}
	close(stop)
	err := sub.Close()
	<-done

	h.log.InfoEvent("Topic handler stopped")
	return err
}

// IsAlive reports whether the handler is subscribed.
func (h *Handler) IsAlive() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sub != nil
}

// Send publishes payload to the sink topic.
func (h *Handler) Send(ctx context.Context, payload []byte) error {
	if err := h.bus.Publish(ctx, h.sink, payload); err != nil {
		return err
	}
	h.metrics.RecordTopicMessage(h.sink, "out")
	return nil
}

func (h *Handler) loop(sub Subscription, stop, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case raw, ok := <-sub.Messages():
			if !ok {
				return
			}
			h.metrics.RecordTopicMessage(h.source, "in")
			h.dispatch(raw)
		}
	}
}

func (h *Handler) dispatch(raw []byte) {
	h.mu.Lock()
	targets := make([]*Forwarder, 0, len(h.forwarders))
	for _, f := range h.forwarders {
		targets = append(targets, f)
	}
	h.mu.Unlock()

	delivered := 0
	for _, f := range targets {
		delivered += f.OnMessage(raw)
	}
	if delivered == 0 {
		h.log.DebugEvent("Dropped unmatched message", "bytes", len(raw))
	}
}

// Manager shares handlers between operators that use the same topic pair.
type Manager struct {
	bus     Bus
	metrics *metrics.Metrics

	mu       sync.Mutex
	handlers map[string]*Handler
}

// NewManager returns a manager creating handlers on bus.
func NewManager(bus Bus, m *metrics.Metrics) *Manager {
	return &Manager{bus: bus, metrics: m, handlers: make(map[string]*Handler)}
}

// Bus returns the bus handlers are created on.
func (m *Manager) Bus() Bus { return m.bus }

// Handler returns the handler of the pair, creating it on first use.
func (m *Manager) Handler(sink, source string) *Handler {
	key := sink + "\x00" + source

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.handlers[key]; ok {
		return h
	}
	h := NewHandler(m.bus, sink, source, m.metrics)
	m.handlers[key] = h
	return h
}

// Topics lists the source topics of the known handlers.
func (m *Manager) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.handlers))
	for _, h := range m.handlers {
		out = append(out, h.source)
	}
	sort.Strings(out)
	return out
}

// Stop stops every handler.
func (m *Manager) Stop() error {
	m.mu.Lock()
	handlers := make([]*Handler, 0, len(m.handlers))
	for _, h := range m.handlers {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	var firstErr error
	for _, h := range handlers {
		if err := h.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
