package topic

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Listener receives a decoded message and its raw bytes.
type Listener func(message map[string]interface{}, raw []byte)

// Forwarder routes the messages of a source topic to the listeners
// registered for the values found at its key paths. A message missing any
// key, or with no listener for its values, is dropped.
type Forwarder struct {
	keys [][]string

	mu        sync.RWMutex
	listeners map[string]map[*Listener]struct{}
}

// NewForwarder returns a forwarder keyed by dotted JSON paths such as
// "body.output.common-header.sub-request-id".
func NewForwarder(keys []string) *Forwarder {
	f := &Forwarder{listeners: make(map[string]map[*Listener]struct{})}
	for _, k := range keys {
		f.keys = append(f.keys, strings.Split(k, "."))
	}
	return f
}

// Register adds listener for messages whose key values equal values, in key
// order. The returned func removes it.
func (f *Forwarder) Register(values []string, listener Listener) (func(), error) {
	if len(values) != len(f.keys) {
		return nil, fmt.Errorf("forwarder needs %d key values, got %d", len(f.keys), len(values))
	}

	key := joinValues(values)
	l := &listener

	f.mu.Lock()
	if f.listeners[key] == nil {
		f.listeners[key] = make(map[*Listener]struct{})
	}
	f.listeners[key][l] = struct{}{}
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.listeners[key], l)
		if len(f.listeners[key]) == 0 {
			delete(f.listeners, key)
		}
	}, nil
}

// OnMessage decodes raw and dispatches it. It reports how many listeners
// received it.
func (f *Forwarder) OnMessage(raw []byte) int {
	var message map[string]interface{}
	if err := json.Unmarshal(raw, &message); err != nil {
		return 0
	}

	values := make([]string, 0, len(f.keys))
	for _, path := range f.keys {
		v, ok := Extract(message, path)
		if !ok {
			return 0
		}
		values = append(values, v)
	}

	f.mu.RLock()
	targets := make([]Listener, 0, len(f.listeners[joinValues(values)]))
	for l := range f.listeners[joinValues(values)] {
		targets = append(targets, *l)
	}
	f.mu.RUnlock()

	for _, l := range targets {
		l(message, raw)
	}
	return len(targets)
}

// Extract walks path through nested objects and returns the value found as
// a string. Only scalar values match.
func Extract(message map[string]interface{}, path []string) (string, bool) {
	var cur interface{} = message
	for _, field := range path {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return "", false
		}
		if cur, ok = obj[field]; !ok {
			return "", false
		}
	}

	switch v := cur.(type) {
	case string:
		return v, true
	case float64, bool:
		return fmt.Sprint(v), true
	}
	return "", false
}

func joinValues(values []string) string {
	return strings.Join(values, "\x00")
}
