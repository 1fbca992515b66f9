package httpop

import (
	"fmt"
	"sort"
	"sync"

	"github.com/thc1006/onap-policy-actors/pkg/metrics"
)

// ClientFactory is the registry of named clients operators resolve their
// clientName against.
type ClientFactory struct {
	metrics *metrics.Metrics

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewClientFactory returns an empty factory.
func NewClientFactory(m *metrics.Metrics) *ClientFactory {
	return &ClientFactory{metrics: m, clients: make(map[string]*Client)}
}

// Build creates a client per configuration. Names must be unique.
func (f *ClientFactory) Build(cfgs ...ClientConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, cfg := range cfgs {
		if _, ok := f.clients[cfg.Name]; ok {
			return fmt.Errorf("http client %s already exists", cfg.Name)
		}
		c, err := NewClient(cfg, f.metrics)
		if err != nil {
			return fmt.Errorf("build http client: %w", err)
		}
		f.clients[cfg.Name] = c
	}
	return nil
}

// Get returns the named client.
func (f *ClientFactory) Get(name string) (*Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	c, ok := f.clients[name]
	if !ok {
		return nil, fmt.Errorf("http client %q not found", name)
	}
	return c, nil
}

// Names returns the sorted client names.
func (f *ClientFactory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	names := make([]string, 0, len(f.clients))
	for name := range f.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Destroy closes and forgets every client.
func (f *ClientFactory) Destroy() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, c := range f.clients {
		c.CloseIdleConnections()
		delete(f.clients, name)
	}
}
