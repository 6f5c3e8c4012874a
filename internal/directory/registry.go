package directory

import (
	"errors"
	"sync"
)

// Registry is a process-wide holder for one configured Client.
// Configure must be called exactly once before Get; there is no
// refresh or reconfiguration, the underlying settings only change
// with a process restart. Request-handling code receives the client
// by injection; the registry exists for entry points that share a
// single client across commands.
type Registry struct {
	mu     sync.Mutex
	client *Client
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Configure builds the client from the given configuration. Calling
// it a second time is a programming error.
func (r *Registry) Configure(cfg *Config, opts ...Option) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client != nil {
		return errors.New("directory registry is already configured")
	}

	client, err := NewClient(cfg, opts...)
	if err != nil {
		return err
	}
	r.client = client
	return nil
}

// Get returns the configured client, or ErrNotInitialized when
// Configure has not run.
func (r *Registry) Get() (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil, ErrNotInitialized
	}
	return r.client, nil
}
