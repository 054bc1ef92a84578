// Package registry holds the set of configured exchange connectors. The set
// is built once at startup and never mutated afterwards, so request-time
// reads need no locking.
package registry

import (
	"fmt"

	"github.com/thom899g/autonomous-cashflow-arbitrage-engine/internal/connector"
)

// ErrDuplicateExchange is returned when registering an exchange id twice.
type ErrDuplicateExchange struct{ Exchange string }

func (e *ErrDuplicateExchange) Error() string {
	return fmt.Sprintf("exchange %q already registered", e.Exchange)
}

// ErrUnknownExchange is returned when looking up an unregistered exchange.
type ErrUnknownExchange struct{ Exchange string }

func (e *ErrUnknownExchange) Error() string {
	return fmt.Sprintf("exchange %q not registered", e.Exchange)
}

// Registry maps exchange identifiers to their connectors.
type Registry struct {
	byName map[string]connector.Connector
	order  []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]connector.Connector)}
}

// Register adds a connector under its Name. Registration happens during
// single-threaded startup only.
func (r *Registry) Register(c connector.Connector) error {
	name := c.Name()
	if _, exists := r.byName[name]; exists {
		return &ErrDuplicateExchange{Exchange: name}
	}
	r.byName[name] = c
	r.order = append(r.order, name)
	return nil
}

// Get returns the connector registered under name.
func (r *Registry) Get(name string) (connector.Connector, error) {
	c, ok := r.byName[name]
	if !ok {
		return nil, &ErrUnknownExchange{Exchange: name}
	}
	return c, nil
}

// List returns the registered connectors in registration order. The slice is
// a copy; callers cannot mutate the registry through it.
func (r *Registry) List() []connector.Connector {
	out := make([]connector.Connector, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns registered exchange identifiers in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len reports how many exchanges are registered.
func (r *Registry) Len() int { return len(r.byName) }
