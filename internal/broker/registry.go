package broker

import (
	"fmt"
	"sort"
	"sync"

	"github.com/marcwinn/traderhub/internal/domain"
)

// Registry manages the named collection of brokerage adapters that can be
// looked up at runtime. It is safe for concurrent use. Adding a brokerage
// means registering a new implementation; existing ones are untouched.
type Registry struct {
	brokers map[string]Broker
	mu      sync.RWMutex
}

// NewRegistry returns an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	return &Registry{
		brokers: make(map[string]Broker),
	}
}

// Register adds a broker to the registry under the given identifier.
// If a broker with the same identifier already exists it will be replaced.
func (r *Registry) Register(name string, b Broker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brokers[name] = b
}

// Get retrieves a broker by identifier. It returns an error when the
// identifier is not registered.
func (r *Registry) Get(name string) (Broker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.brokers[name]
	if !ok {
		return nil, fmt.Errorf("broker %q: %w", name, domain.ErrNotFound)
	}
	return b, nil
}

// List returns the identifiers of all registered brokers in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.brokers))
	for n := range r.brokers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
