package application

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"mollie-gateway/internal/domain"
)

// Registry is the host's lookup table: one Gateway per stable module name.
type Registry struct {
	mu       sync.RWMutex
	gateways map[string]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway)}
	for _, g := range gateways {
		r.Register(g)
	}
	return r
}

// Register adds g, replacing any gateway registered under the same name.
func (r *Registry) Register(g Gateway) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gateways[strings.ToLower(g.Name())] = g
}

// Lookup is case-insensitive, matching how the host resolves module folders.
func (r *Registry) Lookup(name string) (Gateway, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.gateways[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownModule, name)
	}
	return g, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.gateways))
	for _, g := range r.gateways {
		out = append(out, g.Name())
	}
	sort.Strings(out)
	return out
}
