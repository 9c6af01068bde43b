package auth

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BlackMission/fccauth/internal/domain"
)

// Registry maps scheme names to their handlers. Lookups are case-insensitive.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register adds a provider to the registry. Two providers may not share a
// name or a callback path.
func (r *Registry) Register(p Provider) error {
	key := strings.ToLower(p.Name())
	if _, exists := r.providers[key]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateProvider, p.Name())
	}
	for _, other := range r.providers {
		if other.CallbackPath() == p.CallbackPath() {
			return fmt.Errorf("%w: callback path %s already used by %s", domain.ErrDuplicateProvider, p.CallbackPath(), other.Name())
		}
	}
	r.providers[key] = p
	return nil
}

// Get returns a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[strings.ToLower(name)]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	return p, nil
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}

// Providers returns the registered providers ordered by name.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, 0, len(r.providers))
	for _, name := range r.Names() {
		out = append(out, r.providers[strings.ToLower(name)])
	}
	return out
}
