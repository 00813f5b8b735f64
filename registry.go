package capture

import "sync"

// Registry holds capture providers in registration order. Resolution walks
// that order, so more specific providers should be registered first.
// Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	byID      map[string]Provider
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Provider)}
}

// Register adds a provider. Registering an id twice replaces the earlier
// instance but keeps its position in the resolution order.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[p.ID()]; ok {
		for i, existing := range r.providers {
			if existing.ID() == p.ID() {
				r.providers[i] = p
				break
			}
		}
	} else {
		r.providers = append(r.providers, p)
	}
	r.byID[p.ID()] = p
}

// Get returns the provider with the given id.
// Returns ENOTFOUND if no such provider is registered.
func (r *Registry) Get(id string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, Errorf(ENOTFOUND, "provider %q not registered", id)
	}
	return p, nil
}

// List returns the registered provider ids in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.providers))
	for i, p := range r.providers {
		ids[i] = p.ID()
	}
	return ids
}

// Resolve returns the first registered provider whose Supports accepts the
// input. Resolution is deterministic for a given registration order.
// Returns ENOTFOUND when no provider supports the input.
func (r *Registry) Resolve(input *CaptureInput) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.providers {
		if p.Supports(input) {
			return p, nil
		}
	}
	return nil, Errorf(ENOTFOUND, "no provider supports input kind %q", input.Kind)
}
