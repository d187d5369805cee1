package backend

import "sync"

// Registry manages backend instances keyed by network variant.
type Registry struct {
	backends map[Variant]Backend
	mu       sync.RWMutex
}

// NewRegistry creates a new backend registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[Variant]Backend),
	}
}

// Register adds a backend to the registry.
func (r *Registry) Register(b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.backends[b.Variant()]; exists {
		return ErrAlreadyRegistered
	}

	r.backends[b.Variant()] = b
	return nil
}

// Get retrieves a backend by variant.
func (r *Registry) Get(variant Variant) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.backends[variant]
	return b, ok
}

// Variants returns the registered variants.
func (r *Registry) Variants() []Variant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	variants := make([]Variant, 0, len(r.backends))
	for v := range r.backends {
		variants = append(variants, v)
	}

	return variants
}

// Close closes all registered backends.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, b := range r.backends {
		if err := b.Close(); err != nil {
			return err
		}
	}

	return nil
}
