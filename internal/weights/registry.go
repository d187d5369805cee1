package weights

import "sync"

// Set describes an installed pretrained parameter set.
type Set struct {
	// Name identifies the parameter release, derived from the archive name.
	Name string

	// Dir is the directory the parameters were extracted into.
	Dir string
}

// Registry stores installed parameter sets.
type Registry struct {
	sets map[string]*Set
	mu   sync.RWMutex
}

// NewRegistry creates a new weights registry.
func NewRegistry() *Registry {
	return &Registry{
		sets: make(map[string]*Set),
	}
}

// Put adds a parameter set to the registry.
func (r *Registry) Put(s *Set) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sets[s.Name] = s
}

// Get returns the parameter set with the given name.
func (r *Registry) Get(name string) (*Set, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sets[name]
	return s, ok
}

// List returns all installed parameter sets.
func (r *Registry) List() []*Set {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sets := make([]*Set, 0, len(r.sets))
	for _, s := range r.sets {
		sets = append(sets, s)
	}

	return sets
}

// Delete removes the parameter set with the given name.
func (r *Registry) Delete(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sets, name)
}
