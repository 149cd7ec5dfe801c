package script

import (
	"fmt"
	"sort"
	"sync"
)

// Registry tracks the script threads of a process so the host can look them
// up by name and surface their state.
type Registry struct {
	mu      sync.RWMutex
	threads map[string]*Thread
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{threads: make(map[string]*Thread)}
}

// Add registers a thread under its name.
func (r *Registry) Add(t *Thread) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.threads[t.Name()]; ok {
		return fmt.Errorf("script: thread %q already registered", t.Name())
	}
	r.threads[t.Name()] = t
	return nil
}

// Remove drops the named thread from the registry.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.threads, name)
}

// Get returns the named thread.
func (r *Registry) Get(name string) (*Thread, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.threads[name]
	return t, ok
}

// List returns status snapshots for all registered threads, sorted by name.
func (r *Registry) List() []Status {
	r.mu.RLock()
	out := make([]Status, 0, len(r.threads))
	for _, t := range r.threads {
		out = append(out, t.Status())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CloseAll requests teardown of every registered thread and waits for each
// to finish.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	threads := make([]*Thread, 0, len(r.threads))
	for _, t := range r.threads {
		threads = append(threads, t)
	}
	r.mu.RUnlock()

	for _, t := range threads {
		t.Close()
	}
	for _, t := range threads {
		<-t.Done()
	}
}
