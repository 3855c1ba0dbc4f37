package collection

import (
	"sort"
	"sync"

	"github.com/fatesmith/fatesmith/engine/evalerr"
)

// Registry holds the loaded documents, keyed by namespace. It is an explicit
// object passed into resolvers and evaluators; there is no process-wide
// instance. Reads are safe for concurrent use; documents are treated as
// immutable once added.
type Registry struct {
	mu   sync.RWMutex
	docs map[string]*Collection
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{docs: make(map[string]*Collection)}
}

// Add registers a document. No two loaded documents may share a namespace.
func (r *Registry) Add(c *Collection) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ns := c.Metadata.Namespace
	if ns == "" {
		return evalerr.Documentf("collection %q has no namespace", c.Metadata.Name)
	}
	if _, exists := r.docs[ns]; exists {
		return evalerr.Documentf("namespace %q is already registered", ns)
	}
	r.docs[ns] = c
	return nil
}

// Get returns the document registered under the namespace, or nil.
func (r *Registry) Get(namespace string) *Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.docs[namespace]
}

// Remove unregisters a namespace. Removing an unknown namespace is a no-op.
func (r *Registry) Remove(namespace string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, namespace)
}

// Namespaces returns the registered namespaces in sorted order.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.docs))
	for ns := range r.docs {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// List returns the registered documents ordered by namespace.
func (r *Registry) List() []*Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Collection, 0, len(r.docs))
	for _, c := range r.docs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata.Namespace < out[j].Metadata.Namespace
	})
	return out
}

// Len returns the number of registered documents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docs)
}
