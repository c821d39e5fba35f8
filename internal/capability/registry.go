// Package capability tracks which optional integrations were configured at
// startup. Each capability is either present with an instance or absent with
// a reason; callers never probe for nil collaborators.
package capability

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Capability names.
const (
	GitHub        = "github"
	LLM           = "llm"
	Git           = "git"
	PRAgent       = "pr_agent"
	DocGenerator  = "doc_generator"
	ReadmeUpdater = "readme_updater"
)

// ErrUnavailable is returned when a capability was never configured.
var ErrUnavailable = errors.New("capability unavailable")

type entry struct {
	instance any
	reason   string
}

// Registry maps capability names to instances. It is filled once at startup
// and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register records an available capability.
func (r *Registry) Register(name string, instance any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{instance: instance}
}

// MarkAbsent records that a capability is not available and why.
func (r *Registry) MarkAbsent(name, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{reason: reason}
}

// Lookup returns the instance registered under name. The error wraps
// ErrUnavailable and carries the recorded reason.
func (r *Registry) Lookup(name string) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w: not registered", name, ErrUnavailable)
	}
	if e.instance == nil {
		return nil, fmt.Errorf("%s: %w: %s", name, ErrUnavailable, e.reason)
	}
	return e.instance, nil
}

// Available reports whether name has an instance.
func (r *Registry) Available(name string) bool {
	_, err := r.Lookup(name)
	return err == nil
}

// Status returns "available" or "unavailable: <reason>" per capability.
func (r *Registry) Status() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]string, len(r.entries))
	for name, e := range r.entries {
		if e.instance != nil {
			out[name] = "available"
		} else {
			out[name] = "unavailable: " + e.reason
		}
	}
	return out
}

// Names returns registered capability names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns the capability under name typed as T.
func Get[T any](r *Registry, name string) (T, error) {
	var zero T
	v, err := r.Lookup(name)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s: registered as %T", name, v)
	}
	return typed, nil
}
