package stream

import (
	"errors"
	"fmt"
)

// Registry maps stream names to open writers for one session. Writers are
// created lazily on first use and closed in bulk at session stop. A registry
// is never reused across sessions.
type Registry struct {
	dir     string
	writers map[string]*Writer
}

// NewRegistry creates a registry writing streams into the session directory.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:     dir,
		writers: make(map[string]*Writer),
	}
}

// Get returns the writer for the named stream, creating it on first use.
func (r *Registry) Get(name string) (*Writer, error) {
	if name == "" {
		return nil, fmt.Errorf("stream name cannot be empty")
	}
	if w, ok := r.writers[name]; ok {
		return w, nil
	}

	w, err := NewWriter(r.dir, name)
	if err != nil {
		return nil, err
	}
	r.writers[name] = w
	return w, nil
}

// Len returns the number of open writers.
func (r *Registry) Len() int { return len(r.writers) }

// Names returns the names of all open streams.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.writers))
	for name := range r.writers {
		names = append(names, name)
	}
	return names
}

// CloseAll closes every writer, continuing past individual failures, and
// discards the writer map. The joined error reports every failed close.
func (r *Registry) CloseAll() error {
	var errs []error
	for _, w := range r.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.writers = make(map[string]*Writer)
	return errors.Join(errs...)
}
