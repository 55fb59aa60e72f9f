package locator

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownLocator is returned when a name was never registered.
// It points at a registry misconfiguration, not at page state.
var ErrUnknownLocator = errors.New("unknown locator")

// Override replaces the selector of an already registered name.
type Override struct {
	Strategy string
	Value    string
}

// Registry maps semantic names to locators. It has no mutating methods, so once
// built it can be shared by every scenario of a run.
type Registry struct {
	byName map[string]Locator
}

// NewRegistry builds a registry from the given definitions.
// Duplicate names and empty selectors are rejected.
func NewRegistry(defs ...Locator) (*Registry, error) {
	r := &Registry{byName: make(map[string]Locator, len(defs))}
	for _, d := range defs {
		if d.Strategy == "" {
			d.Strategy = CSS
		}
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("locator %q registered twice", d.Name)
		}
		r.byName[d.Name] = d
	}
	return r, nil
}

// WithOverrides returns a new registry where the named entries use the given selectors.
// Overriding a name that is not registered is an error, as it would otherwise be silently ignored.
func (r *Registry) WithOverrides(overrides map[string]Override) (*Registry, error) {
	next := &Registry{byName: make(map[string]Locator, len(r.byName))}
	for k, v := range r.byName {
		next.byName[k] = v
	}
	for name, o := range overrides {
		cur, ok := next.byName[name]
		if !ok {
			return nil, fmt.Errorf("override for %q: %w", name, ErrUnknownLocator)
		}
		st, err := ParseStrategy(o.Strategy)
		if err != nil {
			return nil, fmt.Errorf("override for %q: %w", name, err)
		}
		cur.Strategy, cur.Value = st, o.Value
		if err := cur.validate(); err != nil {
			return nil, err
		}
		next.byName[name] = cur
	}
	return next, nil
}

// Resolve looks up a locator by name.
func (r *Registry) Resolve(name string) (Locator, error) {
	l, ok := r.byName[name]
	if !ok {
		return Locator{}, fmt.Errorf("%w: %q", ErrUnknownLocator, name)
	}
	return l, nil
}

// Require checks that every given name is registered. The returned error
// lists each missing name and matches ErrUnknownLocator.
func (r *Registry) Require(names ...string) error {
	var errs []error
	for _, n := range names {
		if _, err := r.Resolve(n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered locators.
func (r *Registry) Len() int { return len(r.byName) }
