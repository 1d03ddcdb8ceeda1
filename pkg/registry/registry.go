package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"

	"github.com/aretw0/policydesk/pkg/domain"
	"github.com/aretw0/policydesk/pkg/editor"
)

// Descriptor is the metadata of one assertion kind.
type Descriptor struct {
	Kind        domain.Kind
	ShortName   string
	Description string

	// PropertiesActionName and PropertiesActionDesc override the default
	// labels of the properties action.
	PropertiesActionName string
	PropertiesActionDesc string

	// ActionFactory supplies the preferred action. When nil and EditorFactory
	// is set, resolvers fall back to the properties action.
	ActionFactory domain.ActionFactory

	// EditorFactory opens the property editor of the kind, if it has one.
	EditorFactory editor.Factory

	Composite bool
}

// UnknownKindError is returned when a kind has no descriptor.
type UnknownKindError struct {
	Kind       domain.Kind
	Suggestion domain.Kind
}

func (e *UnknownKindError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown assertion kind '%s' (did you mean '%s'?)", e.Kind, e.Suggestion)
	}
	return fmt.Sprintf("unknown assertion kind '%s'", e.Kind)
}

// Registry maps kinds to descriptors. It is read-only once frozen.
type Registry struct {
	mu          sync.RWMutex
	descriptors map[domain.Kind]Descriptor
	frozen      bool
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[domain.Kind]Descriptor),
	}
}

// Register adds a descriptor.
// If a descriptor with the same kind exists, it is overwritten.
func (r *Registry) Register(d Descriptor) error {
	if d.Kind == "" {
		return &domain.ConfigurationError{Component: "registry", Reason: "descriptor kind is empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return &domain.ConfigurationError{
			Component: "registry",
			Reason:    fmt.Sprintf("cannot register '%s' after freeze", d.Kind),
		}
	}
	if d.ShortName == "" {
		d.ShortName = string(d.Kind)
	}
	r.descriptors[d.Kind] = d
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup returns the descriptor of kind.
// Returns an *UnknownKindError if the kind is not registered.
func (r *Registry) Lookup(kind domain.Kind) (Descriptor, error) {
	r.mu.RLock()
	d, ok := r.descriptors[kind]
	r.mu.RUnlock()

	if !ok {
		return Descriptor{}, &UnknownKindError{Kind: kind, Suggestion: r.Suggest(kind)}
	}
	return d, nil
}

// MustLookup is like Lookup but panics on unknown kinds.
func (r *Registry) MustLookup(kind domain.Kind) Descriptor {
	d, err := r.Lookup(kind)
	if err != nil {
		panic(err)
	}
	return d
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []domain.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.Kind, 0, len(r.descriptors))
	for k := range r.descriptors {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Suggest returns the registered kind closest to kind, or "" when nothing
// is close enough to be a plausible typo.
func (r *Registry) Suggest(kind domain.Kind) domain.Kind {
	best := domain.Kind("")
	bestDist := -1
	for _, k := range r.Kinds() {
		d := levenshtein.ComputeDistance(string(kind), string(k))
		if bestDist < 0 || d < bestDist {
			best, bestDist = k, d
		}
	}
	if bestDist < 0 || bestDist > maxSuggestDistance(string(kind)) {
		return ""
	}
	return best
}

func maxSuggestDistance(s string) int {
	if n := len(s) / 3; n > 2 {
		return n
	}
	return 2
}
