package formstate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/goliatone/go-formstate/layering"
)

const (
	// Priorities of the option layers. Higher numbers win.
	ScopePriorityGlobal   = 100
	ScopePriorityType     = 200
	ScopePriorityInstance = 300
)

// Scope models a named precedence bucket in the option cascade.
type Scope struct {
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	Priority int    `json:"priority"`
}

// ScopeOption configures a Scope.
type ScopeOption func(*Scope)

// WithScopeLabel sets a human-friendly label on the scope.
func WithScopeLabel(label string) ScopeOption {
	return func(s *Scope) {
		s.Label = label
	}
}

// NewScope builds a Scope. Validation is deferred to NewStack.
func NewScope(name string, priority int, opts ...ScopeOption) Scope {
	scope := Scope{Name: name, Priority: priority}
	for _, opt := range opts {
		if opt != nil {
			opt(&scope)
		}
	}
	return scope
}

// Layer pairs a scope with the options snapshot captured for it.
type Layer[T any] struct {
	Scope    Scope
	Snapshot T
}

// NewLayer constructs a Layer holding a detached copy of snapshot.
func NewLayer[T any](scope Scope, snapshot T) Layer[T] {
	return Layer[T]{
		Scope:    scope,
		Snapshot: layering.Clone(snapshot),
	}
}

var (
	// ErrScopeNameRequired indicates a missing scope name.
	ErrScopeNameRequired = errors.New("formstate: scope name must be provided")
	// ErrDuplicateScopeName indicates several layers share a scope name.
	ErrDuplicateScopeName = errors.New("formstate: scope names must be unique")
	// ErrPriorityOrder indicates duplicate priorities.
	ErrPriorityOrder = errors.New("formstate: scope priorities must be strictly ordered")
)

// Stack is an immutable set of layers ordered strongest first.
type Stack[T any] struct {
	layers []Layer[T]
}

// NewStack validates and sorts layers so the highest priority comes first.
func NewStack[T any](layers ...Layer[T]) (*Stack[T], error) {
	seen := make(map[string]struct{}, len(layers))
	copied := make([]Layer[T], len(layers))
	for i, layer := range layers {
		if layer.Scope.Name == "" {
			return nil, ErrScopeNameRequired
		}
		if _, ok := seen[layer.Scope.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateScopeName, layer.Scope.Name)
		}
		seen[layer.Scope.Name] = struct{}{}
		copied[i] = layer
	}

	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Scope.Priority > copied[j].Scope.Priority
	})
	for i := 1; i < len(copied); i++ {
		if copied[i-1].Scope.Priority == copied[i].Scope.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Scope.Priority)
		}
	}
	return &Stack[T]{layers: copied}, nil
}

// Len returns the number of layers.
func (s *Stack[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Merge resolves the stack into a Resolution that keeps every layer for
// provenance lookups.
func (s *Stack[T]) Merge() (*Resolution[T], error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("formstate: stack must include at least one layer")
	}
	snapshots := make([]T, len(s.layers))
	for i := range s.layers {
		snapshots[i] = s.layers[i].Snapshot
	}
	return &Resolution[T]{
		Value:  layering.MergeLayers(snapshots...),
		layers: append([]Layer[T](nil), s.layers...),
	}, nil
}

// Resolution is the merged value of a Stack plus the layers it came from.
type Resolution[T any] struct {
	Value  T
	layers []Layer[T]
}

// Layers returns the contributing layers, strongest first.
func (r *Resolution[T]) Layers() []Layer[T] {
	if r == nil {
		return nil
	}
	return append([]Layer[T](nil), r.layers...)
}
