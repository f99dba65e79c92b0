package formstate

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-formstate/layering"
)

// Kind tags the two definition, state and store variants.
type Kind string

const (
	KindField Kind = "field"
	KindGroup Kind = "group"
)

// Definition is an immutable description of a field or a group of fields.
// Implemented only by *FieldDefinition and *GroupDefinition.
type Definition interface {
	Kind() Kind
	definition()
}

// Properties maps child names to their definitions.
type Properties map[string]Definition

// FieldDefinition describes a single input of a given type.
type FieldDefinition struct {
	Type    string
	Options *FieldOptions
}

// Kind implements Definition.
func (*FieldDefinition) Kind() Kind { return KindField }

func (*FieldDefinition) definition() {}

// GroupDefinition describes a named set of child definitions.
type GroupDefinition struct {
	Properties Properties
	Options    *GroupOptions
}

// Kind implements Definition.
func (*GroupDefinition) Kind() Kind { return KindGroup }

func (*GroupDefinition) definition() {}

// Field builds a field definition. When several options values are given the
// later ones take precedence.
func Field(fieldType string, options ...FieldOptions) *FieldDefinition {
	def := &FieldDefinition{Type: fieldType}
	if len(options) > 0 {
		merged := layering.MergeLayers(reversed(options)...)
		def.Options = &merged
	}
	return def
}

// Group builds a group definition. The properties map is copied.
func Group(properties Properties, options ...GroupOptions) *GroupDefinition {
	def := &GroupDefinition{}
	if properties != nil {
		def.Properties = make(Properties, len(properties))
		for name, child := range properties {
			def.Properties[name] = child
		}
	}
	if len(options) > 0 {
		merged := layering.MergeLayers(reversed(options)...)
		def.Options = &merged
	}
	return def
}

func reversed[T any](in []T) []T {
	out := make([]T, len(in))
	for i := range in {
		out[len(in)-1-i] = in[i]
	}
	return out
}

// ValidateDefinition walks def and reports nil nodes and cycles. Shared,
// acyclic sub-definitions are allowed.
func ValidateDefinition(def Definition) error {
	return walkDefinition(def, "", map[*GroupDefinition]struct{}{})
}

func walkDefinition(def Definition, path string, ancestors map[*GroupDefinition]struct{}) error {
	switch typed := def.(type) {
	case nil:
		return &DefinitionError{Path: path, Err: ErrNilDefinition}
	case *FieldDefinition:
		if typed == nil {
			return &DefinitionError{Path: path, Err: ErrNilDefinition}
		}
		return nil
	case *GroupDefinition:
		if typed == nil {
			return &DefinitionError{Path: path, Err: ErrNilDefinition}
		}
		if _, seen := ancestors[typed]; seen {
			return &DefinitionError{Path: path, Err: ErrCyclicDefinition}
		}
		ancestors[typed] = struct{}{}
		defer delete(ancestors, typed)
		for _, name := range sortedNames(typed.Properties) {
			if err := walkDefinition(typed.Properties[name], joinPath(path, name), ancestors); err != nil {
				return err
			}
		}
		return nil
	default:
		return &DefinitionError{Path: path, Err: fmt.Errorf("%w: %T", ErrUnknownDefinition, def)}
	}
}

func sortedNames(properties Properties) []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
