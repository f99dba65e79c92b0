package formstate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFieldType reports a field type without per-type defaults.
	ErrUnknownFieldType = errors.New("formstate: unknown field type")
	// ErrCyclicDefinition reports a group that contains itself.
	ErrCyclicDefinition = errors.New("formstate: cyclic group definition")
	// ErrNilDefinition reports a missing definition node.
	ErrNilDefinition = errors.New("formstate: definition is nil")
	// ErrUnknownDefinition reports a Definition implementation this package
	// does not know how to build.
	ErrUnknownDefinition = errors.New("formstate: unknown definition kind")
	// ErrIncompleteOptions reports resolved field options missing a required
	// behaviour (isEmpty, coerce or areEqual).
	ErrIncompleteOptions = errors.New("formstate: incomplete options")
	// ErrInvariant reports a state whose complementary flags disagree.
	ErrInvariant = errors.New("formstate: state invariant violated")
)

// DefinitionError locates a configuration failure inside a definition tree.
type DefinitionError struct {
	Path string
	Err  error
}

func (e *DefinitionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v (at %s)", e.Err, describePath(e.Path))
}

func (e *DefinitionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describePath(path string) string {
	if path == "" {
		return "<root>"
	}
	return fmt.Sprintf("%q", path)
}

// wrapDefinitionError attaches path to err unless it already carries one.
func wrapDefinitionError(path string, err error) error {
	if err == nil {
		return nil
	}
	var defErr *DefinitionError
	if errors.As(err, &defErr) {
		return err
	}
	return &DefinitionError{Path: path, Err: err}
}
