package formstate

import (
	"errors"
	"fmt"
)

// CommonState is the shape shared by field and group snapshots.
type CommonState struct {
	Value any

	IsValid   bool
	IsInvalid bool
	Errors    ValidationResult

	IsPending    bool
	PendingCount int

	IsDirty    bool
	IsPristine bool

	IsTouched   bool
	IsUntouched bool

	HasFocus bool
}

// CheckInvariants reports every complementary flag pair that disagrees.
func (c CommonState) CheckInvariants() error {
	var errs []error
	if c.IsValid == c.IsInvalid {
		errs = append(errs, fmt.Errorf("%w: isValid=%t isInvalid=%t", ErrInvariant, c.IsValid, c.IsInvalid))
	}
	if c.IsDirty == c.IsPristine {
		errs = append(errs, fmt.Errorf("%w: isDirty=%t isPristine=%t", ErrInvariant, c.IsDirty, c.IsPristine))
	}
	if c.IsTouched == c.IsUntouched {
		errs = append(errs, fmt.Errorf("%w: isTouched=%t isUntouched=%t", ErrInvariant, c.IsTouched, c.IsUntouched))
	}
	if c.IsPending != (c.PendingCount > 0) {
		errs = append(errs, fmt.Errorf("%w: isPending=%t pendingCount=%d", ErrInvariant, c.IsPending, c.PendingCount))
	}
	return errors.Join(errs...)
}

func defaultCommonState() CommonState {
	return CommonState{
		IsValid:     true,
		Errors:      SuccessResult(),
		IsPristine:  true,
		IsUntouched: true,
	}
}

// State is a field or group snapshot.
type State interface {
	Kind() Kind
	Common() CommonState
}

// FieldState is an immutable snapshot of a field.
type FieldState struct {
	CommonState
	Type    string
	Options *FieldStateOptions
}

// Kind implements State.
func (*FieldState) Kind() Kind { return KindField }

// Common implements State.
func (s *FieldState) Common() CommonState { return s.CommonState }

// GroupState is an immutable snapshot of a group. Children are owned by the
// group and shared between its snapshots.
type GroupState struct {
	CommonState
	Options  *GroupStateOptions
	Children map[string]FormStore
}

// Kind implements State.
func (*GroupState) Kind() Kind { return KindGroup }

// Common implements State.
func (s *GroupState) Common() CommonState { return s.CommonState }

// DefaultFieldState builds the initial snapshot of a field.
func DefaultFieldState(def *FieldDefinition, opts ...Option) (*FieldState, error) {
	return defaultFieldState(def, applyOptions(opts))
}

// DefaultGroupState builds the initial snapshot of a group, creating one child
// store per property. Callers own the returned children and must Close them
// when the state is discarded without a GroupStore.
func DefaultGroupState(def *GroupDefinition, opts ...Option) (*GroupState, error) {
	return defaultGroupState(def, applyOptions(opts), map[*GroupDefinition]struct{}{})
}

func defaultFieldState(def *FieldDefinition, cfg config) (*FieldState, error) {
	if def == nil {
		return nil, &DefinitionError{Path: cfg.path, Err: ErrNilDefinition}
	}
	options, err := resolveFieldOptions(def.Type, def.Options, cfg)
	if err != nil {
		return nil, wrapDefinitionError(cfg.path, err)
	}
	state := &FieldState{
		CommonState: defaultCommonState(),
		Type:        def.Type,
		Options:     options,
	}
	state.Value = options.InitialValue
	return state, nil
}

func defaultGroupState(def *GroupDefinition, cfg config, ancestors map[*GroupDefinition]struct{}) (*GroupState, error) {
	if def == nil {
		return nil, &DefinitionError{Path: cfg.path, Err: ErrNilDefinition}
	}
	if _, seen := ancestors[def]; seen {
		return nil, &DefinitionError{Path: cfg.path, Err: ErrCyclicDefinition}
	}
	ancestors[def] = struct{}{}
	defer delete(ancestors, def)

	options, err := resolveGroupOptions(def.Options, cfg)
	if err != nil {
		return nil, wrapDefinitionError(cfg.path, err)
	}

	children := make(map[string]FormStore, len(def.Properties))
	for _, name := range sortedNames(def.Properties) {
		child, err := createFormStore(def.Properties[name], cfg.child(name), ancestors)
		if err != nil {
			closeChildren(children)
			return nil, err
		}
		children[name] = child
	}

	state := &GroupState{
		CommonState: defaultCommonState(),
		Options:     options,
		Children:    children,
	}
	state.Value = AggregateValue(children)
	return state, nil
}

// AggregateValue maps each child name to the child's current value.
func AggregateValue(children map[string]FormStore) map[string]any {
	value := make(map[string]any, len(children))
	for name, child := range children {
		value[name] = child.Value()
	}
	return value
}

func closeChildren(children map[string]FormStore) {
	for _, child := range children {
		child.Close()
	}
}
