package formstate

import (
	"fmt"
	"strings"
)

// ResolveFieldOptions merges the global, per-type and instance layers of a
// field. Scalars of stronger layers win; validator factories are concatenated
// global, then type, then instance.
func ResolveFieldOptions(fieldType string, instance *FieldOptions, opts ...Option) (*FieldStateOptions, error) {
	return resolveFieldOptions(fieldType, instance, applyOptions(opts))
}

// ResolveGroupOptions merges the global and instance layers of a group.
func ResolveGroupOptions(instance *GroupOptions, opts ...Option) (*GroupStateOptions, error) {
	return resolveGroupOptions(instance, applyOptions(opts))
}

func resolveFieldOptions(fieldType string, instance *FieldOptions, cfg config) (*FieldStateOptions, error) {
	typeLayer, ok := cfg.fieldTypeLayer(fieldType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, fieldType)
	}

	layers := []Layer[FieldOptions]{
		NewLayer(NewScope("global", ScopePriorityGlobal, WithScopeLabel("Global defaults")), fieldLayer(cfg.globalFieldLayer())),
		NewLayer(NewScope("type", ScopePriorityType, WithScopeLabel("Type "+fieldType)), fieldLayer(typeLayer)),
	}
	if instance != nil {
		layers = append(layers, NewLayer(NewScope("instance", ScopePriorityInstance, WithScopeLabel("Definition")), fieldLayer(*instance)))
	}

	stack, err := NewStack(layers...)
	if err != nil {
		return nil, err
	}
	resolution, err := stack.Merge()
	if err != nil {
		return nil, err
	}

	merged := resolution.Value
	var missing []string
	if merged.IsEmpty == nil {
		missing = append(missing, "IsEmpty")
	}
	if merged.Coerce == nil {
		missing = append(missing, "Coerce")
	}
	if merged.AreEqual == nil {
		missing = append(missing, "AreEqual")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: field type %q has no %s", ErrIncompleteOptions, fieldType, strings.Join(missing, ", "))
	}

	factories := merged.ValidatorFactories
	if factories == nil {
		factories = []FieldValidatorFactory{}
	}
	return &FieldStateOptions{
		Title:              merged.Title,
		PlaceholderValue:   merged.PlaceholderValue,
		InitialValue:       merged.InitialValue,
		IsEmpty:            merged.IsEmpty,
		Coerce:             merged.Coerce,
		AreEqual:           merged.AreEqual,
		ValidatorFactories: factories,
		Text:               merged.Text,
		Bool:               merged.Bool,
		Numeric:            merged.Numeric,
		resolution:         resolution,
	}, nil
}

func resolveGroupOptions(instance *GroupOptions, cfg config) (*GroupStateOptions, error) {
	layers := []Layer[GroupOptions]{
		NewLayer(NewScope("global", ScopePriorityGlobal, WithScopeLabel("Global defaults")), groupLayer(cfg.globalGroupLayer())),
	}
	if instance != nil {
		layers = append(layers, NewLayer(NewScope("instance", ScopePriorityInstance, WithScopeLabel("Definition")), groupLayer(*instance)))
	}

	stack, err := NewStack(layers...)
	if err != nil {
		return nil, err
	}
	resolution, err := stack.Merge()
	if err != nil {
		return nil, err
	}

	factories := resolution.Value.ValidatorFactories
	if factories == nil {
		factories = []GroupValidatorFactory{}
	}
	return &GroupStateOptions{
		Title:              resolution.Value.Title,
		ValidatorFactories: factories,
		resolution:         resolution,
	}, nil
}

// fieldLayer folds plain validators into constant factories placed ahead of
// the layer's own factories.
func fieldLayer(options FieldOptions) FieldOptions {
	if len(options.Validators) == 0 {
		return options
	}
	factories := make([]FieldValidatorFactory, 0, len(options.Validators)+len(options.ValidatorFactories))
	for _, validator := range options.Validators {
		if validator != nil {
			factories = append(factories, constantFieldFactory(validator))
		}
	}
	options.ValidatorFactories = append(factories, options.ValidatorFactories...)
	options.Validators = nil
	return options
}

func groupLayer(options GroupOptions) GroupOptions {
	if len(options.Validators) == 0 {
		return options
	}
	factories := make([]GroupValidatorFactory, 0, len(options.Validators)+len(options.ValidatorFactories))
	for _, validator := range options.Validators {
		if validator != nil {
			factories = append(factories, constantGroupFactory(validator))
		}
	}
	options.ValidatorFactories = append(factories, options.ValidatorFactories...)
	options.Validators = nil
	return options
}
