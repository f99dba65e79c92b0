package formstate

// FieldOptions configures a field. It is used for definition-level overrides
// as well as for the global and per-type default layers. Zero values and nil
// funcs mean "not set" and fall through to weaker layers.
type FieldOptions struct {
	Title            string
	PlaceholderValue any
	InitialValue     any
	IsEmpty          func(value any, state *FieldState) bool
	Coerce           func(value any, state *FieldState) any
	AreEqual         func(value, oldValue any, state *FieldState) bool
	// Validators are instance-level only; the resolver wraps them into
	// constant factories placed before the instance ValidatorFactories.
	Validators         []Validator
	ValidatorFactories []FieldValidatorFactory `layering:"append"`

	Text    *TextOptions
	Bool    *BoolOptions
	Numeric *NumericOptions
}

// TextOptions extends text fields.
type TextOptions struct {
	MaxLength int
	Multiline bool
}

// BoolOptions extends boolean fields.
type BoolOptions struct {
	ThreeState bool
}

// NumericOptions extends int and float fields. Precision is the number of
// decimals kept by float fields; nil or negative means unbounded. It is a
// pointer so an instance layer can ask for 0.
type NumericOptions struct {
	MinValue  *float64
	MaxValue  *float64
	Precision *int
}

// GroupOptions configures a group.
type GroupOptions struct {
	Title              string
	Validators         []Validator
	ValidatorFactories []GroupValidatorFactory `layering:"append"`
}

// FieldStateOptions is the fully resolved configuration of a field. Every
// behavioural func is non-nil.
type FieldStateOptions struct {
	Title              string
	PlaceholderValue   any
	InitialValue       any
	IsEmpty            func(value any, state *FieldState) bool
	Coerce             func(value any, state *FieldState) any
	AreEqual           func(value, oldValue any, state *FieldState) bool
	ValidatorFactories []FieldValidatorFactory

	Text    *TextOptions
	Bool    *BoolOptions
	Numeric *NumericOptions

	resolution *Resolution[FieldOptions]
}

// Trace reports how each layer contributed to the option at path, e.g.
// "Title" or "Text.MaxLength".
func (o *FieldStateOptions) Trace(path string) (Trace, error) {
	if o == nil || o.resolution == nil {
		return Trace{Path: path}, nil
	}
	return o.resolution.Trace(path)
}

// GroupStateOptions is the fully resolved configuration of a group.
type GroupStateOptions struct {
	Title              string
	ValidatorFactories []GroupValidatorFactory

	resolution *Resolution[GroupOptions]
}

// Trace reports how each layer contributed to the option at path.
func (o *GroupStateOptions) Trace(path string) (Trace, error) {
	if o == nil || o.resolution == nil {
		return Trace{Path: path}, nil
	}
	return o.resolution.Trace(path)
}

// DefaultGlobalFieldOptions returns a fresh copy of the weakest field layer.
func DefaultGlobalFieldOptions() FieldOptions {
	return FieldOptions{
		IsEmpty:  isEmptyValue,
		Coerce:   identityCoerce,
		AreEqual: defaultAreEqual,
	}
}

// DefaultGlobalGroupOptions returns a fresh copy of the weakest group layer.
func DefaultGlobalGroupOptions() GroupOptions {
	return GroupOptions{}
}

// DefaultTextOptions returns the per-type layer for "text" fields.
func DefaultTextOptions() FieldOptions {
	return FieldOptions{
		PlaceholderValue: "",
		InitialValue:     "",
		Coerce:           textCoerce,
		Text:             &TextOptions{},
	}
}

// DefaultBoolOptions returns the per-type layer for "bool" fields.
func DefaultBoolOptions() FieldOptions {
	return FieldOptions{
		PlaceholderValue: "",
		InitialValue:     false,
		Coerce:           boolCoerce,
		Bool:             &BoolOptions{},
	}
}

// DefaultIntOptions returns the per-type layer for "int" fields.
func DefaultIntOptions() FieldOptions {
	return FieldOptions{
		InitialValue: 0,
		Coerce:       intCoerce,
		Numeric:      &NumericOptions{},
	}
}

// DefaultFloatOptions returns the per-type layer for "float" fields.
func DefaultFloatOptions() FieldOptions {
	return FieldOptions{
		InitialValue: 0.0,
		Coerce:       floatCoerce,
		Numeric:      &NumericOptions{},
	}
}

// DefaultFieldTypeOptions returns a fresh map of the built-in per-type layers.
func DefaultFieldTypeOptions() map[string]FieldOptions {
	return map[string]FieldOptions{
		"text":  DefaultTextOptions(),
		"bool":  DefaultBoolOptions(),
		"int":   DefaultIntOptions(),
		"float": DefaultFloatOptions(),
	}
}
