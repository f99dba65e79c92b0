package formstate

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestResolveFieldOptionsPrecedence(t *testing.T) {
	global := DefaultGlobalFieldOptions()
	global.Title = "global"
	global.PlaceholderValue = "from global"

	resolved, err := ResolveFieldOptions("text", &FieldOptions{Title: "instance"},
		WithGlobalFieldOptions(global),
	)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Title != "instance" {
		t.Fatalf("expected instance title, got %q", resolved.Title)
	}
	// An interface holding "" is still set, so the type layer wins.
	if resolved.PlaceholderValue != "" {
		t.Fatalf("expected type placeholder, got %#v", resolved.PlaceholderValue)
	}
	if resolved.InitialValue != "" {
		t.Fatalf("expected text initial value, got %#v", resolved.InitialValue)
	}
	if resolved.IsEmpty == nil || resolved.Coerce == nil || resolved.AreEqual == nil {
		t.Fatalf("expected behavioural funcs to be resolved")
	}
	if got := resolved.Coerce(42, nil); got != "42" {
		t.Fatalf("expected text coerce from type layer, got %#v", got)
	}

	trace, err := resolved.Trace("Title")
	if err != nil {
		t.Fatalf("trace: %v", err)
	}
	winner, ok := trace.Winner()
	if !ok || winner.Scope.Name != "instance" {
		t.Fatalf("expected instance to win Title, got %+v", winner)
	}
}

func TestResolveFieldOptionsValidatorOrder(t *testing.T) {
	var order []string
	factory := func(name string) FieldValidatorFactory {
		return func(*FieldState) Validator {
			order = append(order, name)
			return nil
		}
	}
	validator := func(name string) Validator {
		return func(any, State) ValidationResult {
			order = append(order, name)
			return SuccessResult()
		}
	}

	global := DefaultGlobalFieldOptions()
	global.ValidatorFactories = []FieldValidatorFactory{factory("global")}
	typeLayer := DefaultTextOptions()
	typeLayer.ValidatorFactories = []FieldValidatorFactory{factory("type")}

	resolved, err := ResolveFieldOptions("text", &FieldOptions{
		Validators:         []Validator{validator("instance validator")},
		ValidatorFactories: []FieldValidatorFactory{factory("instance factory")},
	}, WithGlobalFieldOptions(global), WithFieldType("text", typeLayer))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	for _, f := range resolved.ValidatorFactories {
		if v := f(nil); v != nil {
			v(nil, nil)
		}
	}
	want := []string{"global", "type", "instance validator", "instance factory"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestResolveFieldOptionsErrors(t *testing.T) {
	if _, err := ResolveFieldOptions("date", nil); !errors.Is(err, ErrUnknownFieldType) {
		t.Fatalf("expected ErrUnknownFieldType, got %v", err)
	}

	bare := map[string]FieldOptions{"raw": {}}
	_, err := ResolveFieldOptions("raw", nil,
		WithFieldTypeOptions(bare),
		WithGlobalFieldOptions(FieldOptions{}),
	)
	if !errors.Is(err, ErrIncompleteOptions) {
		t.Fatalf("expected ErrIncompleteOptions, got %v", err)
	}
}

func TestWithFieldTypeExtendsDefaults(t *testing.T) {
	slug := FieldOptions{InitialValue: "untitled"}
	resolved, err := ResolveFieldOptions("slug", nil, WithFieldType("slug", slug))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.InitialValue != "untitled" {
		t.Fatalf("expected slug initial value, got %v", resolved.InitialValue)
	}
	if _, err := ResolveFieldOptions("text", nil, WithFieldType("slug", slug)); err != nil {
		t.Fatalf("expected built-in types to remain available, got %v", err)
	}
}

func TestResolveGroupOptions(t *testing.T) {
	calls := 0
	resolved, err := ResolveGroupOptions(&GroupOptions{
		Title: "Address",
		Validators: []Validator{func(any, State) ValidationResult {
			calls++
			return SuccessResult()
		}},
	}, WithGlobalGroupOptions(GroupOptions{Title: "global"}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Title != "Address" {
		t.Fatalf("expected instance title, got %q", resolved.Title)
	}
	if len(resolved.ValidatorFactories) != 1 {
		t.Fatalf("expected one factory, got %d", len(resolved.ValidatorFactories))
	}
	resolved.ValidatorFactories[0](nil)(nil, nil)
	if calls != 1 {
		t.Fatalf("expected wrapped validator to run once, got %d", calls)
	}
}

func TestFieldDefinitionMergesOptionsLastWins(t *testing.T) {
	def := Field("text", FieldOptions{Title: "first", PlaceholderValue: "p"}, FieldOptions{Title: "second"})
	if def.Options.Title != "second" {
		t.Fatalf("expected later title to win, got %q", def.Options.Title)
	}
	if def.Options.PlaceholderValue != "p" {
		t.Fatalf("expected earlier placeholder to survive, got %v", def.Options.PlaceholderValue)
	}
}

func TestResolveKeepsOpaqueInitialValues(t *testing.T) {
	when := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	state, err := DefaultFieldState(
		Field("date", FieldOptions{InitialValue: when}),
		WithFieldType("date", FieldOptions{InitialValue: time.Time{}}),
	)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if at, ok := state.Value.(time.Time); !ok || !at.Equal(when) {
		t.Fatalf("expected instance time to win, got %#v", state.Value)
	}
	if at, ok := state.Options.InitialValue.(time.Time); !ok || !at.Equal(when) {
		t.Fatalf("expected resolved initial time, got %#v", state.Options.InitialValue)
	}

	state, err = DefaultFieldState(
		Field("big", FieldOptions{InitialValue: big.NewInt(42)}),
		WithFieldType("big", FieldOptions{}),
	)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if n, ok := state.Value.(*big.Int); !ok || n.Cmp(big.NewInt(42)) != 0 {
		t.Fatalf("expected big.Int 42, got %#v", state.Value)
	}
	if state.IsDirty {
		t.Fatalf("expected initial state to be pristine")
	}
}

func TestResolveFloatPrecisionZero(t *testing.T) {
	zero := 0
	state, err := DefaultFieldState(Field("float", FieldOptions{Numeric: &NumericOptions{Precision: &zero}}))
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	numeric := state.Options.Numeric
	if numeric == nil || numeric.Precision == nil || *numeric.Precision != 0 {
		t.Fatalf("expected precision 0 to survive the cascade, got %+v", numeric)
	}
	if got := state.Options.Coerce(2.6, state); got != 3.0 {
		t.Fatalf("expected rounding to whole numbers, got %v", got)
	}

	unbounded, err := DefaultFieldState(Field("float"))
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if got := unbounded.Options.Coerce(2.675, unbounded); got != 2.675 {
		t.Fatalf("expected default float to keep every decimal, got %v", got)
	}
}
