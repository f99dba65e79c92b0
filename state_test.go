package formstate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultFieldState(t *testing.T) {
	state, err := DefaultFieldState(Field("text", FieldOptions{InitialValue: "hello", Title: "Greeting"}))
	if err != nil {
		t.Fatalf("default state: %v", err)
	}

	want := CommonState{
		Value:       "hello",
		IsValid:     true,
		Errors:      SuccessResult(),
		IsPristine:  true,
		IsUntouched: true,
	}
	if diff := cmp.Diff(want, state.CommonState); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
	if state.Type != "text" || state.Options.Title != "Greeting" {
		t.Fatalf("unexpected type or options: %q %q", state.Type, state.Options.Title)
	}
	if err := state.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestDefaultGroupStateAggregatesChildren(t *testing.T) {
	def := Group(Properties{
		"a": Field("text", FieldOptions{InitialValue: "X"}),
		"b": Field("int", FieldOptions{InitialValue: 1}),
	})
	state, err := DefaultGroupState(def)
	if err != nil {
		t.Fatalf("default state: %v", err)
	}
	defer closeChildren(state.Children)

	if diff := cmp.Diff(map[string]any{"a": "X", "b": 1}, state.Value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
	if len(state.Children) != 2 {
		t.Fatalf("expected two children, got %d", len(state.Children))
	}
	if state.Children["a"].Kind() != KindField || state.Children["a"].Path() != "a" {
		t.Fatalf("unexpected child a: %s %q", state.Children["a"].Kind(), state.Children["a"].Path())
	}
	if err := state.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestDefaultGroupStateEmptyGroup(t *testing.T) {
	state, err := DefaultGroupState(Group(nil))
	if err != nil {
		t.Fatalf("default state: %v", err)
	}
	if diff := cmp.Diff(map[string]any{}, state.Value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestDefinitionErrors(t *testing.T) {
	cyclic := Group(Properties{})
	cyclic.Properties["self"] = cyclic

	nested := Group(Properties{
		"profile": Group(Properties{
			"when": Field("date"),
		}),
	})

	cases := []struct {
		name   string
		def    Definition
		target error
		path   string
	}{
		{name: "unknown field type", def: nested, target: ErrUnknownFieldType, path: "profile.when"},
		{name: "cycle", def: cyclic, target: ErrCyclicDefinition, path: "self"},
		{name: "nil child", def: Group(Properties{"x": nil}), target: ErrNilDefinition, path: "x"},
		{name: "nil root", def: nil, target: ErrNilDefinition, path: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store, err := CreateFormStore(tc.def)
			if store != nil {
				t.Fatalf("expected no store, got %T", store)
			}
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
			var defErr *DefinitionError
			if !errors.As(err, &defErr) {
				t.Fatalf("expected *DefinitionError, got %T", err)
			}
			if defErr.Path != tc.path {
				t.Fatalf("expected path %q, got %q", tc.path, defErr.Path)
			}
		})
	}
}

func TestValidateDefinitionAllowsSharedSubtrees(t *testing.T) {
	shared := Group(Properties{"street": Field("text")})
	def := Group(Properties{"billing": shared, "shipping": shared})
	if err := ValidateDefinition(def); err != nil {
		t.Fatalf("expected shared subtree to be valid, got %v", err)
	}

	store, err := CreateGroupStore(def)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer store.Close()

	billing, _ := store.Field("billing.street")
	shipping, _ := store.Field("shipping.street")
	billing.Update("Main St")
	if shipping.Value() != "" {
		t.Fatalf("expected independent stores for a shared definition, got %v", shipping.Value())
	}
}

func TestCheckInvariantsReportsEveryPair(t *testing.T) {
	err := CommonState{IsValid: true, IsInvalid: true, IsPending: true}.CheckInvariants()
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("expected ErrInvariant, got %v", err)
	}
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) || len(joined.Unwrap()) != 4 {
		t.Fatalf("expected four violations, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	def := Group(Properties{
		"name": Field("text", FieldOptions{Title: "Name"}),
		"address": Group(Properties{
			"city": Field("text"),
		}, GroupOptions{Title: "Address"}),
	}, GroupOptions{Title: "Profile"})

	got, err := Describe(def)
	if err != nil {
		t.Fatalf("describe: %v", err)
	}
	want := []FieldDescriptor{
		{Path: "", Kind: KindGroup, Title: "Profile"},
		{Path: "address", Kind: KindGroup, Title: "Address"},
		{Path: "address.city", Kind: KindField, Type: "text"},
		{Path: "name", Kind: KindField, Type: "text", Title: "Name"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("descriptors mismatch (-want +got):\n%s", diff)
	}

	if _, err := Describe(nil); !errors.Is(err, ErrNilDefinition) {
		t.Fatalf("expected ErrNilDefinition, got %v", err)
	}
}
