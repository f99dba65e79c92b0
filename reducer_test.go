package formstate

import (
	"testing"

	"github.com/goliatone/go-formstate/pkg/dispatch"
)

func newTestFieldState(t *testing.T) *FieldState {
	t.Helper()
	state, err := DefaultFieldState(Field("text"))
	if err != nil {
		t.Fatalf("default state: %v", err)
	}
	return state
}

func TestReduceFieldReturnsSameStateForTriggers(t *testing.T) {
	state := newTestFieldState(t)
	for _, action := range []dispatch.Action{
		Update("x"),
		Focus(),
		Blur(),
		Reset(),
		{Type: "unknown"},
		{Type: ActionStateChanged, Payload: "not a change"},
		{Type: ActionStateChanged, Payload: (*StateChange)(nil)},
		StateChanged(StateChange{Reason: ReasonUpdate}),
		SetDirty(false),
		{Type: ActionSetDirty, Payload: "yes"},
	} {
		if next := ReduceField(state, action); next != state {
			t.Fatalf("expected %s to keep the same state", action.Type)
		}
	}
	if ReduceField(nil, Focus()) != nil {
		t.Fatalf("expected nil state to stay nil")
	}
}

func TestReduceFieldStateChanged(t *testing.T) {
	state := newTestFieldState(t)

	cases := []struct {
		name   string
		change StateChange
		check  func(t *testing.T, next *FieldState)
	}{
		{
			name:   "value",
			change: StateChange{ChangeValue: &ValueChange{Value: "abc"}},
			check: func(t *testing.T, next *FieldState) {
				if next.Value != "abc" || next.IsDirty {
					t.Fatalf("expected value only, got %+v", next.CommonState)
				}
			},
		},
		{
			name:   "focus",
			change: StateChange{ChangeFocus: &FocusChange{HasFocus: true}},
			check: func(t *testing.T, next *FieldState) {
				if !next.HasFocus || next.IsTouched || !next.IsUntouched {
					t.Fatalf("unexpected focus flags: %+v", next.CommonState)
				}
			},
		},
		{
			name:   "touched",
			change: StateChange{ChangeFocus: &FocusChange{IsTouched: true}},
			check: func(t *testing.T, next *FieldState) {
				if next.HasFocus || !next.IsTouched || next.IsUntouched {
					t.Fatalf("unexpected touched flags: %+v", next.CommonState)
				}
			},
		},
		{
			name:   "dirty",
			change: StateChange{ChangeDirty: &DirtyChange{IsDirty: true}},
			check: func(t *testing.T, next *FieldState) {
				if !next.IsDirty || next.IsPristine {
					t.Fatalf("unexpected dirty flags: %+v", next.CommonState)
				}
			},
		},
		{
			name: "validation",
			change: StateChange{ChangeValidation: &ValidationChange{
				Errors:       FailureResult("required", "required"),
				PendingCount: 2,
			}},
			check: func(t *testing.T, next *FieldState) {
				if next.IsValid || !next.IsInvalid || !next.IsPending || next.PendingCount != 2 {
					t.Fatalf("unexpected validation flags: %+v", next.CommonState)
				}
			},
		},
		{
			name: "negative pending count",
			change: StateChange{ChangeValidation: &ValidationChange{
				PendingCount: -3,
			}},
			check: func(t *testing.T, next *FieldState) {
				if next.IsPending || next.PendingCount != 0 || !next.IsValid {
					t.Fatalf("expected clamped pending count, got %+v", next.CommonState)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := ReduceField(state, StateChanged(tc.change))
			if next == state {
				t.Fatalf("expected a new snapshot")
			}
			if err := next.CheckInvariants(); err != nil {
				t.Fatalf("invariants: %v", err)
			}
			if state.Value != "" || state.HasFocus || state.IsTouched || state.IsDirty || !state.IsValid {
				t.Fatalf("prior state mutated: %+v", state.CommonState)
			}
			if next.Options != state.Options || next.Type != state.Type {
				t.Fatalf("expected options and type to carry over")
			}
			tc.check(t, next)
		})
	}
}

func TestReduceFieldAcceptsPointerPayload(t *testing.T) {
	state := newTestFieldState(t)
	next := ReduceField(state, dispatch.Action{
		Type:    ActionStateChanged,
		Payload: &StateChange{ChangeValue: &ValueChange{Value: "p"}},
	})
	if next.Value != "p" {
		t.Fatalf("expected pointer payload to apply, got %v", next.Value)
	}
}

func TestReduceFieldSetDirtyIsGuarded(t *testing.T) {
	state := newTestFieldState(t)

	dirty := ReduceField(state, SetDirty(true))
	if dirty == state || !dirty.IsDirty || dirty.IsPristine {
		t.Fatalf("expected dirty snapshot, got %+v", dirty.CommonState)
	}
	if again := ReduceField(dirty, SetDirty(true)); again != dirty {
		t.Fatalf("expected repeated setDirty to be a no-op")
	}
	if same := ReduceField(dirty, StateChanged(StateChange{ChangeDirty: &DirtyChange{IsDirty: true}})); same != dirty {
		t.Fatalf("expected matching dirty change to be a no-op")
	}
	clean := ReduceField(dirty, SetDirty(false))
	if clean.IsDirty || !clean.IsPristine {
		t.Fatalf("expected pristine snapshot, got %+v", clean.CommonState)
	}
}

func TestReduceGroup(t *testing.T) {
	state, err := DefaultGroupState(Group(Properties{"a": Field("text")}))
	if err != nil {
		t.Fatalf("default state: %v", err)
	}
	defer closeChildren(state.Children)

	if ReduceGroup(state, Reset()) != state {
		t.Fatalf("expected reset trigger to keep the same state")
	}
	touched := ReduceGroup(state, StateChanged(StateChange{ChangeFocus: &FocusChange{IsTouched: true}}))
	if !touched.IsTouched || touched.IsUntouched {
		t.Fatalf("unexpected flags: %+v", touched.CommonState)
	}
	dirty := ReduceGroup(touched, SetDirty(true))
	if !dirty.IsDirty || dirty.IsPristine {
		t.Fatalf("unexpected flags: %+v", dirty.CommonState)
	}
	if ReduceGroup(dirty, SetDirty(true)) != dirty {
		t.Fatalf("expected guarded setDirty")
	}
	if len(dirty.Children) != 1 || dirty.Options != state.Options {
		t.Fatalf("expected children and options to carry over")
	}
	if err := dirty.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}
