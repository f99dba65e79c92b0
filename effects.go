package formstate

import (
	"context"
	"reflect"

	"github.com/goliatone/go-formstate/pkg/dispatch"
)

// FieldEffects builds the effect pipeline of a field store: focus, update,
// reset, dirty tracking and validation. validators are the ones bound to the
// store at construction. latest configures the update and reset effects.
func FieldEffects(validators []Validator, latest ...dispatch.LatestOption) dispatch.Effect[*FieldState] {
	return dispatch.Pipeline(
		fieldFocusEffect(),
		dispatch.Latest(dispatch.Match(ActionUpdate), fieldUpdate, latest...),
		dispatch.Latest(dispatch.Match(ActionReset), fieldReset, latest...),
		fieldDirtyEffect(),
		fieldValidationEffect(validators),
	)
}

// GroupEffects builds the effect pipeline of a group store: reset and
// validation of the group's own value.
func GroupEffects(validators []Validator, latest ...dispatch.LatestOption) dispatch.Effect[*GroupState] {
	return dispatch.Pipeline(
		dispatch.Latest(dispatch.Match(ActionReset), groupReset, latest...),
		groupValidationEffect(validators),
	)
}

func fieldFocusEffect() dispatch.Effect[*FieldState] {
	return dispatch.OnUpdate(func(u dispatch.Update[*FieldState]) []dispatch.Action {
		state := u.State
		switch u.Action.Type {
		case ActionFocus:
			if state.HasFocus {
				return nil
			}
			return []dispatch.Action{StateChanged(StateChange{
				Reason:      ReasonFocus,
				ChangeFocus: &FocusChange{HasFocus: true, IsTouched: state.IsTouched},
			})}
		case ActionBlur:
			if !state.HasFocus {
				return nil
			}
			return []dispatch.Action{StateChanged(StateChange{
				Reason:      ReasonBlur,
				ChangeFocus: &FocusChange{HasFocus: false, IsTouched: true},
			})}
		}
		return nil
	})
}

func fieldUpdate(ctx context.Context, u dispatch.Update[*FieldState]) []dispatch.Action {
	state := u.State
	candidate := u.Action.Payload
	if state.Options.AreEqual(candidate, state.Value, state) {
		return nil
	}
	if ctx.Err() != nil {
		return nil
	}
	change := StateChange{
		Reason:      ReasonUpdate,
		ChangeValue: &ValueChange{Value: candidate},
	}
	if !state.IsTouched {
		change.ChangeFocus = &FocusChange{HasFocus: state.HasFocus, IsTouched: true}
	}
	return []dispatch.Action{StateChanged(change)}
}

func fieldReset(ctx context.Context, u dispatch.Update[*FieldState]) []dispatch.Action {
	state := u.State
	change := StateChange{Reason: ReasonReset}
	if !state.Options.AreEqual(state.Value, state.Options.InitialValue, state) {
		change.ChangeValue = &ValueChange{Value: state.Options.InitialValue}
	}
	if state.IsTouched {
		change.ChangeFocus = &FocusChange{HasFocus: state.HasFocus, IsTouched: false}
	}
	if change.IsEmpty() || ctx.Err() != nil {
		return nil
	}
	return []dispatch.Action{StateChanged(change)}
}

// fieldDirtyEffect derives the dirty flag from the value stream alone.
func fieldDirtyEffect() dispatch.Effect[*FieldState] {
	return dispatch.EffectFunc[*FieldState](func(store *dispatch.Store[*FieldState]) func() {
		var (
			seen      bool
			lastValue any
			lastDirty bool
		)
		return store.SubscribeState(func(state *FieldState) {
			if seen && state.Options.AreEqual(state.Value, lastValue, state) {
				return
			}
			dirty := !state.Options.AreEqual(state.Value, state.Options.InitialValue, state)
			previous := state.IsDirty
			if seen {
				previous = lastDirty
			}
			seen, lastValue, lastDirty = true, state.Value, dirty
			if dirty != previous {
				store.Dispatch(SetDirty(dirty))
			}
		})
	})
}

func fieldValidationEffect(validators []Validator) dispatch.Effect[*FieldState] {
	if len(validators) == 0 {
		return nil
	}
	return dispatch.EffectFunc[*FieldState](func(store *dispatch.Store[*FieldState]) func() {
		var (
			seen      bool
			lastValue any
		)
		return store.SubscribeState(func(state *FieldState) {
			if seen && state.Options.AreEqual(state.Value, lastValue, state) {
				return
			}
			seen, lastValue = true, state.Value
			if action, ok := validationAction(validators, state.Value, state, state.Errors); ok {
				store.Dispatch(action)
			}
		})
	})
}

func groupReset(ctx context.Context, u dispatch.Update[*GroupState]) []dispatch.Action {
	state := u.State
	if ctx.Err() != nil {
		return nil
	}
	var out []dispatch.Action
	if state.IsTouched {
		out = append(out, StateChanged(StateChange{
			Reason:      ReasonReset,
			ChangeFocus: &FocusChange{HasFocus: state.HasFocus, IsTouched: false},
		}))
	}
	if state.IsDirty {
		out = append(out, SetDirty(false))
	}
	return out
}

func groupValidationEffect(validators []Validator) dispatch.Effect[*GroupState] {
	if len(validators) == 0 {
		return nil
	}
	return dispatch.EffectFunc[*GroupState](func(store *dispatch.Store[*GroupState]) func() {
		var (
			seen      bool
			lastValue any
		)
		return store.SubscribeState(func(state *GroupState) {
			if seen && reflect.DeepEqual(state.Value, lastValue) {
				return
			}
			seen, lastValue = true, state.Value
			if action, ok := validationAction(validators, state.Value, state, state.Errors); ok {
				store.Dispatch(action)
			}
		})
	})
}

func validationAction(validators []Validator, value any, state State, current ValidationResult) (dispatch.Action, bool) {
	result := runValidators(validators, value, state)
	if result.Equal(current) {
		return dispatch.Action{}, false
	}
	return StateChanged(StateChange{
		Reason:           ReasonValidation,
		ChangeValidation: &ValidationChange{Errors: result},
	}), true
}
