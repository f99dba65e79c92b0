package formstate

import "github.com/goliatone/go-formstate/pkg/dispatch"

// ReduceField is the field state machine. It never mutates state and returns
// state itself when nothing changes.
func ReduceField(state *FieldState, action dispatch.Action) *FieldState {
	if state == nil {
		return nil
	}
	switch action.Type {
	case ActionStateChanged:
		change, ok := stateChangePayload(action)
		if !ok {
			return state
		}
		common, changed := applyChange(state.CommonState, change)
		if !changed {
			return state
		}
		next := *state
		next.CommonState = common
		return &next
	case ActionSetDirty:
		dirty, ok := action.Payload.(bool)
		if !ok || dirty == state.IsDirty {
			return state
		}
		next := *state
		next.CommonState = withDirty(state.CommonState, dirty)
		return &next
	default:
		// update, focus, blur and reset are effect triggers.
		return state
	}
}

// ReduceGroup is the group state machine. It only reacts to actions
// dispatched on the group itself, never to its children.
func ReduceGroup(state *GroupState, action dispatch.Action) *GroupState {
	if state == nil {
		return nil
	}
	switch action.Type {
	case ActionStateChanged:
		change, ok := stateChangePayload(action)
		if !ok {
			return state
		}
		common, changed := applyChange(state.CommonState, change)
		if !changed {
			return state
		}
		next := *state
		next.CommonState = common
		return &next
	case ActionSetDirty:
		dirty, ok := action.Payload.(bool)
		if !ok || dirty == state.IsDirty {
			return state
		}
		next := *state
		next.CommonState = withDirty(state.CommonState, dirty)
		return &next
	default:
		return state
	}
}

func applyChange(common CommonState, change StateChange) (CommonState, bool) {
	if change.IsEmpty() {
		return common, false
	}
	changed := false
	if change.ChangeValue != nil {
		common.Value = change.ChangeValue.Value
		changed = true
	}
	if change.ChangeFocus != nil {
		common.HasFocus = change.ChangeFocus.HasFocus
		common.IsTouched = change.ChangeFocus.IsTouched
		common.IsUntouched = !change.ChangeFocus.IsTouched
		changed = true
	}
	if change.ChangeDirty != nil && change.ChangeDirty.IsDirty != common.IsDirty {
		common = withDirty(common, change.ChangeDirty.IsDirty)
		changed = true
	}
	if change.ChangeValidation != nil {
		pending := change.ChangeValidation.PendingCount
		if pending < 0 {
			pending = 0
		}
		common.Errors = change.ChangeValidation.Errors
		common.IsValid = change.ChangeValidation.Errors.Valid()
		common.IsInvalid = !common.IsValid
		common.PendingCount = pending
		common.IsPending = pending > 0
		changed = true
	}
	return common, changed
}

func withDirty(common CommonState, dirty bool) CommonState {
	common.IsDirty = dirty
	common.IsPristine = !dirty
	return common
}
