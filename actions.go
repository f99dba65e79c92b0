package formstate

import "github.com/goliatone/go-formstate/pkg/dispatch"

// Action types understood by field and group stores. StateChanged and
// SetDirty change state; Update, Focus, Blur and Reset are triggers consumed
// by effects only.
const (
	ActionStateChanged dispatch.ActionType = "formstate/STATE_CHANGED"
	ActionSetDirty     dispatch.ActionType = "formstate/SET_DIRTY"
	ActionUpdate       dispatch.ActionType = "formstate/UPDATE"
	ActionFocus        dispatch.ActionType = "formstate/FOCUS"
	ActionBlur         dispatch.ActionType = "formstate/BLUR"
	ActionReset        dispatch.ActionType = "formstate/RESET"
)

// Reasons attached to effect generated StateChange payloads.
const (
	ReasonFocus      = "focus"
	ReasonBlur       = "blur"
	ReasonUpdate     = "update"
	ReasonReset      = "reset"
	ReasonValidation = "validation"
	ReasonChild      = "child"
)

// StateChange is a partial update. Nil members leave the state untouched.
type StateChange struct {
	Reason           string
	ChangeValue      *ValueChange
	ChangeFocus      *FocusChange
	ChangeDirty      *DirtyChange
	ChangeValidation *ValidationChange
}

// IsEmpty reports whether the change carries no modification.
func (c StateChange) IsEmpty() bool {
	return c.ChangeValue == nil && c.ChangeFocus == nil && c.ChangeDirty == nil && c.ChangeValidation == nil
}

// ValueChange replaces the value.
type ValueChange struct {
	Value any
}

// FocusChange replaces focus and touched flags.
type FocusChange struct {
	HasFocus  bool
	IsTouched bool
}

// DirtyChange sets the dirty flag, guarded like SetDirty.
type DirtyChange struct {
	IsDirty bool
}

// ValidationChange replaces the validation outcome.
type ValidationChange struct {
	Errors       ValidationResult
	PendingCount int
}

// StateChanged builds a stateChanged action.
func StateChanged(change StateChange) dispatch.Action {
	return dispatch.Action{Type: ActionStateChanged, Payload: change}
}

// SetDirty builds a setDirty action.
func SetDirty(dirty bool) dispatch.Action {
	return dispatch.Action{Type: ActionSetDirty, Payload: dirty}
}

// Update builds an update trigger carrying an already coerced candidate value.
func Update(value any) dispatch.Action {
	return dispatch.Action{Type: ActionUpdate, Payload: value}
}

// Focus builds a focus trigger.
func Focus() dispatch.Action {
	return dispatch.Action{Type: ActionFocus}
}

// Blur builds a blur trigger.
func Blur() dispatch.Action {
	return dispatch.Action{Type: ActionBlur}
}

// Reset builds a reset trigger.
func Reset() dispatch.Action {
	return dispatch.Action{Type: ActionReset}
}

func stateChangePayload(action dispatch.Action) (StateChange, bool) {
	switch payload := action.Payload.(type) {
	case StateChange:
		return payload, true
	case *StateChange:
		if payload == nil {
			return StateChange{}, false
		}
		return *payload, true
	default:
		return StateChange{}, false
	}
}
