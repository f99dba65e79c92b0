package activity

import (
	"strings"
	"time"
)

// Verbs emitted by form stores.
const (
	VerbStateChanged      = "form.state.changed"
	VerbDirtyChanged      = "form.dirty.changed"
	VerbValidationChanged = "form.validation.changed"
)

// Object types of form stores.
const (
	ObjectTypeField = "form.field"
	ObjectTypeGroup = "form.group"
)

// FormEventInput describes the fields shared by form lifecycle events.
type FormEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	StoreID    string
	Kind       string
	Channel    string
	Form       string
	Recipients []string
	Metadata   map[string]any
	Path       string
	Reason     string
	OldValue   any
	NewValue   any
	IsDirty    *bool
	Errors     []string
	OccurredAt time.Time
}

// BuildStateChangedEvent builds the event for an applied stateChanged action.
func BuildStateChangedEvent(input FormEventInput) Event {
	return buildFormEvent(VerbStateChanged, input)
}

// BuildDirtyChangedEvent builds the event for a dirty flag transition.
func BuildDirtyChangedEvent(input FormEventInput) Event {
	return buildFormEvent(VerbDirtyChanged, input)
}

// BuildValidationChangedEvent builds the event for a new validation outcome.
func BuildValidationChangedEvent(input FormEventInput) Event {
	return buildFormEvent(VerbValidationChanged, input)
}

// ObjectTypeFor maps a store kind to its object type.
func ObjectTypeFor(kind string) string {
	if strings.TrimSpace(kind) == "group" {
		return ObjectTypeGroup
	}
	return ObjectTypeField
}

func buildFormEvent(verb string, input FormEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if path := strings.TrimSpace(input.Path); path != "" {
		set("path", path)
	}
	if reason := strings.TrimSpace(input.Reason); reason != "" {
		set("reason", reason)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}
	if input.IsDirty != nil {
		set("is_dirty", *input.IsDirty)
	}
	if input.Errors != nil {
		set("errors", append([]string{}, input.Errors...))
	}

	var recipients []string
	if len(input.Recipients) > 0 {
		recipients = append([]string{}, input.Recipients...)
	}

	objectType := ObjectTypeFor(input.Kind)
	objectID := strings.TrimSpace(input.StoreID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Path)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Form:       strings.TrimSpace(input.Form),
		Recipients: recipients,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}
