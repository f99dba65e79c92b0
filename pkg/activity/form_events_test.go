package activity

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestBuildStateChangedEvent(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	event := BuildStateChangedEvent(FormEventInput{
		StoreID:    " 7b0c ",
		Kind:       "field",
		Path:       "profile.name",
		Reason:     "update",
		OldValue:   "",
		NewValue:   "Ada",
		Metadata:   map[string]any{"source": "test"},
		OccurredAt: at,
	})

	if event.Verb != VerbStateChanged || event.ObjectType != ObjectTypeField || event.ObjectID != "7b0c" {
		t.Fatalf("unexpected event: %+v", event)
	}
	want := map[string]any{
		"source":    "test",
		"path":      "profile.name",
		"reason":    "update",
		"old_value": "",
		"new_value": "Ada",
	}
	if diff := cmp.Diff(want, event.Metadata); diff != "" {
		t.Fatalf("metadata mismatch (-want +got):\n%s", diff)
	}
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", event.OccurredAt)
	}
}

func TestBuildDirtyChangedEventForGroup(t *testing.T) {
	dirty := true
	event := BuildDirtyChangedEvent(FormEventInput{Kind: "group", Path: "address", IsDirty: &dirty})

	if event.Verb != VerbDirtyChanged || event.ObjectType != ObjectTypeGroup {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.ObjectID != "address" {
		t.Fatalf("expected path fallback for object id, got %q", event.ObjectID)
	}
	if event.Metadata["is_dirty"] != true {
		t.Fatalf("expected is_dirty metadata, got %+v", event.Metadata)
	}
}

func TestBuildValidationChangedEventObjectIDFallback(t *testing.T) {
	event := BuildValidationChangedEvent(FormEventInput{Errors: []string{"required"}})

	if event.ObjectID != ObjectTypeField {
		t.Fatalf("expected object type fallback, got %q", event.ObjectID)
	}
	if diff := cmp.Diff([]string{"required"}, event.Metadata["errors"]); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if !event.Complete() {
		t.Fatalf("expected built event to be complete")
	}
}
