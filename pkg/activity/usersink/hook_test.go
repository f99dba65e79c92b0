package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-formstate/pkg/activity"
	"github.com/goliatone/go-formstate/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsFormEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()
	storeID := uuid.New().String()

	event := activity.BuildStateChangedEvent(activity.FormEventInput{
		ActorID:    actorID.String(),
		UserID:     "not-a-uuid",
		TenantID:   tenantID.String(),
		StoreID:    storeID,
		Kind:       "field",
		Channel:    "forms",
		Form:       "signup",
		Recipients: []string{"ops@example.com"},
		Path:       "profile.email",
		Reason:     "update",
		NewValue:   "ada@example.com",
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.TenantID != tenantID {
		t.Fatalf("unexpected ids: %+v", record)
	}
	if record.UserID != uuid.Nil {
		t.Fatalf("expected nil uuid for malformed user id, got %s", record.UserID)
	}
	if record.Verb != activity.VerbStateChanged || record.ObjectType != activity.ObjectTypeField || record.ObjectID != storeID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "forms" || !record.OccurredAt.Equal(now) {
		t.Fatalf("unexpected channel/time: %+v", record)
	}
	if record.Data["form"] != "signup" || record.Data["path"] != "profile.email" {
		t.Fatalf("unexpected data: %+v", record.Data)
	}
	recipients, ok := record.Data["recipients"].([]string)
	if !ok || len(recipients) != 1 || recipients[0] != "ops@example.com" {
		t.Fatalf("expected recipients metadata got %v", record.Data["recipients"])
	}
}

func TestHookNotifySkipsIncompleteEvents(t *testing.T) {
	sink := &recordingSink{}
	_ = usersink.Hook{Sink: sink}.Notify(context.Background(), activity.Event{Verb: activity.VerbDirtyChanged})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records, got %d", len(sink.records))
	}
}

func TestHookNotifyWithoutSink(t *testing.T) {
	if err := (usersink.Hook{}).Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestHookNotifyReturnsSinkError(t *testing.T) {
	boom := errors.New("sink down")
	sink := &recordingSink{err: boom}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbDirtyChanged,
		ObjectType: activity.ObjectTypeGroup,
		ObjectID:   "address",
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}
