package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-formstate/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook forwards form activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
}

// Notify maps the event into an ActivityRecord and logs it on the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Complete() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return h.Sink.Log(ctx, Record(normalized))
}

// Record converts a normalized event. Identifiers that are not UUIDs map to
// uuid.Nil.
func Record(event activity.Event) usertypes.ActivityRecord {
	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(event.ActorID),
		UserID:     parseUUID(event.UserID),
		TenantID:   parseUUID(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       cloneMap(event.Metadata),
		OccurredAt: event.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}
	if event.Form != "" {
		record.Data = ensure(record.Data)
		record.Data["form"] = event.Form
	}
	if len(event.Recipients) > 0 {
		record.Data = ensure(record.Data)
		record.Data["recipients"] = append([]string{}, event.Recipients...)
	}
	return record
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func ensure(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	return data
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
