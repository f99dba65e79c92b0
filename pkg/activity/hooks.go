package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event describes a form activity occurrence that can be fanned out to hooks.
// IDs are strings so callers are not tied to a UUID implementation.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Form       string
	Recipients []string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivityHook receives normalized activity events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify normalizes the event and forwards it to every hook. Events without a
// verb, object type or object id are dropped. Hook errors are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if !normalized.Complete() {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Complete reports whether the event carries the fields every sink requires.
func (e Event) Complete() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// VerbFilter wraps hook so it only sees events whose verb is listed.
func VerbFilter(hook ActivityHook, verbs ...string) ActivityHook {
	allowed := make(map[string]struct{}, len(verbs))
	for _, verb := range verbs {
		allowed[strings.TrimSpace(verb)] = struct{}{}
	}
	return HookFunc(func(ctx context.Context, event Event) error {
		if hook == nil {
			return nil
		}
		if _, ok := allowed[event.Verb]; !ok {
			return nil
		}
		return hook.Notify(ctx, event)
	})
}

// NormalizeEvent trims identifiers, clones metadata and recipients, and
// stamps OccurredAt when missing.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.ActorID = strings.TrimSpace(event.ActorID)
	normalized.UserID = strings.TrimSpace(event.UserID)
	normalized.TenantID = strings.TrimSpace(event.TenantID)
	normalized.ObjectType = strings.TrimSpace(event.ObjectType)
	normalized.ObjectID = strings.TrimSpace(event.ObjectID)
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.Form = strings.TrimSpace(event.Form)
	normalized.Metadata = cloneMap(event.Metadata)
	normalized.Recipients = nil
	for _, recipient := range event.Recipients {
		if trimmed := strings.TrimSpace(recipient); trimmed != "" {
			normalized.Recipients = append(normalized.Recipients, trimmed)
		}
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
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
