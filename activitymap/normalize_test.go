package activitymap_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-authz"
	"github.com/goliatone/go-authz/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := auth.ActivityEvent{
		EventType: auth.ActivityEventAccessDenied,
		UserID:    "user-100",
		Username:  "janedoe",
		Metadata: map[string]any{
			"roles": []string{"admin"},
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "user-100" {
		t.Fatalf("expected actor_id user-100, got %q", out.ActorID)
	}
	if out.Verb != string(auth.ActivityEventAccessDenied) {
		t.Fatalf("expected verb %q, got %q", auth.ActivityEventAccessDenied, out.Verb)
	}
	if out.ObjectType != "user" {
		t.Fatalf("expected object_type user, got %q", out.ObjectType)
	}
	if out.ObjectID != "user-100" {
		t.Fatalf("expected object_id user-100, got %q", out.ObjectID)
	}
	if out.Channel != "authz" {
		t.Fatalf("expected channel authz, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}
	if out.Metadata[activitymap.MetadataKeyUsername] != "janedoe" {
		t.Fatalf("expected metadata username janedoe, got %#v", out.Metadata[activitymap.MetadataKeyUsername])
	}

	if len(event.Metadata) != 1 {
		t.Fatalf("expected source metadata to remain unchanged, got %+v", event.Metadata)
	}
}

func TestNormalizeLoginFailureWithoutUser(t *testing.T) {
	t.Parallel()

	out := activitymap.Normalize(auth.ActivityEvent{
		EventType: auth.ActivityEventLoginFailure,
		Username:  "nobody",
	})

	if out.ActorID != "anonymous" {
		t.Fatalf("expected anonymous actor, got %q", out.ActorID)
	}
	if out.ObjectID != "nobody" {
		t.Fatalf("expected object_id to fall back to username, got %q", out.ObjectID)
	}
	if out.Channel != "auth" {
		t.Fatalf("expected channel auth, got %q", out.Channel)
	}
	if out.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be set when input is zero")
	}
}

func TestNormalizeOptionOverrides(t *testing.T) {
	t.Parallel()

	out := activitymap.Normalize(
		auth.ActivityEvent{
			EventType: auth.ActivityEventUserRegistered,
			Metadata: map[string]any{
				activitymap.MetadataKeyUsername: "existing",
			},
			Username: "janedoe",
		},
		activitymap.WithChannel("security"),
		activitymap.WithDefaultObjectType("account"),
		activitymap.WithActorFallback("system"),
	)

	if out.Channel != "security" {
		t.Fatalf("expected channel security, got %q", out.Channel)
	}
	if out.ObjectType != "account" {
		t.Fatalf("expected object_type account, got %q", out.ObjectType)
	}
	if out.ActorID != "system" {
		t.Fatalf("expected actor fallback system, got %q", out.ActorID)
	}
	if out.Metadata[activitymap.MetadataKeyUsername] != "existing" {
		t.Fatalf("expected existing username preserved, got %#v", out.Metadata[activitymap.MetadataKeyUsername])
	}
}

func TestSinkEmitsNormalizedRecords(t *testing.T) {
	t.Parallel()

	var got []activitymap.Normalized
	sink := activitymap.Sink(func(_ context.Context, n activitymap.Normalized) error {
		got = append(got, n)
		return nil
	})

	err := sink.Record(context.Background(), auth.ActivityEvent{
		EventType: auth.ActivityEventLoginSuccess,
		UserID:    "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Verb != string(auth.ActivityEventLoginSuccess) {
		t.Fatalf("expected one login record, got %+v", got)
	}

	if err := activitymap.Sink(nil).Record(context.Background(), auth.ActivityEvent{}); err != nil {
		t.Fatalf("nil emitter should be a no-op, got %v", err)
	}
}
