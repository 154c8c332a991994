package auth_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/goliatone/go-authz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerActivitySink(t *testing.T) {
	logger := &captureLogger{}
	sink := auth.LoggerActivitySink(logger)

	err := sink.Record(context.Background(), auth.ActivityEvent{
		EventType: auth.ActivityEventLoginFailure,
		Username:  "janedoe",
		Metadata:  map[string]any{"reason": "password_mismatch"},
	})
	require.NoError(t, err)

	require.Len(t, logger.entries, 1)
	entry := logger.entries[0]
	assert.Equal(t, "info", entry.level)
	assert.Equal(t, "activity", entry.msg)
	assert.Contains(t, entry.args, string(auth.ActivityEventLoginFailure))
	assert.Contains(t, entry.args, "password_mismatch")
}

func TestActivitySinkFailureDoesNotBreakLogin(t *testing.T) {
	repo, auther, _, _, logger := newLoginFixture(t)
	seedUser(t, repo, "janedoe")

	var seen []auth.ActivityEvent
	auther.WithActivitySink(auth.ActivitySinkFunc(func(_ context.Context, event auth.ActivityEvent) error {
		seen = append(seen, event)
		return stderrors.New("queue unavailable")
	}))

	token, err := auther.Login(context.Background(), "janedoe", testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	require.Len(t, seen, 1)
	assert.False(t, seen[0].OccurredAt.IsZero())
	assert.True(t, logger.has("warn", "activity sink failed"))
}

func TestNilActivitySinkFuncIsNoop(t *testing.T) {
	var sink auth.ActivitySinkFunc
	assert.NoError(t, sink.Record(context.Background(), auth.ActivityEvent{}))
}
