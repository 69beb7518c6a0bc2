package sentry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFullPayload(t *testing.T) {
	payload := `{
		"event_id": "abc123",
		"level": "error",
		"message": "Boom",
		"timestamp": 1700000000,
		"environment": "production",
		"project": "p1",
		"url": "https://sentry.example/issues/1",
		"user": {"id": "u1", "email": "u1@example.com", "ip_address": "10.0.0.1"},
		"metadata": {"title": "TypeError: boom"},
		"exception": {"values": [{
			"type": "TypeError",
			"value": "boom",
			"stacktrace": {"frames": [
				{"filename": "app.js", "function": "main", "lineno": 1, "colno": 2},
				{"filename": "lib.js", "function": "helper", "lineno": 3, "colno": 4, "context_line": "throw err"}
			]}
		}]},
		"tags": [["release", "1.2.3"], ["browser", "Chrome"]],
		"extra": {"request_id": "r-1"},
		"contexts": {
			"browser": {"name": "Chrome", "version": "120"},
			"os": {"name": "macOS", "version": "14.1"}
		},
		"breadcrumbs": {"values": [
			{"timestamp": 1699999990, "category": "http", "message": "GET /api"}
		]}
	}`

	ev, err := Parse([]byte(payload))
	require.NoError(t, err)

	assert.Equal(t, "error", ev.Level)
	assert.Equal(t, "TypeError: boom", ev.Title())
	assert.Equal(t, "production", ev.Environment)

	exc := ev.PrimaryException()
	require.NotNil(t, exc)
	assert.Equal(t, "TypeError", exc.Type)
	assert.Equal(t, "boom", exc.Value)

	frames := ev.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, "helper", frames[1].Function)
	assert.Equal(t, "throw err", frames[1].ContextLine)

	require.Len(t, ev.Tags, 2)
	assert.Equal(t, Tag{Key: "release", Value: "1.2.3"}, ev.Tags[0])

	require.Len(t, ev.Breadcrumbs, 1)
	assert.Equal(t, "http", ev.Breadcrumbs[0].Category)

	ts, ok := ev.Timestamp.Time()
	require.True(t, ok)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ts.UTC())
}

func TestParseEmptyPayload(t *testing.T) {
	ev, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "Unknown Error", ev.Title())
	assert.Equal(t, "unknown", ev.LevelOrUnknown())
	assert.Nil(t, ev.PrimaryException())
	assert.Nil(t, ev.Frames())
	assert.Nil(t, ev.User)

	_, ok := ev.Timestamp.Time()
	assert.False(t, ok)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseMistypedFieldIsTolerated(t *testing.T) {
	// level is a number; the rest of the payload should still decode.
	ev, err := Parse([]byte(`{"level": 42, "message": "Boom"}`))
	require.NoError(t, err)
	assert.Equal(t, "Boom", ev.Message)
}

func TestTitleFallsBackToMessage(t *testing.T) {
	ev, err := Parse([]byte(`{"message": "plain message"}`))
	require.NoError(t, err)
	assert.Equal(t, "plain message", ev.Title())
}

func TestExceptionBareArrayForm(t *testing.T) {
	ev, err := Parse([]byte(`{"exception": [{"type": "Error", "value": "v"}]}`))
	require.NoError(t, err)
	require.NotNil(t, ev.PrimaryException())
	assert.Equal(t, "Error", ev.PrimaryException().Type)
}

func TestBreadcrumbBareArrayForm(t *testing.T) {
	ev, err := Parse([]byte(`{"breadcrumbs": [{"category": "ui", "message": "click"}]}`))
	require.NoError(t, err)
	require.Len(t, ev.Breadcrumbs, 1)
	assert.Equal(t, "ui", ev.Breadcrumbs[0].Category)
}

func TestTagsObjectArrayForm(t *testing.T) {
	ev, err := Parse([]byte(`{"tags": [{"key": "release", "value": "1.0"}]}`))
	require.NoError(t, err)
	require.Len(t, ev.Tags, 1)
	assert.Equal(t, Tag{Key: "release", Value: "1.0"}, ev.Tags[0])
}

func TestTagsMapFormSorted(t *testing.T) {
	ev, err := Parse([]byte(`{"tags": {"b": "2", "a": "1"}}`))
	require.NoError(t, err)
	require.Len(t, ev.Tags, 2)
	assert.Equal(t, "a", ev.Tags[0].Key)
	assert.Equal(t, "b", ev.Tags[1].Key)
}

func TestTimestampForms(t *testing.T) {
	cases := map[string]string{
		"number":         `{"timestamp": 1700000000}`,
		"float":          `{"timestamp": 1700000000.25}`,
		"numeric string": `{"timestamp": "1700000000"}`,
		"rfc3339 string": `{"timestamp": "2023-11-14T22:13:20Z"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			ev, err := Parse([]byte(payload))
			require.NoError(t, err)
			ts, ok := ev.Timestamp.Time()
			require.True(t, ok)
			assert.Equal(t, 2023, ts.UTC().Year())
		})
	}
}

func TestTimestampAbsentForms(t *testing.T) {
	cases := map[string]string{
		"missing":      `{}`,
		"null":         `{"timestamp": null}`,
		"empty string": `{"timestamp": ""}`,
		"garbage":      `{"timestamp": "soon"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			ev, err := Parse([]byte(payload))
			require.NoError(t, err)
			_, ok := ev.Timestamp.Time()
			assert.False(t, ok)
		})
	}
}

func TestOSContextFallsBackToClientOS(t *testing.T) {
	ev, err := Parse([]byte(`{"contexts": {"client_os": {"name": "iOS", "version": "17"}}}`))
	require.NoError(t, err)
	require.NotNil(t, ev.OSContext())
	assert.Equal(t, "iOS", ev.OSContext().Name)
}
