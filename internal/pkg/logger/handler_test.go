package logger

import (
	"bytes"
	"context"
	log "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeeHandler_RemoteOnlyReceivesTracedRecords(t *testing.T) {
	var local, remote bytes.Buffer
	h := NewTeeHandler(
		log.NewJSONHandler(&local, nil),
		&RemoteFilterHandler{next: log.NewJSONHandler(&remote, nil)},
	)
	l := log.New(&ContextHandler{h})

	l.InfoContext(context.Background(), "untraced")
	l.InfoContext(context.WithValue(context.Background(), TraceIDKey, "abc"), "traced")

	assert.Contains(t, local.String(), "untraced")
	assert.Contains(t, local.String(), `"trace_id":"abc"`)
	assert.NotContains(t, remote.String(), "untraced")
	assert.Contains(t, remote.String(), "traced")
}

func TestWithTraceID(t *testing.T) {
	ctx := WithTraceID(context.Background())
	assert.Len(t, TraceID(ctx), 36)
	assert.Empty(t, TraceID(context.Background()))
}
