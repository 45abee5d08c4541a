package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// records decodes every JSON line written to buf.
func records(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(line, &m), string(line))
		out = append(out, m)
	}
	return out
}

func TestJSONLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, "debug")
	ctx := context.Background()

	l.Debug(ctx, "dbg", "n", 1)
	l.Info(ctx, "inf", "n", 2)
	l.Warn(ctx, "wrn", "n", 3)
	l.Error(ctx, "err", "n", 4)

	recs := records(t, &buf)
	require.Len(t, recs, 4)
	for i, want := range []struct{ level, msg string }{
		{"DEBUG", "dbg"}, {"INFO", "inf"}, {"WARN", "wrn"}, {"ERROR", "err"},
	} {
		assert.Equal(t, want.level, recs[i]["level"])
		assert.Equal(t, want.msg, recs[i]["msg"])
		assert.EqualValues(t, i+1, recs[i]["n"])
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, "warn")

	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown", "module", "sessions")

	recs := records(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "shown", recs[0]["msg"])
	assert.Equal(t, "sessions", recs[0]["module"])
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, "info").With("module", "auth")

	l.Info(context.Background(), "login", "email", "a@b.com")

	recs := records(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "auth", recs[0]["module"])
	assert.Equal(t, "a@b.com", recs[0]["email"])
}

func TestWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, "info")

	base := context.Background()
	ctx := WithAttrs(base, "user_id", "u1")
	ctx = WithAttrs(ctx, "method", "/fintrack.auth.v1.AuthService/ValidateToken")

	l.Info(ctx, "validated", "ok", true)
	l.Info(base, "plain")

	recs := records(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, "u1", recs[0]["user_id"])
	assert.Equal(t, "/fintrack.auth.v1.AuthService/ValidateToken", recs[0]["method"])
	assert.Equal(t, true, recs[0]["ok"])
	assert.NotContains(t, recs[1], "user_id")
}

func TestWithAttrs_DoesNotShareBacking(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSONLogger(&buf, "info")

	parent := WithAttrs(context.Background(), "a", 1)
	left := WithAttrs(parent, "b", 2)
	right := WithAttrs(parent, "c", 3)

	l.Info(left, "left")
	l.Info(right, "right")

	recs := records(t, &buf)
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0], "b")
	assert.NotContains(t, recs[0], "c")
	assert.Contains(t, recs[1], "c")
	assert.NotContains(t, recs[1], "b")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().With("a", 1).Error(context.Background(), "nothing")
	})
}
