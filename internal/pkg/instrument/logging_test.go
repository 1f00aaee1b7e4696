package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level string, mask ...string) (*slog.Logger, *bytes.Buffer) {
	t.Helper()

	buf := &bytes.Buffer{}
	h := newHandler(&Config{
		ServiceName: "authflow",
		LogLevel:    level,
		LogOutput:   buf,
		MaskFields:  mask,
	}, nil)

	return slog.New(h), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestLoggingKeysAndCorrelation(t *testing.T) {
	logger, buf := newTestLogger(t, "info")

	ctx := SetCorrelationID(context.Background(), "run-1")
	logger.InfoContext(ctx, "step finished", "step", "login")

	line := decodeLine(t, buf)
	assert.Equal(t, "INFO", line["severity"])
	assert.Contains(t, line, "ts")
	assert.Equal(t, "run-1", line["_cID"])
	assert.Equal(t, "authflow", line["service"])
	assert.Equal(t, "login", line["step"])
	assert.Contains(t, line["file"], "internal/pkg/instrument/logging_test.go")
}

func TestLoggingLevel(t *testing.T) {
	logger, buf := newTestLogger(t, "warn")

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.NotZero(t, buf.Len())
}

func TestLoggingMasksSensitiveFields(t *testing.T) {
	logger, buf := newTestLogger(t, "debug", "password", " Code ")

	body := []byte(`{"email":"a@b.co","password":"password123","data":{"code":"482913"}}`)
	logger.Info("request",
		"password", "password123",
		"body", string(body),
		"raw", body,
		slog.Group("identity", slog.String("email", "a@b.co"), slog.String("password", "x")),
		"payload", map[string]any{"nested": []any{map[string]any{"code": 1}}},
	)

	line := decodeLine(t, buf)
	assert.Equal(t, "***", line["password"])
	assert.JSONEq(t, `{"email":"a@b.co","password":"***","data":{"code":"***"}}`, line["body"].(string))
	assert.JSONEq(t, `{"email":"a@b.co","password":"***","data":{"code":"***"}}`, line["raw"].(string))
	assert.Equal(t, map[string]any{"email": "a@b.co", "password": "***"}, line["identity"])
	assert.Equal(t, map[string]any{"nested": []any{map[string]any{"code": "***"}}}, line["payload"])
}

func TestLoggingMasksWithAttrs(t *testing.T) {
	logger, buf := newTestLogger(t, "info", "password")

	logger.With("password", "secret").Info("bound")

	line := decodeLine(t, buf)
	assert.Equal(t, "***", line["password"])
}

func TestLoggingLeavesPlainStrings(t *testing.T) {
	logger, buf := newTestLogger(t, "info", "password")

	logger.Info("plain", "note", "{not json")

	line := decodeLine(t, buf)
	assert.Equal(t, "{not json", line["note"])
}

func TestNewDisabledIsNoop(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	ins, err := New(context.Background(), &Config{LogOutput: buf})
	require.NoError(t, err)

	_, span := ins.Tracer("test").Start(context.Background(), "noop")
	span.End()
	assert.False(t, span.SpanContext().IsValid())
	assert.NoError(t, ins.Shutdown(context.Background()))

	slog.Info("through default")
	assert.Contains(t, buf.String(), "through default")
}
