package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLine(t *testing.T, attrs ...any) map[string]interface{} {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(NewMaskingHandler(slog.NewJSONHandler(&buf, nil)))
	log.Info("test", attrs...)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestMaskingHandler_FullyMaskedKeys(t *testing.T) {
	out := logLine(t,
		"token", "123456:ABCDEF",
		"password", "hunter2",
		"user_id", "42",
	)

	assert.Equal(t, "***", out["token"])
	assert.Equal(t, "***", out["password"])
	assert.Equal(t, "42", out["user_id"], "non-sensitive keys pass through")
}

func TestMaskingHandler_TruncatesAddresses(t *testing.T) {
	out := logLine(t,
		"spark_address", "sp1qlongaddressvalue",
		"taproot_address", "tr1",
	)

	assert.Equal(t, "sp1qlo...", out["spark_address"])
	assert.Equal(t, "tr1", out["taproot_address"], "short values are left intact")
}

func TestMaskingHandler_KeyMatchIsCaseInsensitive(t *testing.T) {
	out := logLine(t, "Token", "secret-value")
	assert.Equal(t, "***", out["Token"])
}

func TestMaskingHandler_Enabled(t *testing.T) {
	h := NewMaskingHandler(slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn}))
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))
}
