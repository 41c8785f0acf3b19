package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliceview/sliceview.go/pkg/logging"
)

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
	return rec
}

func TestLoggerLevelAndShape(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Logger(&buf, false, slog.LevelInfo)

	log.Debug("hidden")
	assert.Zero(t, buf.Len(), "debug filtered below info")

	log.Info("loaded series", "slices", 240)
	rec := lastRecord(t, &buf)
	assert.Equal(t, "loaded series", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, float64(240), rec["slices"])
	assert.NotContains(t, rec, "source")
}

func TestAppendCtxAttrsFlowThrough(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Logger(&buf, false, slog.LevelInfo)

	ctx := logging.AppendCtx(context.Background(), slog.String("viewer", "ctl"))
	ctx = logging.AppendCtx(ctx, slog.Int("generation", 7))

	log.InfoContext(ctx, "displaying")
	rec := lastRecord(t, &buf)
	assert.Equal(t, "ctl", rec["viewer"])
	assert.Equal(t, float64(7), rec["generation"])

	// A sibling context keeps only the shared prefix.
	log.InfoContext(logging.AppendCtx(context.Background(), slog.String("viewer", "other")), "displaying")
	rec = lastRecord(t, &buf)
	assert.Equal(t, "other", rec["viewer"])
	assert.NotContains(t, rec, "generation")
}

func TestLoggerWithAttrsKeepsContextInjection(t *testing.T) {
	var buf bytes.Buffer
	log := logging.Logger(&buf, false, slog.LevelInfo).With("component", "projection")

	ctx := logging.AppendCtx(context.Background(), slog.String("series", "se-1"))
	log.InfoContext(ctx, "composited")

	rec := lastRecord(t, &buf)
	assert.Equal(t, "projection", rec["component"])
	assert.Equal(t, "se-1", rec["series"])
}

func TestFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.log")
	log := logging.FileLogger(path, false, slog.LevelInfo)

	log.Info("persisted", "uid", "1.2.3")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"persisted"`)
	assert.Contains(t, string(data), `"uid":"1.2.3"`)
}
