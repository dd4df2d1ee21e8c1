package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintfBridgesToSlog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	Printf(log, slog.LevelWarn)("target %s crashed (%d)", "tab-1", 3)
	assert.Contains(t, buf.String(), `level=WARN msg="target tab-1 crashed (3)"`)
}

func TestPrintfNilLogger(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { Printf(nil, slog.LevelInfo)("ignored %d", 1) })
}
