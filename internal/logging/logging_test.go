package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_WritesLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	log.Info(ctx, "hello", "k", "v")
	log.Warn(ctx, "careful")
	log.Error(ctx, "boom", "id", 7)

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "k=v")
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "id=7")
}

func TestSlogLogger_WithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))

	child := log.With("component", "sync")
	child.Info(context.Background(), "pass done")

	assert.Contains(t, buf.String(), "component=sync")
}

func TestZerologLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerologLogger(zerolog.New(&buf))
	ctx := context.Background()

	log.Info(ctx, "hello", "k", "v")
	log.With("component", "queue").Error(ctx, "boom")

	out := buf.String()
	assert.Contains(t, out, `"message":"hello"`)
	assert.Contains(t, out, `"k":"v"`)
	assert.Contains(t, out, `"component":"queue"`)
	assert.Contains(t, out, `"level":"error"`)
}

func TestPairsToMap(t *testing.T) {
	m := pairsToMap([]any{"a", 1, "b", "two", "dangling"})
	require.Len(t, m, 3)
	assert.Equal(t, 1, m["a"])
	assert.Equal(t, "two", m["b"])
	assert.Equal(t, "", m["dangling"])

	assert.Nil(t, pairsToMap(nil))
}
