package tracing

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanWithEvents(t *testing.T) {
	var buf bytes.Buffer
	p, err := InitWithWriter("mcp", "test", &buf)
	require.NoError(t, err)

	_, span := p.StartSpan(context.Background(), "batch")
	span.WithAttributes(map[string]string{"batch.id": "batch_1"})
	span.AddEvent("resumed", map[string]string{"pid": "42"})
	EndSpan(span, errors.New("1 errored"))
	require.NoError(t, p.Shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"batch"`)
	assert.Contains(t, out, "batch_1")
	assert.Contains(t, out, "resumed")
	assert.Contains(t, out, "1 errored")
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	p, err := Init("mcp", "test", path)
	require.NoError(t, err)

	_, span := p.StartSpan(context.Background(), "batch")
	EndSpan(span, nil)
	require.NoError(t, p.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestNoopProvider(t *testing.T) {
	p, err := Init("mcp", "test", "")
	require.NoError(t, err)

	ctx, span := p.StartSpan(context.Background(), "batch")
	assert.NotNil(t, ctx)
	span.AddEvent("ignored", nil)
	EndSpan(span, nil)
	assert.NoError(t, p.Shutdown(context.Background()))

	var nilProvider *Provider
	_, span = nilProvider.StartSpan(context.Background(), "batch")
	assert.Nil(t, span)
	span.AddEvent("ignored", nil)
	EndSpan(span, nil)
}
