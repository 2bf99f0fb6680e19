package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestInit_None(t *testing.T) {
	require.NoError(t, Init(Config{Exporter: ExporterNone}))
	require.NoError(t, Init(Config{}))
}

func TestInit_UnknownExporter(t *testing.T) {
	err := Init(Config{Exporter: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exporter type")
}

func TestStartSpan_WithoutInit(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "snapshot.fetch", attribute.Int("agents", 3))
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	// Neither path may panic on a no-op span.
	EndSpan(span, nil)
	_, span = StartSpan(ctx, "snapshot.detail")
	EndSpan(span, errors.New("boom"))
}

func TestShutdown_NoProvider(t *testing.T) {
	assert.NoError(t, Shutdown(context.Background()))
}

func TestParseHeaders(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "Authorization=Bearer x", want: map[string]string{"Authorization": "Bearer x"}},
		{name: "multiple", input: "a=1, b=2", want: map[string]string{"a": "1", "b": "2"}},
		{name: "value with equals", input: "k=v=w", want: map[string]string{"k": "v=w"}},
		{name: "malformed pair skipped", input: "novalue,a=1", want: map[string]string{"a": "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseHeaders(tt.input))
		})
	}
}
