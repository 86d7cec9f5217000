package xconf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration(t *testing.T) {
	cfg, err := NewFromBytes([]byte(testYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, []string{"html_template", "http"}, cfg.IntegrationNames())

	ic, ok, err := cfg.Integration("http")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "http", ic.Name)
	assert.True(t, ic.IsEnabled())
	assert.Equal(t, "api-client", ic.Settings["service_name"])
	assert.Equal(t, true, ic.Settings["split_by_domain"])

	require.Len(t, ic.Overrides, 3)
	assert.Equal(t, "api.internal", ic.Overrides[0].Exact)
	assert.Equal(t, "internal", ic.Overrides[0].Settings["service_name"])
	assert.Equal(t, `.*\.example\.com`, ic.Overrides[1].Regexp)
	assert.Equal(t, false, ic.Overrides[1].Settings["distributed_tracing"])
	assert.Equal(t, "*.svc.cluster.local", ic.Overrides[2].Glob)
}

func TestIntegration_Disabled(t *testing.T) {
	cfg, err := NewFromBytes([]byte(testYAML), FormatYAML)
	require.NoError(t, err)

	ic, ok, err := cfg.Integration("html_template")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, ic.IsEnabled())
	assert.Empty(t, ic.Overrides)
}

func TestIntegration_Missing(t *testing.T) {
	cfg, err := NewFromBytes([]byte(testYAML), FormatYAML)
	require.NoError(t, err)

	ic, ok, err := cfg.Integration("grpc")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, ic.IsEnabled())
}

func TestIntegration_InvalidOverride(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"none", "integrations:\n  http:\n    overrides:\n      - settings: {a: 1}\n"},
		{"two", "integrations:\n  http:\n    overrides:\n      - exact: a\n        glob: b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewFromBytes([]byte(tt.yaml), FormatYAML)
			require.NoError(t, err)
			_, ok, err := cfg.Integration("http")
			assert.True(t, ok)
			assert.ErrorIs(t, err, ErrInvalidOverride)
			assert.Contains(t, err.Error(), "overrides[0]")
		})
	}
}

func TestIntegration_BadShape(t *testing.T) {
	cfg, err := NewFromBytes([]byte("integrations:\n  http:\n    overrides: 5\n"), FormatYAML)
	require.NoError(t, err)
	_, ok, err := cfg.Integration("http")
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrUnmarshalFailed)
}
