package xhttp

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xcontrib/pkg/contrib/xintegration"
)

func TestIntegration_Registered(t *testing.T) {
	d, err := xintegration.Get(IntegrationName)
	require.NoError(t, err)
	assert.Same(t, Integration, d)
	assert.Equal(t, "std", d.Target())
	assert.Equal(t, MinimumGoVersion, d.MinimumVersion())
	assert.Equal(t, DefaultServiceName, d.DefaultSettings().String(OptServiceName))
	assert.Equal(t, []string{"500-599"}, d.DefaultSettings().Strings(OptErrorStatusCodes))
	assert.True(t, d.Compatible())
}

func TestIntegration_PatchWrapsDefaultTransportOnce(t *testing.T) {
	original := http.DefaultTransport
	t.Cleanup(func() {
		require.NoError(t, Integration.Patcher().Unpatch())
		assert.Same(t, original, http.DefaultTransport)
	})

	require.NoError(t, xintegration.Default().Activate(context.Background(), IntegrationName))
	first, ok := http.DefaultTransport.(*Transport)
	require.True(t, ok)
	assert.Same(t, original, first.Base())

	// 重复激活与直接重复打补丁都不会再次包装
	require.NoError(t, xintegration.Default().Activate(context.Background(), IntegrationName))
	require.NoError(t, installDefaultTransport())
	assert.Same(t, first, http.DefaultTransport)
	assert.Same(t, original, unwrap(http.DefaultTransport))
}
