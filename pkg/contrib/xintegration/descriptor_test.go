package xintegration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xcontrib/pkg/contrib/xpatch"
	"github.com/omeyang/xcontrib/pkg/contrib/xsettings"
	"github.com/omeyang/xcontrib/pkg/contrib/xversion"
)

const testTarget = "github.com/example/orm"

var testSchema = xsettings.MustSchema(
	xsettings.Option{Name: "service_name", Kind: xsettings.KindString, Default: "orm", Env: "TEST_ORM_SERVICE"},
	xsettings.Option{Name: "sample_rate", Kind: xsettings.KindFloat, Default: 1.0},
	xsettings.Option{Name: "split_by_domain", Kind: xsettings.KindBool},
)

func noopPatcher(name string) *xpatch.Patcher {
	return xpatch.New(name, xpatch.Modification{Name: "noop", Apply: func() error { return nil }})
}

func withEnv(t *testing.T, env map[string]string) {
	t.Helper()
	old := lookupEnv
	lookupEnv = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	t.Cleanup(func() { lookupEnv = old })
}

func newTestDescriptor(t *testing.T, name, version string, opts ...Option) *Descriptor {
	t.Helper()
	probe := xversion.NewStaticProbe()
	if version != "" {
		probe = xversion.NewStaticProbe(xversion.WithModule(testTarget, version))
	}
	base := []Option{
		WithTarget(testTarget, "0.62"),
		WithProbe(probe),
		WithSchema(testSchema),
		WithPatcher(noopPatcher(name)),
	}
	d, err := New(name, append(base, opts...)...)
	require.NoError(t, err)
	return d
}

// =============================================================================
// Descriptor 测试
// =============================================================================

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		opts    []Option
		wantErr error
	}{
		{"empty name", "  ", nil, ErrEmptyName},
		{"no target", "orm", []Option{WithPatcher(noopPatcher("orm"))}, ErrEmptyTarget},
		{"no patcher", "orm", []Option{WithTarget(testTarget, "")}, ErrNilPatcher},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.in, tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Panics(t, func() { MustNew("") })
}

func TestDescriptor_Accessors(t *testing.T) {
	d := newTestDescriptor(t, "orm", "0.62.1", WithDescription("ORM queries"))

	assert.Equal(t, "orm", d.Name())
	assert.Equal(t, "ORM queries", d.Description())
	assert.Equal(t, testTarget, d.Target())
	assert.Equal(t, "0.62", d.MinimumVersion())
	assert.True(t, d.Loaded())
	v, ok := d.Version()
	require.True(t, ok)
	assert.Equal(t, "0.62.1", v.Original())
	assert.Same(t, testSchema, d.Schema())
	assert.Equal(t, "orm", d.DefaultSettings().String("service_name"))
	assert.Equal(t, "orm", d.Settings("anything").String("service_name"))
	assert.NotNil(t, d.Resolver())
	assert.Equal(t, "orm", d.Patcher().Name())
}

func TestDescriptor_Compatibility(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    bool
		wantErr error
	}{
		{"below minimum", "0.61", false, xversion.ErrVersionTooOld},
		{"at minimum", "0.62", true, nil},
		{"absent", "", false, xversion.ErrNotLoaded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDescriptor(t, "orm", tt.version)
			assert.Equal(t, tt.want, d.Compatible())
			if tt.wantErr != nil {
				assert.ErrorIs(t, d.CheckCompatible(), tt.wantErr)
			}
		})
	}
}

func TestDescriptor_CustomCompatibility(t *testing.T) {
	blocked := errors.New("cgo build required")
	d := newTestDescriptor(t, "orm", "1.0.0",
		WithCompatibility(func(xversion.Probe) error { return blocked }))
	assert.False(t, d.Compatible())
	assert.ErrorIs(t, d.CheckCompatible(), blocked)
}

func TestDescriptor_EnvDefaults(t *testing.T) {
	withEnv(t, map[string]string{"TEST_ORM_SERVICE": "orders-db"})

	d := newTestDescriptor(t, "orm", "1.0.0")
	assert.Equal(t, "orders-db", d.DefaultSettings().String("service_name"))
	assert.True(t, d.DefaultSettings().IsSet("service_name"))
	assert.InDelta(t, 1.0, d.DefaultSettings().Float("sample_rate"), 1e-9)
}

func TestDescriptor_NoSchema(t *testing.T) {
	d, err := New("bare", WithTarget(testTarget, ""), WithPatcher(noopPatcher("bare")))
	require.NoError(t, err)
	assert.Nil(t, d.Schema())
	assert.True(t, d.DefaultSettings().IsZero())
	// 默认探测器基于当前程序的构建信息，testTarget 不存在
	assert.False(t, d.Loaded())
}
