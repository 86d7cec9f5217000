package xversion

import (
	"runtime/debug"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orm = "github.com/example/orm"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"0.61", "0.61.0", false},
		{"v1.2.3", "1.2.3", false},
		{"go1.22.3", "1.22.3", false},
		{" 2.0 ", "2.0.0", false},
		{"go1.26rc1", "1.26.0-rc1", false},
		{"go1.25beta1", "1.25.0-beta1", false},
		{"go1.21.0rc2", "1.21.0-rc2", false},
		{"go1.25.1 X:nodwarf5", "1.25.1", false},
		{"devel go1.26-abcdef Tue Oct 7 12:00:00 2025 +0000", "1.26.0-devel", false},
		{"devel", "", true},
		{"", "", true},
		{"(devel)", "", true},
		{"not-a-version", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVersion(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidVersion)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.String())
		})
	}
}

// =============================================================================
// Gate 测试
// =============================================================================

func TestGate_Scenarios(t *testing.T) {
	gate := Gate{Target: orm, Minimum: "0.62"}

	tests := []struct {
		name    string
		probe   Probe
		wantErr error
	}{
		{"below minimum", NewStaticProbe(WithModule(orm, "0.61")), ErrVersionTooOld},
		{"equal to minimum", NewStaticProbe(WithModule(orm, "0.62")), nil},
		{"above minimum", NewStaticProbe(WithModule(orm, "1.0.0")), nil},
		{"version absent", NewStaticProbe(WithLoadedOnly(orm)), ErrVersionUnknown},
		{"installed but not loaded", NewStaticProbe(WithInstalled(orm, "0.70")), ErrNotLoaded},
		{"nothing known", NewStaticProbe(), ErrNotLoaded},
		{"unparseable version", NewStaticProbe(WithModule(orm, "garbage")), ErrVersionUnknown},
		{"nil probe", nil, ErrNilProbe},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Check(tt.probe)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				assert.True(t, gate.Compatible(tt.probe))
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, gate.Compatible(tt.probe))
		})
	}
}

func TestGate_EmptyMinimum(t *testing.T) {
	gate := Gate{Target: orm}
	assert.True(t, gate.Compatible(NewStaticProbe(WithModule(orm, "0.1"))))
	assert.False(t, gate.Compatible(NewStaticProbe(WithLoadedOnly(orm))))
}

func TestGate_InvalidMinimum(t *testing.T) {
	gate := Gate{Target: orm, Minimum: "latest"}
	assert.ErrorIs(t, gate.Check(NewStaticProbe(WithModule(orm, "1.0"))), ErrInvalidMinimum)
}

// =============================================================================
// BuildInfoProbe 测试
// =============================================================================

func testBuildInfo() *debug.BuildInfo {
	return &debug.BuildInfo{
		GoVersion: "go1.23.4",
		Main:      debug.Module{Path: "example.com/app", Version: "(devel)"},
		Deps: []*debug.Module{
			{Path: orm, Version: "v0.62.1"},
			{Path: "example.com/replaced", Version: "v1.0.0", Replace: &debug.Module{Path: "example.com/fork", Version: "v1.5.0"}},
			{Path: "example.com/local", Version: "v1.0.0", Replace: &debug.Module{Path: "../local"}},
			nil,
		},
	}
}

func TestBuildInfoProbe(t *testing.T) {
	p := NewBuildInfoProbeFrom(testBuildInfo())

	v, ok := p.Version(orm)
	require.True(t, ok)
	assert.Equal(t, "0.62.1", v.String())
	assert.True(t, p.Loaded(orm))

	v, ok = p.Version("example.com/replaced")
	require.True(t, ok)
	assert.Equal(t, "1.5.0", v.String())

	_, ok = p.Version("example.com/local")
	assert.False(t, ok, "local replace has no version")
	assert.True(t, p.Loaded("example.com/local"))

	_, ok = p.Version("example.com/app")
	assert.False(t, ok, "(devel) main module has no version")
	assert.True(t, p.Loaded("example.com/app"))

	_, ok = p.Version("example.com/missing")
	assert.False(t, ok)
	assert.False(t, p.Loaded("example.com/missing"))

	v, ok = p.Version(TargetStd)
	require.True(t, ok)
	assert.Equal(t, "1.23.4", v.String())
	assert.True(t, p.Loaded(TargetStd))
}

func TestBuildInfo_ToolchainVersions(t *testing.T) {
	gate := Gate{Target: TargetStd, Minimum: "1.21"}

	tests := []struct {
		goVersion string
		want      string
	}{
		{"go1.23.4", "1.23.4"},
		{"go1.26rc1", "1.26.0-rc1"},
		{"go1.25beta1", "1.25.0-beta1"},
		{"go1.25.1 X:nodwarf5", "1.25.1"},
		{"devel go1.26-abcdef Tue Oct 7 12:00:00 2025 +0000", "1.26.0-devel"},
	}
	for _, tt := range tests {
		t.Run(tt.goVersion, func(t *testing.T) {
			p := NewBuildInfoProbeFrom(&debug.BuildInfo{GoVersion: tt.goVersion})

			v, ok := p.Version(TargetStd)
			require.True(t, ok)
			assert.Equal(t, tt.want, v.String())
			assert.NoError(t, gate.Check(p))
		})
	}

	t.Run("prerelease below minimum", func(t *testing.T) {
		p := NewBuildInfoProbeFrom(&debug.BuildInfo{GoVersion: "go1.20rc1"})
		assert.ErrorIs(t, gate.Check(p), ErrVersionTooOld)
	})
}

func TestBuildInfoProbe_CachesResults(t *testing.T) {
	p := NewBuildInfoProbeFrom(testBuildInfo())

	first, ok := p.Version(orm)
	require.True(t, ok)
	second, ok := p.Version(orm)
	require.True(t, ok)
	assert.Same(t, first, second)
	assert.Equal(t, 1, p.cache.Len())
}

func TestBuildInfoProbe_NilInfo(t *testing.T) {
	p := NewBuildInfoProbeFrom(nil)
	_, ok := p.Version(TargetStd)
	assert.False(t, ok)
	assert.True(t, p.Loaded(TargetStd))
	assert.False(t, p.Loaded(orm))
}

func TestBuildInfoProbe_ReadsOnce(t *testing.T) {
	calls := 0
	old := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		calls++
		return testBuildInfo(), true
	}
	t.Cleanup(func() { readBuildInfo = old })

	p := NewBuildInfoProbe()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Version(orm)
			_ = p.Loaded(orm)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
	assert.True(t, Gate{Target: orm, Minimum: "0.62"}.Compatible(p))
}

func TestDefault_ReportsToolchain(t *testing.T) {
	v, ok := Default().Version(TargetStd)
	require.True(t, ok)
	assert.GreaterOrEqual(t, v.Major(), uint64(1))
	assert.Same(t, Default(), Default())
}
