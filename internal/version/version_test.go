package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withBuildVars(t *testing.T, version, commit string) {
	t.Helper()
	origVersion, origCommit := Version, GitCommit
	t.Cleanup(func() { Version, GitCommit = origVersion, origCommit })
	Version, GitCommit = version, commit
}

func TestInfo(t *testing.T) {
	info := Info()

	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotZero(t, info.BuildTime)
	assert.Contains(t, info.String(), "appraise price estimator")
	assert.Contains(t, info.String(), "Go Version:")
}

func TestBuildInfoString(t *testing.T) {
	info := BuildInfo{
		Version:   "v1.0.0",
		BuildDate: "2024-01-01T00:00:00Z",
		GitCommit: "abc123def456",
		GoVersion: "go1.24.4",
		BuildTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Deps: []Module{
			{Path: "gonum.org/v1/gonum", Version: "v0.16.0"},
			{Path: "github.com/spf13/cobra", Version: "v1.9.1"},
		},
	}

	str := info.String()
	assert.Contains(t, str, "Version: v1.0.0\n")
	assert.Contains(t, str, "Build Date: 2024-01-01T00:00:00Z")
	assert.Contains(t, str, "Git Commit: abc123d\n")
	assert.Contains(t, str, "gonum.org/v1/gonum: v0.16.0")
	assert.NotContains(t, str, "cobra")
	assert.NotContains(t, str, "arrow-go")
}

func TestBuildInfoStringDirty(t *testing.T) {
	info := BuildInfo{Version: "v1.0.0", GitCommit: "abc123-dirty", BuildDate: unknownValue, Dirty: true}

	str := info.String()
	assert.Contains(t, str, "Version: v1.0.0 (dirty)")
	assert.Contains(t, str, "Git Commit: abc123\n")
}

func TestDependency(t *testing.T) {
	info := BuildInfo{Deps: []Module{{Path: "github.com/apache/arrow-go/v18", Version: "v18.4.0"}}}

	v, ok := info.Dependency("github.com/apache/arrow-go/v18")
	assert.True(t, ok)
	assert.Equal(t, "v18.4.0", v)

	_, ok = info.Dependency("github.com/missing/module")
	assert.False(t, ok)
}

func TestShort(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"no commit", "dev", unknownValue, "dev"},
		{"long commit", "v1.2.0", "abc1234def", "v1.2.0+abc1234"},
		{"dirty commit", "v1.2.0", "abc12-dirty", "v1.2.0+abc12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withBuildVars(t, tt.version, tt.commit)
			assert.Equal(t, tt.want, Short())
		})
	}
}

func TestIsRelease(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"dev", false},
		{"v1.0.0", true},
		{"v1.0.0-rc.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			withBuildVars(t, tt.version, unknownValue)
			assert.Equal(t, tt.want, IsRelease())
		})
	}
}
