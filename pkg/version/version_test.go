package version

import (
	"encoding/json"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_FollowsSemverOrDev(t *testing.T) {
	require.NotEmpty(t, Version)
	if Version == "dev" {
		t.Skip("development build without ldflags")
	}

	semver := regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?$`)
	assert.True(t, semver.MatchString(Version), "got: %s", Version)
}

func TestInfo_MirrorsRuntime(t *testing.T) {
	info := Info()

	assert.Equal(t, Program, info.Program)
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS, info.OS)
	assert.Equal(t, runtime.GOARCH, info.Arch)
	assert.NotEmpty(t, info.Commit)
	assert.NotEmpty(t, info.Date)
}

func TestInfo_StampedValuesWin(t *testing.T) {
	// Given: ldflags-style stamped values
	oldCommit, oldDate := Commit, Date
	t.Cleanup(func() { Commit, Date = oldCommit, oldDate })
	Commit, Date = "abc1234", "2026-01-02T15:04:05Z"

	// When: reading build info
	info := Info()

	// Then: embedded VCS data does not override them
	assert.Equal(t, "abc1234", info.Commit)
	assert.Equal(t, "2026-01-02T15:04:05Z", info.Date)
}

func TestBuildInfo_String(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{
			name: "clean",
			info: BuildInfo{Program: "classfind", Version: "v1.0.0", Commit: "abc1234", Date: "d", GoVersion: "go1.25.5", OS: "linux", Arch: "amd64"},
			want: "classfind v1.0.0 (commit: abc1234, built: d, go1.25.5 linux/amd64)",
		},
		{
			name: "modified tree",
			info: BuildInfo{Program: "classfind", Version: "dev", Commit: "abc1234", Date: "d", Modified: true, GoVersion: "go1.25.5", OS: "darwin", Arch: "arm64"},
			want: "classfind dev (commit: abc1234-dirty, built: d, go1.25.5 darwin/arm64)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestShortRevision(t *testing.T) {
	assert.Equal(t, "0123456", shortRevision("0123456789abcdef"))
	assert.Equal(t, "abc", shortRevision("abc"))
}

func TestInfo_JSONKeys(t *testing.T) {
	data, err := json.Marshal(Info())
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))
	for _, key := range []string{"program", "version", "commit", "date", "go_version", "os", "arch"} {
		assert.Contains(t, parsed, key)
	}
}
