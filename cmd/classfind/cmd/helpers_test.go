package cmd

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupEnv isolates config, environment and working directory, and returns a fresh data dir.
func setupEnv(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"DATA_DIR", "BACKENDS", "MAX_RESULTS", "PROVIDER_LIMIT", "SEARCH_TIMEOUT", "TRANSPORT", "LOG_LEVEL"} {
		t.Setenv("CLASSFIND_"+k, "")
	}
	t.Setenv("NO_COLOR", "1")
	t.Chdir(t.TempDir())
	return filepath.Join(t.TempDir(), "data")
}

// runCmd executes the root command with args and returns combined output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func writeListing(t *testing.T, content string) string {
	t.Helper()
	return writeListingNamed(t, "classes.txt", content)
}

func writeListingNamed(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func writeJar(t *testing.T, entries ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lib.jar")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for _, name := range entries {
		_, err := zw.Create(name)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

// seedWidgets imports two versions of com.acme:widgets into dataDir.
func seedWidgets(t *testing.T, dataDir string, extra ...string) {
	t.Helper()
	v1 := writeListing(t, "com.acme.foo.Bar\ncom/acme/foo/Baz.class\n")
	v2 := writeListing(t, "/com/acme/foo/Bar\n")

	_, err := runCmd(t, append([]string{"import", "--data-dir", dataDir, "com.acme:widgets:1.0", v1}, extra...)...)
	require.NoError(t, err)
	_, err = runCmd(t, append([]string{"import", "--data-dir", dataDir, "com.acme:widgets:2.0", v2}, extra...)...)
	require.NoError(t, err)
}
