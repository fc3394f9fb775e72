package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cferrors "github.com/Aman-CERP/classfind/internal/errors"
	"github.com/Aman-CERP/classfind/internal/store"
)

func TestImportCmd_Listing(t *testing.T) {
	// Given: a listing with two classes
	dataDir := setupEnv(t)
	listing := writeListing(t, "com.acme.foo.Bar\ncom/acme/foo/Baz.class\n")

	// When: importing it
	out, err := runCmd(t, "import", "--data-dir", dataDir, "com.acme:widgets:1.0", listing)

	// Then: both classes are recorded in the default sqlite index
	require.NoError(t, err)
	assert.Contains(t, out, "Imported com.acme:widgets:1.0 (2 classes)")
	assert.Contains(t, out, "sqlite:")
	assert.Equal(t, []store.Backend{store.BackendSQLite}, store.Existing(dataDir))
}

func TestImportCmd_Jar(t *testing.T) {
	dataDir := setupEnv(t)
	jar := writeJar(t,
		"META-INF/MANIFEST.MF",
		"com/acme/",
		"com/acme/Widget.class",
		"com/acme/Widget$Part.class",
		"com/acme/package-info.class",
		"com/acme/config.properties",
	)

	out, err := runCmd(t, "import", "--data-dir", dataDir, "com.acme:widgets:1.0", jar)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 classes)")

	out, err = runCmd(t, "search", "--data-dir", dataDir, "Widget$P")
	require.NoError(t, err)
	assert.Contains(t, out, "Widget$Part")
}

func TestImportCmd_WithoutClassData(t *testing.T) {
	dataDir := setupEnv(t)

	out, err := runCmd(t, "import", "--data-dir", dataDir, "org.example:bom:1.0")

	require.NoError(t, err)
	assert.Contains(t, out, "Imported org.example:bom:1.0 without class data")
}

func TestImportCmd_BleveBackend(t *testing.T) {
	// Given: widgets imported into a bleve index only
	dataDir := setupEnv(t)
	seedWidgets(t, dataDir, "--backend", "bleve")
	assert.Equal(t, []store.Backend{store.BackendBleve}, store.Existing(dataDir))

	// When: searching the bleve index
	out, err := runCmd(t, "search", "--data-dir", dataDir, "--backend", "bleve", "foo.Bar")

	// Then: both versions are merged
	require.NoError(t, err)
	assert.Contains(t, out, "1.0, 2.0")
}

func TestImportCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args func(t *testing.T) []string
		code string
	}{
		{
			name: "invalid coordinate",
			args: func(t *testing.T) []string { return []string{"com.acme:widgets"} },
			code: cferrors.ErrCodeInvalidCoordinate,
		},
		{
			name: "missing source",
			args: func(t *testing.T) []string { return []string{"com.acme:widgets:1.0", "/does/not/exist.txt"} },
			code: cferrors.ErrCodeFileNotFound,
		},
		{
			name: "unreadable jar",
			args: func(t *testing.T) []string {
				return []string{"com.acme:widgets:1.0", writeListingNamed(t, "broken.jar", "not a zip")}
			},
			code: cferrors.ErrCodeJarUnreadable,
		},
		{
			name: "unknown backend",
			args: func(t *testing.T) []string { return []string{"com.acme:widgets:1.0", "--backend", "lucene"} },
			code: cferrors.ErrCodeInvalidBackend,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := setupEnv(t)
			args := append([]string{"import", "--data-dir", dataDir}, tt.args(t)...)

			_, err := runCmd(t, args...)

			require.Error(t, err)
			assert.Equal(t, tt.code, cferrors.GetCode(err))
		})
	}
}

func TestImportCmd_Locked(t *testing.T) {
	// Given: another holder of the import lock
	dataDir := setupEnv(t)
	lock := store.NewImportLock(dataDir)
	acquired, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer func() { _ = lock.Unlock() }()

	// When: importing without waiting
	_, err = runCmd(t, "import", "--data-dir", dataDir, "--wait", "0", "com.acme:widgets:1.0")

	// Then: the import is refused as retryable
	require.Error(t, err)
	assert.Equal(t, cferrors.ErrCodeIndexLocked, cferrors.GetCode(err))
	assert.True(t, cferrors.IsRetryable(err))
}

func TestImportCmd_LockedWithWait(t *testing.T) {
	dataDir := setupEnv(t)
	lock := store.NewImportLock(dataDir)
	acquired, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer func() { _ = lock.Unlock() }()

	_, err = runCmd(t, "import", "--data-dir", dataDir, "--wait", "200ms", "com.acme:widgets:1.0")

	require.Error(t, err)
	assert.Equal(t, cferrors.ErrCodeIndexLocked, cferrors.GetCode(err))
}
