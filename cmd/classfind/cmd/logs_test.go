package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogsCmd_ShowsCommandEvents(t *testing.T) {
	// Given: a data dir with an import and a search logged
	dataDir := setupEnv(t)
	seedWidgets(t, dataDir)
	_, err := runCmd(t, "search", "--data-dir", dataDir, "Bar")
	require.NoError(t, err)

	// When: viewing the log filtered by event
	out, err := runCmd(t, "logs", "--data-dir", dataDir, "--no-color", "--event", "search_")

	// Then: only search entries are shown
	require.NoError(t, err)
	assert.Contains(t, out, "search_started")
	assert.Contains(t, out, "search_complete")
	assert.NotContains(t, out, "import_complete")
}

func TestLogsCmd_NoLogFile(t *testing.T) {
	dataDir := setupEnv(t)

	_, err := runCmd(t, "logs", "--data-dir", dataDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log file")
}
