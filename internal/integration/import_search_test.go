package integration

import (
	"archive/zip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/classfind/internal/classsearch"
	"github.com/Aman-CERP/classfind/internal/config"
	mcpserver "github.com/Aman-CERP/classfind/internal/mcp"
	"github.com/Aman-CERP/classfind/internal/store"
	"github.com/Aman-CERP/classfind/internal/telemetry"
)

// Integration Tests - import real jars into both backends, then search them
// through the Searcher and the MCP server.

func writeJar(t *testing.T, dir, name string, entries ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for _, entry := range entries {
		ew, err := w.Create(entry)
		require.NoError(t, err)
		_, err = ew.Write([]byte{0xCA, 0xFE, 0xBA, 0xBE})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

// importJar reads a jar and adds it to every index, the way `classfind import` does.
func importJar(t *testing.T, indexes []store.ClassIndex, coordinate, jarPath string) {
	t.Helper()
	coord, err := store.ParseCoordinate(coordinate)
	require.NoError(t, err)
	paths, err := store.ReadClassSource(jarPath)
	require.NoError(t, err)

	for _, idx := range indexes {
		require.NoError(t, idx.AddArtifacts(context.Background(), []store.Artifact{{Coordinate: coord, ClassPaths: paths}}))
	}
}

// seededIndexes opens sqlite and bleve in a fresh data dir and imports three artifact versions.
func seededIndexes(t *testing.T) []store.ClassIndex {
	t.Helper()
	dataDir := t.TempDir()
	jars := t.TempDir()

	indexes, err := store.Open(dataDir, []string{"sqlite", "bleve"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.CloseAll(indexes) })

	importJar(t, indexes, "com.acme:widgets:1.0", writeJar(t, jars, "widgets-1.0.jar",
		"META-INF/MANIFEST.MF",
		"com/acme/widget/Bar.class",
		"com/acme/widget/Baz.class",
		"com/acme/widget/Bar$Inner.class",
	))
	importJar(t, indexes, "com.acme:widgets:2.0", writeJar(t, jars, "widgets-2.0.jar",
		"com/acme/widget/Bar.class",
		"com/acme/widget/BarFactory.class",
	))
	importJar(t, indexes, "org.other:tools:3.1", writeJar(t, jars, "tools-3.1.jar",
		"org/other/util/Helper.class",
		"Standalone.class",
	))
	return indexes
}

func names(results []*classsearch.ClassSearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.QualifiedName())
	}
	return out
}

func TestImportSearch_BothBackendsMergeVersions(t *testing.T) {
	// Given: the same artifacts imported into sqlite and bleve
	indexes := seededIndexes(t)
	searcher, err := classsearch.NewSearcher(store.Providers(indexes))
	require.NoError(t, err)

	// When: searching with an abbreviated package
	results, err := searcher.Search(context.Background(), "c.a.w.Bar ", 10)
	require.NoError(t, err)

	// Then: one result merges both versions despite duplicate hits from two backends
	require.Len(t, results, 1)
	assert.Equal(t, "com.acme.widget.Bar", results[0].QualifiedName())
	assert.ElementsMatch(t, []string{"1.0", "2.0"}, results[0].Artifact.Versions)
}

func TestImportSearch_BackendsAgree(t *testing.T) {
	// Given: two backends holding the same artifacts
	indexes := seededIndexes(t)

	patterns := []string{"Bar", "w.Ba", "*Factory", "help", "Standalone", "com.acme.*.Baz "}
	for _, pattern := range patterns {
		t.Run(pattern, func(t *testing.T) {
			// When: searching each backend on its own
			var got [][]string
			for _, idx := range indexes {
				s, err := classsearch.NewSearcher([]classsearch.Provider{idx})
				require.NoError(t, err)
				results, err := s.Search(context.Background(), pattern, 20)
				require.NoError(t, err)
				got = append(got, names(results))
			}

			// Then: both report the same classes
			require.Len(t, got, 2)
			assert.NotEmpty(t, got[0])
			assert.ElementsMatch(t, got[0], got[1])
		})
	}
}

func TestImportSearch_NestedClassesAreSearchable(t *testing.T) {
	indexes := seededIndexes(t)
	searcher, err := classsearch.NewSearcher(store.Providers(indexes))
	require.NoError(t, err)

	results, err := searcher.Search(context.Background(), "Bar$In", 10)

	require.NoError(t, err)
	assert.Equal(t, []string{"com.acme.widget.Bar$Inner"}, names(results))
}

func TestImportSearch_ReimportReplacesClasses(t *testing.T) {
	// Given: widgets 2.0 imported, then re-imported without BarFactory
	indexes := seededIndexes(t)
	importJar(t, indexes, "com.acme:widgets:2.0", writeJar(t, t.TempDir(), "widgets-2.0.jar",
		"com/acme/widget/Bar.class",
	))
	searcher, err := classsearch.NewSearcher(store.Providers(indexes))
	require.NoError(t, err)

	// When: searching for the removed class
	results, err := searcher.Search(context.Background(), "BarFactory", 10)

	// Then: it is gone from both backends
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestImportSearch_MCPRoundTrip(t *testing.T) {
	// Given: an MCP server over both backends with a connected client
	indexes := seededIndexes(t)
	metrics := telemetry.NewQueryMetrics(telemetry.DefaultConfig())
	searcher, err := classsearch.NewSearcher(store.Providers(indexes), classsearch.WithRecorder(metrics))
	require.NoError(t, err)
	srv, err := mcpserver.NewServer(searcher, indexes, config.NewConfig())
	require.NoError(t, err)
	srv.SetMetrics(metrics)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer func() { _ = serverSession.Close() }()

	client := mcp.NewClient(&mcp.Implementation{Name: "integration", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer func() { _ = session.Close() }()

	// When: searching, then asking for status
	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      mcpserver.ToolSearchClasses,
		Arguments: map[string]any{"pattern": "Bar", "exact": true},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)

	status, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      mcpserver.ToolIndexStatus,
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	require.False(t, status.IsError)

	// Then: the match carries both versions and the status counts every artifact per backend
	var out mcpserver.SearchClassesOutput
	decode(t, res.StructuredContent, &out)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "com.acme.widget.Bar", out.Results[0].QualifiedName)
	assert.ElementsMatch(t, []string{"1.0", "2.0"}, out.Results[0].Versions)

	var st mcpserver.IndexStatusOutput
	decode(t, status.StructuredContent, &st)
	require.Len(t, st.Indexes, 2)
	for _, idx := range st.Indexes {
		assert.Equal(t, 3, idx.Artifacts, idx.Name)
	}
	require.NotNil(t, st.Metrics)
	assert.Equal(t, int64(1), st.Metrics.TotalSearches)
}

func decode(t *testing.T, v any, dst any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, dst))
}
