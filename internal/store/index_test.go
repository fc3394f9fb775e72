package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/classfind/internal/classsearch"
)

// backendCases runs the same contract against every backend, in memory.
var backendCases = []struct {
	name string
	open func() (ClassIndex, error)
}{
	{"sqlite", func() (ClassIndex, error) { return NewSQLiteIndex("") }},
	{"bleve", func() (ClassIndex, error) { return NewBleveIndex("") }},
}

func coord(g, a, v string) classsearch.ArtifactCoordinate {
	return classsearch.ArtifactCoordinate{GroupID: g, ArtifactID: a, Version: v}
}

func sampleArtifacts() []Artifact {
	return []Artifact{
		{Coordinate: coord("com.acme", "widgets", "1.0"), ClassPaths: []string{"/com/acme/foo/Bar", "/com/acme/foo/Baz"}},
		{Coordinate: coord("com.acme", "widgets", "2.0"), ClassPaths: []string{"/com/acme/foo/Bar"}},
		{Coordinate: coord("org.other", "tools", "3.1"), ClassPaths: []string{"/org/other/Helper", "/Solo"}},
		{Coordinate: coord("org.other", "docs", "1.0")},
	}
}

func openSeeded(t *testing.T, open func() (ClassIndex, error)) ClassIndex {
	t.Helper()
	idx, err := open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	require.NoError(t, idx.AddArtifacts(context.Background(), sampleArtifacts()))
	return idx
}

func versionsOf(candidates []classsearch.RawCandidate) []string {
	var out []string
	for _, c := range candidates {
		out = append(out, c.Artifact.ArtifactID+":"+c.Artifact.Version)
	}
	return out
}

func TestClassIndex_WildcardSearch(t *testing.T) {
	for _, bc := range backendCases {
		t.Run(bc.name, func(t *testing.T) {
			// Given: a seeded index
			idx := openSeeded(t, bc.open)

			// When: searching a package-qualified class prefix
			got, err := idx.Search(context.Background(), classsearch.Compile("foo.Bar"), 50)
			require.NoError(t, err)

			// Then: both widget versions come back with their stored blobs
			assert.ElementsMatch(t, []string{"widgets:1.0", "widgets:2.0"}, versionsOf(got))
			for _, c := range got {
				assert.True(t, c.HasClassNames)
				assert.Contains(t, c.ClassNames, "/com/acme/foo/Bar")
			}
		})
	}
}

func TestClassIndex_SearchIsCaseInsensitive(t *testing.T) {
	for _, bc := range backendCases {
		t.Run(bc.name, func(t *testing.T) {
			idx := openSeeded(t, bc.open)

			got, err := idx.Search(context.Background(), classsearch.Compile("ORG.Other.HELP"), 50)
			require.NoError(t, err)

			require.Len(t, got, 1)
			assert.Equal(t, coord("org.other", "tools", "3.1"), got[0].Artifact)
			// Stored blob keeps its original case
			assert.Contains(t, got[0].ClassNames, "/org/other/Helper")
		})
	}
}

func TestClassIndex_MatchAllIncludesUnknownClassData(t *testing.T) {
	for _, bc := range backendCases {
		t.Run(bc.name, func(t *testing.T) {
			idx := openSeeded(t, bc.open)

			got, err := idx.Search(context.Background(), classsearch.Compile(""), 50)
			require.NoError(t, err)
			require.Len(t, got, 4)

			var unknown int
			for _, c := range got {
				if !c.HasClassNames {
					unknown++
					assert.Equal(t, "docs", c.Artifact.ArtifactID)
				}
			}
			assert.Equal(t, 1, unknown)
		})
	}
}

func TestClassIndex_MatchNone(t *testing.T) {
	for _, bc := range backendCases {
		t.Run(bc.name, func(t *testing.T) {
			idx := openSeeded(t, bc.open)

			got, err := idx.Search(context.Background(), classsearch.Compile("..."), 50)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestClassIndex_RespectsLimit(t *testing.T) {
	for _, bc := range backendCases {
		t.Run(bc.name, func(t *testing.T) {
			idx := openSeeded(t, bc.open)

			got, err := idx.Search(context.Background(), classsearch.Compile(""), 2)
			require.NoError(t, err)
			assert.Len(t, got, 2)

			got, err = idx.Search(context.Background(), classsearch.Compile(""), 0)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestClassIndex_AddArtifactsReplacesByCoordinate(t *testing.T) {
	for _, bc := range backendCases {
		t.Run(bc.name, func(t *testing.T) {
			ctx := context.Background()
			idx := openSeeded(t, bc.open)

			// When: re-importing widgets 1.0 without Baz
			err := idx.AddArtifacts(ctx, []Artifact{
				{Coordinate: coord("com.acme", "widgets", "1.0"), ClassPaths: []string{"/com/acme/foo/Qux"}},
			})
			require.NoError(t, err)

			// Then: the artifact count is unchanged and old classes are gone
			n, err := idx.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, n)

			got, err := idx.Search(ctx, classsearch.Compile("foo.Baz"), 50)
			require.NoError(t, err)
			assert.Empty(t, got)

			got, err = idx.Search(ctx, classsearch.Compile("foo.Qux"), 50)
			require.NoError(t, err)
			assert.Equal(t, []string{"widgets:1.0"}, versionsOf(got))
		})
	}
}

func TestClassIndex_Count(t *testing.T) {
	for _, bc := range backendCases {
		t.Run(bc.name, func(t *testing.T) {
			idx, err := bc.open()
			require.NoError(t, err)
			defer func() { _ = idx.Close() }()

			n, err := idx.Count(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, n)

			require.NoError(t, idx.AddArtifacts(context.Background(), sampleArtifacts()))
			n, err = idx.Count(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 4, n)
		})
	}
}

func TestClassIndex_ClosedIndexErrors(t *testing.T) {
	for _, bc := range backendCases {
		t.Run(bc.name, func(t *testing.T) {
			idx, err := bc.open()
			require.NoError(t, err)
			require.NoError(t, idx.Close())

			// Close is idempotent
			assert.NoError(t, idx.Close())

			_, err = idx.Search(context.Background(), classsearch.Compile("Foo"), 10)
			assert.Error(t, err)
			assert.Error(t, idx.AddArtifacts(context.Background(), sampleArtifacts()))
			_, err = idx.Count(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestClassIndex_EndToEndWithSearcher(t *testing.T) {
	// Given: both backends seeded with overlapping artifacts
	sqliteIdx := openSeeded(t, backendCases[0].open)
	bleveIdx := openSeeded(t, backendCases[1].open)

	searcher, err := classsearch.NewSearcher(Providers([]ClassIndex{sqliteIdx, bleveIdx}))
	require.NoError(t, err)

	// When: searching a class prefix
	results, err := searcher.Search(context.Background(), "foo.ba", 10)
	require.NoError(t, err)

	// Then: Bar merges both versions and Baz has one
	byName := make(map[string]*classsearch.ClassSearchResult)
	for _, r := range results {
		byName[r.QualifiedName()] = r
	}
	require.Len(t, byName, 2)
	require.Contains(t, byName, "com.acme.foo.Bar")
	require.Contains(t, byName, "com.acme.foo.Baz")
	assert.ElementsMatch(t, []string{"1.0", "2.0"}, byName["com.acme.foo.Bar"].Artifact.Versions)
	assert.Equal(t, []string{"1.0"}, byName["com.acme.foo.Baz"].Artifact.Versions)

	// And: default-package classes are reported as such
	results, err = searcher.Search(context.Background(), "Solo ", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, classsearch.DefaultPackage, results[0].PackageName)
	assert.Equal(t, "Solo", results[0].ClassName)
}
