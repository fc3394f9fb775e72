// Package classsearch finds classes by a dotted, wildcard-friendly name pattern across
// one or more artifact indexes.
//
// A search runs in three steps: the raw pattern is compiled into a provider query and a
// canonical pattern, the query is fanned out to every index provider, and the raw
// candidates are re-verified against the canonical pattern and merged by fully
// qualified class name.
package classsearch

import (
	"context"
	"strings"
)

// DefaultPackage is the package name reported for classes without a package.
const DefaultPackage = "default package"

// ClassNamesField is the index field holding the class-name listing of an artifact.
const ClassNamesField = "class_names"

// DefaultProviderLimit is the number of candidates requested from each provider.
// It is independent of the caller's result limit.
const DefaultProviderLimit = 50

// ArtifactCoordinate identifies one physical artifact.
type ArtifactCoordinate struct {
	GroupID    string `json:"group_id"`
	ArtifactID string `json:"artifact_id"`
	Version    string `json:"version"`
}

// String returns the coordinate in group:artifact:version form.
func (c ArtifactCoordinate) String() string {
	return c.GroupID + ":" + c.ArtifactID + ":" + c.Version
}

// RawCandidate is one provider hit: an artifact plus its unfiltered class-name listing.
//
// ClassNames holds one slash path per line with a leading slash ("/com/foo/Bar").
// HasClassNames is false when the provider has no class-name data for the artifact.
// RawCandidate is comparable, so a set of candidates is a map key set.
type RawCandidate struct {
	Artifact      ArtifactCoordinate
	ClassNames    string
	HasClassNames bool
}

// ArtifactInfo is the artifact identity of a result with every version that
// contains the class.
type ArtifactInfo struct {
	GroupID    string   `json:"group_id"`
	ArtifactID string   `json:"artifact_id"`
	Versions   []string `json:"versions"`
}

// ClassSearchResult is the merged result for one fully qualified class name.
type ClassSearchResult struct {
	ClassName   string       `json:"class_name"`
	PackageName string       `json:"package_name"`
	Artifact    ArtifactInfo `json:"artifact"`
}

// QualifiedName returns the fully qualified class name.
func (r *ClassSearchResult) QualifiedName() string {
	if r.PackageName == DefaultPackage {
		return r.ClassName
	}
	return r.PackageName + "." + r.ClassName
}

// Provider executes a compiled query against one artifact index.
//
// Implementations must be safe for concurrent use and may return fewer than limit
// candidates.
type Provider interface {
	// Name identifies the provider in logs and status output.
	Name() string
	// Search returns the artifacts whose class names match q.
	Search(ctx context.Context, q *CompiledQuery, limit int) ([]RawCandidate, error)
}

// splitQualifiedName splits a dotted class name into package and simple name.
func splitQualifiedName(fqn string) (pkg, class string) {
	pos := strings.LastIndex(fqn, ".")
	if pos == -1 {
		return DefaultPackage, fqn
	}
	return fqn[:pos], fqn[pos+1:]
}
