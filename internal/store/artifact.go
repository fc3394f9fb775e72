// Package store provides the artifact class-name indexes that class search runs on:
// a Bleve index and a SQLite index, both implementing classsearch.Provider.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aman-CERP/classfind/internal/classsearch"
)

// Artifact is one indexed artifact and the classes it contains.
type Artifact struct {
	Coordinate classsearch.ArtifactCoordinate
	// ClassPaths holds normalized class paths ("/com/foo/Bar").
	// Nil means no class-name data is known for the artifact.
	ClassPaths []string
}

// ID returns the document ID of the artifact.
func (a Artifact) ID() string {
	return a.Coordinate.String()
}

// ClassIndex is an artifact index that can be searched and written.
type ClassIndex interface {
	classsearch.Provider

	// AddArtifacts adds or replaces artifacts, keyed by coordinate.
	AddArtifacts(ctx context.Context, artifacts []Artifact) error
	// Count returns the number of indexed artifacts.
	Count(ctx context.Context) (int, error)
	// Close releases the index.
	Close() error
}

// ParseCoordinate parses a "group:artifact:version" coordinate.
func ParseCoordinate(s string) (classsearch.ArtifactCoordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return classsearch.ArtifactCoordinate{}, fmt.Errorf("invalid coordinate %q: want group:artifact:version", s)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return classsearch.ArtifactCoordinate{}, fmt.Errorf("invalid coordinate %q: empty component", s)
		}
	}
	return classsearch.ArtifactCoordinate{
		GroupID:    strings.TrimSpace(parts[0]),
		ArtifactID: strings.TrimSpace(parts[1]),
		Version:    strings.TrimSpace(parts[2]),
	}, nil
}

// NormalizeClassPath converts a class reference to its indexed path form.
// It accepts dotted names ("com.foo.Bar"), archive entries ("com/foo/Bar.class")
// and paths ("/com/foo/Bar"). It returns "" for blanks and for package-info
// and module-info entries.
func NormalizeClassPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimSuffix(name, ".class")
	if name == "" {
		return ""
	}
	if !strings.Contains(name, "/") {
		name = strings.ReplaceAll(name, ".", "/")
	}
	name = "/" + strings.Trim(name, "/")
	if name == "/" {
		return ""
	}

	simple := name[strings.LastIndex(name, "/")+1:]
	if simple == "package-info" || simple == "module-info" {
		return ""
	}
	return name
}

// NormalizeClassPaths normalizes names, dropping blanks and repeats while keeping order.
func NormalizeClassPaths(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	paths := make([]string, 0, len(names))
	for _, n := range names {
		p := NormalizeClassPath(n)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		paths = append(paths, p)
	}
	return paths
}

// ParseClassListing splits a newline-delimited listing (LF or CRLF) and normalizes it.
func ParseClassListing(listing string) []string {
	listing = strings.ReplaceAll(listing, "\r\n", "\n")
	return NormalizeClassPaths(strings.Split(listing, "\n"))
}

// joinClassPaths renders the class-name blob of an artifact.
func joinClassPaths(paths []string) string {
	return strings.Join(paths, "\n")
}

// toCandidate builds a raw candidate from stored values.
func toCandidate(c classsearch.ArtifactCoordinate, classNames string, known bool) classsearch.RawCandidate {
	return classsearch.RawCandidate{
		Artifact:      c,
		ClassNames:    classNames,
		HasClassNames: known,
	}
}
