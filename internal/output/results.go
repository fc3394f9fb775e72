package output

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Aman-CERP/classfind/internal/classsearch"
	"github.com/Aman-CERP/classfind/internal/store"
	"github.com/Aman-CERP/classfind/internal/telemetry"
)

// SortResults returns a copy of results ordered by package, class, group and artifact.
func SortResults(results []*classsearch.ClassSearchResult) []*classsearch.ClassSearchResult {
	sorted := append([]*classsearch.ClassSearchResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.PackageName != b.PackageName {
			return a.PackageName < b.PackageName
		}
		if a.ClassName != b.ClassName {
			return a.ClassName < b.ClassName
		}
		if a.Artifact.GroupID != b.Artifact.GroupID {
			return a.Artifact.GroupID < b.Artifact.GroupID
		}
		return a.Artifact.ArtifactID < b.Artifact.ArtifactID
	})
	return sorted
}

// Results prints results grouped by package:
//
//	com.acme.foo
//	  Bar  com.acme:widgets  1.0, 2.0
func (w *Writer) Results(pattern string, results []*classsearch.ClassSearchResult) {
	if len(results) == 0 {
		w.Warningf("No classes match %q", pattern)
		return
	}

	sorted := SortResults(results)

	width := 0
	for _, r := range sorted {
		if n := lipgloss.Width(r.ClassName); n > width {
			width = n
		}
	}

	s := w.styles
	current := ""
	for i, r := range sorted {
		if i == 0 || r.PackageName != current {
			current = r.PackageName
			_, _ = fmt.Fprintln(w.out, s.Package.Render(current))
		}
		pad := strings.Repeat(" ", width-lipgloss.Width(r.ClassName))
		_, _ = fmt.Fprintf(w.out, "  %s%s  %s  %s\n",
			s.Class.Render(r.ClassName), pad,
			s.Artifact.Render(r.Artifact.GroupID+":"+r.Artifact.ArtifactID),
			s.Version.Render(strings.Join(r.Artifact.Versions, ", ")))
	}

	w.Newline()
	_, _ = fmt.Fprintln(w.out, s.Dim.Render(fmt.Sprintf("%d %s", len(sorted), plural(len(sorted), "class", "classes"))))
}

// SearchOutput is the JSON document written by ResultsJSON.
type SearchOutput struct {
	Pattern string                           `json:"pattern"`
	Count   int                              `json:"count"`
	Results []*classsearch.ClassSearchResult `json:"results"`
}

// ResultsJSON writes sorted results as an indented JSON document.
func (w *Writer) ResultsJSON(pattern string, results []*classsearch.ClassSearchResult) error {
	sorted := SortResults(results)
	doc := SearchOutput{
		Pattern: pattern,
		Count:   len(sorted),
		Results: sorted,
	}
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

// IndexStatus prints one line per index.
func (w *Writer) IndexStatus(dataDir string, statuses []store.IndexStatus) {
	s := w.styles
	_, _ = fmt.Fprintln(w.out, s.Header.Render("Indexes")+" "+s.Label.Render(dataDir))
	for _, st := range statuses {
		if st.Error != "" {
			w.Errorf("%s: %s", st.Name, st.Error)
			continue
		}
		w.Successf("%s %s", st.Name, s.Label.Render(fmt.Sprintf("%d %s", st.Artifacts, plural(st.Artifacts, "artifact", "artifacts"))))
	}
}

// Metrics prints a telemetry snapshot.
func (w *Writer) Metrics(snap *telemetry.Snapshot) {
	s := w.styles
	_, _ = fmt.Fprintln(w.out, s.Header.Render("Searches"))
	w.Status("", fmt.Sprintf("%s %d", s.Label.Render("total:"), snap.TotalSearches))
	w.Status("", fmt.Sprintf("%s %d (%.1f%%)", s.Label.Render("zero results:"), snap.ZeroResultCount, snap.ZeroResultPercentage()))
	w.Status("", fmt.Sprintf("%s %d", s.Label.Render("provider failures:"), snap.ProviderFailures))
	for _, p := range snap.TopPatterns {
		w.Status("", fmt.Sprintf("%s %q x%d", s.Label.Render("pattern:"), p.Pattern, p.Count))
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
