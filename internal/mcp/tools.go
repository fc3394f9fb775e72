package mcp

import (
	"time"

	"github.com/Aman-CERP/classfind/internal/classsearch"
	"github.com/Aman-CERP/classfind/internal/store"
	"github.com/Aman-CERP/classfind/internal/telemetry"
)

// Tool names.
const (
	ToolSearchClasses = "search_classes"
	ToolIndexStatus   = "index_status"
)

// Result limits for search_classes.
const (
	maxResultsCeiling = 500
)

// SearchClassesInput defines the input schema for the search_classes tool.
type SearchClassesInput struct {
	Pattern    string `json:"pattern" jsonschema:"class name pattern, e.g. 'ArrayList', 'j.u.ArrayL' or 'com.acme.*Service'"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"maximum number of classes to return"`
	Exact      bool   `json:"exact,omitempty" jsonschema:"match the class name exactly instead of as a prefix"`
}

// SearchClassesOutput defines the output schema for the search_classes tool.
type SearchClassesOutput struct {
	Pattern   string              `json:"pattern" jsonschema:"the pattern that was searched"`
	Count     int                 `json:"count" jsonschema:"number of classes returned"`
	Truncated bool                `json:"truncated,omitempty" jsonschema:"true if more classes may match than were returned"`
	Results   []ClassResultOutput `json:"results" jsonschema:"matching classes sorted by package and class name"`
}

// ClassResultOutput is one class with the artifact versions that contain it.
type ClassResultOutput struct {
	QualifiedName string   `json:"qualified_name" jsonschema:"fully qualified class name"`
	ClassName     string   `json:"class_name" jsonschema:"simple class name, with $ for nested classes"`
	PackageName   string   `json:"package_name" jsonschema:"package name or 'default package'"`
	GroupID       string   `json:"group_id" jsonschema:"artifact group id"`
	ArtifactID    string   `json:"artifact_id" jsonschema:"artifact id"`
	Versions      []string `json:"versions" jsonschema:"artifact versions containing the class"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	DataDir string              `json:"data_dir" jsonschema:"directory holding the class indexes"`
	Indexes []store.IndexStatus `json:"indexes" jsonschema:"artifact count per index"`
	Metrics *MetricsOutput      `json:"metrics,omitempty" jsonschema:"search telemetry for this session"`
}

// MetricsOutput is the wire form of a telemetry snapshot.
type MetricsOutput struct {
	TotalSearches       int64                    `json:"total_searches"`
	ZeroResultPct       float64                  `json:"zero_result_pct"`
	ProviderFailures    int64                    `json:"provider_failures"`
	KindCounts          map[string]int64         `json:"kind_counts"`
	LatencyDistribution map[string]int64         `json:"latency_distribution"`
	TopPatterns         []telemetry.PatternCount `json:"top_patterns"`
	ZeroResultPatterns  []string                 `json:"zero_result_patterns"`
	Since               string                   `json:"since"`
}

// toClassResultOutput flattens a search result for the wire.
func toClassResultOutput(r *classsearch.ClassSearchResult) ClassResultOutput {
	return ClassResultOutput{
		QualifiedName: r.QualifiedName(),
		ClassName:     r.ClassName,
		PackageName:   r.PackageName,
		GroupID:       r.Artifact.GroupID,
		ArtifactID:    r.Artifact.ArtifactID,
		Versions:      r.Artifact.Versions,
	}
}

// toMetricsOutput converts a snapshot for the wire.
func toMetricsOutput(snap *telemetry.Snapshot) *MetricsOutput {
	out := &MetricsOutput{
		TotalSearches:       snap.TotalSearches,
		ZeroResultPct:       snap.ZeroResultPercentage(),
		ProviderFailures:    snap.ProviderFailures,
		KindCounts:          snap.KindCounts,
		LatencyDistribution: make(map[string]int64, len(snap.LatencyDistribution)),
		TopPatterns:         snap.TopPatterns,
		ZeroResultPatterns:  snap.ZeroResultPatterns,
		Since:               snap.Since.Format(time.RFC3339),
	}
	for bucket, n := range snap.LatencyDistribution {
		out.LatencyDistribution[string(bucket)] = n
	}
	return out
}

// clampLimit applies a default when limit is unset and caps it at max.
func clampLimit(limit, defaultVal, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit > max {
		return max
	}
	return limit
}
