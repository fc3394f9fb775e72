package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search"

	"github.com/Aman-CERP/classfind/internal/classsearch"
)

const (
	// ClassPathTokenizerName is the tokenizer emitting one token per class path line.
	ClassPathTokenizerName = "class_path"

	// ClassPathAnalyzerName is the analyzer of the class-name field.
	ClassPathAnalyzerName = "class_path_analyzer"

	fieldGroupID       = "group_id"
	fieldArtifactID    = "artifact_id"
	fieldVersion       = "version"
	fieldHasClassNames = "has_class_names"
)

var storedFields = []string{
	fieldGroupID,
	fieldArtifactID,
	fieldVersion,
	classsearch.ClassNamesField,
	fieldHasClassNames,
}

func init() {
	_ = registry.RegisterTokenizer(ClassPathTokenizerName, classPathTokenizerConstructor)
}

// BleveIndex is a Bleve-backed artifact index.
// Each artifact is one document; its class paths are indexed as whole terms so
// wildcard queries match complete paths.
type BleveIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// Verify interface implementation
var _ ClassIndex = (*BleveIndex)(nil)

// artifactDocument is the document structure for Bleve indexing.
type artifactDocument struct {
	GroupID       string `json:"group_id"`
	ArtifactID    string `json:"artifact_id"`
	Version       string `json:"version"`
	ClassNames    string `json:"class_names"`
	HasClassNames bool   `json:"has_class_names"`
}

// validateIndexIntegrity checks that an existing Bleve index directory is usable.
// Returns nil if valid or absent, an error describing the corruption otherwise.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Index doesn't exist, will be created
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}

// isCorruptionError checks if an error indicates Bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// NewBleveIndex opens or creates a Bleve artifact index.
// If path is empty, creates an in-memory index.
// A corrupted index directory is cleared and recreated empty.
func NewBleveIndex(path string) (*BleveIndex, error) {
	indexMapping, err := createIndexMapping()
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateIndexIntegrity(path); validErr != nil {
			slog.Warn("bleve_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("bleve index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			slog.Info("bleve_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please re-import"))
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("bleve_index_open_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))

			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("bleve index corrupted, cannot clear: %w (original: %v)", removeErr, err)
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &BleveIndex{
		index: idx,
		path:  path,
	}, nil
}

// createIndexMapping creates the artifact document mapping.
func createIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomAnalyzer(ClassPathAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": ClassPathTokenizerName,
		"token_filters": []string{
			lowercase.Name,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add class path analyzer: %w", err)
	}

	classNames := bleve.NewTextFieldMapping()
	classNames.Analyzer = ClassPathAnalyzerName
	classNames.Store = true
	classNames.IncludeTermVectors = false
	classNames.IncludeInAll = false

	docMapping := bleve.NewDocumentStaticMapping()
	docMapping.AddFieldMappingsAt(fieldGroupID, bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt(fieldArtifactID, bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt(fieldVersion, bleve.NewKeywordFieldMapping())
	docMapping.AddFieldMappingsAt(classsearch.ClassNamesField, classNames)
	docMapping.AddFieldMappingsAt(fieldHasClassNames, bleve.NewBooleanFieldMapping())

	indexMapping.DefaultMapping = docMapping
	return indexMapping, nil
}

// Name implements classsearch.Provider.
func (b *BleveIndex) Name() string {
	if b.path == "" {
		return "bleve:memory"
	}
	return "bleve:" + b.path
}

// AddArtifacts indexes artifacts, replacing documents with the same coordinate.
func (b *BleveIndex) AddArtifacts(ctx context.Context, artifacts []Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc := artifactDocument{
			GroupID:       a.Coordinate.GroupID,
			ArtifactID:    a.Coordinate.ArtifactID,
			Version:       a.Coordinate.Version,
			ClassNames:    joinClassPaths(a.ClassPaths),
			HasClassNames: a.ClassPaths != nil,
		}
		if err := batch.Index(a.ID(), doc); err != nil {
			return fmt.Errorf("failed to index artifact %s: %w", a.ID(), err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// Search implements classsearch.Provider by running the compiled bleve query.
func (b *BleveIndex) Search(ctx context.Context, q *classsearch.CompiledQuery, limit int) ([]classsearch.RawCandidate, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}
	if q.Kind == classsearch.QueryNone || limit <= 0 {
		return nil, nil
	}

	req := bleve.NewSearchRequestOptions(q.Query, limit, 0, false)
	req.Fields = storedFields
	req.SortBy([]string{"_id"})

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	candidates := make([]classsearch.RawCandidate, 0, len(result.Hits))
	for _, hit := range result.Hits {
		candidates = append(candidates, hitToCandidate(hit))
	}
	return candidates, nil
}

// Count returns the number of indexed artifacts.
func (b *BleveIndex) Count(_ context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0, fmt.Errorf("index is closed")
	}
	n, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Close closes the index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

// hitToCandidate rebuilds a raw candidate from the stored fields of a hit.
func hitToCandidate(hit *search.DocumentMatch) classsearch.RawCandidate {
	known, _ := hit.Fields[fieldHasClassNames].(bool)
	return toCandidate(classsearch.ArtifactCoordinate{
		GroupID:    fieldString(hit.Fields[fieldGroupID]),
		ArtifactID: fieldString(hit.Fields[fieldArtifactID]),
		Version:    fieldString(hit.Fields[fieldVersion]),
	}, fieldString(hit.Fields[classsearch.ClassNamesField]), known)
}

// fieldString reads a stored string field; multi-valued fields are joined by newlines.
func fieldString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

// classPathTokenizerConstructor creates a new class path tokenizer for Bleve.
func classPathTokenizerConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.Tokenizer, error) {
	return &classPathTokenizer{}, nil
}

// classPathTokenizer emits each non-blank line as a single token.
type classPathTokenizer struct{}

// Tokenize implements analysis.Tokenizer.
func (t *classPathTokenizer) Tokenize(input []byte) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, 16)
	pos := 1
	start := 0

	for start <= len(input) {
		end := start
		for end < len(input) && input[end] != '\n' {
			end++
		}

		lineStart, lineEnd := start, end
		for lineStart < lineEnd && isSpace(input[lineStart]) {
			lineStart++
		}
		for lineEnd > lineStart && isSpace(input[lineEnd-1]) {
			lineEnd--
		}

		if lineEnd > lineStart {
			result = append(result, &analysis.Token{
				Term:     input[lineStart:lineEnd],
				Start:    lineStart,
				End:      lineEnd,
				Position: pos,
				Type:     analysis.AlphaNumeric,
			})
			pos++
		}
		start = end + 1
	}

	return result
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}
