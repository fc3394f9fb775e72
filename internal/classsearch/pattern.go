package classsearch

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// QueryKind selects how a provider evaluates a compiled query.
type QueryKind int

const (
	// QueryWildcard matches class paths against QueryPattern.
	QueryWildcard QueryKind = iota
	// QueryAll matches every indexed artifact.
	QueryAll
	// QueryNone matches nothing.
	QueryNone
)

// String returns the kind name used in logs.
func (k QueryKind) String() string {
	switch k {
	case QueryAll:
		return "all"
	case QueryNone:
		return "none"
	default:
		return "wildcard"
	}
}

// CompiledQuery is the result of compiling one raw search pattern.
// It is built once per search and never mutated.
type CompiledQuery struct {
	// Pattern is the canonical dotted pattern with '*' wildcards, e.g. "com*.foo*.bar*".
	Pattern string
	// QueryPattern is the provider wildcard pattern over slash paths, e.g. "*/com*/foo*/bar*".
	// Empty unless Kind is QueryWildcard.
	QueryPattern string
	// Kind tells providers without a bleve engine how to evaluate the query.
	Kind QueryKind
	// Query is the structured query against ClassNamesField.
	Query query.Query
}

// Compile turns a raw search pattern into a canonical pattern and a provider query.
//
// The pattern is lower-cased. Every dotted segment but the last is a package fragment
// and matches any package segment starting with it. The last segment is a class-name
// prefix, or an exact class name when it ends with a space. A blank pattern matches
// everything. Compile never fails; a pattern with no usable segments matches nothing.
func Compile(raw string) *CompiledQuery {
	pattern := strings.ToLower(raw)
	if strings.TrimSpace(pattern) == "" {
		return &CompiledQuery{
			Kind:  QueryAll,
			Query: bleve.NewMatchAllQuery(),
		}
	}

	parts := splitSegments(pattern)
	if len(parts) == 0 {
		return &CompiledQuery{
			Kind:  QueryNone,
			Query: bleve.NewMatchNoneQuery(),
		}
	}

	var b strings.Builder
	for _, part := range parts[:len(parts)-1] {
		b.WriteString(strings.TrimSpace(part))
		b.WriteString("*.")
	}

	className := parts[len(parts)-1]
	exact := strings.HasSuffix(className, " ")
	b.WriteString(strings.TrimSpace(className))
	if !exact {
		b.WriteString("*")
	}

	canonical := b.String()
	queryPattern := "*/" + strings.ReplaceAll(canonical, ".", "/")

	wq := bleve.NewWildcardQuery(queryPattern)
	wq.SetField(ClassNamesField)

	return &CompiledQuery{
		Pattern:      canonical,
		QueryPattern: queryPattern,
		Kind:         QueryWildcard,
		Query:        wq,
	}
}

// splitSegments splits on '.' and drops empty segments.
// Whitespace-only segments are kept; they compile to a bare wildcard.
func splitSegments(pattern string) []string {
	raw := strings.Split(pattern, ".")
	parts := raw[:0]
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
