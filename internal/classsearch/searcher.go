package classsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultMaxResults is used when a search asks for a non-positive number of results.
const DefaultMaxResults = 50

// ErrNoProviders is returned by NewSearcher when no provider is configured.
var ErrNoProviders = errors.New("no index providers")

// SearchStats describes one finished search for telemetry.
type SearchStats struct {
	Pattern          string
	Kind             QueryKind
	Candidates       int
	Results          int
	ProviderFailures int
	Duration         time.Duration
}

// Recorder receives stats for every finished search.
type Recorder interface {
	RecordSearch(stats SearchStats)
}

// Searcher is the class search entry point.
type Searcher struct {
	providers     []Provider
	providerLimit int
	defaultMax    int
	recorder      Recorder
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithProviderLimit overrides the per-provider candidate limit.
func WithProviderLimit(limit int) Option {
	return func(s *Searcher) {
		if limit > 0 {
			s.providerLimit = limit
		}
	}
}

// WithDefaultMaxResults sets the result cap used when Search gets a non-positive maxResult.
func WithDefaultMaxResults(n int) Option {
	return func(s *Searcher) {
		if n > 0 {
			s.defaultMax = n
		}
	}
}

// WithRecorder sets a telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Searcher) {
		s.recorder = r
	}
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(s *Searcher) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSearcher creates a searcher over providers.
func NewSearcher(providers []Provider, opts ...Option) (*Searcher, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	for i, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("provider %d is nil", i)
		}
	}

	s := &Searcher{
		providers:     providers,
		providerLimit: DefaultProviderLimit,
		defaultMax:    DefaultMaxResults,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Search finds classes matching rawPattern, merged across providers and capped at
// maxResult classes.
//
// Malformed patterns and failing providers only reduce the result; the returned error
// is non-nil only when ctx is done.
func (s *Searcher) Search(ctx context.Context, rawPattern string, maxResult int) ([]*ClassSearchResult, error) {
	start := time.Now()
	if maxResult <= 0 {
		maxResult = s.defaultMax
	}

	q := Compile(rawPattern)
	s.logger.Debug("class_search_started",
		slog.String("pattern", rawPattern),
		slog.String("canonical", q.Pattern),
		slog.String("kind", q.Kind.String()),
		slog.Int("max_results", maxResult))

	executor := NewExecutor(s.providers, s.providerLimit, s.logger)
	candidates, failures, err := executor.Execute(ctx, q)
	if err != nil {
		return nil, err
	}

	var results []*ClassSearchResult
	if m, matchErr := NewMatcher(q.Pattern); matchErr != nil {
		s.logger.Warn("class_search_pattern_rejected",
			slog.String("pattern", rawPattern),
			slog.String("error", matchErr.Error()))
	} else {
		results = Aggregate(candidates, m, maxResult)
	}

	stats := SearchStats{
		Pattern:          rawPattern,
		Kind:             q.Kind,
		Candidates:       len(candidates),
		Results:          len(results),
		ProviderFailures: len(failures),
		Duration:         time.Since(start),
	}
	if s.recorder != nil {
		s.recorder.RecordSearch(stats)
	}

	s.logger.Debug("class_search_complete",
		slog.String("pattern", rawPattern),
		slog.Int("candidates", stats.Candidates),
		slog.Int("results", stats.Results),
		slog.Int("provider_failures", stats.ProviderFailures),
		slog.Duration("duration", stats.Duration))

	return results, nil
}
