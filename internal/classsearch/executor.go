package classsearch

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProviderFailure records a provider that contributed nothing because its search failed.
type ProviderFailure struct {
	Provider string
	Err      error
}

// Executor runs a compiled query against every provider and unions the candidates.
type Executor struct {
	providers []Provider
	limit     int
	logger    *slog.Logger
}

// NewExecutor creates an executor over providers, asking each for at most limit
// candidates. A non-positive limit uses DefaultProviderLimit.
func NewExecutor(providers []Provider, limit int, logger *slog.Logger) *Executor {
	if limit <= 0 {
		limit = DefaultProviderLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		providers: providers,
		limit:     limit,
		logger:    logger,
	}
}

// Execute queries all providers in parallel and returns the union of their candidates.
//
// Duplicate candidates collapse; the rest keep provider order, then the order each
// provider returned them in. A failing provider is logged, reported in failures and
// contributes no candidates. The only error is the context's.
func (e *Executor) Execute(ctx context.Context, q *CompiledQuery) (candidates []RawCandidate, failures []ProviderFailure, err error) {
	if q.Kind == QueryNone || len(e.providers) == 0 {
		return nil, nil, ctx.Err()
	}

	results := make([][]RawCandidate, len(e.providers))
	errs := make([]error, len(e.providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range e.providers {
		g.Go(func() error {
			start := time.Now()
			found, searchErr := p.Search(gctx, q, e.limit)
			if searchErr != nil {
				errs[i] = searchErr
				// Don't fail the group, the other providers still count
				return nil
			}
			results[i] = found
			e.logger.Debug("provider_search_complete",
				slog.String("provider", p.Name()),
				slog.Int("candidates", len(found)),
				slog.Duration("duration", time.Since(start)))
			return nil
		})
	}
	_ = g.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, ctxErr
	}

	for i, searchErr := range errs {
		if searchErr == nil {
			continue
		}
		name := e.providers[i].Name()
		e.logger.Warn("provider_search_failed",
			slog.String("provider", name),
			slog.String("pattern", q.Pattern),
			slog.String("error", searchErr.Error()))
		failures = append(failures, ProviderFailure{Provider: name, Err: searchErr})
	}

	return unionCandidates(results), failures, nil
}

// unionCandidates concatenates per-provider results, dropping repeats.
func unionCandidates(results [][]RawCandidate) []RawCandidate {
	total := 0
	for _, r := range results {
		total += len(r)
	}

	seen := make(map[RawCandidate]struct{}, total)
	union := make([]RawCandidate, 0, total)
	for _, r := range results {
		for _, c := range r {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			union = append(union, c)
		}
	}
	return union
}
