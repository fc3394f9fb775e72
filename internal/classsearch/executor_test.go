package classsearch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns a fixed candidate list for every query, like an index whose
// wildcard matching is looser than the verification pass.
type fakeProvider struct {
	name       string
	candidates []RawCandidate
	err        error

	mu        sync.Mutex
	calls     int
	lastLimit int
	lastQuery *CompiledQuery
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Search(ctx context.Context, q *CompiledQuery, limit int) ([]RawCandidate, error) {
	p.mu.Lock()
	p.calls++
	p.lastLimit = limit
	p.lastQuery = q
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(p.candidates) > limit {
		return p.candidates[:limit], nil
	}
	return p.candidates, nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func TestExecutor_UnionsAllProviders(t *testing.T) {
	a := &fakeProvider{name: "a", candidates: []RawCandidate{candidate("g", "a", "1", "/p/A")}}
	b := &fakeProvider{name: "b", candidates: []RawCandidate{candidate("g", "b", "1", "/p/B")}}

	got, failures, err := NewExecutor([]Provider{a, b}, 0, nil).Execute(context.Background(), Compile("p"))

	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Equal(t, []RawCandidate{a.candidates[0], b.candidates[0]}, got)
}

func TestExecutor_CollapsesDuplicateCandidates(t *testing.T) {
	shared := candidate("g", "a", "1", "/p/A")
	a := &fakeProvider{name: "a", candidates: []RawCandidate{shared}}
	b := &fakeProvider{name: "b", candidates: []RawCandidate{shared, candidate("g", "a", "2", "/p/A")}}

	got, _, err := NewExecutor([]Provider{a, b}, 0, nil).Execute(context.Background(), Compile("p"))

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Artifact.Version)
	assert.Equal(t, "2", got[1].Artifact.Version)
}

func TestExecutor_IsolatesFailingProvider(t *testing.T) {
	// Given: one broken provider and one healthy provider
	broken := &fakeProvider{name: "broken", err: errors.New("index corrupt")}
	healthy := &fakeProvider{name: "healthy", candidates: []RawCandidate{candidate("g", "a", "1", "/p/A")}}

	// When: executing
	got, failures, err := NewExecutor([]Provider{broken, healthy}, 0, nil).Execute(context.Background(), Compile("p"))

	// Then: the healthy provider's candidates still flow through
	require.NoError(t, err)
	assert.Equal(t, healthy.candidates, got)
	require.Len(t, failures, 1)
	assert.Equal(t, "broken", failures[0].Provider)
	assert.EqualError(t, failures[0].Err, "index corrupt")
}

func TestExecutor_PassesFixedProviderLimit(t *testing.T) {
	p := &fakeProvider{name: "p"}

	_, _, err := NewExecutor([]Provider{p}, 0, nil).Execute(context.Background(), Compile("p"))
	require.NoError(t, err)
	assert.Equal(t, DefaultProviderLimit, p.lastLimit)

	_, _, err = NewExecutor([]Provider{p}, 7, nil).Execute(context.Background(), Compile("p"))
	require.NoError(t, err)
	assert.Equal(t, 7, p.lastLimit)
}

func TestExecutor_SharesOneCompiledQuery(t *testing.T) {
	a := &fakeProvider{name: "a"}
	b := &fakeProvider{name: "b"}
	q := Compile("com.acme.Widget")

	_, _, err := NewExecutor([]Provider{a, b}, 0, nil).Execute(context.Background(), q)

	require.NoError(t, err)
	assert.Same(t, q, a.lastQuery)
	assert.Same(t, q, b.lastQuery)
}

func TestExecutor_MatchNoneSkipsProviders(t *testing.T) {
	p := &fakeProvider{name: "p", candidates: []RawCandidate{candidate("g", "a", "1", "/p/A")}}

	got, _, err := NewExecutor([]Provider{p}, 0, nil).Execute(context.Background(), Compile("..."))

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, p.callCount())
}

func TestExecutor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &fakeProvider{name: "p", candidates: []RawCandidate{candidate("g", "a", "1", "/p/A")}}

	got, _, err := NewExecutor([]Provider{p}, 0, nil).Execute(ctx, Compile("p"))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
}

// countingProvider counts concurrent callers.
type countingProvider struct {
	active  atomic.Int32
	peak    atomic.Int32
	release chan struct{}
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Search(ctx context.Context, _ *CompiledQuery, _ int) ([]RawCandidate, error) {
	n := p.active.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	defer p.active.Add(-1)

	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return nil, nil
}

func TestExecutor_QueriesProvidersConcurrently(t *testing.T) {
	p := &countingProvider{release: make(chan struct{})}
	providers := []Provider{p, p, p}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _, _ = NewExecutor(providers, 0, nil).Execute(context.Background(), Compile("x"))
	}()

	require.Eventually(t, func() bool { return p.active.Load() == 3 }, timeoutShort, tick)
	close(p.release)
	<-done

	assert.Equal(t, int32(3), p.peak.Load())
}
