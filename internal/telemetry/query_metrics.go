// Package telemetry collects local class search metrics. Nothing is reported externally.
package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/classfind/internal/classsearch"
)

// LatencyBucket represents a latency histogram bucket.
type LatencyBucket string

const (
	BucketP10   LatencyBucket = "p10"   // <10ms
	BucketP50   LatencyBucket = "p50"   // 10-50ms
	BucketP100  LatencyBucket = "p100"  // 50-100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // >=500ms
)

// LatencyToBucket converts a duration to its histogram bucket.
func LatencyToBucket(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 10:
		return BucketP10
	case ms < 50:
		return BucketP50
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	default:
		return BucketP1000
	}
}

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	mu       sync.RWMutex
	items    []T
	head     int // next write position
	size     int
	capacity int
}

// NewCircularBuffer creates a circular buffer; non-positive capacity means 100.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add adds an item, evicting the oldest when full.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns the buffered items, oldest first.
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]T, 0, b.size)
	start := (b.head - b.size + b.capacity) % b.capacity
	for i := 0; i < b.size; i++ {
		result = append(result, b.items[(start+i)%b.capacity])
	}
	return result
}

// Size returns the current number of items in the buffer.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// PatternCount is a search pattern and how often it was searched.
type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   int64  `json:"count"`
}

// Snapshot is an immutable copy of the collected metrics.
type Snapshot struct {
	TotalSearches       int64                   `json:"total_searches"`
	ZeroResultCount     int64                   `json:"zero_result_count"`
	ProviderFailures    int64                   `json:"provider_failures"`
	KindCounts          map[string]int64        `json:"kind_counts"`
	LatencyDistribution map[LatencyBucket]int64 `json:"latency_distribution"`
	TopPatterns         []PatternCount          `json:"top_patterns"`
	ZeroResultPatterns  []string                `json:"zero_result_patterns"`
	Since               time.Time               `json:"since"`
}

// ZeroResultPercentage returns the share of searches with no results, in percent.
func (s *Snapshot) ZeroResultPercentage() float64 {
	if s.TotalSearches == 0 {
		return 0
	}
	return float64(s.ZeroResultCount) / float64(s.TotalSearches) * 100
}

// Config sizes the bounded collections of QueryMetrics.
type Config struct {
	// TopPatternsCapacity bounds the distinct patterns tracked (LRU).
	TopPatternsCapacity int
	// ZeroResultsCapacity bounds the recent zero-result patterns kept.
	ZeroResultsCapacity int
}

// DefaultConfig returns the default collection sizes.
func DefaultConfig() Config {
	return Config{
		TopPatternsCapacity: 100,
		ZeroResultsCapacity: 50,
	}
}

// QueryMetrics aggregates search statistics in memory.
// It implements classsearch.Recorder and is safe for concurrent use.
type QueryMetrics struct {
	mu sync.RWMutex

	total       int64
	zeroResults int64
	failures    int64
	kinds       map[string]int64
	latencies   map[LatencyBucket]int64
	patterns    *lru.Cache[string, int64]
	zeroRecent  *CircularBuffer[string]
	startTime   time.Time
}

var _ classsearch.Recorder = (*QueryMetrics)(nil)

// NewQueryMetrics creates a collector; non-positive capacities use the defaults.
func NewQueryMetrics(cfg Config) *QueryMetrics {
	def := DefaultConfig()
	if cfg.TopPatternsCapacity <= 0 {
		cfg.TopPatternsCapacity = def.TopPatternsCapacity
	}
	if cfg.ZeroResultsCapacity <= 0 {
		cfg.ZeroResultsCapacity = def.ZeroResultsCapacity
	}

	// lru.New only fails for a non-positive size.
	patterns, _ := lru.New[string, int64](cfg.TopPatternsCapacity)

	return &QueryMetrics{
		kinds:      make(map[string]int64),
		latencies:  make(map[LatencyBucket]int64),
		patterns:   patterns,
		zeroRecent: NewCircularBuffer[string](cfg.ZeroResultsCapacity),
		startTime:  time.Now(),
	}
}

// RecordSearch implements classsearch.Recorder.
func (m *QueryMetrics) RecordSearch(stats classsearch.SearchStats) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total++
	m.kinds[stats.Kind.String()]++
	m.latencies[LatencyToBucket(stats.Duration)]++
	m.failures += int64(stats.ProviderFailures)

	key := normalizePattern(stats.Pattern)
	count, _ := m.patterns.Get(key)
	m.patterns.Add(key, count+1)

	if stats.Results == 0 {
		m.zeroResults++
		m.zeroRecent.Add(stats.Pattern)
	}
}

// normalizePattern folds patterns that compile to the same query.
func normalizePattern(p string) string {
	return strings.ToLower(p)
}

// Snapshot returns a copy of the current metrics.
// TopPatterns is sorted by count, then pattern.
func (m *QueryMetrics) Snapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	kinds := make(map[string]int64, len(m.kinds))
	for k, v := range m.kinds {
		kinds[k] = v
	}
	latencies := make(map[LatencyBucket]int64, len(m.latencies))
	for k, v := range m.latencies {
		latencies[k] = v
	}

	top := make([]PatternCount, 0, m.patterns.Len())
	for _, key := range m.patterns.Keys() {
		if count, ok := m.patterns.Peek(key); ok {
			top = append(top, PatternCount{Pattern: key, Count: count})
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Pattern < top[j].Pattern
	})

	return &Snapshot{
		TotalSearches:       m.total,
		ZeroResultCount:     m.zeroResults,
		ProviderFailures:    m.failures,
		KindCounts:          kinds,
		LatencyDistribution: latencies,
		TopPatterns:         top,
		ZeroResultPatterns:  m.zeroRecent.Items(),
		Since:               m.startTime,
	}
}
