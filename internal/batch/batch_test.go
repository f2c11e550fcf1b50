package batch

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/lcsc-lookup/internal/cache"
	"github.com/lepinkainen/lcsc-lookup/internal/catalog"
)

type stubEntry struct {
	delay time.Duration
	found bool
	panic bool
}

type stubLookuper struct {
	entries map[string]stubEntry

	mu       sync.Mutex
	calls    map[string]int
	started  []time.Time
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func newStubLookuper(entries map[string]stubEntry) *stubLookuper {
	return &stubLookuper{entries: entries, calls: make(map[string]int)}
}

func (s *stubLookuper) Lookup(ctx context.Context, identifier string) catalog.Outcome {
	s.mu.Lock()
	s.calls[identifier]++
	s.started = append(s.started, time.Now())
	s.mu.Unlock()

	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	entry := s.entries[identifier]
	if entry.delay > 0 {
		select {
		case <-time.After(entry.delay):
		case <-ctx.Done():
			return catalog.NewNotFound(identifier, ctx.Err())
		}
	}
	if entry.panic {
		panic("catalog exploded")
	}
	if !entry.found {
		return catalog.NewNotFound(identifier, errors.New("no result"))
	}
	return catalog.NewFound(identifier, catalog.Product{Code: identifier, Manufacturer: "Maker " + identifier})
}

func (s *stubLookuper) callCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

type recordingReporter struct {
	mu       sync.Mutex
	total    int
	advances int
	finished int
}

func (r *recordingReporter) Start(total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total = total
}

func (r *recordingReporter) Advance() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.advances++
}

func (r *recordingReporter) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

func identifiersOf(outcomes []catalog.Outcome) []string {
	ids := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		ids = append(ids, o.Identifier)
	}
	return ids
}

func TestRunPartitionsEveryIdentifierOnce(t *testing.T) {
	lookup := newStubLookuper(map[string]stubEntry{
		"C1": {found: true},
		"C2": {found: false},
		"C3": {found: true},
		"C4": {found: false},
		"C5": {found: true},
	})
	input := []string{"C1", "C2", "C3", "C4", "C5"}

	result := NewCoordinator(lookup, WithStagger(0)).Run(context.Background(), input)

	assert.Equal(t, len(input), result.Total())
	assert.Equal(t, []string{"C1", "C3", "C5"}, identifiersOf(result.Valid))
	assert.Equal(t, []string{"C2", "C4"}, result.DroppedIdentifiers())

	seen := make(map[string]int)
	for _, id := range append(identifiersOf(result.Valid), result.DroppedIdentifiers()...) {
		seen[id]++
	}
	for _, id := range input {
		assert.Equal(t, 1, seen[id], "identifier %s", id)
	}
}

func TestRunPreservesInputOrderWhenLaterItemsFinishFirst(t *testing.T) {
	lookup := newStubLookuper(map[string]stubEntry{
		"A": {delay: 120 * time.Millisecond, found: true},
		"B": {delay: 0, found: true},
		"C": {delay: 60 * time.Millisecond, found: false},
		"D": {delay: 0, found: false},
	})

	result := NewCoordinator(lookup, WithStagger(0), WithWorkers(4)).Run(context.Background(), []string{"A", "B", "C", "D"})

	assert.Equal(t, []string{"A", "B"}, identifiersOf(result.Valid))
	assert.Equal(t, []string{"C", "D"}, result.DroppedIdentifiers())
	assert.Equal(t, []catalog.Product{
		{Code: "A", Manufacturer: "Maker A"},
		{Code: "B", Manufacturer: "Maker B"},
	}, result.Products())
}

func TestRunBoundsConcurrency(t *testing.T) {
	entries := make(map[string]stubEntry)
	input := make([]string, 0, 12)
	for _, id := range []string{"C1", "C2", "C3", "C4", "C5", "C6", "C7", "C8", "C9", "C10", "C11", "C12"} {
		entries[id] = stubEntry{delay: 20 * time.Millisecond, found: true}
		input = append(input, id)
	}
	lookup := newStubLookuper(entries)

	result := NewCoordinator(lookup, WithStagger(0), WithWorkers(3)).Run(context.Background(), input)

	assert.Len(t, result.Valid, 12)
	assert.LessOrEqual(t, lookup.maxSeen.Load(), int32(3))
	assert.Greater(t, lookup.maxSeen.Load(), int32(1))
}

func TestRunStaggersSubmissions(t *testing.T) {
	lookup := newStubLookuper(map[string]stubEntry{})
	input := []string{"C1", "C2", "C3", "C4"}

	start := time.Now()
	NewCoordinator(lookup, WithStagger(25*time.Millisecond)).Run(context.Background(), input)

	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)

	lookup.mu.Lock()
	defer lookup.mu.Unlock()
	require.Len(t, lookup.started, 4)
	first, last := lookup.started[0], lookup.started[0]
	for _, ts := range lookup.started {
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	assert.GreaterOrEqual(t, last.Sub(first), 70*time.Millisecond)
}

func TestRunReportsProgressOncePerItem(t *testing.T) {
	lookup := newStubLookuper(map[string]stubEntry{"C1": {found: true}, "C3": {panic: true}})
	reporter := &recordingReporter{}

	NewCoordinator(lookup, WithStagger(0), WithProgress(reporter)).Run(context.Background(), []string{"C1", "C2", "C3"})

	assert.Equal(t, 3, reporter.total)
	assert.Equal(t, 3, reporter.advances)
	assert.Equal(t, 1, reporter.finished)
}

func TestRunRecoversPanickingLookup(t *testing.T) {
	lookup := newStubLookuper(map[string]stubEntry{
		"C1": {found: true},
		"C2": {panic: true},
	})

	result := NewCoordinator(lookup, WithStagger(0)).Run(context.Background(), []string{"C1", "C2"})

	assert.Equal(t, []string{"C1"}, identifiersOf(result.Valid))
	require.Len(t, result.Dropped, 1)
	assert.Equal(t, "C2", result.Dropped[0].Identifier)
	assert.Contains(t, result.Dropped[0].Err.Error(), "lookup panicked")
}

func TestRunEmptyBatch(t *testing.T) {
	reporter := &recordingReporter{}

	result := NewCoordinator(newStubLookuper(nil), WithProgress(reporter)).Run(context.Background(), nil)

	assert.Equal(t, 0, result.Total())
	assert.Empty(t, result.Products())
	assert.Equal(t, 1, reporter.finished)
}

func TestRunCancelledContextStillClassifiesEverything(t *testing.T) {
	lookup := newStubLookuper(map[string]stubEntry{
		"C1": {delay: time.Second, found: true},
		"C2": {delay: time.Second, found: true},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := NewCoordinator(lookup, WithStagger(time.Hour)).Run(ctx, []string{"C1", "C2"})

	assert.Empty(t, result.Valid)
	assert.Equal(t, []string{"C1", "C2"}, result.DroppedIdentifiers())
}

func TestRunMemoizesDuplicateIdentifiers(t *testing.T) {
	require.NoError(t, cache.ResetGlobalCache())
	t.Cleanup(func() { _ = cache.ResetGlobalCache() })

	lookup := newStubLookuper(map[string]stubEntry{"C1": {found: true}})
	input := []string{"C1", "C2", "C1", "C2"}

	result := NewCoordinator(lookup, WithStagger(0), WithWorkers(1), WithMemo(true)).Run(context.Background(), input)

	assert.Equal(t, []string{"C1", "C1"}, identifiersOf(result.Valid))
	assert.Equal(t, []string{"C2", "C2"}, result.DroppedIdentifiers())
	assert.Equal(t, 1, lookup.callCount("C1"), "found products are memoized")
	assert.Equal(t, 2, lookup.callCount("C2"), "misses are not memoized")
	assert.Equal(t, "Maker C1", result.Valid[1].Product.Manufacturer)
}

func captureDebugLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func TestRunLogsLimiterAndMemoSize(t *testing.T) {
	require.NoError(t, cache.ResetGlobalCache())
	t.Cleanup(func() { _ = cache.ResetGlobalCache() })
	logs := captureDebugLogs(t)

	lookup := newStubLookuper(map[string]stubEntry{"C1": {found: true}, "C3": {found: true}})
	NewCoordinator(lookup, WithStagger(0), WithWorkers(2), WithMemo(true)).
		Run(context.Background(), []string{"C1", "C2", "C3", "C1"})

	out := logs.String()
	assert.Contains(t, out, `limiter="catalog submissions"`)
	assert.Contains(t, out, "workers=2 count=4")
	assert.Contains(t, out, "msg=\"Lookup memo\" entries=2")

	db, err := cache.GetGlobalCache()
	require.NoError(t, err)
	n, err := db.Count(cache.LookupMemoTable)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRunLogsDropStatusAndStage(t *testing.T) {
	logs := captureDebugLogs(t)

	lookup := newStubLookuper(nil)
	NewCoordinator(lookup, WithStagger(0)).Run(context.Background(), []string{"C9"})

	out := logs.String()
	assert.Contains(t, out, "identifier=C9 status=not_found")
	assert.Contains(t, out, `stage="" reason="no result"`)
	assert.NotContains(t, out, "Lookup memo", "memo size is only logged when memoizing")
}

func TestRunWithoutMemoRepeatsRequests(t *testing.T) {
	lookup := newStubLookuper(map[string]stubEntry{"C1": {found: true}})

	NewCoordinator(lookup, WithStagger(0), WithWorkers(1)).Run(context.Background(), []string{"C1", "C1"})

	assert.Equal(t, 2, lookup.callCount("C1"))
}

func TestNewCoordinatorIgnoresInvalidOptions(t *testing.T) {
	c := NewCoordinator(newStubLookuper(nil), WithWorkers(0), WithStagger(-time.Second), WithProgress(nil))

	assert.Equal(t, DefaultWorkers, c.workers)
	assert.Equal(t, DefaultStagger, c.stagger)
	assert.NotNil(t, c.progress)
}
