// Package batch fans catalog lookups out over a bounded worker pool and
// collects the outcomes back in submission order.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/lcsc-lookup/internal/cache"
	"github.com/lepinkainen/lcsc-lookup/internal/catalog"
	lookuperrors "github.com/lepinkainen/lcsc-lookup/internal/errors"
	"github.com/lepinkainen/lcsc-lookup/internal/progress"
	"github.com/lepinkainen/lcsc-lookup/internal/ratelimit"
)

const (
	DefaultWorkers = 8
	// DefaultStagger spaces successive submissions so a large batch does not
	// open a burst of connections against the catalog.
	DefaultStagger = 100 * time.Millisecond
)

// Lookuper resolves a single identifier. Implementations must fold every
// failure into a NotFound outcome.
type Lookuper interface {
	Lookup(ctx context.Context, identifier string) catalog.Outcome
}

// Coordinator runs one batch of lookups.
type Coordinator struct {
	lookup   Lookuper
	workers  int
	stagger  time.Duration
	progress progress.Reporter
	memoize  bool
}

// Option is a functional option for configuring the Coordinator.
type Option func(*Coordinator)

// WithWorkers bounds how many lookups run at once.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithStagger sets the delay between successive submissions. Zero disables it.
func WithStagger(d time.Duration) Option {
	return func(c *Coordinator) {
		if d >= 0 {
			c.stagger = d
		}
	}
}

// WithProgress sets the progress reporter.
func WithProgress(r progress.Reporter) Option {
	return func(c *Coordinator) {
		if r != nil {
			c.progress = r
		}
	}
}

// WithMemo enables memoizing found products for the rest of the run, so a
// code listed twice is only requested once.
func WithMemo(enabled bool) Option {
	return func(c *Coordinator) {
		c.memoize = enabled
	}
}

// NewCoordinator creates a Coordinator around lookup.
func NewCoordinator(lookup Lookuper, opts ...Option) *Coordinator {
	c := &Coordinator{
		lookup:   lookup,
		workers:  DefaultWorkers,
		stagger:  DefaultStagger,
		progress: progress.Nop{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Run looks up every identifier and partitions the outcomes. It always
// processes the whole batch; individual failures only land in Dropped.
func (c *Coordinator) Run(ctx context.Context, identifiers []string) Result {
	c.progress.Start(len(identifiers))
	defer c.progress.Finish()

	limiter := ratelimit.NewInterval("catalog submissions", c.stagger)
	slog.Debug("Submitting lookups", "limiter", limiter.Name(), "interval", c.stagger,
		"workers", c.workers, "count", len(identifiers))
	pending := make([]chan catalog.Outcome, len(identifiers))

	var g errgroup.Group
	g.SetLimit(c.workers)

	for i, id := range identifiers {
		if err := limiter.Wait(ctx); err != nil {
			slog.Debug("Submission stagger interrupted", "identifier", id, "error", err)
		}

		slot := make(chan catalog.Outcome, 1)
		pending[i] = slot
		g.Go(func() error {
			outcome := c.resolve(ctx, id)
			c.progress.Advance()
			slot <- outcome
			return nil
		})
	}

	result := Result{
		Valid:   make([]catalog.Outcome, 0, len(identifiers)),
		Dropped: make([]catalog.Outcome, 0),
	}

	// Await by index, not by completion, so both partitions keep input order.
	for _, slot := range pending {
		outcome := <-slot
		if outcome.Found() {
			result.Valid = append(result.Valid, outcome)
			continue
		}
		slog.Debug("Dropping product code", "identifier", outcome.Identifier, "status", outcome.Status.String(),
			"stage", lookuperrors.LookupStage(outcome.Err), "reason", outcome.Err)
		result.Dropped = append(result.Dropped, outcome)
	}

	_ = g.Wait()
	if c.memoize {
		logMemoSize()
	}
	return result
}

func logMemoSize() {
	db, err := cache.GetGlobalCache()
	if err != nil {
		return
	}
	n, err := db.Count(cache.LookupMemoTable)
	if err != nil {
		slog.Debug("Failed to count lookup memo", "error", err)
		return
	}
	slog.Debug("Lookup memo", "entries", n)
}

func (c *Coordinator) resolve(ctx context.Context, identifier string) (outcome catalog.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Lookup panicked", "identifier", identifier, "panic", r)
			outcome = catalog.NewNotFound(identifier, fmt.Errorf("lookup panicked: %v", r))
		}
	}()

	if !c.memoize {
		return c.lookup.Lookup(ctx, identifier)
	}

	var fetched catalog.Outcome
	product, fromCache, err := cache.GetOrFetchWithPolicy(cache.LookupMemoTable, identifier,
		func() (*catalog.Product, error) {
			fetched = c.lookup.Lookup(ctx, identifier)
			return fetched.Product, nil
		},
		func(p *catalog.Product) bool { return p != nil },
	)
	if err != nil {
		return catalog.NewNotFound(identifier, err)
	}
	if fromCache && product != nil {
		return catalog.NewFound(identifier, *product)
	}
	return fetched
}
