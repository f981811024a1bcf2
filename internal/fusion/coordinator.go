// Package fusion fans a FusedFeed's sources out across a bounded worker
// pool, tolerates per-source failure, and exposes the merged, sorted entry
// stream.
//
// # Concurrency
//
// Coordinator.Fetch uses golang.org/x/sync/errgroup with SetLimit to cap
// concurrent in-flight fetches at MaxWorkers (default DefaultMaxWorkers).
// Each source fetch races its own fetch-level timeout against the
// Coordinator's outer wait deadline (DefaultWaitTimeout); whichever fires
// first abandons that source's result. A source whose fetch goroutine
// panics is recovered and counted as a failure. It never brings down
// sibling fetches or the overall call.
//
// # Ordering
//
// After Fetch returns, FusedFeed.Sources holds only the sources that
// succeeded this cycle, in completion order rather than their original
// declared order (see DESIGN.md for the accepted tradeoff this carries
// against cache stability on a partial failure). Entries recomputes a
// total order every time it is called: by
// UpdateDate descending, ties broken by each entry's source's position in
// that completion-ordered slice, then by upstream order within the
// source.
package fusion

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fusefeed/fusefeed/internal/feedmodel"
	"github.com/fusefeed/fusefeed/internal/fetch"
)

const (
	// DefaultMaxWorkers is the bounded worker pool size used when
	// Coordinator.MaxWorkers is <= 0.
	DefaultMaxWorkers = 5

	// DefaultWaitTimeout is the coordinator's outer per-cycle deadline,
	// independent of (and racing) each source's own fetch timeout.
	DefaultWaitTimeout = 10 * time.Second

	// DefaultFetchTimeout is the per-source fetch timeout passed to
	// fetch.Fetcher.Fetch.
	DefaultFetchTimeout = 10 * time.Second
)

// Coordinator fetches a FusedFeed's sources concurrently.
type Coordinator struct {
	Fetcher      *fetch.Fetcher
	MaxWorkers   int
	WaitTimeout  time.Duration
	FetchTimeout time.Duration
}

// New returns a Coordinator with a fresh fetch.Fetcher and default limits.
func New() *Coordinator {
	return &Coordinator{
		Fetcher:      fetch.New(),
		MaxWorkers:   DefaultMaxWorkers,
		WaitTimeout:  DefaultWaitTimeout,
		FetchTimeout: DefaultFetchTimeout,
	}
}

// Fetch fetches every source in ff concurrently, bounded by c.MaxWorkers,
// and replaces ff.Sources with the subset that succeeded. It always
// returns nil: a source that times out, errors, or panics is logged and
// dropped, and the cycle as a whole succeeds even if every source fails.
func (c *Coordinator) Fetch(ctx context.Context, ff *feedmodel.FusedFeed) error {
	maxWorkers := c.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	waitTimeout := c.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = DefaultWaitTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, waitTimeout)
	defer cancel()

	sources := ff.Sources

	var mu sync.Mutex
	successes := make([]*feedmodel.Source, 0, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for _, src := range sources {
		src := src
		g.Go(func() error {
			result := c.fetchOne(gctx, src)
			if result == nil {
				return nil
			}
			mu.Lock()
			successes = append(successes, result)
			mu.Unlock()
			return nil
		})
	}
	// errgroup's inner goroutines never return an error (failures are
	// represented as a nil result, not an error), and Fetch itself never
	// fails the cycle, so the return value is deliberately discarded.
	_ = g.Wait()

	// successes was built by append under mu as each goroutine finished,
	// so its order is true completion order, not declared order. Sources
	// still in flight when ctx expires never append and are dropped.
	ff.Sources = successes
	return nil
}

// fetchOne fetches a single source, recovering from any panic in the
// fetch path and treating it as a failure.
func (c *Coordinator) fetchOne(ctx context.Context, src *feedmodel.Source) (result *feedmodel.Source) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("fusion: source %s panicked during fetch: %v", src.URI, r)
			result = nil
		}
	}()
	return c.Fetcher.Fetch(ctx, src, c.fetchTimeoutOrDefault())
}

func (c *Coordinator) fetchTimeoutOrDefault() time.Duration {
	if c.FetchTimeout <= 0 {
		return DefaultFetchTimeout
	}
	return c.FetchTimeout
}

// Entries returns the merged view across ff.Sources: sorted by UpdateDate
// descending, ties broken by source order within ff.Sources, then by each
// source's own upstream entry order. The sort must be, and is, stable.
func Entries(ff *feedmodel.FusedFeed) []feedmodel.Entry {
	var all []feedmodel.Entry
	for _, src := range ff.Sources {
		all = append(all, src.Entries...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].UpdateDate.After(all[j].UpdateDate)
	})
	return all
}
