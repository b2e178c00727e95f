// Package resolver turns the unresolved addresses of an origin into names.
//
// A pass reads the origin's list, takes whatever the name cache already knows,
// and sends the rest through the configured Strategy in paced batches. Every
// answer, including "no name", is cached so an address is looked up once.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/tranvictor/addrscout/common"
	"github.com/tranvictor/addrscout/names"
	"github.com/tranvictor/addrscout/origins"
	"github.com/tranvictor/addrscout/util/batch"
	"github.com/tranvictor/addrscout/util/logging"
	"github.com/tranvictor/addrscout/util/metrics"
)

type Resolver struct {
	origins  *origins.Store
	names    *names.Cache
	strategy Strategy

	clock      clock.Clock
	logger     *zap.Logger
	onResolved func(addr ethcommon.Address, name string)

	// pacer is shared by every pass so the strategy's rate bound holds
	// process-wide; passes holds one token so passes run one at a time.
	pacer  *batch.Pacer
	passes chan struct{}
}

type Option func(*Resolver)

func WithClock(c clock.Clock) Option {
	return func(r *Resolver) {
		r.clock = c
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.OrNop(l).Named("resolver")
	}
}

// WithOnResolved registers fn to be called for every freshly looked up name,
// after it was cached.
func WithOnResolved(fn func(addr ethcommon.Address, name string)) Option {
	return func(r *Resolver) {
		r.onResolved = fn
	}
}

func New(store *origins.Store, cache *names.Cache, strategy Strategy, opts ...Option) *Resolver {
	r := &Resolver{
		origins:  store,
		names:    cache,
		strategy: strategy,
		clock:    clock.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.pacer = batch.NewPacer(r.clock, strategy.BatchDelay())
	r.passes = make(chan struct{}, 1)
	return r
}

// ResolveNames resolves the host's addresses, writes the names back into the
// host's list and returns the cached items followed by the newly resolved
// ones.
func (r *Resolver) ResolveNames(ctx context.Context, host string) ([]common.AddressItem, error) {
	items, err := r.origins.Get(ctx, host)
	if err != nil {
		return nil, err
	}
	merged, err := r.ResolveItems(ctx, items)
	if err != nil {
		return nil, err
	}

	resolved := make(map[ethcommon.Address]string, len(merged))
	for _, item := range merged {
		if item.Resolved() {
			resolved[item.Address] = *item.Name
		}
	}
	// merge into the list as it is now; scans may have appended meanwhile
	err = r.origins.Update(context.WithoutCancel(ctx), host, func(current []common.AddressItem) []common.AddressItem {
		for i, item := range current {
			if name, ok := resolved[item.Address]; ok {
				current[i] = item.WithName(name)
			}
		}
		return current
	})
	if err != nil {
		return nil, fmt.Errorf("saving names for %s: %w", host, err)
	}
	return merged, nil
}

// ResolveItems resolves an arbitrary set of items without touching any
// origin. Items whose lookup was cut short by ctx come back unresolved.
func (r *Resolver) ResolveItems(ctx context.Context, items []common.AddressItem) ([]common.AddressItem, error) {
	select {
	case r.passes <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-r.passes }()

	withNames, withoutNames, err := r.names.Partition(ctx, items)
	if err != nil {
		return nil, err
	}
	withoutNames = unique(withoutNames)
	if len(withoutNames) == 0 {
		return withNames, nil
	}

	size := r.strategy.RequestsPerBatch()
	r.logger.Info("resolving names",
		zap.String("strategy", r.strategy.Name()),
		zap.Int("cached", len(withNames)),
		zap.Int("pending", len(withoutNames)),
		zap.Int("batches", batch.Chunks(len(withoutNames), size)),
	)

	tasks := make([]batch.Task[string], len(withoutNames))
	for i, item := range withoutNames {
		addr := item.Address
		tasks[i] = func(ctx context.Context) (string, error) {
			return r.fetch(ctx, addr)
		}
	}
	results := batch.Run(ctx, r.pacer, size, tasks)

	// answers already paid for are kept even if the caller went away
	writeCtx := context.WithoutCancel(ctx)
	merged := withNames
	for i, res := range results {
		item := withoutNames[i]
		name := res.Value
		if res.Err != nil {
			if isCanceled(res.Err) {
				metrics.LookupsTotal.WithLabelValues(r.strategy.Name(), metrics.OutcomeCanceled).Inc()
				merged = append(merged, item)
				continue
			}
			r.logger.Debug("lookup failed, recording no name",
				zap.String("address", item.Address.Hex()),
				zap.Error(res.Err),
			)
			name = ""
		}
		if err := r.names.Store(writeCtx, item.Address, name); err != nil {
			return nil, err
		}
		if r.onResolved != nil {
			r.onResolved(item.Address, name)
		}
		merged = append(merged, item.WithName(name))
	}
	return merged, nil
}

func (r *Resolver) fetch(ctx context.Context, addr ethcommon.Address) (string, error) {
	strategy := r.strategy.Name()
	start := time.Now()
	name, err := r.strategy.FetchOne(ctx, addr)
	metrics.LookupDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
	switch {
	case err != nil && isCanceled(err):
		// counted by the caller
	case err != nil:
		metrics.LookupsTotal.WithLabelValues(strategy, metrics.OutcomeFailed).Inc()
	case name == "":
		metrics.LookupsTotal.WithLabelValues(strategy, metrics.OutcomeNoName).Inc()
	default:
		metrics.LookupsTotal.WithLabelValues(strategy, metrics.OutcomeNamed).Inc()
	}
	return name, err
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func unique(items []common.AddressItem) []common.AddressItem {
	seen := make(map[ethcommon.Address]bool, len(items))
	result := items[:0:0]
	for _, item := range items {
		if seen[item.Address] {
			continue
		}
		seen[item.Address] = true
		result = append(result, item)
	}
	return result
}
