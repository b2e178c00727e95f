// Package service runs extraction and resolution as queued tasks. Callers
// enqueue work and wait for its result; a caller that stops waiting does not
// cancel the task, so whatever it writes still lands.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tranvictor/addrscout/common"
	"github.com/tranvictor/addrscout/extractor"
	"github.com/tranvictor/addrscout/origins"
	"github.com/tranvictor/addrscout/resolver"
	"github.com/tranvictor/addrscout/util/logging"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
)

var ErrStopped = errors.New("dispatcher is stopped")

type taskKind string

const (
	kindExtract taskKind = "extract"
	kindResolve taskKind = "resolve"
)

type task struct {
	id   string
	kind taskKind
	run  func(ctx context.Context)
}

type Dispatcher struct {
	extractor *extractor.Extractor
	resolver  *resolver.Resolver
	origins   *origins.Store
	logger    *zap.Logger

	workers  int
	queue    chan task
	stopping chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	started bool
	stopped bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

type Option func(*Dispatcher)

func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.queue = make(chan task, n)
		}
	}
}

func New(ex *extractor.Extractor, res *resolver.Resolver, store *origins.Store, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		extractor: ex,
		resolver:  res,
		origins:   store,
		logger:    logging.OrNop(logger).Named("dispatcher"),
		workers:   DefaultWorkers,
		queue:     make(chan task, DefaultQueueSize),
		stopping:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the workers. Tasks run under a context derived from ctx;
// cancelling it aborts in-flight lookups but not already-started writes.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work(ctx)
	}
}

// Stop lets the workers finish every queued task, then waits for them.
// Callers still blocked on a full queue get ErrStopped.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopping) })
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	if d.cancel != nil {
		d.cancel()
	}
}

func (d *Dispatcher) work(ctx context.Context) {
	defer d.wg.Done()
	for t := range d.queue {
		d.logger.Debug("task started", zap.String("id", t.id), zap.String("kind", string(t.kind)))
		t.run(ctx)
	}
}

func (d *Dispatcher) enqueue(ctx context.Context, kind taskKind, run func(ctx context.Context)) (string, error) {
	t := task{id: uuid.NewString(), kind: kind, run: run}

	// Stop closes stopping before taking the write lock, so a sender blocked
	// here lets go of the read lock.
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return "", ErrStopped
	}
	select {
	case d.queue <- t:
		return t.id, nil
	case <-d.stopping:
		return "", ErrStopped
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// OnResourceLoaded scans body, loaded from url by a page of originURL, and
// waits for the scan to finish. originURL may be a full initiator URL or a
// bare host; an empty one makes this a no-op.
func (d *Dispatcher) OnResourceLoaded(ctx context.Context, url, originURL string, body []byte) (extractor.Report, error) {
	host := common.HostFromURL(originURL)
	type outcome struct {
		report extractor.Report
		err    error
	}
	done := make(chan outcome, 1)
	id, err := d.enqueue(ctx, kindExtract, func(workerCtx context.Context) {
		report, err := d.extractor.Scan(workerCtx, url, host, string(body))
		done <- outcome{report, err}
	})
	if err != nil {
		return extractor.Report{URL: url, Origin: host}, err
	}
	select {
	case o := <-done:
		if o.err != nil {
			d.logger.Warn("scan failed", zap.String("id", id), zap.String("url", url), zap.Error(o.err))
		}
		return o.report, o.err
	case <-ctx.Done():
		return extractor.Report{URL: url, Origin: host}, ctx.Err()
	}
}

// ResolveNames queues a resolution pass for host and returns its display
// list once the pass is over.
func (d *Dispatcher) ResolveNames(ctx context.Context, host string) ([]common.AddressItem, error) {
	host = common.HostFromURL(host)
	done := make(chan error, 1)
	id, err := d.enqueue(ctx, kindResolve, func(workerCtx context.Context) {
		_, err := d.resolver.ResolveNames(workerCtx, host)
		done <- err
	})
	if err != nil {
		return nil, err
	}
	select {
	case err := <-done:
		if err != nil {
			d.logger.Warn("resolution failed", zap.String("id", id), zap.String("host", host), zap.Error(err))
			return nil, err
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return d.DisplayList(ctx, host)
}

// DisplayList reads the host's list in presentation order.
func (d *Dispatcher) DisplayList(ctx context.Context, host string) ([]common.AddressItem, error) {
	return d.origins.DisplayList(ctx, common.HostFromURL(host))
}

func (d *Dispatcher) Hosts(ctx context.Context) ([]string, error) {
	return d.origins.Hosts(ctx)
}
