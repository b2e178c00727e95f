// Package batch paces independent tasks into fixed-size, delay-separated
// chunks so that an external service sees at most size requests per delay.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"
)

// Task is one independent unit of work.
type Task[T any] func(ctx context.Context) (T, error)

// Result is the outcome of the task at the same index.
type Result[T any] struct {
	Value T
	Err   error
}

// Pacer spaces chunk starts at least delay apart. One Pacer is shared by
// every Run that talks to the same service, so the spacing holds across
// callers, not just within one Run.
type Pacer struct {
	clk   clock.Clock
	delay time.Duration

	mu   sync.Mutex
	next time.Time
}

// NewPacer returns a Pacer on clk. A nil clk means the wall clock; a delay of
// zero or less never waits.
func NewPacer(clk clock.Clock, delay time.Duration) *Pacer {
	if clk == nil {
		clk = clock.New()
	}
	return &Pacer{clk: clk, delay: delay}
}

// Wait blocks until delay has passed since the previous chunk start, then
// records now as the new start. Waiters are served one at a time.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.delay <= 0 {
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if wait := p.next.Sub(p.clk.Now()); wait > 0 {
		timer := p.clk.Timer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	p.next = p.clk.Now().Add(p.delay)
	return nil
}

// Run executes tasks in consecutive chunks of size. All tasks of a chunk start
// together; the next chunk starts once every task of the current one returned
// and pacer lets it through, so a chunk takes max(slowest task, delay).
// Nothing waits after the last chunk; the pacer carries the spacing over to
// whichever Run uses it next. Results are in task order whatever the
// completion order. A task error never affects other tasks.
//
// size <= 0 runs everything as a single chunk. A nil pacer doesn't pace. When
// ctx ends between chunks, the tasks not yet started report ctx.Err().
func Run[T any](ctx context.Context, pacer *Pacer, size int, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if size <= 0 {
		size = len(tasks)
	}
	for start := 0; start < len(tasks); start += size {
		if err := pacer.Wait(ctx); err != nil {
			for i := start; i < len(tasks); i++ {
				results[i].Err = err
			}
			break
		}
		end := min(start+size, len(tasks))
		runChunk(ctx, tasks[start:end], results[start:end])
	}
	return results
}

// Chunks returns how many chunks Run will use for n tasks.
func Chunks(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

func runChunk[T any](ctx context.Context, tasks []Task[T], results []Result[T]) {
	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			value, err := task(ctx)
			results[i] = Result[T]{Value: value, Err: err}
			return nil
		})
	}
	_ = g.Wait()
}
