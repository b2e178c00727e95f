package batch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/addrscout/util/batch"
)

func waitStarts(t *testing.T, started <-chan int, n int) []int {
	t.Helper()
	var got []int
	for len(got) < n {
		select {
		case i := <-started:
			got = append(got, i)
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d tasks started", len(got), n)
		}
	}
	return got
}

func TestRunPacesChunks(t *testing.T) {
	const delay = time.Second
	mock := clock.NewMock()
	t0 := mock.Now()

	var mu sync.Mutex
	startedAt := make([]time.Time, 4)
	started := make(chan int, 4)
	tasks := make([]batch.Task[int], 4)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) {
			mu.Lock()
			startedAt[i] = mock.Now()
			mu.Unlock()
			started <- i
			return i * 10, nil
		}
	}

	done := make(chan []batch.Result[int], 1)
	go func() {
		done <- batch.Run(context.Background(), batch.NewPacer(mock, delay), 2, tasks)
	}()

	assert.ElementsMatch(t, []int{0, 1}, waitStarts(t, started, 2))

	// the first chunk finished instantly, but the delay hasn't elapsed yet
	mock.Add(delay - time.Millisecond)
	select {
	case i := <-started:
		t.Fatalf("task %d started before the batch delay elapsed", i)
	case <-time.After(50 * time.Millisecond):
	}

	mock.Add(time.Millisecond)
	assert.ElementsMatch(t, []int{2, 3}, waitStarts(t, started, 2))

	// no wait after the last chunk
	var results []batch.Result[int]
	select {
	case results = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept waiting after its last chunk")
	}

	require.Len(t, results, 4)
	for i, r := range results {
		assert.NoError(t, r.Err)
		assert.Equal(t, i*10, r.Value)
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, t0, startedAt[0])
	assert.Equal(t, t0, startedAt[1])
	assert.False(t, startedAt[2].Before(t0.Add(delay)))
	assert.False(t, startedAt[3].Before(t0.Add(delay)))
}

func TestRunKeepsOrderAndIsolatesErrors(t *testing.T) {
	boom := errors.New("boom")
	tasks := []batch.Task[string]{
		func(ctx context.Context) (string, error) {
			time.Sleep(30 * time.Millisecond)
			return "slow", nil
		},
		func(ctx context.Context) (string, error) {
			return "", boom
		},
		func(ctx context.Context) (string, error) {
			return "fast", nil
		},
	}
	results := batch.Run(context.Background(), nil, 3, tasks)
	require.Len(t, results, 3)
	assert.Equal(t, "slow", results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, "fast", results[2].Value)
	assert.NoError(t, results[2].Err)
}

func TestRunDelayOverlapsRequests(t *testing.T) {
	task := func(ctx context.Context) (int, error) {
		time.Sleep(100 * time.Millisecond)
		return 1, nil
	}
	start := time.Now()
	batch.Run(context.Background(), batch.NewPacer(clock.New(), 300*time.Millisecond), 1, []batch.Task[int]{task, task})
	elapsed := time.Since(start)
	// the second chunk starts 300ms after the first and runs 100ms
	assert.GreaterOrEqual(t, elapsed, 400*time.Millisecond)
	// the first task's 100ms overlaps the delay instead of adding to it
	assert.Less(t, elapsed, 480*time.Millisecond)
}

func TestRunSkipsDelayAfterLastChunk(t *testing.T) {
	tasks := []batch.Task[int]{
		func(ctx context.Context) (int, error) { return 1, nil },
	}
	start := time.Now()
	results := batch.Run(context.Background(), batch.NewPacer(clock.New(), time.Hour), 5, tasks)
	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Value)
}

func TestPacerSpacesConcurrentRuns(t *testing.T) {
	const delay = time.Second
	mock := clock.NewMock()
	t0 := mock.Now()
	pacer := batch.NewPacer(mock, delay)

	started := make(chan time.Time, 2)
	task := func(ctx context.Context) (int, error) {
		started <- mock.Now()
		return 0, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			batch.Run(context.Background(), pacer, 1, []batch.Task[int]{task})
		}()
	}

	first := <-started
	assert.Equal(t, t0, first)
	select {
	case at := <-started:
		t.Fatalf("second run started at %s, inside the delay of the first", at)
	case <-time.After(50 * time.Millisecond):
	}

	mock.Add(delay)
	select {
	case second := <-started:
		assert.False(t, second.Before(first.Add(delay)))
	case <-time.After(2 * time.Second):
		t.Fatal("second run never started")
	}
	wg.Wait()
}

func TestPacerWaitHonoursCancel(t *testing.T) {
	mock := clock.NewMock()
	pacer := batch.NewPacer(mock, time.Hour)
	require.NoError(t, pacer.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- pacer.Wait(ctx) }()
	cancel()
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait ignored the cancelled context")
	}
}

func TestRunStopsSchedulingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	calls := 0
	tasks := make([]batch.Task[int], 3)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return i, nil
		}
	}
	results := batch.Run(ctx, batch.NewPacer(clock.New(), time.Hour), 1, tasks)
	assert.Equal(t, 1, calls)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, context.Canceled)
	assert.ErrorIs(t, results[2].Err, context.Canceled)
}

func TestChunks(t *testing.T) {
	assert.Equal(t, 0, batch.Chunks(0, 5))
	assert.Equal(t, 2, batch.Chunks(10, 5))
	assert.Equal(t, 3, batch.Chunks(11, 5))
	assert.Equal(t, 1, batch.Chunks(11, 0))
	assert.Equal(t, 0, len(batch.Run[int](context.Background(), nil, 2, nil)))
}
