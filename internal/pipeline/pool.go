// internal/pipeline/pool.go
package pipeline

import (
	"context"
	"io"
	"runtime"
	"sync"
)

// DefaultWindowFactor sizes the reorder window as a multiple of the worker
// count when Config.Window is zero. The window affects throughput and
// buffered memory only, never output order.
const DefaultWindowFactor = 4

// Config controls a pool run.
type Config struct {
	Workers int // concurrent apply goroutines; <1 means runtime.NumCPU()
	Window  int // max items in flight or buffered unsunk; <=0 means Workers*DefaultWindowFactor
}

// Run pulls items from next, applies apply on Workers goroutines, and hands
// each result to sink in exactly the order next produced its item, no matter
// which worker finished first. Out-of-order results wait in a reorder buffer
// whose occupancy (together with in-flight items) never exceeds the window;
// when the window is full, Run stops pulling from next.
//
// next returns io.EOF to end the stream; any other error stops intake and is
// reported after in-flight items drain. apply must have no side effects
// beyond its return value. sink runs on a single goroutine, is never invoked
// concurrently, and sees no further results after its first error. The first
// failure from next, apply, or sink wins; results sunk before it stay sunk.
// Run returns after the stream is exhausted and every dispatched item has
// been sunk, or after a failure or ctx cancellation has drained the pool.
//
// A Workers value of 1 degenerates to sequential processing and produces
// byte-identical sink calls to any other worker count.
func Run[I, O any](
	ctx context.Context,
	cfg Config,
	next func() (I, error),
	apply func(I) (O, error),
	sink func(O) error,
) error {
	workers := cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	window := cfg.Window
	if window <= 0 {
		window = workers * DefaultWindowFactor
	}
	if window < workers {
		window = workers
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		idx  uint64
		item I
	}
	type result struct {
		idx uint64
		out O
		err error
	}

	jobs := make(chan job)
	results := make(chan result, window)
	// One token per item dispatched but not yet sunk. The collector returns
	// a token only after the in-order sink call, so the reader stalls as
	// soon as window items are in flight or waiting on a straggler.
	tokens := make(chan struct{}, window)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				out, err := apply(j.item)
				select {
				case results <- result{idx: j.idx, out: out, err: err}:
				case <-runCtx.Done():
					return
				}
			}
		}()
	}

	// Collector: holds completed results until all lower indexes have been
	// sunk, then releases them in index order.
	collected := make(chan error, 1)
	go func() {
		var (
			firstErr error
			nextIdx  uint64
			held     = make(map[uint64]result, window)
		)
		for r := range results {
			held[r.idx] = r
			for {
				h, ok := held[nextIdx]
				if !ok {
					break
				}
				delete(held, nextIdx)
				nextIdx++
				if firstErr == nil {
					if h.err != nil {
						firstErr = h.err
						cancel()
					} else if err := sink(h.out); err != nil {
						firstErr = err
						cancel()
					}
				}
				<-tokens
			}
		}
		collected <- firstErr
	}()

	var readErr error
	var idx uint64
intake:
	for {
		item, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			readErr = err
			break
		}
		select {
		case tokens <- struct{}{}:
		case <-runCtx.Done():
			break intake
		}
		select {
		case jobs <- job{idx: idx, item: item}:
			idx++
		case <-runCtx.Done():
			<-tokens
			break intake
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	if err := <-collected; err != nil {
		return err
	}
	if readErr != nil {
		return readErr
	}
	return ctx.Err()
}
