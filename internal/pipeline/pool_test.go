package pipeline

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"
)

// intSource yields 0..n-1 then io.EOF.
func intSource(n int) func() (int, error) {
	i := 0
	return func() (int, error) {
		if i >= n {
			return 0, io.EOF
		}
		v := i
		i++
		return v, nil
	}
}

func TestRunPreservesOrder(t *testing.T) {
	const n = 1000
	rng := rand.New(rand.NewSource(7))
	var got []int
	err := Run(context.Background(), Config{Workers: 8}, intSource(n),
		func(v int) (int, error) {
			// Jitter so completion order differs from dispatch order.
			time.Sleep(time.Duration(rng.Intn(100)) * time.Microsecond)
			return v * 2, nil
		},
		func(v int) error {
			got = append(got, v)
			return nil
		})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(got) != n {
		t.Fatalf("sunk %d results, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i*2 {
			t.Fatalf("got[%d] = %d, want %d", i, v, i*2)
		}
	}
}

func TestRunSingleWorkerMatchesMany(t *testing.T) {
	const n = 500
	collect := func(workers int) []int {
		var got []int
		err := Run(context.Background(), Config{Workers: workers}, intSource(n),
			func(v int) (int, error) { return v * v, nil },
			func(v int) error {
				got = append(got, v)
				return nil
			})
		if err != nil {
			t.Fatalf("run workers=%d: %v", workers, err)
		}
		return got
	}
	one := collect(1)
	many := collect(16)
	if len(one) != len(many) {
		t.Fatalf("length mismatch: %d vs %d", len(one), len(many))
	}
	for i := range one {
		if one[i] != many[i] {
			t.Fatalf("result %d differs: %d vs %d", i, one[i], many[i])
		}
	}
}

func TestRunWindowBoundsIntake(t *testing.T) {
	const window = 4
	var pulled int64
	release := make(chan struct{})
	go func() {
		time.Sleep(100 * time.Millisecond)
		close(release)
	}()

	src := intSource(100)
	err := Run(context.Background(), Config{Workers: 2, Window: window},
		func() (int, error) {
			v, err := src()
			if err == nil {
				atomic.AddInt64(&pulled, 1)
			}
			if err == nil && atomic.LoadInt64(&pulled) == int64(window+2) {
				select {
				case <-release:
					// Straggler done, intake is free to continue.
				default:
					t.Errorf("pulled %d items while the window held %d", window+2, window)
				}
			}
			return v, err
		},
		func(v int) (int, error) {
			if v == 0 {
				<-release
			}
			return v, nil
		},
		func(int) error { return nil })
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunApplyErrorStopsStream(t *testing.T) {
	boom := errors.New("boom")
	var got []int
	err := Run(context.Background(), Config{Workers: 4}, intSource(100),
		func(v int) (int, error) {
			if v == 5 {
				return 0, boom
			}
			return v, nil
		},
		func(v int) error {
			got = append(got, v)
			return nil
		})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	// The sink sees exactly the in-order prefix before the failing index.
	if len(got) != 5 {
		t.Fatalf("sunk %d results, want 5", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d, want %d", i, v, i)
		}
	}
}

func TestRunSinkErrorStopsStream(t *testing.T) {
	boom := errors.New("disk full")
	var calls int
	err := Run(context.Background(), Config{Workers: 4}, intSource(100),
		func(v int) (int, error) { return v, nil },
		func(v int) error {
			calls++
			if v == 3 {
				return boom
			}
			return nil
		})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if calls != 4 {
		t.Fatalf("sink called %d times, want 4", calls)
	}
}

func TestRunReadErrorReportedAfterDrain(t *testing.T) {
	torn := errors.New("truncated stream")
	i := 0
	var got []int
	err := Run(context.Background(), Config{Workers: 4},
		func() (int, error) {
			if i >= 10 {
				return 0, torn
			}
			v := i
			i++
			return v, nil
		},
		func(v int) (int, error) { return v, nil },
		func(v int) error {
			got = append(got, v)
			return nil
		})
	if !errors.Is(err, torn) {
		t.Fatalf("err = %v, want %v", err, torn)
	}
	if len(got) != 10 {
		t.Fatalf("sunk %d results before the read error, want 10", len(got))
	}
}

func TestRunEmptySource(t *testing.T) {
	err := Run(context.Background(), Config{Workers: 4}, intSource(0),
		func(v int) (int, error) { return v, nil },
		func(int) error {
			t.Fatal("sink called on empty source")
			return nil
		})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	i := 0
	err := Run(ctx, Config{Workers: 4},
		func() (int, error) {
			if i == 10 {
				cancel()
			}
			i++
			return i, nil
		},
		func(v int) (int, error) { return v, nil },
		func(int) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunDefaultsWindow(t *testing.T) {
	// Window <= 0 must still drain a stream much larger than any default.
	const n = 5000
	var sunk int
	err := Run(context.Background(), Config{Workers: 3}, intSource(n),
		func(v int) (int, error) { return v, nil },
		func(int) error {
			sunk++
			return nil
		})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sunk != n {
		t.Fatalf("sunk %d, want %d", sunk, n)
	}
}
