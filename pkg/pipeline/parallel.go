package pipeline

import (
	"context"
	"runtime"
	"sync"
)

// ForEach calls fn for every index in [0, n) on up to workers goroutines.
// It stops handing out indices after the first error or when ctx is done,
// and returns that error. workers <= 0 selects runtime.NumCPU().
func ForEach(ctx context.Context, n, workers int, fn func(index int) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	errChan := make(chan error, 1)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := fn(idx); err != nil {
					select {
					case errChan <- err:
					default:
					}
					cancel()
					return
				}
			}
		}()
	}

	var stopped error
send:
	for i := 0; i < n; i++ {
		if stopped = ctx.Err(); stopped != nil {
			break
		}
		select {
		case jobs <- i:
		case <-ctx.Done():
			stopped = ctx.Err()
			break send
		}
	}
	close(jobs)
	wg.Wait()

	select {
	case err := <-errChan:
		return err
	default:
	}
	return stopped
}
