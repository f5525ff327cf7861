package scanner

import (
	"context"
	"sync"

	"tunevault/internal/metrics"
)

// runPool runs workers extraction goroutines draining jobs into results.
// Workers stop between files when ctx is cancelled; a file already being
// extracted finishes normally. results is closed once all workers exit.
func runPool(ctx context.Context, workers int, jobs <-chan DiscoveredFile, results chan<- ExtractedFile) {
	metrics.ScanWorkers.Set(float64(workers))

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case f, open := <-jobs:
					if !open {
						return
					}
					out := extract(f)
					if out.Err != nil {
						metrics.ScanFilesProcessed.WithLabelValues("error").Inc()
					} else {
						metrics.ScanFilesProcessed.WithLabelValues("ok").Inc()
					}
					select {
					case results <- out:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()
}
