package logger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

var (
	warnCount  int64
	errorCount int64

	fetchOK       int64
	fetchFailures sync.Map // map[string]*int64, keyed by failure kind
	rowsExported  int64
	filesWritten  int64
)

func recordWarn(component string) {
	_ = component
	atomic.AddInt64(&warnCount, 1)
}

func recordError(component string) {
	_ = component
	atomic.AddInt64(&errorCount, 1)
}

// IncrementFetchOK records one successfully fetched symbol.
func IncrementFetchOK() {
	atomic.AddInt64(&fetchOK, 1)
}

// IncrementFetchFailure records one failed symbol keyed by failure kind.
func IncrementFetchFailure(kind string) {
	v, _ := fetchFailures.LoadOrStore(kind, new(int64))
	atomic.AddInt64(v.(*int64), 1)
}

// IncrementRowsExported records rows written by the exporter.
func IncrementRowsExported(n int) {
	atomic.AddInt64(&rowsExported, int64(n))
}

// IncrementFilesWritten records one produced output file.
func IncrementFilesWritten() {
	atomic.AddInt64(&filesWritten, 1)
}

func snapshotFailures() map[string]int64 {
	out := make(map[string]int64)
	fetchFailures.Range(func(k, v any) bool {
		out[k.(string)] = atomic.LoadInt64(v.(*int64))
		return true
	})
	return out
}

func reportFields() Fields {
	fields := Fields{
		"fetch_ok":      atomic.LoadInt64(&fetchOK),
		"rows_exported": atomic.LoadInt64(&rowsExported),
		"files_written": atomic.LoadInt64(&filesWritten),
		"warns":         atomic.LoadInt64(&warnCount),
		"errors":        atomic.LoadInt64(&errorCount),
	}
	for kind, n := range snapshotFailures() {
		fields["fetch_fail_"+kind] = n
	}
	return fields
}

// Report logs a one-shot summary of the run counters.
func Report(log *Log) {
	log.WithComponent("report").WithFields(reportFields()).Info("run summary")
}

// StartReport periodically logs the run counters until the context is
// cancelled. Useful for long fetches over large universes.
func StartReport(ctx context.Context, log *Log, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				Report(log)
			}
		}
	}()
}
