// Package testutil holds shared test helpers.
package testutil

import (
	"sync"
	"sync/atomic"

	dErrors "github.com/mahavirb22/EventLens/pkg/domain-errors"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes     int32
	Conflicts     int32
	NotAuthorized int32
	Errors        int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.NotAuthorized + r.Errors
}

// RunConcurrent executes fn in parallel goroutines and categorizes each
// outcome by domain error code. This replaces the common WaitGroup plus
// atomic-counter pattern in race tests.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, conflicts, notAuthorized, errs atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNotAuthorized):
				notAuthorized.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	wg.Wait()

	return &ConcurrentResult{
		Successes:     successes.Load(),
		Conflicts:     conflicts.Load(),
		NotAuthorized: notAuthorized.Load(),
		Errors:        errs.Load(),
	}
}
