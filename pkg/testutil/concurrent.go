package testutil

import (
	"errors"
	"sync"

	"tenancy/internal/sentinel"
	dErrors "tenancy/pkg/domain-errors"
)

// RaceResult tallies how a batch of racing calls ended.
type RaceResult struct {
	Successes int32
	Conflicts int32
	Errors    int32
	// Failures keeps every non-conflict error for assertion messages.
	Failures []error
}

// RunConcurrent starts n goroutines, holds them at a gate until all are
// running, then releases them together into fn. A conflict is either a
// dErrors conflict or a store-level sentinel.ErrAlreadyUsed.
func RunConcurrent(n int, fn func(idx int) error) *RaceResult {
	var (
		ready sync.WaitGroup
		done  sync.WaitGroup
		mu    sync.Mutex
		res   RaceResult
	)
	gate := make(chan struct{})

	ready.Add(n)
	done.Add(n)
	for i := range n {
		go func() {
			defer done.Done()
			ready.Done()
			<-gate
			err := fn(i)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Successes++
			case dErrors.HasCode(err, dErrors.CodeConflict), errors.Is(err, sentinel.ErrAlreadyUsed):
				res.Conflicts++
			default:
				res.Errors++
				res.Failures = append(res.Failures, err)
			}
		}()
	}
	ready.Wait()
	close(gate)
	done.Wait()
	return &res
}
