package estimate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultTimeout is the wall clock budget for one estimate.
const DefaultTimeout = 5 * time.Second

var (
	// ErrSuperseded means a newer Submit replaced this one.
	ErrSuperseded = errors.New("estimate superseded by newer request")
	ErrTimeout    = errors.New("estimate timed out")
)

// Estimator is the work a Runner schedules.
type Estimator interface {
	Run(ctx context.Context, a Asset) (*Facts, error)
}

type runResult struct {
	facts *Facts
	err   error
}

// Runner keeps at most one estimate current. Submitting a new asset cancels
// the in-flight one and its result is discarded.
type Runner struct {
	est     Estimator
	timeout time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewRunner wraps est. A timeout of zero uses DefaultTimeout.
func NewRunner(est Estimator, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{est: est, timeout: timeout}
}

// Submit runs a and blocks until it finishes, times out, or is superseded.
func (r *Runner) Submit(ctx context.Context, a Asset) (*Facts, error) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if r.cancel != nil {
		r.cancel()
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	r.cancel = cancel
	r.mu.Unlock()
	defer cancel()

	ch := make(chan runResult, 1)
	go func() {
		facts, err := r.est.Run(ctx, a)
		ch <- runResult{facts: facts, err: err}
	}()

	var res runResult
	select {
	case res = <-ch:
	case <-ctx.Done():
		res.err = ctx.Err()
	}

	if !r.current(gen) {
		return nil, ErrSuperseded
	}
	if res.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
	}
	return res.facts, res.err
}

func (r *Runner) current(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen == r.gen
}
