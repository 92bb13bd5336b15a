package rdf

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

// scheduler dispatches the engine's logical recursive steps.
//
// It keeps three budgets: nested steps per stack (after maxDepth nested steps the
// continuation runs on a fresh goroutine so no single stack grows without bound), run
// time per slice (after which it yields the processor and checks for cancellation),
// and total steps for the whole run (exceeding it aborts with ErrBudgetExceeded).
//
// The scheduler is not safe for concurrent use. A hop hands control to the new
// goroutine and blocks until it returns, so only one goroutine touches it at a time.
type scheduler struct {
	ctx      context.Context
	maxDepth int
	maxSteps uint64
	slice    time.Duration

	depth      int
	steps      uint64
	sliceStart time.Time

	hops   int
	yields int
}

func newScheduler(ctx context.Context, opts CanonOptions) *scheduler {
	return &scheduler{
		ctx:        ctx,
		maxDepth:   opts.MaxRecursionDepth,
		maxSteps:   opts.MaxTotalSteps,
		slice:      opts.TimeSlice,
		sliceStart: time.Now(),
	}
}

// do runs fn as one step.
func (s *scheduler) do(fn func() error) error {
	s.steps++
	if s.steps > s.maxSteps {
		return fmt.Errorf("%w: more than %d steps", ErrBudgetExceeded, s.maxSteps)
	}
	if time.Since(s.sliceStart) >= s.slice {
		if err := s.yield(); err != nil {
			return err
		}
	}
	if s.depth >= s.maxDepth {
		return s.hop(fn)
	}
	s.depth++
	defer func() { s.depth-- }()
	return fn()
}

func (s *scheduler) yield() error {
	s.yields++
	runtime.Gosched()
	if err := s.ctx.Err(); err != nil {
		return err
	}
	s.sliceStart = time.Now()
	return nil
}

// hop runs fn on a new goroutine with the depth counter reset and waits for it.
// A panic in fn is re-raised on the calling goroutine.
func (s *scheduler) hop(fn func() error) error {
	saved := s.depth
	s.hops++

	type outcome struct {
		err      error
		panicked bool
		value    interface{}
	}
	done := make(chan outcome, 1)
	go func() {
		var out outcome
		defer func() {
			if r := recover(); r != nil {
				out = outcome{panicked: true, value: r}
			}
			done <- out
		}()
		s.depth = 1
		out.err = fn()
	}()
	out := <-done
	s.depth = saved
	if out.panicked {
		panic(out.value)
	}
	return out.err
}
