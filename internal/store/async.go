package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/service"
)

var (
	// ErrStale is returned when an operation completes after its store was
	// reset or its initiating context was cancelled. Its result is discarded.
	ErrStale = errors.New("operation result discarded")
	// ErrTimeout is recorded when a service call exceeds the operation timeout.
	ErrTimeout = errors.New("operation timed out")
)

// Outcome is how an operation settled.
type Outcome string

const (
	OutcomeFulfilled Outcome = "fulfilled"
	OutcomeRejected  Outcome = "rejected"
	OutcomeStale     Outcome = "stale"
)

// Observer receives the lifecycle of every operation.
type Observer interface {
	OperationStarted(slice Slice, op string)
	OperationFinished(slice Slice, op string, outcome Outcome, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) OperationStarted(Slice, string)                          {}
func (nopObserver) OperationFinished(Slice, string, Outcome, time.Duration) {}

// operation describes one (store, verb) pair: the service call and the
// transitions it drives. Reducers only replace by id or append, never edit a
// published slice in place.
type operation[T any] struct {
	slice Slice
	name  string
	call  func(ctx context.Context) service.Result[T]

	// optimistic is applied with the pending transition.
	optimistic func(s *State)
	fulfilled  func(s *State, v T)
	// rejected undoes the optimistic change, or clears state a failure invalidates.
	rejected func(s *State, err error)
}

// run drives op through pending, then fulfilled or rejected. The store's
// generation is captured at start; a result arriving after a reset, or after
// ctx is done, is dropped.
func run[T any](ctx context.Context, r *Root, op operation[T]) (T, error) {
	var gen uint64
	r.apply(func(s *State) bool {
		gen = r.gens[op.slice]
		st, _ := s.status(op.slice)
		st.pending++
		st.Loading = true
		st.Error = ""
		if op.optimistic != nil {
			op.optimistic(s)
			r.recompute(op.slice, s)
		}
		return true
	})
	r.observer.OperationStarted(op.slice, op.name)
	r.log.Debug().Str("store", string(op.slice)).Str("op", op.name).Msg("operation pending")
	started := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	v, err := op.call(callCtx).Unwrap()
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		err = ErrTimeout
	}
	cancel()

	outcome := OutcomeFulfilled
	r.apply(func(s *State) bool {
		if r.gens[op.slice] != gen {
			outcome = OutcomeStale
			return false
		}
		st, _ := s.status(op.slice)
		st.pending--
		st.Loading = st.pending > 0
		switch {
		case ctx.Err() != nil:
			outcome = OutcomeStale
			if op.rejected != nil && op.optimistic != nil {
				op.rejected(s, ctx.Err())
			}
		case err != nil:
			outcome = OutcomeRejected
			st.Error = fmt.Sprintf("%s: %v", op.name, err)
			if op.rejected != nil {
				op.rejected(s, err)
			}
		default:
			op.fulfilled(s, v)
			st.LastUpdated = r.now()
		}
		r.recompute(op.slice, s)
		return true
	})

	elapsed := time.Since(started)
	r.observer.OperationFinished(op.slice, op.name, outcome, elapsed)
	log := r.log.With().Str("store", string(op.slice)).Str("op", op.name).Dur("elapsed", elapsed).Logger()
	switch outcome {
	case OutcomeStale:
		log.Debug().Msg("operation result discarded")
		cause := ctx.Err()
		if cause == nil {
			cause = errors.New("store was reset")
		}
		return v, fmt.Errorf("%s: %w: %v", op.name, ErrStale, cause)
	case OutcomeRejected:
		log.Warn().Err(err).Msg("operation rejected")
		return v, fmt.Errorf("%s: %w", op.name, err)
	}
	log.Debug().Msg("operation fulfilled")
	return v, nil
}

// reject records a failure detected before any service call, such as a
// validation error. The store never enters the loading state.
func (r *Root) reject(slice Slice, name string, err error, clear func(s *State)) error {
	r.apply(func(s *State) bool {
		if st, ok := s.status(slice); ok {
			st.Error = fmt.Sprintf("%s: %v", name, err)
		}
		if clear != nil {
			clear(s)
			r.recompute(slice, s)
		}
		return true
	})
	r.observer.OperationFinished(slice, name, OutcomeRejected, 0)
	r.log.Warn().Str("store", string(slice)).Str("op", name).Err(err).Msg("operation rejected before call")
	return fmt.Errorf("%s: %w", name, err)
}
