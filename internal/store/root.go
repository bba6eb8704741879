// Package store is the client-side financial state: four domain stores composed
// under one root, each mutated only through its own transitions.
package store

import (
	"sync"
	"time"

	"fintrack/internal/service"

	"github.com/rs/zerolog"
)

const (
	DefaultTimeout  = 10 * time.Second
	DefaultPageSize = 20
)

// Root composes the domain stores and is the single subscription point.
// All transitions commit under one lock, so a snapshot is always the result of
// whole transitions.
type Root struct {
	Auth         *AuthStore
	Transactions *TransactionStore
	Budgets      *BudgetStore
	Investments  *InvestmentStore

	mu      sync.Mutex
	state   State
	gens    map[Slice]uint64
	version uint64

	notifyMu sync.Mutex
	notified uint64

	listenersMu sync.Mutex
	listeners   []listener
	nextID      int

	log      zerolog.Logger
	timeout  time.Duration
	observer Observer
	now      func() time.Time
	pageSize int
}

type listener struct {
	id int
	fn func(State)
}

// Option configures a Root.
type Option func(*Root)

// WithLogger sets the logger of store transitions.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Root) { r.log = l.With().Str("component", "store").Logger() }
}

// WithTimeout bounds every service call made by an operation.
func WithTimeout(d time.Duration) Option {
	return func(r *Root) { r.timeout = d }
}

// WithObserver registers an observer of operation lifecycles.
func WithObserver(o Observer) Option {
	return func(r *Root) { r.observer = o }
}

// WithClock sets the time source used for timestamps and validation.
func WithClock(now func() time.Time) Option {
	return func(r *Root) { r.now = now }
}

// WithPageSize sets the transaction page size.
func WithPageSize(n int) Option {
	return func(r *Root) { r.pageSize = n }
}

// New creates the root store over svc.
func New(svc service.Services, opts ...Option) *Root {
	r := &Root{
		gens:     make(map[Slice]uint64),
		log:      zerolog.Nop(),
		timeout:  DefaultTimeout,
		observer: nopObserver{},
		now:      time.Now,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.Auth = &AuthStore{root: r, svc: svc.Auth}
	r.Transactions = &TransactionStore{root: r, svc: svc.Transactions}
	r.Budgets = &BudgetStore{root: r, svc: svc.Budgets}
	r.Investments = &InvestmentStore{root: r, svc: svc.Investments}

	for _, slice := range Slices {
		r.resetSlice(&r.state, slice)
	}
	return r
}

// GetState returns a snapshot of every slice.
func (r *Root) GetState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe registers fn to receive every committed state, in commit order.
// Listeners run synchronously and must not dispatch from inside the callback.
func (r *Root) Subscribe(fn func(State)) (unsubscribe func()) {
	r.listenersMu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners[:len(r.listeners):len(r.listeners)], listener{id: id, fn: fn})
	r.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.listenersMu.Lock()
			defer r.listenersMu.Unlock()
			kept := make([]listener, 0, len(r.listeners))
			for _, l := range r.listeners {
				if l.id != id {
					kept = append(kept, l)
				}
			}
			r.listeners = kept
		})
	}
}

// Dispatch applies a synchronous action.
func (r *Root) Dispatch(a Action) {
	r.apply(func(s *State) bool {
		slice := a.reduce(s)
		r.recompute(slice, s)
		return true
	})
	r.log.Debug().Str("action", a.name()).Msg("action applied")
}

// Reset discards every slice. Operations still in flight are ignored when they complete.
func (r *Root) Reset() {
	for _, slice := range Slices {
		r.reset(slice)
	}
}

func (r *Root) reset(slice Slice) {
	r.apply(func(s *State) bool {
		r.gens[slice]++
		r.resetSlice(s, slice)
		return true
	})
	r.log.Debug().Str("store", string(slice)).Msg("store reset")
}

func (r *Root) resetSlice(s *State, slice Slice) {
	switch slice {
	case SliceAuth:
		s.Auth = AuthState{}
	case SliceTransactions:
		s.Transactions = TransactionState{PageSize: r.pageSize, HasMore: true}
		r.Transactions.forgetEdits()
	case SliceBudgets:
		s.Budgets = BudgetState{}
	case SliceInvestments:
		s.Investments = InvestmentState{}
	}
	r.recompute(slice, s)
}

// recompute is the single place where derived fields of a slice are rebuilt.
func (r *Root) recompute(slice Slice, s *State) {
	switch slice {
	case SliceAuth:
		recomputeAuth(&s.Auth)
	case SliceTransactions:
		recomputeTransactions(&s.Transactions)
	case SliceBudgets:
		recomputeBudgets(&s.Budgets)
	case SliceInvestments:
		recomputeInvestments(&s.Investments)
	}
}

// apply runs fn under the state lock and publishes the new state when fn
// reports a change.
func (r *Root) apply(fn func(s *State) bool) {
	r.mu.Lock()
	if !fn(&r.state) {
		r.mu.Unlock()
		return
	}
	r.version++
	version, snapshot := r.version, r.state
	r.mu.Unlock()
	r.notify(version, snapshot)
}

func (r *Root) notify(version uint64, snapshot State) {
	r.notifyMu.Lock()
	defer r.notifyMu.Unlock()
	if version <= r.notified {
		return
	}
	r.notified = version

	r.listenersMu.Lock()
	listeners := r.listeners
	r.listenersMu.Unlock()
	for _, l := range listeners {
		l.fn(snapshot)
	}
}
