// Package promise provides a single-assignment result cell for buffered
// writes whose outcome is reported from another goroutine.
//
// A Promise is completed exactly once, by Complete or Fail. Any number of
// goroutines may block in Get, GetTimeout or Wait; all are released together.
// Watchers registered with Watch run synchronously on the completing
// goroutine, in registration order, after waiters are released. A watcher
// that blocks stalls whoever completed the promise (for the table store that
// is the batch writer's flush goroutine).
//
// Watch must be called before the promise can complete; a watcher added
// afterwards is rejected with ErrAlreadyDone rather than replayed.
package promise

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrDoubleCompletion is returned by Complete or Fail on a terminal promise.
	// It indicates a bug in the completing code.
	ErrDoubleCompletion = errors.New("promise: already completed")
	// ErrTimeout is returned by GetTimeout when the deadline passes first.
	ErrTimeout = errors.New("promise: timed out waiting for completion")
	// ErrAlreadyDone is returned by Watch on a terminal promise.
	ErrAlreadyDone = errors.New("promise: watch after completion")
	// ErrWriteFailed wraps causes passed to Fail that are not already domain errors.
	ErrWriteFailed = errors.New("promise: write failed")
)

// State is the lifecycle state of a Promise.
type State int

const (
	Pending State = iota
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "pending"
	}
}

// Watcher observes the outcome of a Promise.
type Watcher[T any] interface {
	OnComplete(value T)
	OnFailure(err error)
}

// Translator maps the cause given to Fail onto the error seen by waiters
// and watchers.
type Translator func(error) error

// Promise is a single-assignment, multi-waiter result cell. The zero value
// is a pending promise using DefaultTranslator.
type Promise[T any] struct {
	mu        sync.Mutex
	state     State
	value     T
	err       error
	done      chan struct{}
	watchers  []Watcher[T]
	translate Translator
}

// New returns a pending promise using DefaultTranslator.
func New[T any]() *Promise[T] {
	return &Promise[T]{done: make(chan struct{}), translate: DefaultTranslator}
}

// NewWithTranslator returns a pending promise that maps Fail causes with tr.
func NewWithTranslator[T any](tr Translator) *Promise[T] {
	if tr == nil {
		tr = DefaultTranslator
	}
	return &Promise[T]{done: make(chan struct{}), translate: tr}
}

// DefaultTranslator wraps err with ErrWriteFailed unless it already is one,
// keeping the cause reachable through errors.Is/As.
func DefaultTranslator(err error) error {
	if err == nil {
		return ErrWriteFailed
	}
	if errors.Is(err, ErrWriteFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrWriteFailed, err)
}

// Complete stores value, releases waiters and notifies watchers.
func (p *Promise[T]) Complete(value T) error {
	p.mu.Lock()
	if p.state != Pending {
		p.mu.Unlock()
		return ErrDoubleCompletion
	}
	p.state = Completed
	p.value = value
	watchers := p.release()
	p.mu.Unlock()

	for _, w := range watchers {
		w.OnComplete(value)
	}
	return nil
}

// Fail stores the translated cause, releases waiters and notifies watchers.
func (p *Promise[T]) Fail(cause error) error {
	p.mu.Lock()
	if p.state != Pending {
		p.mu.Unlock()
		return ErrDoubleCompletion
	}
	p.state = Failed
	tr := p.translate
	if tr == nil {
		tr = DefaultTranslator
	}
	p.err = tr(cause)
	err := p.err
	watchers := p.release()
	p.mu.Unlock()

	for _, w := range watchers {
		w.OnFailure(err)
	}
	return nil
}

// doneLocked returns the done channel, creating it on first use. Callers
// hold p.mu.
func (p *Promise[T]) doneLocked() chan struct{} {
	if p.done == nil {
		p.done = make(chan struct{})
	}
	return p.done
}

func (p *Promise[T]) doneCh() chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doneLocked()
}

// release closes done and detaches the watcher list. Callers hold p.mu.
func (p *Promise[T]) release() []Watcher[T] {
	close(p.doneLocked())
	watchers := p.watchers
	p.watchers = nil
	return watchers
}

// Watch registers w for the eventual outcome.
func (p *Promise[T]) Watch(w Watcher[T]) error {
	if w == nil {
		return errors.New("promise: nil watcher")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != Pending {
		return ErrAlreadyDone
	}
	p.watchers = append(p.watchers, w)
	return nil
}

// WatchFunc registers a pair of callbacks. Either may be nil.
func (p *Promise[T]) WatchFunc(onComplete func(T), onFailure func(error)) error {
	return p.Watch(funcWatcher[T]{ok: onComplete, fail: onFailure})
}

type funcWatcher[T any] struct {
	ok   func(T)
	fail func(error)
}

func (f funcWatcher[T]) OnComplete(v T) {
	if f.ok != nil {
		f.ok(v)
	}
}

func (f funcWatcher[T]) OnFailure(err error) {
	if f.fail != nil {
		f.fail(err)
	}
}

// Get blocks until the promise is terminal.
func (p *Promise[T]) Get() (T, error) {
	<-p.doneCh()
	return p.result()
}

// GetTimeout is Get bounded by d. On timeout it returns ErrTimeout and the
// promise stays as it was. A d of zero or less polls without blocking.
func (p *Promise[T]) GetTimeout(d time.Duration) (T, error) {
	done := p.doneCh()
	if d <= 0 {
		select {
		case <-done:
			return p.result()
		default:
			var zero T
			return zero, ErrTimeout
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-done:
		return p.result()
	case <-timer.C:
		var zero T
		return zero, ErrTimeout
	}
}

// Wait is Get bounded by ctx.
func (p *Promise[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.doneCh():
		return p.result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (p *Promise[T]) result() (T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

// Cancel always returns false: a submitted write cannot be withdrawn.
func (p *Promise[T]) Cancel() bool { return false }

// State returns the current lifecycle state.
func (p *Promise[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done returns a channel closed when the promise becomes terminal.
func (p *Promise[T]) Done() <-chan struct{} { return p.doneCh() }
