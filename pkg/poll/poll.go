// Package poll implements a cancellable poll-until-terminal loop.
//
// A Loop calls Fetch once per interval until the fetched value satisfies Done,
// Fetch returns an error or the loop is stopped. Ticks are serialized: the
// next tick is not scheduled before the previous fetch returned, so responses
// are observed in the order they were requested. Fetch errors end the loop;
// there is no retry.
package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the tick interval used when Options.Interval is unset.
const DefaultInterval = 2 * time.Second

// ErrStopped is returned by Wait when the loop was stopped before reaching a
// terminal value.
var ErrStopped = errors.New("poll loop stopped")

// Outcome tells how a loop ended.
type Outcome int

const (
	Running Outcome = iota
	Completed
	Failed
	Stopped
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Options configures a Loop.
//
// Fetch and Done are required. OnTick runs on the loop goroutine after every
// successful fetch, including the terminal one, and never after Stop returned.
type Options[T any] struct {
	Interval time.Duration
	Fetch    func(ctx context.Context) (T, error)
	Done     func(value T) bool
	OnTick   func(seq uint64, value T)
}

// Loop is a running poll loop. The zero value is not usable; use Start.
type Loop[T any] struct {
	opts   Options[T]
	cancel context.CancelFunc
	done   chan struct{}

	seq     atomic.Uint64
	stopped atomic.Bool

	mu      sync.Mutex
	outcome Outcome
	last    T
	err     error
}

// Start launches a loop bound to ctx. Cancelling ctx stops the loop the same
// way Stop does.
func Start[T any](ctx context.Context, opts Options[T]) *Loop[T] {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	loopCtx, cancel := context.WithCancel(ctx)
	l := &Loop[T]{
		opts:   opts,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go l.run(loopCtx)
	return l
}

func (l *Loop[T]) run(ctx context.Context) {
	defer close(l.done)
	defer l.cancel()

	t := time.NewTimer(l.opts.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			l.finish(Stopped, ErrStopped)
			return
		case <-t.C:
		}

		value, err := l.opts.Fetch(ctx)
		if ctx.Err() != nil {
			l.finish(Stopped, ErrStopped)
			return
		}
		if err != nil {
			l.finish(Failed, err)
			return
		}

		seq := l.seq.Add(1)
		terminal := l.opts.Done(value)

		l.mu.Lock()
		l.last = value
		l.mu.Unlock()

		if !l.deliver(seq, value) {
			l.finish(Stopped, ErrStopped)
			return
		}
		if terminal {
			l.finish(Completed, nil)
			return
		}

		t.Reset(l.opts.Interval)
	}
}

// deliver runs OnTick unless the loop has been cancelled. It reports whether
// the loop is still live.
func (l *Loop[T]) deliver(seq uint64, value T) bool {
	if l.stopped.Load() {
		return false
	}
	if l.opts.OnTick != nil {
		l.opts.OnTick(seq, value)
	}
	return true
}

func (l *Loop[T]) finish(outcome Outcome, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.outcome != Running {
		return
	}
	l.outcome = outcome
	l.err = err
}

// Stop cancels the loop and waits for its goroutine to exit. Once Stop
// returns no OnTick is running and none will run again. It is safe to call
// more than once, but not from inside OnTick; use Cancel there.
func (l *Loop[T]) Stop() {
	l.Cancel()
	<-l.done
}

// Cancel stops the loop without waiting for it. A tick that is already being
// delivered finishes; callers needing a hard guarantee use Stop or discard
// late ticks themselves.
func (l *Loop[T]) Cancel() {
	l.stopped.Store(true)
	l.cancel()
}

// Done is closed once the loop goroutine exited.
func (l *Loop[T]) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the loop ended and returns the last fetched value and the
// reason the loop ended: nil for a terminal value, the fetch error, or
// ErrStopped.
func (l *Loop[T]) Wait() (T, error) {
	<-l.done
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last, l.err
}

// Outcome returns the current outcome; Running while the loop is live.
func (l *Loop[T]) Outcome() Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outcome
}

// Seq returns the sequence number of the last delivered tick.
func (l *Loop[T]) Seq() uint64 {
	return l.seq.Load()
}
