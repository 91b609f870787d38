package poll

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testInterval = 5 * time.Millisecond

type script struct {
	mu     sync.Mutex
	values []string
	errAt  int
	calls  int
}

func (s *script) fetch(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.errAt > 0 && s.calls == s.errAt {
		return "", errors.New("transport down")
	}
	idx := min(s.calls-1, len(s.values)-1)
	return s.values[idx], nil
}

func (s *script) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func isTerminal(v string) bool { return v == "completed" || v == "failed" }

func TestLoop_CompletesOnTerminalValue(t *testing.T) {
	s := &script{values: []string{"uploading", "processing", "completed", "never"}}
	var ticks []uint64
	var mu sync.Mutex

	l := Start(context.Background(), Options[string]{
		Interval: testInterval,
		Fetch:    s.fetch,
		Done:     isTerminal,
		OnTick: func(seq uint64, _ string) {
			mu.Lock()
			ticks = append(ticks, seq)
			mu.Unlock()
		},
	})

	last, err := l.Wait()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if last != "completed" {
		t.Fatalf("expected completed, got %q", last)
	}
	if l.Outcome() != Completed {
		t.Fatalf("expected Completed outcome, got %v", l.Outcome())
	}

	time.Sleep(5 * testInterval)
	if got := s.callCount(); got != 3 {
		t.Fatalf("expected exactly 3 fetches, got %d", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(ticks) != 3 || ticks[0] != 1 || ticks[2] != 3 {
		t.Fatalf("unexpected tick sequence %v", ticks)
	}
}

func TestLoop_FetchErrorEndsLoopWithoutRetry(t *testing.T) {
	s := &script{values: []string{"processing"}, errAt: 2}

	l := Start(context.Background(), Options[string]{
		Interval: testInterval,
		Fetch:    s.fetch,
		Done:     isTerminal,
	})

	_, err := l.Wait()
	if err == nil || err.Error() != "transport down" {
		t.Fatalf("expected transport error, got %v", err)
	}
	if l.Outcome() != Failed {
		t.Fatalf("expected Failed outcome, got %v", l.Outcome())
	}

	time.Sleep(5 * testInterval)
	if got := s.callCount(); got != 2 {
		t.Fatalf("expected 2 fetches, got %d", got)
	}
}

func TestLoop_StopPreventsFurtherTicks(t *testing.T) {
	s := &script{values: []string{"processing"}}
	var ticks atomic.Int64

	l := Start(context.Background(), Options[string]{
		Interval: testInterval,
		Fetch:    s.fetch,
		Done:     isTerminal,
		OnTick:   func(uint64, string) { ticks.Add(1) },
	})

	time.Sleep(4 * testInterval)
	l.Stop()
	l.Stop()

	after := ticks.Load()
	time.Sleep(5 * testInterval)
	if ticks.Load() != after {
		t.Fatalf("ticks observed after Stop: %d -> %d", after, ticks.Load())
	}

	_, err := l.Wait()
	if !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	if l.Outcome() != Stopped {
		t.Fatalf("expected Stopped outcome, got %v", l.Outcome())
	}
}

func TestLoop_ParentContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &script{values: []string{"processing"}}

	l := Start(ctx, Options[string]{
		Interval: testInterval,
		Fetch:    s.fetch,
		Done:     isTerminal,
	})
	cancel()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after context cancel")
	}
	if l.Outcome() != Stopped {
		t.Fatalf("expected Stopped outcome, got %v", l.Outcome())
	}
}

func TestLoop_TicksAreSerialized(t *testing.T) {
	var inFlight, maxInFlight atomic.Int64
	var calls atomic.Int64

	l := Start(context.Background(), Options[int64]{
		Interval: time.Millisecond,
		Fetch: func(context.Context) (int64, error) {
			n := inFlight.Add(1)
			for {
				m := maxInFlight.Load()
				if n <= m || maxInFlight.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(4 * time.Millisecond)
			inFlight.Add(-1)
			return calls.Add(1), nil
		},
		Done: func(v int64) bool { return v >= 5 },
	})

	if _, err := l.Wait(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxInFlight.Load() != 1 {
		t.Fatalf("expected at most one fetch in flight, saw %d", maxInFlight.Load())
	}
	if l.Seq() != 5 {
		t.Fatalf("expected seq 5, got %d", l.Seq())
	}
}

func TestLoop_CancelInsideOnTick(t *testing.T) {
	s := &script{values: []string{"processing"}}
	var ticks atomic.Int64
	var l *Loop[string]
	ready := make(chan struct{})

	l = Start(context.Background(), Options[string]{
		Interval: testInterval,
		Fetch:    s.fetch,
		Done:     isTerminal,
		OnTick: func(uint64, string) {
			<-ready
			ticks.Add(1)
			l.Cancel()
		},
	})
	close(ready)

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not end after Cancel inside OnTick")
	}
	if ticks.Load() != 1 {
		t.Fatalf("expected exactly one tick, got %d", ticks.Load())
	}
}

func TestOutcomeString(t *testing.T) {
	tests := []struct {
		in   Outcome
		want string
	}{
		{Running, "running"},
		{Completed, "completed"},
		{Failed, "failed"},
		{Stopped, "stopped"},
		{Outcome(42), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.in.String(); got != tc.want {
			t.Fatalf("Outcome(%d).String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}
