package core

import (
	"context"
	"fmt"
)

// callWaiter is a one-shot subscription to a mock's call feed.
type callWaiter struct {
	expectation Invocation
	fut         *CallFuture
}

// CallFuture resolves with the first real invocation matching the awaited
// pattern. Futures built from a pattern that already matched a logged call
// resolve immediately without suspending.
type CallFuture struct {
	mock        *Mock
	expectation Invocation
	ch          chan Invocation
}

// futureFor builds the future for an awaited pattern: an already-recorded
// matching call resolves it immediately; otherwise a one-shot waiter is
// registered on the mock's call feed.
func (m *Mock) futureFor(expectation Invocation) *CallFuture {
	fut := &CallFuture{
		mock:        m,
		expectation: expectation,
		ch:          make(chan Invocation, 1),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, call := range m.calls {
		if invocationMatches(expectation, call.Invocation, nil) {
			fut.ch <- call.Invocation

			return fut
		}
	}

	m.waiters = append(m.waiters, &callWaiter{expectation: expectation, fut: fut})

	return fut
}

func (m *Mock) removeWaiter(fut *CallFuture) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.waiters[:0]

	for _, w := range m.waiters {
		if w.fut != fut {
			kept = append(kept, w)
		}
	}

	m.waiters = kept
}

// Await blocks until a matching call occurs. Like the subscription it wraps,
// Await has no timeout of its own; callers needing one should use
// AwaitContext, which also keeps a dead waiter from swallowing a later call.
func (f *CallFuture) Await() Invocation {
	return <-f.ch
}

// AwaitContext blocks until a matching call occurs or ctx is done. On
// cancellation the one-shot waiter is removed from the mock under its lock,
// so a call arriving after the timeout is not silently consumed by a waiter
// nobody is listening to. A call that raced the cancellation is still
// returned.
func (f *CallFuture) AwaitContext(ctx context.Context) (Invocation, error) {
	select {
	case inv := <-f.ch:
		return inv, nil
	case <-ctx.Done():
		f.mock.removeWaiter(f)

		// The call may have been delivered between ctx firing and waiter
		// removal; prefer it over the cancellation.
		select {
		case inv := <-f.ch:
			return inv, nil
		default:
		}

		return Invocation{}, fmt.Errorf("awaiting %s.%s: %w", f.mock.Name(), f.expectation, ctx.Err())
	}
}

// Done exposes the resolution channel for select-based callers.
func (f *CallFuture) Done() <-chan Invocation {
	return f.ch
}
