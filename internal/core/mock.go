package core

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MissingStubPolicy controls what a mock does when a real call matches no
// stub. Configured per mock at construction, not globally.
type MissingStubPolicy int

const (
	// PolicyPanic raises a MissingStubError naming the unmatched invocation.
	PolicyPanic MissingStubPolicy = iota
	// PolicyReturnZero yields zero values for every return slot.
	PolicyReturnZero
	// PolicyReturnDefault yields values pre-registered per member with
	// WithDefaultResponse, falling back to zero values.
	PolicyReturnDefault
)

// MockOption configures a Mock at construction.
type MockOption func(*Mock)

// WithName overrides the mock's display name in diagnostics.
func WithName(name string) MockOption {
	return func(m *Mock) { m.name = name }
}

// WithMissingStubPolicy sets the behavior for real calls that match no stub.
func WithMissingStubPolicy(policy MissingStubPolicy) MockOption {
	return func(m *Mock) { m.policy = policy }
}

// WithDefaultResponse registers the legal default results returned for member
// under PolicyReturnDefault when no stub matches.
func WithDefaultResponse(member string, values ...any) MockOption {
	return func(m *Mock) {
		if m.defaults == nil {
			m.defaults = make(map[string][]any)
		}

		m.defaults[member] = values
	}
}

// WithSession binds the mock to a session other than the process-wide one.
func WithSession(s *Session) MockOption {
	return func(m *Mock) { m.session = s }
}

// RealCall is the ledger entry for one real invocation on a mock. verified
// flips true exactly once, when the call is claimed by a successful
// verification, which prevents double-counting.
type RealCall struct {
	Invocation

	mock     *Mock
	seq      uint64
	verified bool
}

// Mock is the dispatch core every generated or hand-written test double
// embeds. It owns the ordered log of real calls, the stub ledger, and the
// one-shot waiters of the wait engine. All intercepted member accesses funnel
// through Intercept.
type Mock struct {
	name     string
	session  *Session
	policy   MissingStubPolicy
	defaults map[string][]any

	mu      sync.Mutex
	calls   []*RealCall
	stubs   []*stubbedResponse
	waiters []*callWaiter
}

// NewMock constructs a standalone Mock. Generated mocks embed Mock and call
// Init from their constructors instead.
func NewMock(name string, opts ...MockOption) *Mock {
	m := &Mock{}
	m.Init(name, opts...)

	return m
}

// Init binds the embedded Mock to its session and applies options. Generated
// constructors call this exactly once.
func (m *Mock) Init(name string, opts ...MockOption) {
	m.name = name
	m.session = ActiveSession()

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
}

// Name returns the mock's display name.
func (m *Mock) Name() string {
	m.lazyInit()

	return m.name
}

// lazyInit covers hand-written doubles that embed Mock without calling Init.
func (m *Mock) lazyInit() {
	if m.session == nil {
		m.session = ActiveSession()
	}

	if m.name == "" {
		m.name = "mock"
	}
}

// Intercept is the single dispatch point for every member access on a mock.
// It reconciles staged argument matchers into the raw invocation, then routes
// on the session's mode: stub targets, verification match-sets, in-order
// batch entries, and wait registrations all return neutral results and log
// nothing; only a normal call appends to the ledger, feeds the wait engine,
// and resolves a stubbed response.
func (m *Mock) Intercept(raw Invocation) []any {
	m.lazyInit()

	s := m.session

	s.mu.Lock()

	inv, err := s.registry.reconcile(raw)
	if err != nil {
		s.mu.Unlock()
		panic(err)
	}

	switch s.mode {
	case modeStubbing:
		if s.stubTarget != nil {
			s.mu.Unlock()
			panic(usagef(
				"the closure passed to When made more than one mock call; " +
					"stub one call per When"))
		}

		s.stubTarget = &pendingStub{mock: m, expectation: inv}
		s.mu.Unlock()

		return nil

	case modeVerifying:
		if s.verifyTarget != nil {
			s.mu.Unlock()
			panic(usagef(
				"the closure passed to Verify made more than one mock call; " +
					"verify one call per Verify, or use VerifyInOrder for a sequence"))
		}

		matched, captured := m.matchUnverified(inv)
		s.captures = append(s.captures, captured...)
		s.verifyTarget = &pendingVerify{mock: m, expectation: inv, matched: matched}
		s.mu.Unlock()

		return nil

	case modeOrdered:
		s.orderedBatch = append(s.orderedBatch, &orderedRequest{mock: m, expectation: inv})
		s.mu.Unlock()

		return nil

	case modeAwaiting:
		if s.waitFuture != nil {
			s.mu.Unlock()
			panic(usagef(
				"the closure passed to UntilCalled made more than one mock call; " +
					"await one call per UntilCalled"))
		}

		s.waitFuture = m.futureFor(inv)
		s.mu.Unlock()

		return nil

	default:
		s.mu.Unlock()

		call := &RealCall{Invocation: inv, mock: m, seq: s.clock.next()}
		m.record(call)

		return m.respond(call)
	}
}

// matchUnverified scans the ledger for unverified calls matching expectation,
// collecting captured argument values in call order.
func (m *Mock) matchUnverified(expectation Invocation) ([]*RealCall, []any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		matched  []*RealCall
		captured []any
	)

	for _, call := range m.calls {
		if call.verified {
			continue
		}

		if invocationMatches(expectation, call.Invocation, &captured) {
			matched = append(matched, call)
		}
	}

	return matched, captured
}

// markVerified claims calls for a completed verification.
func (m *Mock) markVerified(calls []*RealCall) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, call := range calls {
		call.verified = true
	}
}

// earliestUnverifiedAfter finds and claims the earliest unverified call
// matching expectation with sequence strictly after mark. Returns nil when no
// such call exists.
func (m *Mock) earliestUnverifiedAfter(mark uint64, expectation Invocation) *RealCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, call := range m.calls {
		if call.verified || call.seq <= mark {
			continue
		}

		if invocationMatches(expectation, call.Invocation, nil) {
			call.verified = true

			return call
		}
	}

	return nil
}

// record appends a real call to the ledger and feeds it to the wait engine's
// one-shot waiters.
func (m *Mock) record(call *RealCall) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, call)

	kept := m.waiters[:0]

	for _, w := range m.waiters {
		if invocationMatches(w.expectation, call.Invocation, nil) {
			w.fut.ch <- call.Invocation
		} else {
			kept = append(kept, w)
		}
	}

	m.waiters = kept
}

// Reset clears the mock's stubs and real-call log.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stubs = nil
	m.calls = nil
}

// ClearInteractions clears the real-call log, keeping stubs in place.
func (m *Mock) ClearInteractions() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = nil
}

// interactions snapshots the call log.
func (m *Mock) interactions() []*RealCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*RealCall(nil), m.calls...)
}

// VerifyZeroInteractions asserts that no real calls were made on any of the
// given mocks.
func VerifyZeroInteractions(mocks ...*Mock) error {
	for _, m := range mocks {
		if calls := m.interactions(); len(calls) > 0 {
			return verifyf("expected zero interactions with %s, but found %d:\n%s",
				m.Name(), len(calls), dumpInteractions(m))
		}
	}

	return nil
}

// VerifyNoMoreInteractions asserts that every real call on the given mocks
// has been claimed by a verification.
func VerifyNoMoreInteractions(mocks ...*Mock) error {
	for _, m := range mocks {
		for _, call := range m.interactions() {
			if !call.verified {
				return verifyf("unverified interactions remain on %s; all interactions:\n%s",
					m.Name(), dumpInteractions(m))
			}
		}
	}

	return nil
}

// dumpInteractions renders every real call across the given mocks, sorted by
// sequence, for failure diagnostics.
func dumpInteractions(mocks ...*Mock) string {
	var calls []*RealCall
	for _, m := range mocks {
		calls = append(calls, m.interactions()...)
	}

	if len(calls) == 0 {
		return "  (no interactions recorded)"
	}

	sort.Slice(calls, func(i, j int) bool { return calls[i].seq < calls[j].seq })

	lines := make([]string, 0, len(calls))

	for i, call := range calls {
		suffix := ""
		if call.verified {
			suffix = " (verified)"
		}

		lines = append(lines, fmt.Sprintf("  %d. %s.%s%s", i+1, call.mock.Name(), call.Invocation, suffix))
	}

	return strings.Join(lines, "\n")
}

// Out coerces one slot of an Intercept result into its static type. Missing
// slots and nil values become the zero value, so neutral placeholder results
// from stub/verify/wait branches and PolicyReturnZero need no special casing
// in generated code. A present value of the wrong type is a usage error.
func Out[T any](results []any, index int) T {
	var zero T

	if index >= len(results) || results[index] == nil {
		return zero
	}

	v, ok := results[index].(T)
	if !ok {
		panic(usagef("stubbed result %d has type %T and cannot be returned as %T; "+
			"fix the values given to ThenReturn", index, results[index], zero))
	}

	return v
}
