package core

import "sync"

// sessionMode says what the next intercepted mock call means.
type sessionMode int

const (
	modeIdle sessionMode = iota
	modeStubbing
	modeVerifying
	modeOrdered
	modeAwaiting
)

func (m sessionMode) String() string {
	switch m {
	case modeIdle:
		return "idle"
	case modeStubbing:
		return "stub definition (When)"
	case modeVerifying:
		return "verification (Verify)"
	case modeOrdered:
		return "in-order verification (VerifyInOrder)"
	case modeAwaiting:
		return "wait registration (UntilCalled)"
	default:
		return "unknown"
	}
}

// pendingStub is the stub target captured while stubbing mode is active.
type pendingStub struct {
	mock        *Mock
	expectation Invocation
}

// pendingVerify is the match-set computed while verification mode is active.
type pendingVerify struct {
	mock        *Mock
	expectation Invocation
	matched     []*RealCall
}

// orderedRequest is one entry of an in-order verification batch.
type orderedRequest struct {
	mock        *Mock
	expectation Invocation
}

// Session owns the process-wide mutable state of the DSL: the mode flag, the
// argument matcher registry, the capture buffer, the in-flight stub/verify/
// wait records, and the monotonic call sequencer. Exactly one mode may be
// active at a time; entering a second before the first resolves is a usage
// error surfaced immediately. The model assumes one test flow drives
// stubbing and verification; only CallFuture.Await legitimately blocks.
type Session struct {
	mu           sync.Mutex
	mode         sessionMode
	registry     matcherRegistry
	captures     []any
	stubTarget   *pendingStub
	verifyTarget *pendingVerify
	orderedBatch []*orderedRequest
	waitFuture   *CallFuture
	clock        sequencer
}

// defaultSession backs the package-level DSL. Mocks bind to it at
// construction unless WithSession overrides.
var defaultSession = NewSession()

// NewSession creates an isolated session. Most callers want ActiveSession;
// isolated sessions exist so the framework's own tests cannot leak state
// into each other.
func NewSession() *Session {
	return &Session{}
}

// ActiveSession returns the process-wide session that the package-level DSL
// entry points operate on.
func ActiveSession() *Session {
	return defaultSession
}

// RegisterAnonymous stages a positional argument matcher for the next call.
func (s *Session) RegisterAnonymous(am *ArgMatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.registry.pushAnonymous(am)
}

// RegisterNamed stages a named argument matcher for the next call.
func (s *Session) RegisterNamed(name string, am *ArgMatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.pushNamed(name, am); err != nil {
		panic(err)
	}
}

// enter flips the session into mode, failing fast if any other mode is
// already active. The fast failure guards against a dangling mode flag
// silently corrupting the next unrelated call.
func (s *Session) enter(mode sessionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != modeIdle {
		return usagef(
			"cannot begin %s while %s is still in progress; complete the earlier operation "+
				"first, or call ResetGlobalState in test teardown if a previous test leaked",
			mode, s.mode)
	}

	s.mode = mode

	return nil
}

// exit resolves the session back to idle and discards any in-flight records,
// staged matchers, and undrained captures. Runs on success and failure paths
// alike so one failed operation cannot corrupt the next; a verification that
// dies between matching and draining must not leak its captures into the next
// one.
func (s *Session) exit() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mode = modeIdle
	s.stubTarget = nil
	s.verifyTarget = nil
	s.orderedBatch = nil
	s.waitFuture = nil
	s.captures = nil
	s.registry.clear()
}

// Reset clears every piece of session state: mode flag, matcher registry,
// capture buffer, and in-flight records. Intended as a test-teardown safety
// net against cross-test leakage.
func (s *Session) Reset() {
	s.exit()
}

// StubCall runs fn with stubbing mode active. The single mock call fn makes
// becomes the stub target; the returned builder attaches the response.
func (s *Session) StubCall(fn func()) (*StubBuilder, error) {
	if err := s.enter(modeStubbing); err != nil {
		return nil, err
	}
	defer s.exit()

	fn()

	s.mu.Lock()
	target := s.stubTarget
	s.stubTarget = nil
	s.mu.Unlock()

	if target == nil {
		return nil, usagef(
			"the closure passed to When made no call on a mock; " +
				"When(func() { myMock.Method(...) }) expects exactly one mock call inside")
	}

	return &StubBuilder{mock: target.mock, expectation: target.expectation}, nil
}

// VerifyCall runs fn with verification mode active and resolves the match-set
// the call inside computed. With never set, the assertion inverts: any match
// fails. Matched calls are claimed (verified) exactly once so repeated
// verifications cannot double-count; the capture buffer is drained into the
// result on every path.
func (s *Session) VerifyCall(fn func(), never bool) (*VerificationResult, error) {
	if err := s.enter(modeVerifying); err != nil {
		return nil, err
	}
	defer s.exit()

	fn()

	s.mu.Lock()
	target := s.verifyTarget
	s.verifyTarget = nil
	captured := s.captures
	s.captures = nil
	s.mu.Unlock()

	if target == nil {
		return nil, usagef(
			"the closure passed to Verify made no call on a mock; " +
				"Verify(func() { myMock.Method(...) }) expects exactly one mock call inside")
	}

	want := target.mock.Name() + "." + target.expectation.String()

	if never && len(target.matched) > 0 {
		return nil, verifyf("expected no calls matching %s, but found %d; all interactions:\n%s",
			want, len(target.matched), dumpInteractions(target.mock))
	}

	if !never && len(target.matched) == 0 {
		return nil, verifyf("no unverified calls matching %s; all interactions:\n%s",
			want, dumpInteractions(target.mock))
	}

	target.mock.markVerified(target.matched)

	return &VerificationResult{Calls: len(target.matched), Captured: captured}, nil
}

// VerifyInOrderCall runs fn with in-order verification mode active; every mock
// call inside appends one request to the batch. Resolution walks the batch
// keeping a high-water mark over call sequence numbers: each request claims
// the earliest unverified matching call strictly after the mark. Calls not
// named by the batch may fall in between; only relative order of the named
// calls is asserted.
func (s *Session) VerifyInOrderCall(fn func()) error {
	if err := s.enter(modeOrdered); err != nil {
		return err
	}
	defer s.exit()

	fn()

	s.mu.Lock()
	batch := s.orderedBatch
	s.orderedBatch = nil
	s.mu.Unlock()

	if len(batch) == 0 {
		return usagef(
			"the closure passed to VerifyInOrder made no calls on any mock; " +
				"it expects one mock call per expected interaction, in the expected order")
	}

	var mark uint64

	for i, req := range batch {
		call := req.mock.earliestUnverifiedAfter(mark, req.expectation)
		if call == nil {
			return verifyf(
				"in-order verification failed at position %d of %d: no unverified call matching "+
					"%s.%s after the previously matched call; all interactions:\n%s",
				i+1, len(batch), req.mock.Name(), req.expectation,
				dumpInteractions(batchMocks(batch)...))
		}

		mark = call.seq
	}

	return nil
}

// AwaitCall runs fn with wait-registration mode active and returns the
// future built from the single mock call inside.
func (s *Session) AwaitCall(fn func()) (*CallFuture, error) {
	if err := s.enter(modeAwaiting); err != nil {
		return nil, err
	}
	defer s.exit()

	fn()

	s.mu.Lock()
	fut := s.waitFuture
	s.waitFuture = nil
	s.mu.Unlock()

	if fut == nil {
		return nil, usagef(
			"the closure passed to UntilCalled made no call on a mock; " +
				"UntilCalled(func() { myMock.Method(...) }) expects exactly one mock call inside")
	}

	return fut, nil
}

func batchMocks(batch []*orderedRequest) []*Mock {
	var mocks []*Mock

	seen := make(map[*Mock]bool, len(batch))
	for _, req := range batch {
		if !seen[req.mock] {
			seen[req.mock] = true

			mocks = append(mocks, req.mock)
		}
	}

	return mocks
}
