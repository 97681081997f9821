package core

import "reflect"

// Responder produces the results for a matched real call. A responder may
// panic; the panic propagates unchanged to the caller of the mocked method.
type Responder func(Invocation) []any

// stubbedResponse is one ledger entry: an expectation invocation and the
// responder to run when a real call matches it.
type stubbedResponse struct {
	expectation Invocation
	respond     Responder
}

// StubBuilder attaches a response to the stub target captured by When. Each
// continuation appends its own ledger entry; because resolution scans the
// ledger newest-first, the most recently attached response wins.
type StubBuilder struct {
	mock        *Mock
	expectation Invocation
}

// ThenReturn stubs fixed result values, one per return slot of the mocked
// member. Channel values are rejected: a pending asynchronous value must be
// produced by ThenAnswer so it is constructed at call time, not captured at
// stubbing time.
func (b *StubBuilder) ThenReturn(values ...any) *StubBuilder {
	for i, v := range values {
		if v != nil && reflect.TypeOf(v).Kind() == reflect.Chan {
			panic(usagef(
				"ThenReturn was given a channel for result %d of %s; "+
					"return pending values with ThenAnswer instead, so they are produced at call time",
				i, b.expectation.Member))
		}
	}

	return b.attach(func(Invocation) []any { return values })
}

// ThenAnswer stubs a computed response: fn runs once per matching real call
// with that call's invocation.
func (b *StubBuilder) ThenAnswer(fn func(Invocation) []any) *StubBuilder {
	return b.attach(fn)
}

// ThenPanic stubs a response that panics with value.
func (b *StubBuilder) ThenPanic(value any) *StubBuilder {
	return b.attach(func(Invocation) []any { panic(value) })
}

func (b *StubBuilder) attach(respond Responder) *StubBuilder {
	b.mock.addStub(&stubbedResponse{expectation: b.expectation, respond: respond})

	return b
}

func (m *Mock) addStub(stub *stubbedResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stubs = append(m.stubs, stub)
}

// respond resolves a real call against the stub ledger, scanning from the
// most recently added entry backward and running the first structural match
// (last stub wins). A miss falls through to the mock's missing-stub policy.
// The responder runs outside the mock's lock so answers may call back into
// mocks.
func (m *Mock) respond(call *RealCall) []any {
	m.mu.Lock()

	var respond Responder

	for i := len(m.stubs) - 1; i >= 0; i-- {
		if invocationMatches(m.stubs[i].expectation, call.Invocation, nil) {
			respond = m.stubs[i].respond

			break
		}
	}

	m.mu.Unlock()

	if respond != nil {
		return respond(call.Invocation)
	}

	switch m.policy {
	case PolicyReturnZero:
		return nil
	case PolicyReturnDefault:
		return m.defaults[call.Member]
	default:
		return m.missingStub(call)
	}
}

func (m *Mock) missingStub(call *RealCall) []any {
	panic(&MissingStubError{Call: m.Name() + "." + call.Invocation.String()})
}
