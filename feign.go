// Package feign provides a stub/verify/capture mocking framework for Go
// tests. Mocks are generated from interfaces with the feigngen tool (or
// written by hand); every member access on a mock funnels through a shared
// interception core, where the meaning of the call is decided by the DSL
// entry point wrapping it:
//
//	When(func() { cat.Sound() }).ThenReturn("Purr")
//	cat.Sound()                            // "Purr"
//	Verify(func() { cat.Sound() }).Called(1)
//
// This is the public API entry point. Implementation lives in internal/core.
package feign

import (
	"github.com/feigntest/feign/internal/core"
)

// Invocation is a structured record of a method/getter/setter call on a mock:
// member identity, kind, positional arguments, named arguments.
type Invocation = core.Invocation

// CallKind identifies what flavor of member an Invocation records.
type CallKind = core.CallKind

// Member access kinds.
const (
	KindMethod = core.KindMethod
	KindGetter = core.KindGetter
	KindSetter = core.KindSetter
)

// Mock is the dispatch core embedded by generated and hand-written mocks.
type Mock = core.Mock

// MockOption configures a mock at construction.
type MockOption = core.MockOption

// MissingStubPolicy controls what a mock does when a real call matches no stub.
type MissingStubPolicy = core.MissingStubPolicy

// Missing-stub policies, chosen per mock at construction.
const (
	PolicyPanic         = core.PolicyPanic
	PolicyReturnZero    = core.PolicyReturnZero
	PolicyReturnDefault = core.PolicyReturnDefault
)

// StubBuilder attaches responses to a stub target captured by When.
type StubBuilder = core.StubBuilder

// VerificationResult reports a verification's match count and captured values.
type VerificationResult = core.VerificationResult

// CallFuture resolves with the first real invocation matching an awaited pattern.
type CallFuture = core.CallFuture

// Matcher defines the interface for flexible argument matching. Compatible
// with gomega.GomegaMatcher via duck typing.
type Matcher = core.Matcher

// Usage, assertion, and missing-stub error types carried by DSL panics.
type (
	// UsageError reports programmer misuse of the DSL.
	UsageError = core.UsageError
	// VerificationError reports a failed verification assertion.
	VerificationError = core.VerificationError
	// MissingStubError reports an unstubbed call under PolicyPanic.
	MissingStubError = core.MissingStubError
)

// Mock construction options, re-exported for generated constructors.
var (
	WithName              = core.WithName
	WithMissingStubPolicy = core.WithMissingStubPolicy
	WithDefaultResponse   = core.WithDefaultResponse
)

// NewMock constructs a bare dispatch core. Generated mocks embed Mock and
// call Init instead.
func NewMock(name string, opts ...MockOption) *Mock {
	return core.NewMock(name, opts...)
}

// When begins a stub definition. The closure must make exactly one call on a
// mock; that call becomes the stub target and the returned builder attaches
// the response with ThenReturn, ThenAnswer, or ThenPanic.
//
// Stub-definition calls are not counted as real interactions.
func When(stub func()) *StubBuilder {
	builder, err := core.ActiveSession().StubCall(stub)
	if err != nil {
		panic(err)
	}

	return builder
}

// Verify asserts that at least one unverified real call matches the single
// mock call the closure makes, claims every matched call, and returns the
// match count plus any captured argument values. Already-verified calls are
// excluded, so verifying the same call twice requires two real calls.
func Verify(call func()) *VerificationResult {
	result, err := core.ActiveSession().VerifyCall(call, false)
	if err != nil {
		panic(err)
	}

	return result
}

// VerifyNever asserts that no unverified real call matches the single mock
// call the closure makes.
func VerifyNever(call func()) *VerificationResult {
	result, err := core.ActiveSession().VerifyCall(call, true)
	if err != nil {
		panic(err)
	}

	return result
}

// VerifyInOrder asserts that the mock calls the closure makes occurred in
// that relative order, possibly across several mocks. Unrelated calls may
// fall in between; only the listed calls' order is checked. Verify may not be
// nested inside the closure.
func VerifyInOrder(calls func()) {
	if err := core.ActiveSession().VerifyInOrderCall(calls); err != nil {
		panic(err)
	}
}

// VerifyZeroInteractions asserts that no real calls were made on the mocks.
func VerifyZeroInteractions(mocks ...*Mock) {
	if err := core.VerifyZeroInteractions(mocks...); err != nil {
		panic(err)
	}
}

// VerifyNoMoreInteractions asserts every real call on the mocks has been
// claimed by a verification.
func VerifyNoMoreInteractions(mocks ...*Mock) {
	if err := core.VerifyNoMoreInteractions(mocks...); err != nil {
		panic(err)
	}
}

// UntilCalled returns a future that resolves with the first invocation
// matching the single mock call the closure makes. If a matching call is
// already in the log, the future is resolved before UntilCalled returns.
func UntilCalled(call func()) *CallFuture {
	fut, err := core.ActiveSession().AwaitCall(call)
	if err != nil {
		panic(err)
	}

	return fut
}

// Reset clears the stubs and the real-call log of each mock.
func Reset(mocks ...*Mock) {
	for _, m := range mocks {
		m.Reset()
	}
}

// ClearInteractions clears each mock's real-call log, keeping stubs in place.
func ClearInteractions(mocks ...*Mock) {
	for _, m := range mocks {
		m.ClearInteractions()
	}
}

// ResetGlobalState clears the process-wide mode flag, matcher registries,
// and capture buffer. Intended as a test-teardown safety net so a dangling
// flag from one test cannot corrupt the next.
func ResetGlobalState() {
	core.ActiveSession().Reset()
}

// TestingT is the minimal testing hook AutoReset needs.
type TestingT interface {
	Cleanup(func())
	Helper()
}

// AutoReset registers ResetGlobalState as a cleanup for t.
func AutoReset(t TestingT) {
	t.Helper()
	t.Cleanup(ResetGlobalState)
}

// Out coerces one slot of an Intercept result into its static return type,
// zero-filling missing or nil slots. Used by generated mock methods.
func Out[T any](results []any, index int) T {
	return core.Out[T](results, index)
}
