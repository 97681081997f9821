package core

import (
	"fmt"
	"testing"

	. "github.com/onsi/gomega"
	"pgregory.net/rapid"
)

// stubOn registers a stub on m through its session and fails the test on
// misuse, keeping the happy-path tests readable.
func stubOn(t *testing.T, m *Mock, inv Invocation) *StubBuilder {
	t.Helper()

	builder, err := m.session.StubCall(func() { m.Intercept(inv) })
	if err != nil {
		t.Fatalf("stubbing %s: %v", inv, err)
	}

	return builder
}

// TestStub_ReturnsStubbedValue verifies the basic when/thenReturn flow.
func TestStub_ReturnsStubbedValue(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat", WithSession(NewSession()))
	stubOn(t, m, methodCall("Sound")).ThenReturn("Purr")

	g.Expect(m.Intercept(methodCall("Sound"))).To(Equal([]any{"Purr"}))
}

// TestStub_IsStable verifies that a stubbed response does not decay: repeated
// identical calls keep returning the stubbed value.
func TestStub_IsStable(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat", WithSession(NewSession()))
	stubOn(t, m, methodCall("Sound")).ThenReturn("Purr")

	for j := 0; j < 5; j++ {
		g.Expect(m.Intercept(methodCall("Sound"))).To(Equal([]any{"Purr"}))
	}
}

// TestStub_LastStubWins verifies that restubbing the same pattern replaces
// the effective response.
func TestStub_LastStubWins(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat", WithSession(NewSession()))
	stubOn(t, m, methodCall("Sound")).ThenReturn("Purr")

	g.Expect(m.Intercept(methodCall("Sound"))).To(Equal([]any{"Purr"}))

	stubOn(t, m, methodCall("Sound")).ThenReturn("Meow")

	g.Expect(m.Intercept(methodCall("Sound"))).To(Equal([]any{"Meow"}))
}

// TestStub_LastStubWins_Rapid property-tests last-stub-wins over arbitrary
// stubbing sequences.
func TestStub_LastStubWins_Rapid(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		m := NewMock("m", WithSession(NewSession()))

		count := rapid.IntRange(1, 20).Draw(rt, "count")

		var last string

		for i := 0; i < count; i++ {
			last = fmt.Sprintf("response-%d", i)

			builder, err := m.session.StubCall(func() { m.Intercept(methodCall("F")) })
			if err != nil {
				rt.Fatalf("stubbing: %v", err)
			}

			builder.ThenReturn(last)
		}

		out := m.Intercept(methodCall("F"))
		if len(out) != 1 || out[0] != last {
			rt.Fatalf("expected last stub %q to win, got %v", last, out)
		}
	})
}

// TestStub_StubCallsAreNotInteractions verifies that stub-definition calls do
// not land in the real-call log.
func TestStub_StubCallsAreNotInteractions(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat", WithSession(NewSession()))
	stubOn(t, m, methodCall("Sound")).ThenReturn("Purr")

	g.Expect(VerifyZeroInteractions(m)).To(Succeed())
}

// TestStub_ArgumentMatcher verifies a stub registered with a staged matcher
// responds to any argument value.
func TestStub_ArgumentMatcher(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	s := NewSession()
	m := NewMock("calc", WithSession(s))

	builder, err := s.StubCall(func() {
		s.RegisterAnonymous(NewArgMatcher(MatchAnything(), false, 0))
		m.Intercept(methodCall("Square", 0))
	})

	g.Expect(err).NotTo(HaveOccurred())
	builder.ThenAnswer(func(inv Invocation) []any {
		n, _ := inv.Args[0].(int)

		return []any{n * n}
	})

	g.Expect(m.Intercept(methodCall("Square", 7))).To(Equal([]any{49}))
	g.Expect(m.Intercept(methodCall("Square", 3))).To(Equal([]any{9}))
}

// TestStub_ThenPanic_PropagatesUnchanged verifies stubbed panics reach the
// caller without wrapping.
func TestStub_ThenPanic_PropagatesUnchanged(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat", WithSession(NewSession()))
	stubOn(t, m, methodCall("Sound")).ThenPanic("hairball")

	g.Expect(func() { m.Intercept(methodCall("Sound")) }).To(PanicWith("hairball"))
}

// TestStub_ThenReturnChannel_IsUsageError verifies ThenReturn rejects raw
// channel values, steering callers to ThenAnswer.
func TestStub_ThenReturnChannel_IsUsageError(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat", WithSession(NewSession()))
	builder := stubOn(t, m, methodCall("Watch"))

	g.Expect(func() { builder.ThenReturn(make(chan int)) }).To(
		PanicWith(BeAssignableToTypeOf(&UsageError{})))
}

// TestMissingStub_PolicyPanic verifies an unstubbed call raises a
// MissingStubError naming the invocation.
func TestMissingStub_PolicyPanic(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat", WithSession(NewSession()), WithMissingStubPolicy(PolicyPanic))

	g.Expect(func() { m.Intercept(methodCall("Sound")) }).To(PanicWith(SatisfyAll(
		BeAssignableToTypeOf(&MissingStubError{}),
		MatchError(ContainSubstring("cat.Sound()")),
	)))
}

// TestMissingStub_PolicyReturnZero verifies an unstubbed call yields neutral
// results without raising.
func TestMissingStub_PolicyReturnZero(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat", WithSession(NewSession()), WithMissingStubPolicy(PolicyReturnZero))

	g.Expect(m.Intercept(methodCall("Sound"))).To(BeNil())
	g.Expect(Out[string](m.Intercept(methodCall("Sound")), 0)).To(Equal(""))
}

// TestMissingStub_PolicyReturnDefault verifies pre-registered legal defaults
// are returned deterministically.
func TestMissingStub_PolicyReturnDefault(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat",
		WithSession(NewSession()),
		WithMissingStubPolicy(PolicyReturnDefault),
		WithDefaultResponse("Sound", "Mew"))

	g.Expect(m.Intercept(methodCall("Sound"))).To(Equal([]any{"Mew"}))
	g.Expect(m.Intercept(methodCall("Unknown"))).To(BeNil())
}

// TestReset_ClearsStubsAndCalls and clearInteractions keeps stubs.
func TestReset_ClearsStubsAndCalls(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat", WithSession(NewSession()), WithMissingStubPolicy(PolicyReturnZero))
	stubOn(t, m, methodCall("Sound")).ThenReturn("Purr")
	m.Intercept(methodCall("Sound"))

	m.Reset()

	g.Expect(VerifyZeroInteractions(m)).To(Succeed())
	g.Expect(m.Intercept(methodCall("Sound"))).To(BeNil(), "stub should be gone after Reset")
}

// TestClearInteractions_KeepsStubs verifies the calls-only reset.
func TestClearInteractions_KeepsStubs(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	m := NewMock("cat", WithSession(NewSession()))
	stubOn(t, m, methodCall("Sound")).ThenReturn("Purr")
	m.Intercept(methodCall("Sound"))

	m.ClearInteractions()

	g.Expect(VerifyZeroInteractions(m)).To(Succeed())
	g.Expect(m.Intercept(methodCall("Sound"))).To(Equal([]any{"Purr"}))
}

// TestOut_CoercesResults covers zero-filling and type mismatch.
func TestOut_CoercesResults(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	g.Expect(Out[string]([]any{"hi", nil}, 0)).To(Equal("hi"))
	g.Expect(Out[error]([]any{"hi", nil}, 1)).To(BeNil())
	g.Expect(Out[int](nil, 0)).To(Equal(0))
	g.Expect(func() { Out[int]([]any{"oops"}, 0) }).To(
		PanicWith(BeAssignableToTypeOf(&UsageError{})))
}
