package feign

import (
	"github.com/feigntest/feign/internal/core"
)

// Argument matcher factories. Each factory registers a matcher with the
// session as a side effect and returns the zero value of T, which occupies
// the matcher's argument slot at the call site until the surrounding mock
// call reconciles it:
//
//	Verify(func() { cat.EatFood(Any[string]()) })
//
// The zero value is the placeholder: with matchers registered for a call, a
// literal zero value of the same type at an earlier position must itself be
// wrapped (for example ArgThat[int](gomega.Equal(0))), or reconciliation will
// attach the matcher to the wrong slot.

// Any matches any value in a positional argument slot.
func Any[T any]() T {
	return register[T](core.MatchAnything(), false)
}

// AnyNamed matches any value in the named argument slot called name.
func AnyNamed[T any](name string) T {
	return registerNamed[T](name, core.MatchAnything(), false)
}

// ArgThat matches a positional argument against m. Any gomega matcher works.
func ArgThat[T any](m Matcher) T {
	return register[T](m, false)
}

// ArgThatNamed matches the named argument called name against m.
func ArgThatNamed[T any](name string, m Matcher) T {
	return registerNamed[T](name, m, false)
}

// CaptureAny matches any value and captures the matched values into the
// verification result.
func CaptureAny[T any]() T {
	return register[T](core.MatchAnything(), true)
}

// CaptureAnyNamed is CaptureAny for the named argument called name.
func CaptureAnyNamed[T any](name string) T {
	return registerNamed[T](name, core.MatchAnything(), true)
}

// CaptureThat matches a positional argument against m and captures the
// matched values.
func CaptureThat[T any](m Matcher) T {
	return register[T](m, true)
}

// CaptureThatNamed is CaptureThat for the named argument called name.
func CaptureThatNamed[T any](name string, m Matcher) T {
	return registerNamed[T](name, m, true)
}

// Satisfies adapts a predicate into a Matcher: nil means match, an error
// describes the mismatch.
func Satisfies[T any](predicate func(T) error) Matcher {
	return core.Satisfies(predicate)
}

func register[T any](m Matcher, capture bool) T {
	var zero T

	core.ActiveSession().RegisterAnonymous(core.NewArgMatcher(m, capture, zero))

	return zero
}

func registerNamed[T any](name string, m Matcher, capture bool) T {
	var zero T

	core.ActiveSession().RegisterNamed(name, core.NewArgMatcher(m, capture, zero))

	return zero
}
