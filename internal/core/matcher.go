package core

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
)

// Matcher defines the interface for flexible argument matching.
// Compatible with gomega.GomegaMatcher via duck typing - any type
// implementing Match and FailureMessage will work.
type Matcher interface {
	Match(actual any) (success bool, err error)
	FailureMessage(actual any) string
}

// MatchValue checks if actual matches expected.
// If expected is an *ArgMatcher, its predicate is applied.
// Otherwise, reflect.DeepEqual decides.
// Returns (success, failureMessage). On success the message is empty.
func MatchValue(actual, expected any) (bool, string) {
	if am, ok := expected.(*ArgMatcher); ok {
		success, err := am.matcher.Match(actual)
		if err != nil {
			return false, err.Error()
		}

		if !success {
			return false, am.matcher.FailureMessage(actual)
		}

		return true, ""
	}

	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}

	return false, fmt.Sprintf("expected %#v, got %#v", expected, actual)
}

// valuesEqual checks if two values are equal using reflect.DeepEqual.
func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// ArgMatcher is a predicate standing in for a literal argument value in an
// expectation invocation, optionally flagged to capture the real value it
// matched. The placeholder field records the zero value the matcher factory
// returned at the call site; reconciliation uses it to locate the matcher's
// slot in the raw argument list.
type ArgMatcher struct {
	matcher     Matcher
	capture     bool
	placeholder any
	name        string // non-empty for named matchers
}

// NewArgMatcher wraps a Matcher for registration. placeholder must be the
// exact value the factory returned in the matcher's argument slot.
func NewArgMatcher(m Matcher, capture bool, placeholder any) *ArgMatcher {
	return &ArgMatcher{matcher: m, capture: capture, placeholder: placeholder}
}

func (am *ArgMatcher) describe() string {
	prefix := ""
	if am.capture {
		prefix = "capture "
	}

	if _, isAny := am.matcher.(anyMatcher); isAny {
		return "<" + prefix + "any>"
	}

	return fmt.Sprintf("<%sthat %T>", prefix, am.matcher)
}

// invocationMatches reports whether actual satisfies expectation: member
// identity and kind must be identical, positional arity and named key-sets
// must be identical, and every argument pair must match per MatchValue.
//
// As a side effect of a full match, the actual values at capture-flagged
// positions are appended to sink, positional slots first, then named slots in
// sorted name order. Pass a nil sink when captures are not wanted (stub
// resolution, wait matching).
func invocationMatches(expectation, actual Invocation, sink *[]any) bool {
	if expectation.Member != actual.Member || expectation.Kind != actual.Kind {
		return false
	}

	if len(expectation.Args) != len(actual.Args) {
		return false
	}

	if !sameNamedKeys(expectation.Named, actual.Named) {
		return false
	}

	for i, want := range expectation.Args {
		if ok, _ := MatchValue(actual.Args[i], want); !ok {
			return false
		}
	}

	for name, want := range expectation.Named {
		if ok, _ := MatchValue(actual.Named[name], want); !ok {
			return false
		}
	}

	if sink != nil {
		appendCaptures(expectation, actual, sink)
	}

	return true
}

func sameNamedKeys(a, b map[string]any) bool {
	if len(a) != len(b) {
		return false
	}

	for name := range a {
		if _, ok := b[name]; !ok {
			return false
		}
	}

	return true
}

// appendCaptures collects actual values matched by capture-flagged matchers.
// Only called after a successful full match.
func appendCaptures(expectation, actual Invocation, sink *[]any) {
	for i, want := range expectation.Args {
		if am, ok := want.(*ArgMatcher); ok && am.capture {
			*sink = append(*sink, actual.Args[i])
		}
	}

	names := make([]string, 0, len(expectation.Named))
	for name := range expectation.Named {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		if am, ok := expectation.Named[name].(*ArgMatcher); ok && am.capture {
			*sink = append(*sink, actual.Named[name])
		}
	}
}

// errTypeMismatch is a sentinel error for type assertion failures inside
// predicate matchers.
var errTypeMismatch = errors.New("type mismatch")

// MatchAnything returns a matcher that matches any value.
func MatchAnything() Matcher {
	return anyMatcher{}
}

// anyMatcher is the implementation behind Any and CaptureAny.
type anyMatcher struct{}

// Match always returns true - matches any value.
func (anyMatcher) Match(any) (bool, error) {
	return true, nil
}

// FailureMessage returns an empty string since anyMatcher always matches.
func (anyMatcher) FailureMessage(any) string {
	return ""
}

// Satisfies returns a matcher that uses a predicate function to check for a
// match. The predicate should return nil if the value matches, or an error
// describing the mismatch.
func Satisfies[T any](predicate func(T) error) Matcher {
	return &satisfiesMatcher[T]{predicate: predicate}
}

type satisfiesMatcher[T any] struct {
	predicate func(T) error
	lastErr   error
}

func (m *satisfiesMatcher[T]) Match(actual any) (bool, error) {
	val, ok := actual.(T)
	if !ok {
		return false, fmt.Errorf("%w: expected %T, got %T", errTypeMismatch, *new(T), actual)
	}

	m.lastErr = m.predicate(val)

	return m.lastErr == nil, nil
}

func (m *satisfiesMatcher[T]) FailureMessage(actual any) string {
	if m.lastErr != nil {
		return fmt.Sprintf("value %v does not satisfy predicate: %v", actual, m.lastErr)
	}

	return fmt.Sprintf("value %v does not satisfy predicate", actual)
}
