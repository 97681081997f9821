package core

import "fmt"

// UsageError reports programmer misuse of the stubbing/verification DSL:
// nested mode entry, dangling argument matchers, named-matcher mismatches,
// and so on. Usage errors are surfaced immediately as panics so that misuse
// cannot silently corrupt a later, unrelated call.
type UsageError struct {
	msg string
}

func (e *UsageError) Error() string {
	return "invalid use of feign: " + e.msg
}

func usagef(format string, args ...any) *UsageError {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

// VerificationError reports an assertion failure: no matching calls found,
// unexpected calls found for a never-check, or a gap in an in-order batch.
// The message itemizes the actual call log for diagnosis.
type VerificationError struct {
	msg string
}

func (e *VerificationError) Error() string {
	return "verification failed: " + e.msg
}

func verifyf(format string, args ...any) *VerificationError {
	return &VerificationError{msg: fmt.Sprintf(format, args...)}
}

// MissingStubError reports a real call that matched no stub on a mock
// constructed with PolicyPanic.
type MissingStubError struct {
	// Call is the rendered invocation that had no stub.
	Call string
}

func (e *MissingStubError) Error() string {
	return fmt.Sprintf(
		"no stub found for %s; stub it first with When(func() { ... }).ThenReturn(...), "+
			"or construct the mock with WithMissingStubPolicy(PolicyReturnZero)",
		e.Call)
}
