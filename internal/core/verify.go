package core

// VerificationResult reports the outcome of a single verification: how many
// real calls matched, and the values extracted by capturing matchers across
// all matched calls, in call order.
type VerificationResult struct {
	Calls    int
	Captured []any
}

// Called asserts the exact number of matched calls, panicking with a
// VerificationError on mismatch. Returns the result for chaining.
func (r *VerificationResult) Called(n int) *VerificationResult {
	if r.Calls != n {
		panic(verifyf("expected %d matching call(s), found %d", n, r.Calls))
	}

	return r
}
