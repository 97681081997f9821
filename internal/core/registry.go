package core

// matcherRegistry is the staging area where argument matchers are recorded
// before being woven into an expectation invocation. Anonymous matchers queue
// in registration order; named matchers live in a name-keyed map. The
// registry is owned by a Session and must be fully drained by the next
// completed call: stray matchers are a usage error, never silent corruption.
type matcherRegistry struct {
	queue []*ArgMatcher
	named map[string]*ArgMatcher
}

func (r *matcherRegistry) pushAnonymous(am *ArgMatcher) {
	r.queue = append(r.queue, am)
}

func (r *matcherRegistry) pushNamed(name string, am *ArgMatcher) error {
	if r.named == nil {
		r.named = make(map[string]*ArgMatcher)
	}

	if _, dup := r.named[name]; dup {
		return usagef(
			"two argument matchers registered under the name %q before the call completed; "+
				"each named argument takes exactly one matcher", name)
	}

	am.name = name
	r.named[name] = am

	return nil
}

func (r *matcherRegistry) empty() bool {
	return len(r.queue) == 0 && len(r.named) == 0
}

func (r *matcherRegistry) clear() {
	r.queue = nil
	r.named = nil
}

// reconcile substitutes registered matchers into the placeholder slots of a
// raw invocation, producing the expectation invocation. A placeholder is an
// argument deep-equal to the zero value the matcher factory returned. The
// registry is cleared unconditionally, on success and on error, so a failed
// call cannot corrupt the next one.
func (r *matcherRegistry) reconcile(raw Invocation) (Invocation, error) {
	defer r.clear()

	if r.empty() {
		return raw, nil
	}

	out := raw
	out.Args = append([]any(nil), raw.Args...)

	if len(raw.Named) > 0 || len(r.named) > 0 {
		named, err := r.reconcileNamed(raw)
		if err != nil {
			return Invocation{}, err
		}

		out.Named = named
	}

	args, err := r.reconcilePositional(out.Args, raw.Member)
	if err != nil {
		return Invocation{}, err
	}

	out.Args = args

	return out, nil
}

// reconcileNamed runs first: every registered named matcher must find a
// same-named argument slot holding its placeholder.
func (r *matcherRegistry) reconcileNamed(raw Invocation) (map[string]any, error) {
	named := make(map[string]any, len(raw.Named))
	for name, value := range raw.Named {
		named[name] = value
	}

	for name, am := range r.named {
		value, present := named[name]
		if !present {
			return nil, usagef(
				"an argument matcher was registered under the name %q, but the call to %s has "+
					"no named argument by that name", name, raw.Member)
		}

		if !valuesEqual(value, am.placeholder) {
			return nil, usagef(
				"the named argument %q of %s already holds %#v, which conflicts with the "+
					"matcher registered under that name; pass the matcher's return value through "+
					"unchanged", name, raw.Member, value)
		}

		named[name] = am
	}

	return named, nil
}

// reconcilePositional walks the queued matchers and the raw positional
// arguments left to right. A raw argument that equals the next queued
// matcher's placeholder consumes that matcher; genuine arguments pass through
// untouched. Matchers left over after the walk are a usage error.
func (r *matcherRegistry) reconcilePositional(args []any, member string) ([]any, error) {
	next := 0

	for i, arg := range args {
		if next >= len(r.queue) {
			break
		}

		if valuesEqual(arg, r.queue[next].placeholder) {
			args[i] = r.queue[next]
			next++
		}
	}

	if next < len(r.queue) {
		return nil, usagef(
			"%d argument matcher(s) were registered but never consumed by the call to %s; "+
				"if a matcher was meant for a named argument, use the Named variant "+
				"(AnyNamed, ArgThatNamed, ...), and do not create matchers outside a mock call",
			len(r.queue)-next, member)
	}

	return args, nil
}
