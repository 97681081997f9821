// Package core provides the internal implementation of feign's stubbing,
// verification, capture, and wait infrastructure.
package core

import (
	"fmt"
	"sort"
	"strings"
)

// CallKind identifies what flavor of member an Invocation records.
type CallKind int

const (
	// KindMethod is an ordinary method call.
	KindMethod CallKind = iota
	// KindGetter is a property read.
	KindGetter
	// KindSetter is a property write.
	KindSetter
)

func (k CallKind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindGetter:
		return "getter"
	case KindSetter:
		return "setter"
	default:
		return fmt.Sprintf("CallKind(%d)", int(k))
	}
}

// Invocation is a record of a single member access on a mock: the member's
// identity, the kind of access, and its positional and named arguments.
// Invocations come in two flavors: real ones, built from actual call-site
// values, and expectations, whose argument slots may hold matchers after
// reconciliation. Treat an Invocation as immutable once built.
type Invocation struct {
	Member string
	Kind   CallKind
	Args   []any
	Named  map[string]any
}

// String renders the invocation as Member(arg, ..., name: arg) for
// diagnostics. Named arguments print in sorted order.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+len(inv.Named))
	for _, arg := range inv.Args {
		parts = append(parts, formatArg(arg))
	}

	for _, name := range sortedNames(inv.Named) {
		parts = append(parts, name+": "+formatArg(inv.Named[name]))
	}

	if inv.Kind == KindGetter {
		return inv.Member + strings.Join(parts, ", ")
	}

	return inv.Member + "(" + strings.Join(parts, ", ") + ")"
}

// formatArg renders one argument slot, letting matchers describe themselves.
func formatArg(v any) string {
	if m, ok := v.(*ArgMatcher); ok {
		return m.describe()
	}

	return fmt.Sprintf("%#v", v)
}

func sortedNames(named map[string]any) []string {
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
