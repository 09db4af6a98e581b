package transpile

import (
	"strings"

	"github.com/wippyai/resumable/transpile/internal/engine"
)

// FunctionMatcher picks functions for Config.OnlyList and
// Config.RemoveList by name. The name is the identifier of a function
// declaration or of a named function expression. The name a variable
// gives a function expression does not count, and anonymous functions are
// never matched: they are rewritten unless an OnlyList is set.
type FunctionMatcher = engine.FunctionMatcher

// NameSet matches exact function names.
type NameSet map[string]struct{}

// NewNameSet returns a set holding names.
func NewNameSet(names ...string) NameSet {
	s := make(NameSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s NameSet) MatchFunction(name string) bool {
	_, ok := s[name]
	return ok
}

// Prefixes matches names beginning with any of its entries. An empty
// entry matches every named function.
type Prefixes []string

func (p Prefixes) MatchFunction(name string) bool {
	for _, prefix := range p {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// AnyOf matches a name accepted by one of its matchers.
type AnyOf []FunctionMatcher

func (a AnyOf) MatchFunction(name string) bool {
	for _, m := range a {
		if m != nil && m.MatchFunction(name) {
			return true
		}
	}
	return false
}

// ParseFunctionPatterns reads the comma separated lists of the -only and
// -remove flags, already split. "load" selects that name, "io*" every
// name starting with io, and "*" every named function. Blank entries are
// skipped; nil is returned when nothing is left, which leaves the Config
// field unset.
func ParseFunctionPatterns(patterns []string) FunctionMatcher {
	names := NameSet{}
	var prefixes Prefixes
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			prefixes = append(prefixes, prefix)
			continue
		}
		names[p] = struct{}{}
	}

	switch {
	case len(prefixes) == 0 && len(names) == 0:
		return nil
	case len(prefixes) == 0:
		return names
	case len(names) == 0:
		return prefixes
	}
	return AnyOf{names, prefixes}
}
