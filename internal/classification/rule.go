// Package classification maps holding names onto the three-level asset taxonomy using an
// ordered, first-match rule table.
package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Veraticus/holdscan/internal/model"
)

// Matcher is the predicate of one rule. Each rule kind is its own type and carries only the
// fields that kind needs.
type Matcher interface {
	// Match reports whether name satisfies the predicate. The returned notes describe the
	// evaluation for diagnostic traces.
	Match(name string) (bool, []string)
	kind() string
}

// Rule pairs a predicate with the taxonomy path it assigns.
type Rule struct {
	Matcher  Matcher
	Category model.TaxonomyPath
}

// ExactMatcher matches when the name equals one of Names.
type ExactMatcher struct {
	Names []string
}

func (m ExactMatcher) kind() string { return "exact" }

// Match implements Matcher.
func (m ExactMatcher) Match(name string) (bool, []string) {
	for _, n := range m.Names {
		if n == name {
			return true, []string{fmt.Sprintf("exact match on %q", n)}
		}
	}
	return false, nil
}

// Guard narrows a keyword match. A keyword rule has at most one guard.
type Guard interface {
	allow(name string) (bool, string)
}

// RequireAny lets a keyword match through only when at least one of Terms is present.
type RequireAny struct {
	Terms []string
}

func (g RequireAny) allow(name string) (bool, string) {
	found := presentTerms(name, g.Terms)
	if len(found) == 0 {
		return false, fmt.Sprintf("and-keywords missing: need one of %v", g.Terms)
	}
	return true, fmt.Sprintf("and-keywords found %v", found)
}

// ExcludeAny rejects a keyword match when any of Terms is present.
type ExcludeAny struct {
	Terms []string
}

func (g ExcludeAny) allow(name string) (bool, string) {
	found := presentTerms(name, g.Terms)
	if len(found) > 0 {
		return false, fmt.Sprintf("excluded by %v", found)
	}
	return true, fmt.Sprintf("none of exclusions %v present", g.Terms)
}

// KeywordMatcher matches on substrings of the name. All keywords must be present unless
// MatchAny is set.
type KeywordMatcher struct {
	Guard    Guard
	Keywords []string
	MatchAny bool
}

func (m KeywordMatcher) kind() string { return "keywords" }

// Match implements Matcher.
func (m KeywordMatcher) Match(name string) (bool, []string) {
	found := presentTerms(name, m.Keywords)

	var ok bool
	var notes []string
	if m.MatchAny {
		ok = len(found) > 0
		if ok {
			notes = append(notes, fmt.Sprintf("keywords (any) found %v", found))
		}
	} else {
		ok = len(found) == len(m.Keywords)
		if len(found) > 0 {
			notes = append(notes, fmt.Sprintf("keywords found %v", found))
		}
		if missing := missingTerms(name, m.Keywords); len(missing) > 0 {
			notes = append(notes, fmt.Sprintf("keywords missing %v", missing))
		}
	}

	if m.Guard != nil {
		allowed, note := m.Guard.allow(name)
		notes = append(notes, note)
		ok = ok && allowed
	}
	return ok, notes
}

// RegexMatcher matches when the expression is found anywhere in the name.
type RegexMatcher struct {
	Pattern *regexp.Regexp
}

func (m RegexMatcher) kind() string { return "regex" }

// Match implements Matcher.
func (m RegexMatcher) Match(name string) (bool, []string) {
	if m.Pattern.MatchString(name) {
		return true, []string{fmt.Sprintf("regex %q matched", m.Pattern.String())}
	}
	return false, nil
}

// DefaultMatcher always matches. It terminates a well-formed table.
type DefaultMatcher struct{}

func (DefaultMatcher) kind() string { return "default" }

// Match implements Matcher.
func (DefaultMatcher) Match(string) (bool, []string) {
	return true, []string{"default rule"}
}

func presentTerms(name string, terms []string) []string {
	var found []string
	for _, t := range terms {
		if strings.Contains(name, t) {
			found = append(found, t)
		}
	}
	return found
}

func missingTerms(name string, terms []string) []string {
	var missing []string
	for _, t := range terms {
		if !strings.Contains(name, t) {
			missing = append(missing, t)
		}
	}
	return missing
}
