package classification

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/holdscan/internal/model"
)

// Classifier assigns a taxonomy path to a holding.
type Classifier interface {
	Classify(name, code string) model.TaxonomyPath
}

// Engine evaluates an ordered rule table. It is immutable once built and safe for concurrent
// use.
type Engine struct {
	rules []Rule
}

// NewEngine builds an engine over rules, evaluated in the given order.
func NewEngine(rules []Rule) (*Engine, error) {
	for i, r := range rules {
		if r.Matcher == nil {
			return nil, fmt.Errorf("rule %d has no matcher", i+1)
		}
	}
	if n := len(rules); n == 0 || rules[n-1].Matcher.kind() != (DefaultMatcher{}).kind() {
		slog.Warn("Rule table does not end with a default rule; unmatched holdings fall back to 其他/其他/其他")
	}

	owned := make([]Rule, len(rules))
	copy(owned, rules)
	return &Engine{rules: owned}, nil
}

var defaultEngine = sync.OnceValue(func() *Engine {
	return &Engine{rules: DefaultRules()}
})

// Default returns the engine over the built-in rule table.
func Default() *Engine {
	return defaultEngine()
}

// Rules returns the engine's rule table.
func (e *Engine) Rules() []Rule {
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	return rules
}

// Classify returns the category of the first rule matching name. The code is accepted for
// callers that have one but does not take part in matching.
func (e *Engine) Classify(name, _ string) model.TaxonomyPath {
	for _, r := range e.rules {
		if ok, _ := r.Matcher.Match(name); ok {
			return r.Category
		}
	}
	return model.FallbackPath
}

// Trace classifies like Classify and also returns a line per evaluated rule explaining the
// outcome.
func (e *Engine) Trace(name, code string) (model.TaxonomyPath, []string) {
	if code == "" {
		code = "-"
	}
	trace := []string{fmt.Sprintf("classifying %s (code %s)", name, code)}

	for i, r := range e.rules {
		ok, notes := r.Matcher.Match(name)
		for _, n := range notes {
			trace = append(trace, fmt.Sprintf("  rule %d [%s]: %s", i+1, r.Matcher.kind(), n))
		}
		if ok {
			trace = append(trace, fmt.Sprintf("  => rule %d matched: %s", i+1, r.Category))
			return r.Category, trace
		}
	}

	trace = append(trace, fmt.Sprintf("  => no rule matched, using %s", model.FallbackPath))
	return model.FallbackPath, trace
}

// ClassifyRecords attaches a taxonomy path to every record.
func ClassifyRecords(c Classifier, records []model.Record) []model.ClassifiedRecord {
	classified := make([]model.ClassifiedRecord, len(records))
	for i, r := range records {
		classified[i] = model.ClassifiedRecord{
			Record:   r,
			Taxonomy: c.Classify(r.Name, r.Code),
		}
	}
	return classified
}
