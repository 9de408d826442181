package classification

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/Veraticus/holdscan/internal/common"
	"github.com/Veraticus/holdscan/internal/model"
	"gopkg.in/yaml.v3"
)

// RuleSpec is the serialized form of a rule, as found in rule files and API responses.
type RuleSpec struct {
	Regex       string   `yaml:"regex,omitempty" json:"regex,omitempty"`
	ExactMatch  []string `yaml:"exact_match,omitempty" json:"exact_match,omitempty"`
	Keywords    []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	AndKeywords []string `yaml:"and_keywords,omitempty" json:"and_keywords,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Category    []string `yaml:"category" json:"category"`
	MatchAny    bool     `yaml:"match_any,omitempty" json:"match_any,omitempty"`
	Default     bool     `yaml:"default,omitempty" json:"default,omitempty"`
}

// RuleFile is the top-level document of a rule file.
type RuleFile struct {
	Rules []RuleSpec `yaml:"rules" json:"rules"`
}

// Compile validates the spec and builds the matching rule variant. A spec must describe
// exactly one rule kind.
func (s RuleSpec) Compile() (Rule, error) {
	if len(s.Category) != len(model.TaxonomyPath{}) {
		return Rule{}, fmt.Errorf("%w: category needs 3 levels, got %d", common.ErrInvalidRule, len(s.Category))
	}
	var category model.TaxonomyPath
	copy(category[:], s.Category)

	kinds := 0
	for _, present := range []bool{len(s.ExactMatch) > 0, len(s.Keywords) > 0, s.Regex != "", s.Default} {
		if present {
			kinds++
		}
	}
	if kinds != 1 {
		return Rule{}, fmt.Errorf("%w: rule for %s must set exactly one of exact_match, keywords, regex, default", common.ErrInvalidRule, category)
	}

	hasQualifiers := s.MatchAny || len(s.AndKeywords) > 0 || len(s.Exclude) > 0
	if hasQualifiers && len(s.Keywords) == 0 {
		return Rule{}, fmt.Errorf("%w: match_any, and_keywords and exclude require keywords (rule for %s)", common.ErrInvalidRule, category)
	}

	switch {
	case len(s.ExactMatch) > 0:
		return Rule{Matcher: ExactMatcher{Names: s.ExactMatch}, Category: category}, nil

	case len(s.Keywords) > 0:
		if len(s.AndKeywords) > 0 && len(s.Exclude) > 0 {
			return Rule{}, fmt.Errorf("%w: rule for %s sets both and_keywords and exclude", common.ErrInvalidRule, category)
		}
		m := KeywordMatcher{Keywords: s.Keywords, MatchAny: s.MatchAny}
		switch {
		case len(s.AndKeywords) > 0:
			m.Guard = RequireAny{Terms: s.AndKeywords}
		case len(s.Exclude) > 0:
			m.Guard = ExcludeAny{Terms: s.Exclude}
		}
		return Rule{Matcher: m, Category: category}, nil

	case s.Regex != "":
		re, err := regexp.Compile(s.Regex)
		if err != nil {
			return Rule{}, fmt.Errorf("%w: failed to compile regex for %s: %w", common.ErrInvalidRule, category, err)
		}
		return Rule{Matcher: RegexMatcher{Pattern: re}, Category: category}, nil

	default:
		return Rule{Matcher: DefaultMatcher{}, Category: category}, nil
	}
}

// Spec converts a rule back to its serialized form.
func (r Rule) Spec() RuleSpec {
	s := RuleSpec{Category: r.Category[:]}
	switch m := r.Matcher.(type) {
	case ExactMatcher:
		s.ExactMatch = m.Names
	case KeywordMatcher:
		s.Keywords = m.Keywords
		s.MatchAny = m.MatchAny
		switch g := m.Guard.(type) {
		case RequireAny:
			s.AndKeywords = g.Terms
		case ExcludeAny:
			s.Exclude = g.Terms
		}
	case RegexMatcher:
		s.Regex = m.Pattern.String()
	case DefaultMatcher:
		s.Default = true
	}
	return s
}

// CompileRules compiles specs in order. Errors name the offending rule's position.
func CompileRules(specs []RuleSpec) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	var errs []error
	for i, s := range specs {
		r, err := s.Compile()
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i+1, err))
			continue
		}
		rules = append(rules, r)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return rules, nil
}

// ParseRules decodes a YAML (or JSON) rule document.
func ParseRules(data []byte) ([]Rule, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidRule, err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("%w: rule file has no rules", common.ErrInvalidRule)
	}
	return CompileRules(file.Rules)
}

// LoadRules reads a rule file from disk.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from user configuration
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}
	rules, err := ParseRules(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rule file %s: %w", path, err)
	}
	return rules, nil
}

// MarshalRules encodes rules as a YAML rule document.
func MarshalRules(rules []Rule) ([]byte, error) {
	file := RuleFile{Rules: make([]RuleSpec, len(rules))}
	for i, r := range rules {
		file.Rules[i] = r.Spec()
	}
	return yaml.Marshal(file)
}
