package redact

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule rewrites every match of Pattern using Template. ${index} in the
// template becomes a number that is stable per distinct matched value, so
// redacted output stays joinable without exposing the original text.
type Rule struct {
	Name     string
	Pattern  *regexp.Regexp
	Template string
}

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+44\s?|0)\d(?:[ -]?\d){8,9}`)
)

// DefaultRules covers the personal data that shows up in trip notes and
// account emails.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "email", Pattern: emailPattern, Template: "user-${index}@example.com"},
		{Name: "phone", Pattern: phonePattern, Template: "redacted-phone-${index}"},
	}
}

// Redactor applies a fixed rule set. Numbering is kept across calls so the
// same email redacts to the same placeholder throughout one export.
type Redactor struct {
	rules []Rule
	seen  []map[string]int
}

func New(rules ...Rule) *Redactor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	seen := make([]map[string]int, len(rules))
	for i := range seen {
		seen[i] = make(map[string]int)
	}
	return &Redactor{rules: rules, seen: seen}
}

// Redact rewrites all rule matches in s.
func (r *Redactor) Redact(s string) string {
	for i, rule := range r.rules {
		indexes := r.seen[i]
		template := rule.Template
		s = rule.Pattern.ReplaceAllStringFunc(s, func(match string) string {
			index, ok := indexes[match]
			if !ok {
				index = len(indexes) + 1
				indexes[match] = index
			}
			return renderTemplate(template, index)
		})
	}
	return s
}

// Replacements returns how many distinct values have been redacted so far.
func (r *Redactor) Replacements() int {
	total := 0
	for _, indexes := range r.seen {
		total += len(indexes)
	}
	return total
}

// renderTemplate substitutes ${index} in a rule template
func renderTemplate(template string, index int) string {
	if !strings.Contains(template, "${index}") {
		return template
	}
	return strings.ReplaceAll(template, "${index}", strconv.Itoa(index))
}
