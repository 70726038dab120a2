package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// countRule pairs a phrase with the pattern that captures the count next to it.
type countRule struct {
	phrase string
	re     *regexp.Regexp
}

// countRules are evaluated in order; an earlier rule wins over an earlier
// position in the text.
var countRules = []countRule{
	{"residência", regexp.MustCompile(`(?i)(\d+)\s*residência`)},
	{"casa", regexp.MustCompile(`(?i)(\d+)\s*casa`)},
	{"moradia", regexp.MustCompile(`(?i)(\d+)\s*moradia`)},
	{"imóvel", regexp.MustCompile(`(?i)(\d+)\s*imóve`)},
	{"unidade", regexp.MustCompile(`(?i)(\d+)\s*unidade`)},
	{"aproximadamente", regexp.MustCompile(`(?i)aproximadamente\s*(\d+)`)},
	{"cerca de", regexp.MustCompile(`(?i)cerca de\s*(\d+)`)},
	{"em torno de", regexp.MustCompile(`(?i)em torno de\s*(\d+)`)},
	{"total", regexp.MustCompile(`(?i)total.*?(\d+)`)},
	{"identificad", regexp.MustCompile(`(?i)identificad.*?(\d+)`)},
}

// bareNumberRe matches the first standalone positive integer.
var bareNumberRe = regexp.MustCompile(`\b([1-9]\d*)\b`)

// ExtractResidenceCount pulls a residence count out of an analysis description.
// The first matching rule in countRules wins; otherwise the first standalone
// positive integer is used; otherwise the count is 0. It never fails.
func ExtractResidenceCount(description string) int {
	if strings.TrimSpace(description) == "" {
		return 0
	}

	for _, rule := range countRules {
		if n, ok := captureInt(rule.re, description); ok {
			return n
		}
	}

	if n, ok := captureInt(bareNumberRe, description); ok {
		return n
	}
	return 0
}

// MatchedPhrase reports which rule produced the count, "number" for the
// bare-number fallback, or "" when nothing matched.
func MatchedPhrase(description string) string {
	for _, rule := range countRules {
		if _, ok := captureInt(rule.re, description); ok {
			return rule.phrase
		}
	}
	if _, ok := captureInt(bareNumberRe, description); ok {
		return "number"
	}
	return ""
}

// ConfidenceFor is the heuristic confidence attached to an extracted count.
func ConfidenceFor(count int) float64 {
	if count > 0 {
		return 0.85
	}
	return 0.5
}

// captureInt returns the first capture group of re as an int. Captures that
// overflow int are treated as no match.
func captureInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 || m[1] == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
