// Package extract holds the free-text field heuristics used by the
// conversation flow. Every extractor is a pure function returning the parsed
// value and whether anything usable was found; the flow re-prompts on a miss.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	amountRe = regexp.MustCompile(`(?i)(\d+(?:,\d{2,3})*(?:\.\d+)?)\s*(lakhs?|lacs?|crores?|cr|k|l)?`)
	tenureRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(years?|yrs?|y|months?|mos?|m)?`)
	emailRe  = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe  = regexp.MustCompile(`(?:^|[^\d])(?:\+?91[\s\-]*)?([6-9](?:[\s\-]*\d){9})(?:\D|$)`)
	digitRe  = regexp.MustCompile(`\d`)
	taxIDRe  = regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b`)
	nameRe   = regexp.MustCompile(`^[A-Za-z][A-Za-z.'\-]*(?:\s+[A-Za-z][A-Za-z.'\-]*)+$`)
)

// Amount parses a currency amount from text, honouring the common shorthand
// multipliers (50k, 2.5 lakh, 1 cr). The result is whole currency units.
func Amount(text string) (int64, bool) {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(m[2]) {
	case "k":
		value *= 1_000
	case "l", "lakh", "lakhs", "lac", "lacs":
		value *= 100_000
	case "cr", "crore", "crores":
		value *= 10_000_000
	}
	if value <= 0 || value > math.MaxInt64/2 {
		return 0, false
	}
	return int64(math.Round(value)), true
}

// TenureMonths parses a loan duration. A bare number is read as months;
// year units multiply by twelve.
func TenureMonths(text string) (int, bool) {
	m := tenureRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	unit := strings.ToLower(m[2])
	if strings.HasPrefix(unit, "y") {
		value *= 12
	}
	months := int(math.Round(value))
	if months <= 0 || months > 600 {
		return 0, false
	}
	return months, true
}

// Email finds the first well-formed email address in the text.
func Email(text string) (string, bool) {
	m := emailRe.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.ToLower(m), true
}

// Phone finds a ten-digit mobile number, with or without a +91 prefix.
// Spaces and dashes inside the number are tolerated and stripped. A longer
// digit run is rejected outright rather than silently trimmed to ten.
func Phone(text string) (string, bool) {
	m := phoneRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.Join(digitRe.FindAllString(m[1], -1), ""), true
}

// TaxID finds a PAN-style tax identifier (five letters, four digits, one
// letter). Input is upper-cased before matching so casual casing still works.
func TaxID(text string) (string, bool) {
	m := taxIDRe.FindString(strings.ToUpper(text))
	if m == "" {
		return "", false
	}
	return m, true
}

var namePrefixes = []string{
	"my name is", "i am called", "this is", "i am", "i'm", "it's", "name:",
}

// FullName pulls a person name out of a short reply. Lead-ins like "my name
// is" are stripped first; what remains must look like at least two name
// words.
func FullName(text string) (string, bool) {
	candidate := strings.TrimSpace(text)
	lowered := strings.ToLower(candidate)
	for _, prefix := range namePrefixes {
		if idx := strings.Index(lowered, prefix); idx >= 0 {
			candidate = strings.TrimSpace(candidate[idx+len(prefix):])
			break
		}
	}
	candidate = strings.Trim(candidate, ".!,")
	if candidate == "" || !nameRe.MatchString(candidate) {
		return "", false
	}
	if len(strings.Fields(candidate)) > 5 {
		return "", false
	}
	return candidate, true
}

var (
	selfEmployedHints = []string{
		"self-employed", "self employed", "own business", "my business",
		"freelance", "freelancer", "entrepreneur", "proprietor", "founder",
		"consultant", "shop",
	}
	salariedHints = []string{
		"salaried", "salary", "employee", "employed", "job", "work at",
		"work for", "working at", "working for", "company", "private", "government",
	}
)

// EmploymentKind classifies free text as salaried or self-employed. The
// self-employed hints are checked first since phrases like "my own business
// pays a salary" should land on the self-employed side.
func EmploymentKind(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, hint := range selfEmployedHints {
		if strings.Contains(lowered, hint) {
			return "self-employed", true
		}
	}
	for _, hint := range salariedHints {
		if strings.Contains(lowered, hint) {
			return "salaried", true
		}
	}
	return "", false
}

// ContainsAny reports whether any of the keywords appears in the text. Used
// by the terminal stages, which run on keyword matching rather than
// structured extraction.
func ContainsAny(text string, keywords ...string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
