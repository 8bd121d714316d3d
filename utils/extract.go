/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/humaidq/labreport/db"
)

// valuePattern finds the first numeric token after a test name. Bracketed
// units such as "(g/dL)" or "(10^3/uL)" and dot leaders are skipped over. A
// single dot right before a digit belongs to the token, as in ".5".
var valuePattern = regexp.MustCompile(`^(?:\([^)\n]*\)|[^\d\n(.]|\.{2,}|\.[^\d\n(.])*?(\.?\d[\d.,]*)`)

// thousandsPattern matches numbers grouped with comma thousands separators.
var thousandsPattern = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)

// Extractor finds known lab tests and their values in recognized text
type Extractor struct {
	table    *db.ReferenceTable
	ranges   []db.ReferenceRange
	patterns []namePattern
}

type namePattern struct {
	test int
	re   *regexp.Regexp
}

type nameMatch struct {
	test       int
	start, end int
}

// NewExtractor compiles a case-insensitive pattern for every test name and
// alias in table.
func NewExtractor(table *db.ReferenceTable) *Extractor {
	e := &Extractor{
		table:  table,
		ranges: table.Ranges(),
	}

	for i, r := range e.ranges {
		for _, name := range r.Names() {
			fields := strings.Fields(name)
			if len(fields) == 0 {
				continue
			}

			quoted := make([]string, len(fields))
			for j, field := range fields {
				quoted[j] = regexp.QuoteMeta(field)
			}

			e.patterns = append(e.patterns, namePattern{
				test: i,
				re:   regexp.MustCompile(`(?i)` + strings.Join(quoted, `[ \t]+`)),
			})
		}
	}

	return e
}

// ExtractResults is a convenience wrapper around NewExtractor(table).Extract
func ExtractResults(text string, table *db.ReferenceTable) []db.ExtractedResult {
	return NewExtractor(table).Extract(text)
}

// Extract returns one classified result per test found in text, in table
// order. For each test the first occurrence followed by a well-formed number
// wins. Occurrences with a malformed number are skipped.
func (e *Extractor) Extract(text string) []db.ExtractedResult {
	results := make([]db.ExtractedResult, 0)
	if strings.TrimSpace(text) == "" {
		return results
	}

	matches := e.claimNames(text)

	values := make(map[int]float64)

	for i, m := range matches {
		if _, done := values[m.test]; done {
			continue
		}

		limit := len(text)
		if nl := strings.IndexByte(text[m.end:], '\n'); nl >= 0 {
			limit = m.end + nl
		}
		if i+1 < len(matches) && matches[i+1].start < limit {
			limit = matches[i+1].start
		}

		sub := valuePattern.FindStringSubmatch(text[m.end:limit])
		if sub == nil {
			continue
		}

		value, err := parseNumber(sub[1])
		if err != nil {
			continue
		}

		values[m.test] = value
	}

	for i, r := range e.ranges {
		value, ok := values[i]
		if !ok {
			continue
		}

		results = append(results, e.table.NewResult(r.TestName, value))
	}

	return results
}

// claimNames finds every whole-word occurrence of a test name and resolves
// overlaps in favor of the longer name. The survivors are in text order.
func (e *Extractor) claimNames(text string) []nameMatch {
	var candidates []nameMatch

	for _, p := range e.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			if !isWordBoundary(text, loc[0], loc[1]) {
				continue
			}

			candidates = append(candidates, nameMatch{test: p.test, start: loc[0], end: loc[1]})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		li := candidates[i].end - candidates[i].start
		lj := candidates[j].end - candidates[j].start
		if li != lj {
			return li > lj
		}

		return candidates[i].start < candidates[j].start
	})

	var claimed []nameMatch

	for _, c := range candidates {
		overlaps := false

		for _, k := range claimed {
			if c.start < k.end && k.start < c.end {
				overlaps = true
				break
			}
		}

		if !overlaps {
			claimed = append(claimed, c)
		}
	}

	sort.Slice(claimed, func(i, j int) bool {
		return claimed[i].start < claimed[j].start
	})

	return claimed
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}

	// A digit may follow directly, as in "Hemoglobin14.2".
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if unicode.IsLetter(r) {
			return false
		}
	}

	return true
}

// parseNumber converts a numeric token to a float. Trailing punctuation is
// dropped and comma thousands separators are removed. Any other comma, or a
// second decimal point, makes the token malformed.
func parseNumber(token string) (float64, error) {
	token = strings.TrimRight(token, ".,")
	if token == "" {
		return 0, errMalformedNumber
	}

	if strings.Contains(token, ",") {
		if !thousandsPattern.MatchString(token) {
			return 0, fmt.Errorf("%w: %q", errMalformedNumber, token)
		}

		token = strings.ReplaceAll(token, ",", "")
	}

	value, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errMalformedNumber, token)
	}

	return value, nil
}
