/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReferenceRange is the accepted [low, high] interval for one lab test. A nil
// bound is open on that side.
type ReferenceRange struct {
	TestName string          `yaml:"name"`
	Aliases  []string        `yaml:"aliases,omitempty"`
	Unit     string          `yaml:"unit,omitempty"`
	Category LabTestCategory `yaml:"category,omitempty"`
	Low      *float64        `yaml:"low,omitempty"`
	High     *float64        `yaml:"high,omitempty"`
}

// ptr is a helper to create pointers to float64 literals
func ptr(f float64) *float64 {
	return &f
}

// Names returns the test name followed by its aliases.
func (r ReferenceRange) Names() []string {
	names := make([]string, 0, len(r.Aliases)+1)
	names = append(names, r.TestName)
	names = append(names, r.Aliases...)

	return names
}

// Classify compares value against the range bounds.
func (r ReferenceRange) Classify(value float64) Status {
	if r.Low != nil && value < *r.Low {
		return StatusLow
	}

	if r.High != nil && value > *r.High {
		return StatusHigh
	}

	return StatusNormal
}

// Display renders the range for tables and exports
func (r ReferenceRange) Display() string {
	switch {
	case r.Low != nil && r.High != nil:
		return FormatValue(*r.Low) + " - " + FormatValue(*r.High)
	case r.High != nil:
		return "< " + FormatValue(*r.High)
	case r.Low != nil:
		return "> " + FormatValue(*r.Low)
	default:
		return "N/A"
	}
}

// FormatValue formats a lab value with the fewest digits that round-trip.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DefaultReferenceRanges returns the built-in reference range table.
// Complete blood count ranges are adult unisex values.
func DefaultReferenceRanges() []ReferenceRange {
	return []ReferenceRange{
		// ===== COMPLETE BLOOD COUNT =====
		{
			TestName: "Hemoglobin", Aliases: []string{"Haemoglobin", "Hb", "HGB"},
			Unit: "g/dL", Category: CategoryBloodCounts,
			Low: ptr(13.0), High: ptr(17.0),
		},
		{
			TestName: "RBC", Aliases: []string{"RBC Count", "Red blood cells", "Red Blood Cell Count", "Total RBC"},
			Unit: "×10⁶/μL", Category: CategoryBloodCounts,
			Low: ptr(4.5), High: ptr(5.5),
		},
		{
			TestName: "PCV", Aliases: []string{"Packed Cell Volume", "HCT", "Hematocrit", "Haematocrit"},
			Unit: "%", Category: CategoryBloodCounts,
			Low: ptr(40), High: ptr(50),
		},
		{
			TestName: "MCV", Aliases: []string{"M.C.V", "Mean Corpuscular Volume"},
			Unit: "fL", Category: CategoryBloodCounts,
			Low: ptr(83), High: ptr(101),
		},
		{
			TestName: "MCH", Aliases: []string{"M.C.H", "Mean Corpuscular Hemoglobin", "Mean Corpuscular Haemoglobin"},
			Unit: "pg", Category: CategoryBloodCounts,
			Low: ptr(27), High: ptr(32),
		},
		{
			TestName: "MCHC", Aliases: []string{"M.C.H.C", "Mean Corpuscular Hemoglobin Concentration", "Mean Corpuscular Haemoglobin Concentration"},
			Unit: "g/dL", Category: CategoryBloodCounts,
			Low: ptr(31.5), High: ptr(34.5),
		},
		{
			TestName: "RDW", Aliases: []string{"RDW-CV", "RDW - CV", "Red Cell Distribution Width"},
			Unit: "%", Category: CategoryBloodCounts,
			Low: ptr(11.6), High: ptr(14.0),
		},
		{
			TestName: "WBC", Aliases: []string{"WBC Count", "White blood cells", "Total Leukocyte Count", "TLC"},
			Unit: "×10³/μL", Category: CategoryBloodCounts,
			Low: ptr(4.0), High: ptr(10.0),
		},
		{
			TestName: "Platelet", Aliases: []string{"Platelets", "Platelet Count", "PLT"},
			Unit: "×10³/μL", Category: CategoryBloodCounts,
			Low: ptr(150), High: ptr(410),
		},

		// ===== METABOLIC =====
		{
			TestName: "Blood Sugar", Aliases: []string{"Blood Glucose", "Glucose"},
			Unit: "mg/dL", Category: CategoryMetabolic,
			Low: ptr(70), High: ptr(140),
		},

		// ===== LIPID PANEL =====
		// HDL and LDL are listed so their names claim the text before the
		// shorter "Cholesterol" does.
		{
			TestName: "Cholesterol", Aliases: []string{"Total Cholesterol"},
			Unit: "mg/dL", Category: CategoryLipidPanel,
			Low: nil, High: ptr(200),
		},
		{
			TestName: "HDL Cholesterol", Aliases: []string{"HDL"},
			Unit: "mg/dL", Category: CategoryLipidPanel,
			Low: ptr(40), High: nil,
		},
		{
			TestName: "LDL Cholesterol", Aliases: []string{"LDL"},
			Unit: "mg/dL", Category: CategoryLipidPanel,
			Low: nil, High: ptr(100),
		},
		{
			TestName: "Triglycerides", Aliases: []string{"TG"},
			Unit: "mg/dL", Category: CategoryLipidPanel,
			Low: nil, High: ptr(150),
		},
	}
}

// ReferenceTable is an immutable, validated set of reference ranges indexed
// by test name and alias.
type ReferenceTable struct {
	ranges []ReferenceRange
	index  map[string]int
}

// NewReferenceTable validates ranges and builds the lookup index
func NewReferenceTable(ranges []ReferenceRange) (*ReferenceTable, error) {
	table := &ReferenceTable{
		ranges: make([]ReferenceRange, 0, len(ranges)),
		index:  make(map[string]int),
	}

	for _, r := range ranges {
		r.TestName = strings.TrimSpace(r.TestName)
		if r.TestName == "" {
			return nil, ErrReferenceRangeNameRequired
		}

		if r.Low != nil && r.High != nil && *r.Low > *r.High {
			return nil, fmt.Errorf("%w: %s", ErrReferenceRangeBounds, r.TestName)
		}

		if r.Category == "" {
			r.Category = CategoryOther
		}

		position := len(table.ranges)
		for _, name := range r.Names() {
			key := normalizeTestName(name)
			if key == "" {
				continue
			}

			if existing, ok := table.index[key]; ok && existing != position {
				return nil, fmt.Errorf("%w: %q", ErrReferenceRangeDuplicate, name)
			}

			table.index[key] = position
		}

		r.Aliases = append([]string(nil), r.Aliases...)
		table.ranges = append(table.ranges, r)
	}

	return table, nil
}

// DefaultReferenceTable returns the table built from DefaultReferenceRanges
func DefaultReferenceTable() *ReferenceTable {
	table, err := NewReferenceTable(DefaultReferenceRanges())
	if err != nil {
		panic(err)
	}

	return table
}

// referenceRangeFile is the YAML layout accepted by LoadReferenceTable
type referenceRangeFile struct {
	ReplaceDefaults bool             `yaml:"replace_defaults"`
	Tests           []ReferenceRange `yaml:"tests"`
}

// LoadReferenceTable reads reference ranges from a YAML file and merges them
// over the defaults. A test with the same name as a default replaces it. An
// empty path returns the default table.
func LoadReferenceTable(path string) (*ReferenceTable, error) {
	if path == "" {
		return DefaultReferenceTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference ranges: %w", err)
	}

	return ParseReferenceTable(data)
}

// ParseReferenceTable parses YAML reference range data. See LoadReferenceTable.
func ParseReferenceTable(data []byte) (*ReferenceTable, error) {
	var file referenceRangeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse reference ranges: %w", err)
	}

	var merged []ReferenceRange
	if !file.ReplaceDefaults {
		merged = DefaultReferenceRanges()
	}

	for _, override := range file.Tests {
		replaced := false

		for i := range merged {
			if normalizeTestName(merged[i].TestName) == normalizeTestName(override.TestName) {
				merged[i] = override
				replaced = true

				break
			}
		}

		if !replaced {
			merged = append(merged, override)
		}
	}

	table, err := NewReferenceTable(merged)
	if err != nil {
		return nil, fmt.Errorf("invalid reference ranges: %w", err)
	}

	logger.Info("Loaded reference ranges", "count", len(table.ranges), "replace_defaults", file.ReplaceDefaults)

	return table, nil
}

// Ranges returns a copy of the ranges in table order
func (t *ReferenceTable) Ranges() []ReferenceRange {
	out := make([]ReferenceRange, len(t.ranges))
	copy(out, t.ranges)

	return out
}

// Len returns the number of tests in the table
func (t *ReferenceTable) Len() int {
	return len(t.ranges)
}

// Lookup finds a range by test name or alias, ignoring case and spacing
func (t *ReferenceTable) Lookup(name string) (ReferenceRange, bool) {
	i, ok := t.index[normalizeTestName(name)]
	if !ok {
		return ReferenceRange{}, false
	}

	return t.ranges[i], true
}

// Classify returns the status of value for the named test. Names absent from
// the table are Unknown.
func (t *ReferenceTable) Classify(name string, value float64) Status {
	r, ok := t.Lookup(name)
	if !ok {
		return StatusUnknown
	}

	return r.Classify(value)
}

// NewResult builds a classified result row for the named test. Unknown names
// keep the name as given and have no range.
func (t *ReferenceTable) NewResult(name string, value float64) ExtractedResult {
	r, ok := t.Lookup(name)
	if !ok {
		return ExtractedResult{
			TestName:    strings.TrimSpace(name),
			Value:       value,
			NormalRange: "N/A",
			Status:      StatusUnknown,
		}
	}

	return ExtractedResult{
		TestName:    r.TestName,
		Value:       value,
		Unit:        r.Unit,
		RangeLow:    copyFloat(r.Low),
		RangeHigh:   copyFloat(r.High),
		NormalRange: r.Display(),
		Status:      r.Classify(value),
	}
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}

	return ptr(*f)
}

func normalizeTestName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
