/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LabTestCategory represents the category of a lab test
type LabTestCategory string

// LabTestCategory values represent supported lab test buckets.
const (
	CategoryBloodCounts LabTestCategory = "Blood Counts"
	CategoryMetabolic   LabTestCategory = "Metabolic"
	CategoryLipidPanel  LabTestCategory = "Lipid Panel"
	CategoryOther       LabTestCategory = "Other"
)

// Status is the classification of a lab value against its reference range
type Status string

// Status values. Low and High are both abnormal.
const (
	StatusNormal  Status = "Normal"
	StatusLow     Status = "Low"
	StatusHigh    Status = "High"
	StatusUnknown Status = "Unknown"
)

// Abnormal reports whether the status falls outside the reference range.
func (s Status) Abnormal() bool {
	return s == StatusLow || s == StatusHigh
}

// ParseStatus converts a status label back into a Status. Matching is
// case-insensitive.
func ParseStatus(label string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "normal":
		return StatusNormal, nil
	case "low":
		return StatusLow, nil
	case "high":
		return StatusHigh, nil
	case "unknown", "":
		return StatusUnknown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, label)
	}
}

// ExtractedResult is one row of the result table for a single detected test
type ExtractedResult struct {
	TestName    string
	Value       float64
	Unit        string
	RangeLow    *float64
	RangeHigh   *float64
	NormalRange string
	Status      Status
	IsManual    bool // Entered by hand rather than read from the report
}

// ResultSet holds the extracted results of one uploaded report for the
// duration of the interaction.
type ResultSet struct {
	ID         uuid.UUID
	SourceName string
	Text       string
	CreatedAt  time.Time
	Results    []ExtractedResult
	Warnings   []string
	Saved      bool // Unchanged since last saved to the log or history

	// Progress of the current save, so a retry after a partial failure does
	// not repeat the steps that already succeeded.
	LoggedToCSV bool
	ReportID    uuid.UUID
}

// MarkChanged clears the saved state after the results were edited.
func (r *ResultSet) MarkChanged() {
	r.Saved = false
	r.LoggedToCSV = false
	r.ReportID = uuid.Nil
}

// AbnormalCount returns the number of results outside their reference range.
func (r *ResultSet) AbnormalCount() int {
	count := 0
	for _, result := range r.Results {
		if result.Status.Abnormal() {
			count++
		}
	}

	return count
}

// HasTest reports whether the set already contains a result for testName.
func (r *ResultSet) HasTest(testName string) bool {
	for _, result := range r.Results {
		if strings.EqualFold(result.TestName, testName) {
			return true
		}
	}

	return false
}

// LabReport represents a saved report
type LabReport struct {
	ID         uuid.UUID `db:"id"`
	SourceName string    `db:"source_name"`
	OCRText    *string   `db:"ocr_text"`
	CreatedAt  time.Time `db:"created_at"`
}

// LabReportSummary represents a report with result statistics
type LabReportSummary struct {
	LabReport
	ResultCount   int `db:"result_count"`
	AbnormalCount int `db:"abnormal_count"`
}

// LabReportResult represents an individual saved lab test result
type LabReportResult struct {
	ID        uuid.UUID `db:"id"`
	ReportID  uuid.UUID `db:"report_id"`
	TestName  string    `db:"test_name"`
	TestUnit  *string   `db:"test_unit"`
	TestValue float64   `db:"test_value"`
	RangeLow  *float64  `db:"range_low"`
	RangeHigh *float64  `db:"range_high"`
	Status    Status    `db:"status"`
	IsManual  bool      `db:"is_manual"`
	Position  int       `db:"position"`
}

// LabReportDetail is a saved report with its ordered results
type LabReportDetail struct {
	LabReport
	Results []LabReportResult
}

// LabResultWithDate represents a lab result with the date its report was saved
type LabResultWithDate struct {
	TestName   string
	TestUnit   string
	TestValue  float64
	Status     Status
	ReportDate time.Time
}

// TestNameCount represents a test name with its count
type TestNameCount struct {
	TestName string
	Count    int
}

// CSVLogEntry is one row of the flat CSV log
type CSVLogEntry struct {
	Date      time.Time
	Parameter string
	Value     float64
	Status    Status
}
