// SPDX-FileCopyrightText: 2026 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
)

func testContext() context.Context {
	return context.Background()
}

func floatPtr(value float64) *float64 {
	return &value
}

func assertFloatPtrEqual(t *testing.T, got, want *float64) {
	t.Helper()
	if got == nil && want == nil {
		return
	}
	if got == nil || want == nil {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if *got != *want {
		t.Fatalf("expected %v, got %v", *want, *got)
	}
}

func sampleResultSet() *ResultSet {
	table := DefaultReferenceTable()

	manual := table.NewResult("Vitamin D", 31)
	manual.IsManual = true

	return &ResultSet{
		SourceName: "cbc.png",
		Text:       "Hemoglobin 9.0 g/dL\nPlatelet Count 250",
		Results: []ExtractedResult{
			table.NewResult("Hemoglobin", 9.0),
			table.NewResult("Platelet", 250),
			manual,
		},
	}
}
