// SPDX-FileCopyrightText: 2026 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/humaidq/labreport/db"
)

func sampleResults() []db.ExtractedResult {
	table := db.DefaultReferenceTable()

	return []db.ExtractedResult{
		table.NewResult("Hemoglobin", 9.0),
		table.NewResult("Cholesterol", 180),
		table.NewResult("HDL", 55),
		table.NewResult("Vitamin D, total", 31.5),
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResults()[:1]); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	want := "Test,Value,Unit,Normal Range,Status\nHemoglobin,9,g/dL,13 - 17,Low\n"
	if buf.String() != want {
		t.Fatalf("unexpected CSV:\n%s", buf.String())
	}
}

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	results := sampleResults()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, results); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if len(got) != len(results) {
		t.Fatalf("expected %d rows, got %d", len(results), len(got))
	}

	for i := range results {
		want := results[i]
		have := got[i]

		if have.TestName != want.TestName || have.Value != want.Value || have.Unit != want.Unit ||
			have.NormalRange != want.NormalRange || have.Status != want.Status {
			t.Fatalf("row %d: expected %+v, got %+v", i, want, have)
		}

		if (have.RangeLow == nil) != (want.RangeLow == nil) || (have.RangeHigh == nil) != (want.RangeHigh == nil) {
			t.Fatalf("row %d: bounds not restored: %+v", i, have)
		}
		if want.RangeLow != nil && *have.RangeLow != *want.RangeLow {
			t.Fatalf("row %d: low bound %v, want %v", i, *have.RangeLow, *want.RangeLow)
		}
		if want.RangeHigh != nil && *have.RangeHigh != *want.RangeHigh {
			t.Fatalf("row %d: high bound %v, want %v", i, *have.RangeHigh, *want.RangeHigh)
		}
	}
}

func TestReadCSVErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data string
		want error
	}{
		{name: "empty", data: "", want: ErrCSVHeader},
		{name: "wrong header", data: "Name,Value,Unit,Range,Status\n", want: ErrCSVHeader},
		{name: "bad value", data: "Test,Value,Unit,Normal Range,Status\nHemoglobin,abc,g/dL,13 - 17,Low\n", want: ErrCSVRow},
		{name: "bad status", data: "Test,Value,Unit,Normal Range,Status\nHemoglobin,9,g/dL,13 - 17,Meh\n", want: ErrCSVRow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ReadCSV(strings.NewReader(tc.data)); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseRangeDisplay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in        string
		low, high *float64
	}{
		{in: "13 - 17", low: floatPtr(13), high: floatPtr(17)},
		{in: "< 200", high: floatPtr(200)},
		{in: "> 40", low: floatPtr(40)},
		{in: "N/A"},
		{in: ""},
	}

	for _, tc := range cases {
		low, high := parseRangeDisplay(tc.in)
		if !floatPtrEqual(low, tc.low) || !floatPtrEqual(high, tc.high) {
			t.Fatalf("parseRangeDisplay(%q) = %v, %v", tc.in, low, high)
		}
	}
}

func TestWritePDF(t *testing.T) {
	t.Parallel()

	set := &db.ResultSet{
		SourceName: "cbc.png",
		CreatedAt:  time.Date(2026, time.March, 3, 9, 30, 0, 0, time.UTC),
		Results:    sampleResults(),
	}
	set.Results = append(set.Results, db.DefaultReferenceTable().NewResult("RBC", 4.8))

	var buf bytes.Buffer
	if err := WritePDF(&buf, set); err != nil {
		t.Fatalf("WritePDF failed: %v", err)
	}

	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", buf.Bytes()[:min(8, buf.Len())])
	}

	var empty bytes.Buffer
	if err := WritePDF(&empty, &db.ResultSet{}); err != nil {
		t.Fatalf("WritePDF of empty set failed: %v", err)
	}
}

func floatPtr(v float64) *float64 {
	return &v
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
