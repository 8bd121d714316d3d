// SPDX-FileCopyrightText: 2026 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewCSVLogDisabled(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", "-", "  "} {
		if log := NewCSVLog(path); log != nil {
			t.Fatalf("expected %q to disable the log", path)
		}
	}
}

func TestCSVLogAppendAndRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "patient_data.csv")
	log := NewCSVLog(path)
	set := sampleResultSet()

	day1 := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, time.February, 5, 10, 0, 0, 0, time.UTC)

	n, err := log.Append(day1, set.Results)
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}

	if _, err := log.Append(day2, set.Results[:1]); err != nil {
		t.Fatalf("second Append failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header plus 4 rows, got %d lines", len(lines))
	}
	if lines[0] != "Date,Parameter,Value,Status" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if lines[1] != "2026-01-05,Hemoglobin,9,Low" {
		t.Fatalf("unexpected first row %q", lines[1])
	}

	entries, err := log.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	if entries[3].Parameter != "Hemoglobin" || !entries[3].Date.Equal(time.Date(2026, time.February, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected last entry %+v", entries[3])
	}

	history, err := log.ResultsByTestName("HEMOGLOBIN")
	if err != nil {
		t.Fatalf("ResultsByTestName failed: %v", err)
	}
	if len(history) != 2 || history[0].Status != StatusLow {
		t.Fatalf("unexpected history %+v", history)
	}

	counts, err := log.TestNamesWithCounts()
	if err != nil {
		t.Fatalf("TestNamesWithCounts failed: %v", err)
	}
	if len(counts) != 3 || counts[0].TestName != "Hemoglobin" || counts[0].Count != 2 {
		t.Fatalf("unexpected counts %+v", counts)
	}
}

func TestCSVLogAppendEmpty(t *testing.T) {
	t.Parallel()

	log := NewCSVLog(filepath.Join(t.TempDir(), "log.csv"))
	if _, err := log.Append(time.Now(), nil); !errors.Is(err, ErrNoResultsToSave) {
		t.Fatalf("expected ErrNoResultsToSave, got %v", err)
	}
}

func TestCSVLogReadMissing(t *testing.T) {
	t.Parallel()

	log := NewCSVLog(filepath.Join(t.TempDir(), "missing.csv"))

	entries, err := log.Read()
	if err != nil || entries != nil {
		t.Fatalf("expected empty log, got %v, %v", entries, err)
	}
}

func TestParseCSVLogErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data string
		want error
	}{
		{name: "bad header", data: "When,What,Value,Status\n", want: ErrCSVLogHeader},
		{name: "bad date", data: "Date,Parameter,Value,Status\nyesterday,Hemoglobin,9,Low\n", want: ErrCSVLogRow},
		{name: "bad value", data: "Date,Parameter,Value,Status\n2026-01-01,Hemoglobin,nine,Low\n", want: ErrCSVLogRow},
		{name: "bad status", data: "Date,Parameter,Value,Status\n2026-01-01,Hemoglobin,9,Bad\n", want: ErrCSVLogRow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := parseCSVLog(strings.NewReader(tc.data)); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	entries, err := parseCSVLog(strings.NewReader(""))
	if err != nil || entries != nil {
		t.Fatalf("expected empty file to parse as empty log, got %v, %v", entries, err)
	}
}
