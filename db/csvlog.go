/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const csvLogDateFormat = "2006-01-02"

var csvLogHeader = []string{"Date", "Parameter", "Value", "Status"}

// csvLogMutex serializes appends from this process. Other processes writing
// the same file are not coordinated.
var csvLogMutex sync.Mutex

// CSVLog is the flat append-only log of saved results
type CSVLog struct {
	Path string
}

// NewCSVLog returns a log writing to path. An empty path or "-" disables it
// and returns nil.
func NewCSVLog(path string) *CSVLog {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return nil
	}

	return &CSVLog{Path: path}
}

// Append writes one row per result dated date. The header is written when the
// file is new or empty. It returns the number of rows written.
func (l *CSVLog) Append(date time.Time, results []ExtractedResult) (int, error) {
	if len(results) == 0 {
		return 0, ErrNoResultsToSave
	}

	csvLogMutex.Lock()
	defer csvLogMutex.Unlock()

	file, err := os.OpenFile(l.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return 0, fmt.Errorf("failed to open CSV log: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("Failed to close CSV log", "path", l.Path, "error", err)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat CSV log: %w", err)
	}

	w := csv.NewWriter(file)

	if info.Size() == 0 {
		if err := w.Write(csvLogHeader); err != nil {
			return 0, fmt.Errorf("failed to write CSV log header: %w", err)
		}
	}

	day := date.Format(csvLogDateFormat)
	for _, result := range results {
		record := []string{day, result.TestName, FormatValue(result.Value), string(result.Status)}
		if err := w.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write CSV log row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush CSV log: %w", err)
	}

	logger.Info("Appended results to CSV log", "path", l.Path, "rows", len(results))

	return len(results), nil
}

// Read returns every row in the log. A missing file is an empty log.
func (l *CSVLog) Read() ([]CSVLogEntry, error) {
	csvLogMutex.Lock()
	defer csvLogMutex.Unlock()

	file, err := os.Open(l.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to open CSV log: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			logger.Warn("Failed to close CSV log", "path", l.Path, "error", err)
		}
	}()

	return parseCSVLog(file)
}

// ResultsByTestName returns logged values for testName in file order
func (l *CSVLog) ResultsByTestName(testName string) ([]LabResultWithDate, error) {
	entries, err := l.Read()
	if err != nil {
		return nil, err
	}

	var results []LabResultWithDate

	for _, entry := range entries {
		if !strings.EqualFold(entry.Parameter, testName) {
			continue
		}

		results = append(results, LabResultWithDate{
			TestName:   entry.Parameter,
			TestValue:  entry.Value,
			Status:     entry.Status,
			ReportDate: entry.Date,
		})
	}

	return results, nil
}

// TestNamesWithCounts returns each logged parameter with its row count, in
// order of first appearance.
func (l *CSVLog) TestNamesWithCounts() ([]TestNameCount, error) {
	entries, err := l.Read()
	if err != nil {
		return nil, err
	}

	positions := make(map[string]int)

	var counts []TestNameCount

	for _, entry := range entries {
		i, ok := positions[entry.Parameter]
		if !ok {
			positions[entry.Parameter] = len(counts)
			counts = append(counts, TestNameCount{TestName: entry.Parameter})
			i = len(counts) - 1
		}

		counts[i].Count++
	}

	return counts, nil
}

func parseCSVLog(r io.Reader) ([]CSVLogEntry, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvLogHeader)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read CSV log header: %w", err)
	}

	for i, column := range csvLogHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), column) {
			return nil, fmt.Errorf("%w: %v", ErrCSVLogHeader, header)
		}
	}

	var entries []CSVLogEntry

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read CSV log: %w", err)
		}

		line, _ := reader.FieldPos(0)

		date, err := time.Parse(csvLogDateFormat, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCSVLogRow, line, err)
		}

		value, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCSVLogRow, line, err)
		}

		status, err := ParseStatus(record[3])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCSVLogRow, line, err)
		}

		entries = append(entries, CSVLogEntry{
			Date:      date,
			Parameter: strings.TrimSpace(record[1]),
			Value:     value,
			Status:    status,
		})
	}

	return entries, nil
}
