/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/humaidq/labreport/db"
)

// CSVHeader is the column layout of exported result tables
var CSVHeader = []string{"Test", "Value", "Unit", "Normal Range", "Status"}

// WriteCSV writes results as a CSV table with a header row
func WriteCSV(w io.Writer, results []db.ExtractedResult) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range results {
		record := []string{r.TestName, db.FormatValue(r.Value), r.Unit, r.NormalRange, string(r.Status)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return nil
}

// ReadCSV parses a table written by WriteCSV
func ReadCSV(r io.Reader) ([]db.ExtractedResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(CSVHeader)

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrCSVHeader)
		}

		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	for i, column := range CSVHeader {
		if strings.TrimSpace(header[i]) != column {
			return nil, fmt.Errorf("%w: %v", ErrCSVHeader, header)
		}
	}

	results := make([]db.ExtractedResult, 0)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		line, _ := reader.FieldPos(0)

		value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCSVRow, line, err)
		}

		status, err := db.ParseStatus(record[4])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrCSVRow, line, err)
		}

		low, high := parseRangeDisplay(record[3])

		results = append(results, db.ExtractedResult{
			TestName:    strings.TrimSpace(record[0]),
			Value:       value,
			Unit:        strings.TrimSpace(record[2]),
			RangeLow:    low,
			RangeHigh:   high,
			NormalRange: strings.TrimSpace(record[3]),
			Status:      status,
		})
	}

	return results, nil
}

// parseRangeDisplay reverses ReferenceRange.Display. Unrecognized text gives
// no bounds.
func parseRangeDisplay(display string) (*float64, *float64) {
	display = strings.TrimSpace(display)

	parse := func(s string) *float64 {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}

		return &v
	}

	switch {
	case strings.HasPrefix(display, "<"):
		return nil, parse(display[1:])
	case strings.HasPrefix(display, ">"):
		return parse(display[1:]), nil
	}

	low, high, ok := strings.Cut(display, " - ")
	if !ok {
		return nil, nil
	}

	return parse(low), parse(high)
}

// pdfReplacer maps glyphs missing from the PDF core fonts to ASCII.
var pdfReplacer = strings.NewReplacer(
	"μ", "u",
	"⁶", "^6",
	"³", "^3",
	"×", "x",
	"–", "-",
)

// WritePDF renders a result set as a one-page A4 report. Abnormal values are
// printed in red.
func WritePDF(w io.Writer, set *db.ResultSet) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Lab Report Analysis", true)
	pdf.SetCreator("labreport", true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	text := func(s string) string {
		return tr(pdfReplacer.Replace(s))
	}

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Lab Report Analysis", "", 1, "L", false, 0, "")

	created := set.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	if set.SourceName != "" {
		pdf.CellFormat(0, 6, text("Source: "+set.SourceName), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 6, "Date: "+created.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Results: %d, abnormal: %d", len(set.Results), set.AbnormalCount()), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{55, 25, 30, 40, 30}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	pdf.SetTextColor(0, 0, 0)
	for i, column := range CSVHeader {
		pdf.CellFormat(widths[i], 8, column, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)

	for _, r := range set.Results {
		cells := []string{r.TestName, db.FormatValue(r.Value), r.Unit, r.NormalRange, string(r.Status)}

		for i, cell := range cells {
			pdf.SetTextColor(0, 0, 0)
			if i == len(cells)-1 {
				setStatusColor(pdf, r.Status)
			}
			pdf.CellFormat(widths[i], 7, text(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if len(set.Results) == 0 {
		pdf.SetTextColor(90, 90, 90)
		pdf.CellFormat(0, 8, "No known tests were found in this report.", "", 1, "L", false, 0, "")
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.MultiCell(0, 4, "Values were read automatically and classified against general adult reference ranges. "+
		"Confirm every value against the original report and consult a clinician.", "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	return nil
}

func setStatusColor(pdf *fpdf.Fpdf, status db.Status) {
	switch {
	case status.Abnormal():
		pdf.SetTextColor(192, 32, 32)
	case status == db.StatusNormal:
		pdf.SetTextColor(24, 128, 56)
	default:
		pdf.SetTextColor(110, 110, 110)
	}
}
