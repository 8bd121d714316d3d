/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ========== Report Operations ==========

// SaveReport stores a result set and its rows in one transaction and returns
// the new report ID.
func SaveReport(ctx context.Context, set *ResultSet) (uuid.UUID, error) {
	if pool == nil {
		return uuid.Nil, ErrDatabaseConnectionNotInitialized
	}

	if set == nil || len(set.Results) == 0 {
		return uuid.Nil, ErrNoResultsToSave
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("Failed to roll back lab report transaction", "error", err)
		}
	}()

	var ocrText *string
	if strings.TrimSpace(set.Text) != "" {
		ocrText = &set.Text
	}

	var id uuid.UUID

	err = tx.QueryRow(ctx, `
		INSERT INTO lab_reports (source_name, ocr_text)
		VALUES ($1, $2)
		RETURNING id
	`, set.SourceName, ocrText).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create lab report: %w", err)
	}

	batch := &pgx.Batch{}

	for i, result := range set.Results {
		var unit *string
		if result.Unit != "" {
			unit = &result.Unit
		}

		batch.Queue(`
			INSERT INTO lab_report_results
				(report_id, test_name, test_unit, test_value, range_low, range_high, status, is_manual, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, id, result.TestName, unit, result.Value, result.RangeLow, result.RangeHigh,
			string(result.Status), result.IsManual, i)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create lab report results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit lab report: %w", err)
	}

	logger.Info("Saved lab report", "id", id, "source", set.SourceName, "results", len(set.Results))

	return id, nil
}

// ListReports returns all saved reports with result counts, newest first
func ListReports(ctx context.Context) ([]LabReportSummary, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT id, source_name, ocr_text, created_at, result_count, abnormal_count
		FROM lab_reports_summary
		ORDER BY created_at DESC
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list lab reports: %w", err)
	}
	defer rows.Close()

	var reports []LabReportSummary
	for rows.Next() {
		var report LabReportSummary
		err := rows.Scan(
			&report.ID, &report.SourceName, &report.OCRText, &report.CreatedAt,
			&report.ResultCount, &report.AbnormalCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lab report: %w", err)
		}
		reports = append(reports, report)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lab reports: %w", err)
	}

	return reports, nil
}

// GetReport returns a saved report with its results in saved order
func GetReport(ctx context.Context, id string) (*LabReportDetail, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	reportID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReportNotFound, err)
	}

	var report LabReportDetail
	err = pool.QueryRow(ctx, `
		SELECT id, source_name, ocr_text, created_at
		FROM lab_reports
		WHERE id = $1
	`, reportID).Scan(&report.ID, &report.SourceName, &report.OCRText, &report.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get lab report: %w", err)
	}

	rows, err := pool.Query(ctx, `
		SELECT id, report_id, test_name, test_unit, test_value, range_low, range_high, status, is_manual, position
		FROM lab_report_results
		WHERE report_id = $1
		ORDER BY position ASC
	`, reportID)
	if err != nil {
		return nil, fmt.Errorf("failed to get lab report results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result LabReportResult
		err := rows.Scan(
			&result.ID, &result.ReportID, &result.TestName, &result.TestUnit, &result.TestValue,
			&result.RangeLow, &result.RangeHigh, &result.Status, &result.IsManual, &result.Position,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lab report result: %w", err)
		}
		report.Results = append(report.Results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lab report results: %w", err)
	}

	return &report, nil
}

// DeleteReport deletes a report and, by cascade, its results
func DeleteReport(ctx context.Context, id string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	reportID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReportNotFound, err)
	}

	tag, err := pool.Exec(ctx, `DELETE FROM lab_reports WHERE id = $1`, reportID)
	if err != nil {
		return fmt.Errorf("failed to delete lab report: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}

	logger.Info("Deleted lab report", "id", reportID)

	return nil
}

// GetResultsByTestName returns every saved value for a test, oldest report first
func GetResultsByTestName(ctx context.Context, testName string) ([]LabResultWithDate, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT r.test_name, COALESCE(r.test_unit, ''), r.test_value, r.status, l.created_at
		FROM lab_report_results r
		INNER JOIN lab_reports l ON r.report_id = l.id
		WHERE lower(r.test_name) = lower($1)
		ORDER BY l.created_at ASC
	`

	rows, err := pool.Query(ctx, query, testName)
	if err != nil {
		return nil, fmt.Errorf("failed to get lab results by test name: %w", err)
	}
	defer rows.Close()

	var results []LabResultWithDate
	for rows.Next() {
		var result LabResultWithDate
		err := rows.Scan(&result.TestName, &result.TestUnit, &result.TestValue, &result.Status, &result.ReportDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lab result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lab results: %w", err)
	}

	return results, nil
}

// GetTestNamesWithCounts returns all saved test names with their result counts
func GetTestNamesWithCounts(ctx context.Context) ([]TestNameCount, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		SELECT test_name, COUNT(*) AS count
		FROM lab_report_results
		GROUP BY test_name
		ORDER BY test_name ASC
	`

	rows, err := pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get test names with counts: %w", err)
	}
	defer rows.Close()

	var tests []TestNameCount
	for rows.Next() {
		var test TestNameCount
		if err := rows.Scan(&test.TestName, &test.Count); err != nil {
			return nil, fmt.Errorf("failed to scan test name count: %w", err)
		}
		tests = append(tests, test)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating test names: %w", err)
	}

	return tests, nil
}

// ResultSet converts a saved report back into a result set for display and
// export.
func (d *LabReportDetail) ResultSet() *ResultSet {
	set := &ResultSet{
		ID:         d.ID,
		SourceName: d.SourceName,
		CreatedAt:  d.CreatedAt,
		Results:    make([]ExtractedResult, 0, len(d.Results)),
	}

	if d.OCRText != nil {
		set.Text = *d.OCRText
	}

	for _, r := range d.Results {
		unit := ""
		if r.TestUnit != nil {
			unit = *r.TestUnit
		}

		set.Results = append(set.Results, ExtractedResult{
			TestName:    r.TestName,
			Value:       r.TestValue,
			Unit:        unit,
			RangeLow:    copyFloat(r.RangeLow),
			RangeHigh:   copyFloat(r.RangeHigh),
			NormalRange: ReferenceRange{Low: r.RangeLow, High: r.RangeHigh}.Display(),
			Status:      r.Status,
			IsManual:    r.IsManual,
		})
	}

	return set
}
