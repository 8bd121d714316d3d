/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

var (
	// ErrDatabaseURLNotSet is returned when Init gets an empty URL.
	ErrDatabaseURLNotSet = errors.New("database URL is not set")
	// ErrDatabaseNameNotSpecified is returned when the URL has no database name.
	ErrDatabaseNameNotSpecified = errors.New("database name not specified in database URL")
	// ErrDatabaseConnectionNotInitialized is returned when the pool is nil.
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	// ErrReportNotFound is returned when a saved report does not exist.
	ErrReportNotFound = errors.New("report not found")
	// ErrNoResultsToSave is returned when saving an empty result set.
	ErrNoResultsToSave = errors.New("no results to save")

	// ErrReferenceRangeNameRequired is returned for a range without a test name.
	ErrReferenceRangeNameRequired = errors.New("reference range test name is required")
	// ErrReferenceRangeDuplicate is returned when two ranges share a name or alias.
	ErrReferenceRangeDuplicate = errors.New("duplicate reference range name or alias")
	// ErrReferenceRangeBounds is returned when low is greater than high.
	ErrReferenceRangeBounds = errors.New("reference range low bound is greater than high bound")

	// ErrInvalidStatus is returned when parsing an unknown status label.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrCSVLogHeader is returned when the CSV log header does not match.
	ErrCSVLogHeader = errors.New("unexpected CSV log header")
	// ErrCSVLogRow is returned for a CSV log row that cannot be parsed.
	ErrCSVLogRow = errors.New("malformed CSV log row")
)
