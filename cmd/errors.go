/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import "errors"

var (
	errDatabaseURLRequired   = errors.New("database-url is required (set via --database-url or DATABASE_URL env var)")
	errMigrationNameRequired = errors.New("migration name is required")
	errScanFileRequired      = errors.New("report file is required")
	errInvalidScanFormat     = errors.New("format must be one of: table, csv, pdf")
	errCSVLogDisabled        = errors.New("--save needs a CSV log path")
	errInvalidUploadLimit    = errors.New("max-upload-mb must be positive")
	errInvalidDBMaxConns     = errors.New("db-max-conns must be between 1 and 100")
)
