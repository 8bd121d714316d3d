/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import "errors"

var (
	// ErrEmptyUpload is returned when an uploaded file has no content
	ErrEmptyUpload = errors.New("uploaded file is empty")
	// ErrNoOCREngine is returned when an image arrives and no engine is configured
	ErrNoOCREngine = errors.New("no OCR engine configured; upload a text file or rebuild with -tags ocr")
	// ErrCSVHeader is returned when a results CSV has unexpected columns
	ErrCSVHeader = errors.New("unexpected results CSV header")
	// ErrCSVRow is returned for a results CSV row that cannot be parsed
	ErrCSVRow = errors.New("invalid results CSV row")

	errMalformedNumber = errors.New("malformed numeric token")
)
