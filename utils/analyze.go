/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/humaidq/labreport/db"
	"github.com/humaidq/labreport/ocr"
)

// Warnings attached to a result set
const (
	WarningNoText        = "no text recognized"
	WarningNoTests       = "no known tests found"
	WarningLowConfidence = "low OCR confidence; check values against the original report"
)

// lowConfidence is the mean line confidence below which a warning is added
const lowConfidence = 0.5

// AnalyzeReport runs the pipeline on one uploaded file: OCR for images,
// extraction and classification against table. UTF-8 text files skip OCR.
func AnalyzeReport(ctx context.Context, engine ocr.Engine, table *db.ReferenceTable, filename string, data []byte) (*db.ResultSet, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}

	set := &db.ResultSet{
		ID:         uuid.New(),
		SourceName: filepath.Base(filename),
		CreatedAt:  time.Now().UTC(),
	}

	switch {
	case ocr.IsImage(data):
		if engine == nil {
			return nil, ErrNoOCREngine
		}

		prepared, err := ocr.Preprocess(data)
		if err != nil {
			return nil, fmt.Errorf("failed to preprocess image: %w", err)
		}

		result, err := engine.Recognize(ctx, ocr.Input{Image: prepared, PageSegMode: ocr.PSMAuto})
		if err != nil {
			return nil, fmt.Errorf("failed to recognize text with %s: %w", engine.Name(), err)
		}

		set.Text = result.Text

		if result.Confidence > 0 && result.Confidence < lowConfidence {
			set.Warnings = append(set.Warnings, WarningLowConfidence)
		}
	case utf8.Valid(data):
		set.Text = string(data)
	default:
		return nil, ocr.ErrUnsupportedImage
	}

	set.Text = strings.ReplaceAll(set.Text, "\r\n", "\n")

	if strings.TrimSpace(set.Text) == "" {
		set.Results = []db.ExtractedResult{}
		set.Warnings = append(set.Warnings, WarningNoText)

		return set, nil
	}

	set.Results = ExtractResults(set.Text, table)
	if len(set.Results) == 0 {
		set.Warnings = append(set.Warnings, WarningNoTests)
	}

	return set, nil
}
