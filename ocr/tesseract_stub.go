//go:build !ocr

/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ocr

import "context"

// Enabled reports whether this binary carries an OCR engine
const Enabled = false

// TesseractEngine is a stub used when the ocr build tag is not set
type TesseractEngine struct{}

// NewTesseractEngine returns ErrOCRNotEnabled. Rebuild with -tags ocr.
func NewTesseractEngine(_ ...string) (*TesseractEngine, error) {
	return nil, ErrOCRNotEnabled
}

// Name returns the engine identifier
func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize returns ErrOCRNotEnabled
func (e *TesseractEngine) Recognize(context.Context, Input) (Result, error) {
	return Result{}, ErrOCRNotEnabled
}
