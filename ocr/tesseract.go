//go:build ocr

/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether this binary carries an OCR engine
const Enabled = true

// TesseractEngine implements Engine with a gosseract client per call
type TesseractEngine struct {
	clientFactory func() *gosseract.Client
	languages     []string
}

// NewTesseractEngine constructs a Tesseract-backed engine. languages apply
// when an Input does not name its own.
func NewTesseractEngine(languages ...string) (*TesseractEngine, error) {
	engine := &TesseractEngine{
		clientFactory: gosseract.NewClient,
		languages:     languages,
	}

	logger.Info("Tesseract OCR enabled", "version", gosseract.Version(), "languages", strings.Join(languages, ","))

	return engine, nil
}

// Name returns the engine identifier
func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize performs OCR on a single image.
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	if len(in.Image) == 0 {
		return Result{}, ErrEmptyImage
	}

	c := e.clientFactory()

	defer func() {
		if err := c.Close(); err != nil {
			logger.Warn("Failed to close tesseract client", "error", err)
		}
	}()

	langs := in.Languages
	if len(langs) == 0 {
		langs = e.languages
	}

	if len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return Result{}, fmt.Errorf("failed to set languages: %w", err)
		}
	}

	if in.PageSegMode != PSMDefault {
		if err := c.SetPageSegMode(gosseract.PageSegMode(in.PageSegMode)); err != nil {
			return Result{}, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}

	if err := c.SetImageFromBytes(in.Image); err != nil {
		return Result{}, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return Result{}, fmt.Errorf("failed to recognize text: %w", err)
	}

	lines, confidence := extractLines(c)

	return Result{
		Text:       strings.TrimSpace(text),
		Lines:      lines,
		Confidence: confidence,
	}, nil
}

func extractLines(c *gosseract.Client) ([]Line, float64) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil || len(boxes) == 0 {
		return nil, 0
	}

	lines := make([]Line, 0, len(boxes))

	var sum float64

	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}

		conf := b.Confidence / 100.0
		sum += conf
		lines = append(lines, Line{Text: text, Confidence: conf})
	}

	if len(lines) == 0 {
		return nil, 0
	}

	return lines, sum / float64(len(lines))
}
