/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package ocr turns images of lab reports into text.
//
// The Tesseract engine needs the "ocr" build tag and a system Tesseract
// installation:
//
//	go build -tags ocr
//
// Without the tag NewTesseractEngine returns ErrOCRNotEnabled and only plain
// text uploads can be analyzed.
package ocr

import (
	"context"
	"fmt"
	"strings"
)

// PageSegMode controls how Tesseract analyzes the page layout.
type PageSegMode int

// Page segmentation modes used for lab reports.
const (
	PSMDefault     PageSegMode = 0  // Leave the engine default
	PSMAuto        PageSegMode = 3  // Fully automatic
	PSMSingleCol   PageSegMode = 4  // Single column of variable sizes
	PSMSingleBlock PageSegMode = 6  // Single uniform block of text
	PSMSparseText  PageSegMode = 11 // Find as much text as possible
)

var pageSegModeNames = map[string]PageSegMode{
	"default": PSMDefault,
	"auto":    PSMAuto,
	"column":  PSMSingleCol,
	"block":   PSMSingleBlock,
	"sparse":  PSMSparseText,
}

// ParsePageSegMode accepts a mode name (auto, column, block, sparse or
// default). An empty value means default.
func ParsePageSegMode(name string) (PageSegMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return PSMDefault, nil
	}

	mode, ok := pageSegModeNames[name]
	if !ok {
		return PSMDefault, fmt.Errorf("%w: %q", ErrInvalidPageSegMode, name)
	}

	return mode, nil
}

// Input is one image submitted for recognition
type Input struct {
	Image       []byte
	Languages   []string
	PageSegMode PageSegMode
}

// Line is one recognized line of text
type Line struct {
	Text       string
	Confidence float64
}

// Result is the output of recognition. Confidence is in [0, 1].
type Result struct {
	Text       string
	Lines      []Line
	Confidence float64
}

// Engine recognizes text in an image
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

type fixedModeEngine struct {
	Engine
	mode PageSegMode
}

func (e fixedModeEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	in.PageSegMode = e.mode
	return e.Engine.Recognize(ctx, in)
}

// WithPageSegMode forces every recognition through engine to use mode. Some
// scanned reports lay results out in columns that automatic segmentation
// reads across. PSMDefault and a nil engine return engine unchanged.
func WithPageSegMode(engine Engine, mode PageSegMode) Engine {
	if engine == nil || mode == PSMDefault {
		return engine
	}

	return fixedModeEngine{Engine: engine, mode: mode}
}

// ParseLanguages splits a comma separated language list such as "eng,deu".
func ParseLanguages(value string) []string {
	var langs []string

	for _, lang := range strings.Split(value, ",") {
		lang = strings.TrimSpace(lang)
		if lang != "" {
			langs = append(langs, lang)
		}
	}

	return langs
}
