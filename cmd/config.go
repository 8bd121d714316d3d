/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/labreport/db"
	"github.com/humaidq/labreport/ocr"
)

const defaultCSVLogPath = "patient_data.csv"

// Names of the flags shared by start and scan.
const (
	flagCSVLog  = "csv-log"
	flagRanges  = "ranges"
	flagOCRLang = "ocr-lang"
	flagOCRPSM  = "ocr-psm"
)

// sharedFlags returns fresh instances of the flags shared by start and scan.
// Flags keep parsed state, so each command gets its own.
func sharedFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    flagCSVLog,
			Sources: cli.EnvVars("LABREPORT_CSV_LOG"),
			Value:   defaultCSVLogPath,
			Usage:   "append-only CSV log of saved results (\"-\" disables)",
		},
		&cli.StringFlag{
			Name:    flagRanges,
			Sources: cli.EnvVars("LABREPORT_RANGES"),
			Usage:   "YAML file adding or overriding reference ranges",
		},
		&cli.StringFlag{
			Name:    flagOCRLang,
			Sources: cli.EnvVars("LABREPORT_OCR_LANG"),
			Value:   "eng",
			Usage:   "Tesseract languages, comma separated",
		},
		&cli.StringFlag{
			Name:    flagOCRPSM,
			Sources: cli.EnvVars("LABREPORT_OCR_PSM"),
			Value:   "auto",
			Usage:   "page layout mode: auto, column, block or sparse",
		},
	}
}

// loadReferenceTable reads the --ranges file, or the built-in table
func loadReferenceTable(cmd *cli.Command) (*db.ReferenceTable, error) {
	table, err := db.LoadReferenceTable(cmd.String(flagRanges))
	if err != nil {
		return nil, fmt.Errorf("failed to load reference ranges: %w", err)
	}

	return table, nil
}

// newOCREngine returns the Tesseract engine, or nil when this binary was built
// without OCR support. Text reports still work without it. An unknown
// --ocr-psm value is an error even without OCR support.
func newOCREngine(cmd *cli.Command) (ocr.Engine, error) {
	mode, err := ocr.ParsePageSegMode(cmd.String(flagOCRPSM))
	if err != nil {
		return nil, err
	}

	if !ocr.Enabled {
		appLogger.Warn("Built without OCR support, only text reports are accepted")
		return nil, nil
	}

	engine, err := ocr.NewTesseractEngine(ocr.ParseLanguages(cmd.String(flagOCRLang))...)
	if err != nil {
		appLogger.Warn("OCR unavailable, only text reports are accepted", "error", err)
		return nil, nil
	}

	return ocr.WithPageSegMode(engine, mode), nil
}
