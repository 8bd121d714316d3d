/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v3"

	"github.com/humaidq/labreport/db"
	"github.com/humaidq/labreport/utils"
)

const (
	formatTable = "table"
	formatCSV   = "csv"
	formatPDF   = "pdf"
)

var CmdScan = newScanCommand()

func newScanCommand() *cli.Command {
	return &cli.Command{
		Name:      "scan",
		Usage:     "Extract lab results from a report image or text file",
		ArgsUsage: "<file>",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   formatTable,
				Usage:   "output format: table, csv or pdf",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "write to this file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "append the results to the CSV log",
			},
		}, sharedFlags()...),
		Action: scan,
	}
}

var (
	statusStyles = map[db.Status]lipgloss.Style{
		db.StatusNormal:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		db.StatusLow:     lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		db.StatusHigh:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		db.StatusUnknown: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
)

func scan(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() < 1 {
		return errScanFileRequired
	}

	format := strings.ToLower(cmd.String("format"))
	if format != formatTable && format != formatCSV && format != formatPDF {
		return errInvalidScanFormat
	}

	var csvLog *db.CSVLog
	if cmd.Bool("save") {
		csvLog = db.NewCSVLog(cmd.String(flagCSVLog))
		if csvLog == nil {
			return errCSVLogDisabled
		}
	}

	table, err := loadReferenceTable(cmd)
	if err != nil {
		return err
	}

	path := cmd.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read report: %w", err)
	}

	engine, err := newOCREngine(cmd)
	if err != nil {
		return err
	}

	set, err := utils.AnalyzeReport(ctx, engine, table, path, data)
	if err != nil {
		return fmt.Errorf("failed to analyze report: %w", err)
	}

	for _, warning := range set.Warnings {
		appLogger.Warn("Analysis warning", "file", path, "warning", warning)
	}

	out := cmd.Root().Writer

	if output := cmd.String("output"); output != "" {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}

		defer func() {
			if err := file.Close(); err != nil {
				appLogger.Warn("Failed to close output", "path", output, "error", err)
			}
		}()

		out = file
	}

	if err := writeScanOutput(out, format, set); err != nil {
		return err
	}

	if csvLog != nil && len(set.Results) > 0 {
		if _, err := csvLog.Append(time.Now(), set.Results); err != nil {
			return fmt.Errorf("failed to save results: %w", err)
		}
	}

	return nil
}

func writeScanOutput(w io.Writer, format string, set *db.ResultSet) error {
	switch format {
	case formatCSV:
		return utils.WriteCSV(w, set.Results)
	case formatPDF:
		return utils.WritePDF(w, set)
	default:
		_, err := fmt.Fprintln(w, renderResultsTable(set.Results))
		return err
	}
}

// renderResultsTable draws results as a terminal table with colored statuses
func renderResultsTable(results []db.ExtractedResult) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{r.TestName, db.FormatValue(r.Value), r.Unit, r.NormalRange, string(r.Status)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(utils.CSVHeader...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			if col == len(utils.CSVHeader)-1 && row >= 0 && row < len(results) {
				return statusStyles[results[row].Status].Padding(0, 1)
			}

			return cellStyle
		})

	return t.String()
}
