/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/google/uuid"

	"github.com/humaidq/labreport/db"
	"github.com/humaidq/labreport/ocr"
	"github.com/humaidq/labreport/utils"
)

const resultSetSessionKey = "result_set"

// Lab holds the collaborators shared by the lab handlers. It is mapped into
// the flamego injector once at startup.
type Lab struct {
	Table          *db.ReferenceTable
	Engine         ocr.Engine
	CSVLog         *db.CSVLog
	MaxUploadBytes int64
}

var (
	analyzeReportFn = utils.AnalyzeReport
	saveReportFn    = db.SaveReport
	dbEnabledFn     = db.Enabled
	nowFn           = time.Now
)

func init() {
	gob.Register(db.ResultSet{})
}

func currentResultSet(s session.Session) (*db.ResultSet, bool) {
	set, ok := s.Get(resultSetSessionKey).(db.ResultSet)
	if !ok {
		return nil, false
	}

	return &set, true
}

func storeResultSet(s session.Session, set *db.ResultSet) {
	s.Set(resultSetSessionKey, *set)
}

// Index renders the upload form
func Index(s session.Session, t template.Template, data template.Data, lab *Lab) {
	data["IsUpload"] = true
	data["OCREnabled"] = lab.Engine != nil
	data["MaxUploadMB"] = lab.MaxUploadBytes / (1 << 20)

	if set, ok := currentResultSet(s); ok {
		data["Current"] = set
	}

	t.HTML(http.StatusOK, "index")
}

// Analyze runs the uploaded report through OCR and extraction and keeps the
// result set in the session.
func Analyze(c flamego.Context, s session.Session, lab *Lab) {
	if !parseUpload(c, s, lab) {
		return
	}

	req := c.Request().Request

	filename, data, err := readUpload(req)
	if err != nil {
		if !errors.Is(err, errNoUpload) {
			logger.Error("Error reading upload", "error", err)
		}

		SetErrorFlash(s, "Choose a report image or paste the report text")
		c.Redirect("/", http.StatusSeeOther)

		return
	}

	set, err := analyzeReportFn(req.Context(), lab.Engine, lab.Table, filename, data)
	if err != nil {
		logger.Error("Error analyzing report", "file", filename, "bytes", len(data), "error", err)
		SetErrorFlash(s, analyzeErrorMessage(err))
		c.Redirect("/", http.StatusSeeOther)

		return
	}

	logger.Info("Analyzed report",
		"id", set.ID,
		"file", set.SourceName,
		"results", len(set.Results),
		"abnormal", set.AbnormalCount(),
		"warnings", len(set.Warnings),
	)

	storeResultSet(s, set)

	if len(set.Warnings) > 0 {
		SetWarningFlash(s, "Analysis finished with a warning: "+set.Warnings[0])
	} else {
		SetSuccessFlash(s, fmt.Sprintf("Found %d known tests", len(set.Results)))
	}

	c.Redirect("/results", http.StatusSeeOther)
}

// UploadParser parses the upload form under the size limit. It runs before
// CSRF validation so the token lookup does not read an unbounded body.
func UploadParser(c flamego.Context, s session.Session, lab *Lab) {
	if parseUpload(c, s, lab) {
		c.Next()
	}
}

// parseUpload reports whether the form was parsed. On failure it has already
// redirected with a flash.
func parseUpload(c flamego.Context, s session.Session, lab *Lab) bool {
	req := c.Request().Request
	if req.MultipartForm != nil {
		return true
	}

	req.Body = http.MaxBytesReader(c.ResponseWriter(), req.Body, lab.MaxUploadBytes)

	if err := req.ParseMultipartForm(lab.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		logger.Warn("Rejected upload", "error", err)
		SetErrorFlash(s, fmt.Sprintf("Upload rejected: files up to %d MB are accepted", lab.MaxUploadBytes/(1<<20)))
		c.Redirect("/", http.StatusSeeOther)

		return false
	}

	return true
}

// readUpload returns the uploaded file, or the pasted text when no file was
// chosen.
func readUpload(req *http.Request) (string, []byte, error) {
	file, header, err := req.FormFile("report")
	if err == nil {
		defer func() {
			if err := file.Close(); err != nil {
				logger.Warn("Failed to close upload", "error", err)
			}
		}()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, fmt.Errorf("failed to read upload: %w", err)
		}

		if len(data) > 0 {
			return header.Filename, data, nil
		}
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return "", nil, fmt.Errorf("failed to open upload: %w", err)
	}

	text := strings.TrimSpace(req.FormValue("report_text"))
	if text == "" {
		return "", nil, errNoUpload
	}

	return "pasted-text.txt", []byte(text), nil
}

func analyzeErrorMessage(err error) string {
	switch {
	case errors.Is(err, utils.ErrEmptyUpload):
		return "The uploaded file is empty"
	case errors.Is(err, utils.ErrNoOCREngine), errors.Is(err, ocr.ErrOCRNotEnabled):
		return "Image recognition is not available on this server; paste the report text instead"
	case errors.Is(err, ocr.ErrImageTooLarge):
		return fmt.Sprintf("The image is too large; upload a photo under %d megapixels", ocr.MaxImagePixels/1_000_000)
	case errors.Is(err, ocr.ErrUnsupportedImage):
		return "Unsupported file type; upload a PNG, JPEG, WebP, TIFF or BMP image"
	default:
		return "Failed to analyze report"
	}
}

// ViewResults renders the current result set
func ViewResults(s session.Session, t template.Template, data template.Data, lab *Lab) {
	set, ok := currentResultSet(s)
	if !ok {
		set = &db.ResultSet{}
	}

	data["IsResults"] = true
	data["Set"] = set
	data["HasSet"] = ok
	data["Editable"] = ok
	data["AbnormalCount"] = set.AbnormalCount()
	data["KnownTests"] = lab.Table.Ranges()
	data["CanSave"] = lab.CSVLog != nil || dbEnabledFn()

	t.HTML(http.StatusOK, "results")
}

// AddResult adds a manually entered row to the current result set. A set is
// started if none exists.
func AddResult(c flamego.Context, s session.Session, lab *Lab) {
	if err := c.Request().ParseForm(); err != nil {
		logger.Error("Error parsing form", "error", err)
		SetErrorFlash(s, "Failed to parse form")
		c.Redirect("/results", http.StatusSeeOther)

		return
	}

	name, value, err := parseManualResult(c.Request().Form.Get("test_name"), c.Request().Form.Get("test_value"))
	if err != nil {
		SetErrorFlash(s, capitalize(err.Error()))
		c.Redirect("/results", http.StatusSeeOther)

		return
	}

	set, ok := currentResultSet(s)
	if !ok {
		set = &db.ResultSet{
			ID:         uuid.New(),
			SourceName: "manual entry",
			CreatedAt:  nowFn().UTC(),
			Results:    []db.ExtractedResult{},
		}
	}

	result := lab.Table.NewResult(name, value)
	result.IsManual = true

	if unit := strings.TrimSpace(c.Request().Form.Get("test_unit")); unit != "" && result.Unit == "" {
		result.Unit = unit
	}

	if set.HasTest(result.TestName) {
		SetErrorFlash(s, result.TestName+" is already in the table; remove it first to change the value")
		c.Redirect("/results", http.StatusSeeOther)

		return
	}

	set.Results = append(set.Results, result)
	set.MarkChanged()
	storeResultSet(s, set)

	SetResultFlash(s, result)
	c.Redirect("/results", http.StatusSeeOther)
}

func parseManualResult(rawName, rawValue string) (string, float64, error) {
	name := strings.Join(strings.Fields(rawName), " ")
	if name == "" {
		return "", 0, errTestNameRequired
	}

	rawValue = strings.TrimSpace(rawValue)
	if rawValue == "" {
		return "", 0, errTestValueRequired
	}

	value, err := strconv.ParseFloat(rawValue, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return "", 0, errTestValueInvalid
	}

	return name, value, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

// DeleteResult removes one row from the current result set by index
func DeleteResult(c flamego.Context, s session.Session) {
	set, ok := currentResultSet(s)
	if !ok {
		SetErrorFlash(s, "There are no results to change")
		c.Redirect("/", http.StatusSeeOther)

		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 || index >= len(set.Results) {
		SetErrorFlash(s, "Result not found")
		c.Redirect("/results", http.StatusSeeOther)

		return
	}

	removed := set.Results[index]
	set.Results = append(set.Results[:index], set.Results[index+1:]...)
	set.MarkChanged()
	storeResultSet(s, set)

	SetSuccessFlash(s, "Removed "+removed.TestName)
	c.Redirect("/results", http.StatusSeeOther)
}

// DownloadResultsCSV serves the current result set as CSV
func DownloadResultsCSV(c flamego.Context, s session.Session) {
	set, ok := currentResultSet(s)
	if !ok {
		SetErrorFlash(s, "There are no results to download")
		c.Redirect("/", http.StatusSeeOther)

		return
	}

	var buf bytes.Buffer
	if err := utils.WriteCSV(&buf, set.Results); err != nil {
		logger.Error("Error writing results CSV", "error", err)
		c.ResponseWriter().WriteHeader(http.StatusInternalServerError)

		return
	}

	writeDownload(c, "text/csv; charset=utf-8", "lab_results.csv", buf.Bytes())
}

// DownloadResultsPDF serves the current result set as PDF
func DownloadResultsPDF(c flamego.Context, s session.Session) {
	set, ok := currentResultSet(s)
	if !ok {
		SetErrorFlash(s, "There are no results to download")
		c.Redirect("/", http.StatusSeeOther)

		return
	}

	var buf bytes.Buffer
	if err := utils.WritePDF(&buf, set); err != nil {
		logger.Error("Error writing results PDF", "error", err)
		c.ResponseWriter().WriteHeader(http.StatusInternalServerError)

		return
	}

	writeDownload(c, "application/pdf", "lab_results.pdf", buf.Bytes())
}

func writeDownload(c flamego.Context, contentType, filename string, body []byte) {
	headers := c.ResponseWriter().Header()
	headers.Set("Content-Type", contentType)
	headers.Set("Content-Disposition", "attachment; filename=\""+filename+"\"")
	headers.Set("Content-Length", strconv.Itoa(len(body)))
	headers.Set("X-Content-Type-Options", "nosniff")

	c.ResponseWriter().WriteHeader(http.StatusOK)

	if _, err := c.ResponseWriter().Write(body); err != nil {
		logger.Error("Error writing download", "file", filename, "error", err)
	}
}

// SaveResults stores the current result set as a report when a database is
// configured, then appends it to the CSV log. Steps that already succeeded
// are skipped on retry.
func SaveResults(c flamego.Context, s session.Session, lab *Lab) {
	set, ok := currentResultSet(s)
	if !ok || len(set.Results) == 0 {
		SetErrorFlash(s, "There are no results to save")
		c.Redirect("/results", http.StatusSeeOther)

		return
	}

	if set.Saved {
		SetInfoFlash(s, "These results are already saved")
		c.Redirect("/results", http.StatusSeeOther)

		return
	}

	if lab.CSVLog == nil && !dbEnabledFn() {
		SetWarningFlash(s, "Saving is disabled on this server")
		c.Redirect("/results", http.StatusSeeOther)

		return
	}

	if dbEnabledFn() && set.ReportID == uuid.Nil {
		id, err := saveReportFn(c.Request().Context(), set)
		if err != nil {
			logger.Error("Error saving report", "error", err)
			SetErrorFlash(s, "Failed to save report history")
			c.Redirect("/results", http.StatusSeeOther)

			return
		}

		set.ReportID = id
		storeResultSet(s, set)
	}

	if lab.CSVLog != nil && !set.LoggedToCSV {
		if _, err := lab.CSVLog.Append(nowFn(), set.Results); err != nil {
			logger.Error("Error appending to CSV log", "path", lab.CSVLog.Path, "error", err)
			SetErrorFlash(s, "Failed to save results")
			c.Redirect("/results", http.StatusSeeOther)

			return
		}

		set.LoggedToCSV = true
	}

	redirect := "/results"
	if set.ReportID != uuid.Nil {
		redirect = "/reports/" + set.ReportID.String()
	}

	set.Saved = true
	storeResultSet(s, set)

	SetSuccessFlash(s, fmt.Sprintf("Saved %d results", len(set.Results)))
	c.Redirect(redirect, http.StatusSeeOther)
}

// ClearResults discards the current result set
func ClearResults(c flamego.Context, s session.Session) {
	s.Delete(resultSetSessionKey)
	SetInfoFlash(s, "Results cleared")
	c.Redirect("/", http.StatusSeeOther)
}
