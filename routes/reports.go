/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/skip2/go-qrcode"

	"github.com/humaidq/labreport/db"
	"github.com/humaidq/labreport/utils"
)

var (
	listReportsFn  = db.ListReports
	getReportFn    = db.GetReport
	deleteReportFn = db.DeleteReport
)

// RequireDatabase redirects to the upload page when report history is not
// configured.
func RequireDatabase(c flamego.Context, s session.Session) {
	if dbEnabledFn() {
		return
	}

	SetWarningFlash(s, "Report history needs a database; start the server with --database-url")
	c.Redirect("/", http.StatusSeeOther)
}

// ListReports displays saved reports, newest first
func ListReports(c flamego.Context, t template.Template, data template.Data) {
	data["IsReports"] = true

	reports, err := listReportsFn(c.Request().Context())
	if err != nil {
		logger.Error("Error fetching reports", "error", err)
		data["Error"] = "Failed to load reports"
	} else {
		data["Reports"] = reports
	}

	t.HTML(http.StatusOK, "reports")
}

// ViewReport displays one saved report
func ViewReport(c flamego.Context, s session.Session, t template.Template, data template.Data) {
	id := c.Param("id")

	report, err := getReportFn(c.Request().Context(), id)
	if err != nil {
		if !errors.Is(err, db.ErrReportNotFound) {
			logger.Error("Error fetching report", "report_id", id, "error", err)
		}

		SetErrorFlash(s, "Report not found")
		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	set := report.ResultSet()

	data["IsReports"] = true
	data["Report"] = report
	data["Set"] = set
	data["AbnormalCount"] = set.AbnormalCount()

	qr, err := generateQRCodeBase64(reportURL(c.Request().Request, report.ID.String()))
	if err != nil {
		logger.Warn("Failed to generate report QR code", "report_id", id, "error", err)
	} else {
		data["QRCode"] = qr
	}

	t.HTML(http.StatusOK, "report")
}

// DownloadReportCSV serves a saved report as CSV
func DownloadReportCSV(c flamego.Context, s session.Session) {
	id := c.Param("id")

	report, err := getReportFn(c.Request().Context(), id)
	if err != nil {
		if !errors.Is(err, db.ErrReportNotFound) {
			logger.Error("Error fetching report", "report_id", id, "error", err)
		}

		SetErrorFlash(s, "Report not found")
		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	var buf bytes.Buffer
	if err := utils.WriteCSV(&buf, report.ResultSet().Results); err != nil {
		logger.Error("Error writing report CSV", "report_id", id, "error", err)
		c.ResponseWriter().WriteHeader(http.StatusInternalServerError)

		return
	}

	filename := fmt.Sprintf("lab_report_%s.csv", report.CreatedAt.Format("2006-01-02"))
	writeDownload(c, "text/csv; charset=utf-8", filename, buf.Bytes())
}

// DeleteReport removes a saved report and its results
func DeleteReport(c flamego.Context, s session.Session) {
	id := c.Param("id")

	if err := deleteReportFn(c.Request().Context(), id); err != nil {
		if errors.Is(err, db.ErrReportNotFound) {
			SetErrorFlash(s, "Report not found")
		} else {
			logger.Error("Error deleting report", "report_id", id, "error", err)
			SetErrorFlash(s, "Failed to delete report")
		}

		c.Redirect("/reports", http.StatusSeeOther)

		return
	}

	logger.Info("Deleted report", "report_id", id)
	SetSuccessFlash(s, "Report deleted")
	c.Redirect("/reports", http.StatusSeeOther)
}

func reportURL(r *http.Request, id string) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}

	return scheme + "://" + r.Host + "/reports/" + id
}

func generateQRCodeBase64(value string) (string, error) {
	png, err := qrcode.Encode(value, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("failed to generate qr code: %w", err)
	}

	return base64.StdEncoding.EncodeToString(png), nil
}
