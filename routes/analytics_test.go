// SPDX-FileCopyrightText: 2026 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"

	"github.com/humaidq/labreport/db"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()

	tm, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", value, err)
	}

	return tm
}

func TestDedupeByDayKeepsLastOfDayInDateOrder(t *testing.T) {
	t.Parallel()

	results := []db.LabResultWithDate{
		{TestName: "WBC", TestValue: 7, ReportDate: day(t, "2026-03-02")},
		{TestName: "WBC", TestValue: 5, ReportDate: day(t, "2026-01-10")},
		{TestName: "WBC", TestValue: 8, ReportDate: day(t, "2026-03-02")},
	}

	got := dedupeByDay(results)
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %d", len(got))
	}

	if got[0].TestValue != 5 || got[1].TestValue != 8 {
		t.Fatalf("unexpected deduped values %v, %v", got[0].TestValue, got[1].TestValue)
	}
}

func TestRenderResultsBarChartIncludesEveryTest(t *testing.T) {
	t.Parallel()

	table := db.DefaultReferenceTable()
	set := &db.ResultSet{
		SourceName: "cbc.png",
		Results: []db.ExtractedResult{
			table.NewResult("Hemoglobin", 9),
			table.NewResult("Platelet", 250),
		},
	}

	chart, err := renderResultsBarChart(set)
	if err != nil {
		t.Fatalf("renderResultsBarChart() error = %v", err)
	}

	for _, want := range []string{"Hemoglobin", "Platelet", statusColors[db.StatusLow]} {
		if !strings.Contains(chart, want) {
			t.Fatalf("expected chart to contain %q", want)
		}
	}
}

//nolint:paralleltest // Overrides package-level function variables.
func TestGenerateTrendChartFromCSVLog(t *testing.T) {
	originalDBEnabled := dbEnabledFn

	t.Cleanup(func() {
		dbEnabledFn = originalDBEnabled
	})

	dbEnabledFn = func() bool { return false }

	lab := &Lab{
		Table:  db.DefaultReferenceTable(),
		CSVLog: db.NewCSVLog(filepath.Join(t.TempDir(), "patient_data.csv")),
	}

	if _, err := lab.CSVLog.Append(day(t, "2026-01-05"), []db.ExtractedResult{lab.Table.NewResult("Hemoglobin", 12.1)}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if _, err := lab.CSVLog.Append(day(t, "2026-02-05"), []db.ExtractedResult{lab.Table.NewResult("Hemoglobin", 13.4)}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	chart, err := generateTrendChart(context.Background(), lab, "Hemoglobin")
	if err != nil {
		t.Fatalf("generateTrendChart() error = %v", err)
	}

	for _, want := range []string{"Jan 5, 2026", "Feb 5, 2026", "Ref Low", "Ref High"} {
		if !strings.Contains(chart, want) {
			t.Fatalf("expected chart to contain %q", want)
		}
	}

	empty, err := generateTrendChart(context.Background(), lab, "WBC")
	if err != nil {
		t.Fatalf("generateTrendChart() error = %v", err)
	}

	if empty != "" {
		t.Fatal("expected no chart for a test without saved results")
	}
}

//nolint:paralleltest // Overrides package-level function variables.
func TestAnalyticsUsesDatabaseWhenEnabled(t *testing.T) {
	originalDBEnabled := dbEnabledFn
	originalTestNames := testNamesFn
	originalResults := resultsByTestNameFn

	t.Cleanup(func() {
		dbEnabledFn = originalDBEnabled
		testNamesFn = originalTestNames
		resultsByTestNameFn = originalResults
	})

	dbEnabledFn = func() bool { return true }
	testNamesFn = func(context.Context) ([]db.TestNameCount, error) {
		return []db.TestNameCount{{TestName: "WBC", Count: 2}}, nil
	}

	var requested string

	resultsByTestNameFn = func(_ context.Context, name string) ([]db.LabResultWithDate, error) {
		requested = name

		return []db.LabResultWithDate{
			{TestName: "WBC", TestValue: 6.2, ReportDate: day(t, "2026-04-01")},
		}, nil
	}

	s := newTestSession()
	tpl := &templateStub{}
	data := template.Data{}
	lab := &Lab{Table: db.DefaultReferenceTable()}

	f := flamego.New()
	f.Use(func(c flamego.Context) {
		c.MapTo(s, (*session.Session)(nil))
		c.MapTo(tpl, (*template.Template)(nil))
		c.Map(data)
		c.Map(lab)
		c.Next()
	})
	f.Get("/analytics", Analytics)

	performGET(t, f, "/analytics")

	if !tpl.called || tpl.name != "analytics" || tpl.status != http.StatusOK {
		t.Fatalf("unexpected render %#v", tpl)
	}

	if requested != "WBC" {
		t.Fatalf("expected trend for first saved test, got %q", requested)
	}

	if data["TrendChart"] == nil {
		t.Fatal("expected trend chart")
	}

	if data["BarChart"] != nil {
		t.Fatal("expected no bar chart without a current result set")
	}

	if got := data["HistorySource"]; got != "database" {
		t.Fatalf("unexpected history source %v", got)
	}
}
