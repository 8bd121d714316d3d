/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"net/http"
	"slices"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/humaidq/labreport/db"
)

var (
	resultsByTestNameFn = db.GetResultsByTestName
	testNamesFn         = db.GetTestNamesWithCounts
)

// statusColors mirror the row colors of the result table.
var statusColors = map[db.Status]string{
	db.StatusNormal:  "#2e7d32",
	db.StatusLow:     "#c62828",
	db.StatusHigh:    "#c62828",
	db.StatusUnknown: "#757575",
}

// Analytics renders a bar chart of the current result set and, when a test is
// selected, its trend across saved reports.
func Analytics(c flamego.Context, s session.Session, t template.Template, data template.Data, lab *Lab) {
	data["IsAnalytics"] = true

	if set, ok := currentResultSet(s); ok && len(set.Results) > 0 {
		chart, err := renderResultsBarChart(set)
		if err != nil {
			logger.Error("Error rendering results chart", "error", err)
			data["Error"] = "Failed to render chart"
		} else {
			data["BarChart"] = htmltemplate.HTML(chart)
		}
	}

	ctx := c.Request().Context()

	names, err := trendTestNames(ctx, lab)
	if err != nil {
		logger.Error("Error loading trend test names", "error", err)
		data["Error"] = "Failed to load saved results"
	}

	data["TrendTests"] = names
	data["HistorySource"] = historySource(lab)

	selected := strings.TrimSpace(c.Query("test"))
	if selected == "" && len(names) > 0 {
		selected = names[0].TestName
	}

	if selected != "" {
		data["SelectedTest"] = selected

		chart, err := generateTrendChart(ctx, lab, selected)
		if err != nil {
			logger.Error("Error rendering trend chart", "test", selected, "error", err)
			data["Error"] = "Failed to render trend"
		} else if chart != "" {
			data["TrendChart"] = htmltemplate.HTML(chart)
		}
	}

	t.HTML(http.StatusOK, "analytics")
}

func historySource(lab *Lab) string {
	switch {
	case dbEnabledFn():
		return "database"
	case lab.CSVLog != nil:
		return "csv"
	default:
		return ""
	}
}

// trendTestNames lists saved test names from the database, or from the CSV
// log when no database is configured.
func trendTestNames(ctx context.Context, lab *Lab) ([]db.TestNameCount, error) {
	switch historySource(lab) {
	case "database":
		return testNamesFn(ctx)
	case "csv":
		return lab.CSVLog.TestNamesWithCounts()
	default:
		return nil, nil
	}
}

func trendResults(ctx context.Context, lab *Lab, testName string) ([]db.LabResultWithDate, error) {
	switch historySource(lab) {
	case "database":
		return resultsByTestNameFn(ctx, testName)
	case "csv":
		return lab.CSVLog.ResultsByTestName(testName)
	default:
		return nil, nil
	}
}

func renderResultsBarChart(set *db.ResultSet) (string, error) {
	xAxis := make([]string, 0, len(set.Results))
	bars := make([]opts.BarData, 0, len(set.Results))

	for _, result := range set.Results {
		xAxis = append(xAxis, result.TestName)
		bars = append(bars, opts.BarData{
			Name:  fmt.Sprintf("%s (%s)", result.TestName, result.Status),
			Value: result.Value,
			ItemStyle: &opts.ItemStyle{
				Color: statusColors[result.Status],
			},
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:   "100%",
			Height:  "360px",
			ChartID: "current_results",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Current report",
			Subtitle: set.SourceName,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{
				Rotate:   35,
				Interval: "0",
			},
		}),
	)

	bar.SetXAxis(xAxis).AddSeries("Value", bars)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// dedupeByDay keeps the last result of each day, oldest day first.
func dedupeByDay(results []db.LabResultWithDate) []db.LabResultWithDate {
	byDay := make(map[string]int)
	deduped := make([]db.LabResultWithDate, 0, len(results))

	for _, result := range results {
		key := result.ReportDate.Format("2006-01-02")
		if i, ok := byDay[key]; ok {
			deduped[i] = result

			continue
		}

		byDay[key] = len(deduped)
		deduped = append(deduped, result)
	}

	slices.SortStableFunc(deduped, func(a, b db.LabResultWithDate) int {
		return a.ReportDate.Compare(b.ReportDate)
	})

	return deduped
}

// generateTrendChart creates a line chart for one test with its reference
// range drawn as dashed mark lines. It returns "" when nothing is saved.
func generateTrendChart(ctx context.Context, lab *Lab, testName string) (string, error) {
	results, err := trendResults(ctx, lab, testName)
	if err != nil {
		return "", err
	}

	if len(results) == 0 {
		return "", nil
	}

	results = dedupeByDay(results)

	ref, hasRef := lab.Table.Lookup(testName)

	unitLabel := results[len(results)-1].TestUnit
	if unitLabel == "" && hasRef {
		unitLabel = ref.Unit
	}

	xAxis := make([]string, 0, len(results))
	yData := make([]opts.LineData, 0, len(results))

	dataMin, dataMax := results[0].TestValue, results[0].TestValue

	for _, result := range results {
		xAxis = append(xAxis, result.ReportDate.Format("Jan 2, 2006"))
		yData = append(yData, opts.LineData{Value: result.TestValue})

		dataMin = min(dataMin, result.TestValue)
		dataMax = max(dataMax, result.TestValue)
	}

	var yAxisMin, yAxisMax interface{}

	if hasRef && ref.Low != nil && ref.High != nil {
		padding := (*ref.High - *ref.Low) * 0.1
		minVal := *ref.Low - padding
		maxVal := *ref.High + padding

		if dataMin < minVal {
			minVal = dataMin - (dataMax-dataMin)*0.05
		}

		if dataMax > maxVal {
			maxVal = dataMax + (dataMax-dataMin)*0.05
		}

		yAxisMin = minVal
		yAxisMax = maxVal
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:   "100%",
			Height:  "320px",
			ChartID: "trend_chart",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: testName,
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  unitLabel,
			Min:   yAxisMin,
			Max:   yAxisMax,
			Scale: opts.Bool(true),
		}),
	)

	seriesOpts := []charts.SeriesOpts{
		charts.WithLineChartOpts(opts.LineChart{
			Smooth:     opts.Bool(true),
			ShowSymbol: opts.Bool(true),
		}),
		charts.WithMarkPointNameTypeItemOpts(
			opts.MarkPointNameTypeItem{Name: "Max", Type: "max"},
			opts.MarkPointNameTypeItem{Name: "Min", Type: "min"},
		),
	}

	if hasRef {
		var markLineItems []interface{}

		if ref.Low != nil {
			markLineItems = append(markLineItems, opts.MarkLineNameYAxisItem{
				Name:  "Ref Low",
				YAxis: *ref.Low,
			})
		}

		if ref.High != nil {
			markLineItems = append(markLineItems, opts.MarkLineNameYAxisItem{
				Name:  "Ref High",
				YAxis: *ref.High,
			})
		}

		if len(markLineItems) > 0 {
			seriesOpts = append(seriesOpts, func(s *charts.SingleSeries) {
				s.MarkLines = &opts.MarkLines{
					Data: markLineItems,
					MarkLineStyle: opts.MarkLineStyle{
						Symbol: []string{"none", "none"},
						LineStyle: &opts.LineStyle{
							Color: "rgba(128, 128, 128, 0.6)",
							Type:  "dashed",
							Width: 1.5,
						},
					},
				}
			})
		}
	}

	line.SetXAxis(xAxis).
		AddSeries(testName, yData).
		SetSeriesOptions(seriesOpts...)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", err
	}

	return buf.String(), nil
}
