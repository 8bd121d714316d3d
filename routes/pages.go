/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"

	"github.com/flamego/template"

	"github.com/humaidq/labreport/db"
	"github.com/humaidq/labreport/ocr"
)

// rangeGroup is one category of the reference table page
type rangeGroup struct {
	Category db.LabTestCategory
	Ranges   []db.ReferenceRange
}

func groupRanges(ranges []db.ReferenceRange) []rangeGroup {
	var groups []rangeGroup

	positions := make(map[db.LabTestCategory]int)

	for _, r := range ranges {
		i, ok := positions[r.Category]
		if !ok {
			i = len(groups)
			positions[r.Category] = i
			groups = append(groups, rangeGroup{Category: r.Category})
		}

		groups[i].Ranges = append(groups[i].Ranges, r)
	}

	return groups
}

// Ranges shows the active reference range table
func Ranges(t template.Template, data template.Data, lab *Lab) {
	data["IsRanges"] = true
	data["RangeGroups"] = groupRanges(lab.Table.Ranges())
	data["RangeCount"] = lab.Table.Len()

	t.HTML(http.StatusOK, "ranges")
}

// About describes the tool and the server configuration
func About(t template.Template, data template.Data, lab *Lab) {
	data["IsAbout"] = true
	data["OCREnabled"] = lab.Engine != nil
	data["OCRBuilt"] = ocr.Enabled
	data["HistoryEnabled"] = dbEnabledFn()
	data["CSVLogEnabled"] = lab.CSVLog != nil

	if lab.Engine != nil {
		data["OCREngine"] = lab.Engine.Name()
	}

	t.HTML(http.StatusOK, "about")
}
