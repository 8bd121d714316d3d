// SPDX-FileCopyrightText: 2026 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"net/http"
	"testing"

	"github.com/flamego/template"

	"github.com/humaidq/labreport/db"
	"github.com/humaidq/labreport/ocr"
)

func TestGroupRangesKeepsTableOrder(t *testing.T) {
	t.Parallel()

	groups := groupRanges(db.DefaultReferenceRanges())

	want := []db.LabTestCategory{db.CategoryBloodCounts, db.CategoryMetabolic, db.CategoryLipidPanel}
	if len(groups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(groups))
	}

	for i, category := range want {
		if groups[i].Category != category {
			t.Fatalf("group %d = %q, want %q", i, groups[i].Category, category)
		}
	}

	if groups[0].Ranges[0].TestName != "Hemoglobin" {
		t.Fatalf("expected Hemoglobin first, got %q", groups[0].Ranges[0].TestName)
	}
}

func TestRangesPage(t *testing.T) {
	t.Parallel()

	lab := &Lab{Table: db.DefaultReferenceTable()}
	tpl := &templateStub{}
	data := template.Data{}

	Ranges(tpl, data, lab)

	if !tpl.called || tpl.name != "ranges" || tpl.status != http.StatusOK {
		t.Fatalf("unexpected render %#v", tpl)
	}

	if got := data["RangeCount"]; got != lab.Table.Len() {
		t.Fatalf("unexpected range count %v", got)
	}
}

//nolint:paralleltest // Overrides package-level function variables.
func TestAboutPageReportsOCRBuild(t *testing.T) {
	originalDBEnabled := dbEnabledFn
	dbEnabledFn = func() bool { return false }

	t.Cleanup(func() {
		dbEnabledFn = originalDBEnabled
	})

	tpl := &templateStub{}
	data := template.Data{}

	About(tpl, data, &Lab{Table: db.DefaultReferenceTable()})

	if !tpl.called || tpl.name != "about" || tpl.status != http.StatusOK {
		t.Fatalf("unexpected render %#v", tpl)
	}

	if got := data["OCRBuilt"]; got != ocr.Enabled {
		t.Fatalf("expected OCRBuilt %v, got %v", ocr.Enabled, got)
	}

	if got := data["OCREnabled"]; got != false {
		t.Fatalf("expected OCREnabled false without an engine, got %v", got)
	}

	if _, ok := data["OCREngine"]; ok {
		t.Fatalf("expected no engine name without an engine")
	}
}
