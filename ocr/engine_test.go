// SPDX-FileCopyrightText: 2026 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package ocr

import (
	"context"
	"errors"
	"testing"
)

type recordingEngine struct {
	input Input
}

func (r *recordingEngine) Name() string { return "recording" }

func (r *recordingEngine) Recognize(_ context.Context, in Input) (Result, error) {
	r.input = in
	return Result{Text: "ok"}, nil
}

func TestParsePageSegMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    PageSegMode
		wantErr error
	}{
		{in: "", want: PSMDefault},
		{in: "default", want: PSMDefault},
		{in: "auto", want: PSMAuto},
		{in: " Column ", want: PSMSingleCol},
		{in: "block", want: PSMSingleBlock},
		{in: "SPARSE", want: PSMSparseText},
		{in: "diagonal", want: PSMDefault, wantErr: ErrInvalidPageSegMode},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParsePageSegMode(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParsePageSegMode(%q) error = %v, want %v", tt.in, err, tt.wantErr)
			}

			if got != tt.want {
				t.Fatalf("ParsePageSegMode(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithPageSegModeOverridesInput(t *testing.T) {
	t.Parallel()

	inner := &recordingEngine{}
	engine := WithPageSegMode(inner, PSMSingleCol)

	if engine.Name() != "recording" {
		t.Fatalf("expected wrapped engine name, got %q", engine.Name())
	}

	if _, err := engine.Recognize(context.Background(), Input{Image: []byte{1}, PageSegMode: PSMAuto}); err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if inner.input.PageSegMode != PSMSingleCol {
		t.Fatalf("expected mode %d, got %d", PSMSingleCol, inner.input.PageSegMode)
	}
}

func TestWithPageSegModeDefaultKeepsEngine(t *testing.T) {
	t.Parallel()

	inner := &recordingEngine{}

	if got := WithPageSegMode(inner, PSMDefault); got != Engine(inner) {
		t.Fatalf("expected engine unchanged, got %#v", got)
	}

	if got := WithPageSegMode(nil, PSMSparseText); got != nil {
		t.Fatalf("expected nil engine to stay nil, got %#v", got)
	}
}
