//go:build !ocr

// SPDX-FileCopyrightText: 2026 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package ocr

import (
	"context"
	"errors"
	"testing"
)

func TestTesseractStub(t *testing.T) {
	t.Parallel()

	if Enabled {
		t.Fatalf("expected stub build to report OCR disabled")
	}

	engine, err := NewTesseractEngine("eng")
	if !errors.Is(err, ErrOCRNotEnabled) || engine != nil {
		t.Fatalf("expected ErrOCRNotEnabled, got %v, %v", engine, err)
	}

	var stub TesseractEngine
	if _, err := stub.Recognize(context.Background(), Input{Image: []byte{1}}); !errors.Is(err, ErrOCRNotEnabled) {
		t.Fatalf("expected ErrOCRNotEnabled from Recognize, got %v", err)
	}
}
