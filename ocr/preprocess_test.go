// SPDX-FileCopyrightText: 2026 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package ocr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/10+y/10)%2 == 0 {
				img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
			} else {
				img.Set(x, y, color.White)
			}
		}
	}

	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	t.Parallel()

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, testImage(20, 20), nil); err != nil {
		t.Fatalf("failed to encode jpeg: %v", err)
	}

	cases := []struct {
		name string
		data []byte
		want string
	}{
		{name: "png", data: encodePNG(t, testImage(20, 20)), want: "png"},
		{name: "jpeg", data: jpg.Bytes(), want: "jpeg"},
	}

	for _, tc := range cases {
		cfg, got, err := DetectFormat(tc.data)
		if err != nil {
			t.Fatalf("%s: DetectFormat failed: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
		if cfg.Width != 20 || cfg.Height != 20 {
			t.Fatalf("%s: expected 20x20, got %dx%d", tc.name, cfg.Width, cfg.Height)
		}
	}
}

func TestDetectFormatRejectsText(t *testing.T) {
	t.Parallel()

	if _, _, err := DetectFormat([]byte("Hemoglobin 14.2 g/dL")); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
	if _, _, err := DetectFormat(nil); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if IsImage([]byte("plain text")) {
		t.Fatalf("expected plain text not to be an image")
	}
}

func TestPreprocessUpscalesAndGrayscales(t *testing.T) {
	t.Parallel()

	out, err := Preprocess(encodePNG(t, testImage(300, 100)))
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	img, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if format != "png" {
		t.Fatalf("expected png output, got %q", format)
	}
	if img.Bounds().Dx() != minOCRWidth {
		t.Fatalf("expected width %d, got %d", minOCRWidth, img.Bounds().Dx())
	}
	if img.Bounds().Dy() != 400 {
		t.Fatalf("expected aspect ratio to be kept, got height %d", img.Bounds().Dy())
	}

	r, g, b, _ := img.At(5, 5).RGBA()
	if r != g || g != b {
		t.Fatalf("expected gray pixel, got %d %d %d", r, g, b)
	}
}

func TestPreprocessDownscalesLargeImages(t *testing.T) {
	t.Parallel()

	out, err := Preprocess(encodePNG(t, testImage(maxOCRWidth+600, 60)))
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("failed to decode output: %v", err)
	}
	if cfg.Width != maxOCRWidth {
		t.Fatalf("expected width %d, got %d", maxOCRWidth, cfg.Width)
	}
}

func TestPreprocessRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := Preprocess([]byte("not an image")); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}
}

func TestParseLanguages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want []string
	}{
		{in: "eng", want: []string{"eng"}},
		{in: " eng , deu ,", want: []string{"eng", "deu"}},
		{in: "", want: nil},
	}

	for _, tc := range cases {
		got := ParseLanguages(tc.in)
		if len(got) != len(tc.want) {
			t.Fatalf("ParseLanguages(%q) = %v, want %v", tc.in, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("ParseLanguages(%q) = %v, want %v", tc.in, got, tc.want)
			}
		}
	}
}

// withPNGDimensions rewrites the IHDR size of an encoded PNG. The pixel data
// stays tiny, as in a highly compressed upload.
func withPNGDimensions(data []byte, width, height uint32) []byte {
	out := bytes.Clone(data)

	// Signature (8), IHDR length (4) and type (4) precede width and height.
	binary.BigEndian.PutUint32(out[16:20], width)
	binary.BigEndian.PutUint32(out[20:24], height)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))

	return out
}

func TestPreprocessRejectsOversizedImages(t *testing.T) {
	t.Parallel()

	black := image.NewGray(image.Rect(0, 0, 1, 1))

	for _, size := range []uint32{12000, 30000} {
		data := withPNGDimensions(encodePNG(t, black), size, size)

		cfg, _, err := DetectFormat(data)
		if err != nil {
			t.Fatalf("DetectFormat failed: %v", err)
		}
		if cfg.Width != int(size) {
			t.Fatalf("expected width %d, got %d", size, cfg.Width)
		}

		if _, err := Preprocess(data); !errors.Is(err, ErrImageTooLarge) {
			t.Fatalf("%dx%d: expected ErrImageTooLarge, got %v", size, size, err)
		}
	}
}
