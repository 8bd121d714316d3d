/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"strings"

	// Register decoders for the formats phones and scanners produce.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// minOCRWidth is the width below which images are upscaled before
// recognition. Tesseract works best with glyphs at least 20px tall.
const minOCRWidth = 1200

// maxOCRWidth caps the working width to keep recognition time bounded.
const maxOCRWidth = 3000

// MaxImagePixels bounds the decoded size of an upload. Compressed images can
// be tiny on the wire and still decode to gigabytes.
const MaxImagePixels = 40_000_000

// DetectFormat returns the image dimensions and format name ("png", "jpeg",
// "webp", ...) without decoding the pixels.
func DetectFormat(data []byte) (image.Config, string, error) {
	if len(data) == 0 {
		return image.Config{}, "", ErrEmptyImage
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}

	return cfg, format, nil
}

// IsImage reports whether data decodes as a supported image
func IsImage(data []byte) bool {
	_, _, err := DetectFormat(data)
	return err == nil
}

// Preprocess prepares a photo or scan for recognition. The image is
// auto-oriented, converted to grayscale, contrast stretched, sharpened and
// resized into the working width range, then encoded as PNG. Images over
// MaxImagePixels are rejected before decoding.
func Preprocess(data []byte) ([]byte, error) {
	cfg, format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}

	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ErrEmptyImage
	}

	if int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}

	width := img.Bounds().Dx()
	if width == 0 || img.Bounds().Dy() == 0 {
		return nil, ErrEmptyImage
	}

	var out image.Image = imaging.Grayscale(img)

	switch {
	case width < minOCRWidth:
		out = imaging.Resize(out, minOCRWidth, 0, imaging.Lanczos)
	case width > maxOCRWidth:
		out = imaging.Resize(out, maxOCRWidth, 0, imaging.Lanczos)
	}

	out = imaging.AdjustContrast(out, 20)
	out = imaging.Sharpen(out, 0.8)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preprocessed image: %w", err)
	}

	logger.Debug("Preprocessed image",
		"format", strings.ToLower(format),
		"width", width,
		"out_width", out.Bounds().Dx(),
		"bytes", buf.Len(),
	)

	return buf.Bytes(), nil
}
