/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ocr

import "errors"

var (
	// ErrOCRNotEnabled is returned when the binary was built without the ocr tag
	ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")
	// ErrUnsupportedImage is returned for data that is not a decodable image
	ErrUnsupportedImage = errors.New("unsupported image format")
	// ErrImageTooLarge is returned when the pixel count exceeds MaxImagePixels
	ErrImageTooLarge = errors.New("image dimensions too large")
	// ErrInvalidPageSegMode is returned for an unknown page segmentation mode name
	ErrInvalidPageSegMode = errors.New("invalid page segmentation mode")
	// ErrEmptyImage is returned for zero-length input
	ErrEmptyImage = errors.New("image is empty")
)
