/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import "errors"

var (
	errTestNameRequired  = errors.New("test name is required")
	errTestValueRequired = errors.New("test value is required")
	errTestValueInvalid  = errors.New("test value must be a number")
	errNoUpload          = errors.New("no file or text submitted")

	errInvalidTrustedProxy = errors.New("invalid trusted proxy address")
)
