/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package logging

import "errors"

// ErrInvalidLevel is returned for a level name charmbracelet/log does not know.
var ErrInvalidLevel = errors.New("invalid log level")
