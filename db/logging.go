/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "github.com/humaidq/labreport/logging"

var logger = logging.Logger(logging.SourceDB)
