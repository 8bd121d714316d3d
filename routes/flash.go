/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"encoding/gob"
	"fmt"

	"github.com/flamego/session"

	"github.com/humaidq/labreport/db"
)

// FlashType is rendered as the flash-<type> CSS class in the page header.
type FlashType string

// FlashType values.
const (
	FlashError   FlashType = "error"
	FlashSuccess FlashType = "success"
	FlashWarning FlashType = "warning"
	FlashInfo    FlashType = "info"
)

// FlashMessage is the one-shot notice shown on the next page load.
type FlashMessage struct {
	Type    FlashType
	Message string
}

func init() {
	gob.Register(FlashMessage{})
}

func setFlash(s session.Session, typ FlashType, message string) {
	s.SetFlash(FlashMessage{Type: typ, Message: message})
}

// SetErrorFlash sets an error flash message in the session
func SetErrorFlash(s session.Session, message string) { setFlash(s, FlashError, message) }

// SetSuccessFlash sets a success flash message in the session
func SetSuccessFlash(s session.Session, message string) { setFlash(s, FlashSuccess, message) }

// SetWarningFlash sets a warning flash message in the session
func SetWarningFlash(s session.Session, message string) { setFlash(s, FlashWarning, message) }

// SetInfoFlash sets an info flash message in the session
func SetInfoFlash(s session.Session, message string) { setFlash(s, FlashInfo, message) }

// flashTypeForStatus picks the notice colour for a classified result, so an
// abnormal value stands out right after it is entered.
func flashTypeForStatus(status db.Status) FlashType {
	switch {
	case status.Abnormal():
		return FlashWarning
	case status == db.StatusUnknown:
		return FlashInfo
	default:
		return FlashSuccess
	}
}

// SetResultFlash reports a newly added result along with its status.
func SetResultFlash(s session.Session, result db.ExtractedResult) {
	setFlash(s, flashTypeForStatus(result.Status), fmt.Sprintf("Added %s (%s)", result.TestName, result.Status))
}
