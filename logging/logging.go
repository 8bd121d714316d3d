/*
 * Copyright 2026 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package logging

import (
	"fmt"
	stdlog "log"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Log source tags used in structured logger contexts.
const (
	SourceApp        = "app"
	SourceWeb        = "web"
	SourceWebRequest = "web_request"
	SourceDB         = "db"
	SourceOCR        = "ocr"
)

// DefaultLevel is used until SetLevel is called.
const DefaultLevel = "info"

var (
	initOnce   sync.Once
	baseLogger *log.Logger

	// Derived loggers copy the level at creation, so SetLevel updates each.
	mu      sync.Mutex
	derived []*log.Logger
)

// Init configures the base logger and stdlib log output.
func Init() {
	initOnce.Do(func() {
		baseLogger = log.NewWithOptions(os.Stdout, log.Options{
			TimeFunction:    log.NowUTC,
			TimeFormat:      time.RFC3339Nano,
			Level:           log.InfoLevel,
			ReportTimestamp: true,
			Formatter:       log.LogfmtFormatter,
		})

		appLogger := baseLogger.With("source", SourceApp)
		derived = append(derived, appLogger)

		stdLogger := appLogger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})

		stdlog.SetFlags(0)
		stdlog.SetOutput(stdLogger.Writer())
	})
}

// Logger returns a logfmt logger tagged with the provided source.
func Logger(source string) *log.Logger {
	return derive(source)
}

// StdLogger returns a stdlib logger that writes logfmt output with a source.
func StdLogger(source string) *stdlog.Logger {
	return derive(source).StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})
}

func derive(source string) *log.Logger {
	Init()

	mu.Lock()
	defer mu.Unlock()

	l := baseLogger.With("source", source)
	derived = append(derived, l)

	return l
}

// SetLevel changes the minimum level of every logger handed out by Logger,
// including ones created before the call.
func SetLevel(level string) error {
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}

	Init()

	mu.Lock()
	defer mu.Unlock()

	baseLogger.SetLevel(parsed)
	for _, l := range derived {
		l.SetLevel(parsed)
	}

	return nil
}

// Level reports the current minimum level name.
func Level() string {
	Init()
	return baseLogger.GetLevel().String()
}
