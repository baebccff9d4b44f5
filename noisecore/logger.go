/* SPDX-License-Identifier: MIT
 *
 * Copyright (C) 2017-2025 WireGuard LLC. All Rights Reserved.
 */

package noisecore

import (
	"io"
	"log"
)

// Logger mirrors the teacher's device.Logger: two printf-style function
// fields so a caller can wire in whatever backend it likes (or none).
type Logger struct {
	Verbosef func(format string, args ...any)
	Errorf   func(format string, args ...any)
}

// NewLogger builds a Logger writing through the standard library's log
// package, tagged with prefix. Passing io.Discard as w silences output
// entirely.
func NewLogger(w io.Writer, prefix string) *Logger {
	verbose := log.New(w, prefix+"VERBOSE: ", log.Ldate|log.Ltime)
	errs := log.New(w, prefix+"ERROR: ", log.Ldate|log.Ltime)
	return &Logger{
		Verbosef: func(format string, args ...any) { verbose.Printf(format, args...) },
		Errorf:   func(format string, args ...any) { errs.Printf(format, args...) },
	}
}

var discardLogger = &Logger{
	Verbosef: func(string, ...any) {},
	Errorf:   func(string, ...any) {},
}
