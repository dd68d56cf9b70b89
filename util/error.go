// util/error.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorLogger is a small utility class used to log errors when validating
// loaded data. It tracks context about what is currently being validated
// and accumulates multiple errors, making it possible to log errors while
// still continuing validation.
type ErrorLogger struct {
	// Tracked via Push()/Pop() calls to remember what we're looking at if
	// an error is found.
	hierarchy []string
	// Actual errors to report, each prefixed with the hierarchy at the
	// point it was reported.
	errors []error
}

func (e *ErrorLogger) Push(s string) {
	e.hierarchy = append(e.hierarchy, s)
}

func (e *ErrorLogger) Pop() {
	e.hierarchy = e.hierarchy[:len(e.hierarchy)-1]
}

func (e *ErrorLogger) ErrorString(s string, args ...any) {
	e.errors = append(e.errors, errors.New(e.prefix()+fmt.Sprintf(s, args...)))
}

func (e *ErrorLogger) Error(err error) {
	e.errors = append(e.errors, fmt.Errorf("%s%w", e.prefix(), err))
}

func (e *ErrorLogger) prefix() string {
	if len(e.hierarchy) == 0 {
		return ""
	}
	return strings.Join(e.hierarchy, " / ") + ": "
}

func (e *ErrorLogger) HaveErrors() bool {
	return len(e.errors) > 0
}

func (e *ErrorLogger) String() string {
	return strings.Join(MapSlice(e.errors, error.Error), "\n")
}

// Err returns all of the accumulated errors joined into a single error,
// or nil if there were none. Errors passed to Error may be matched with
// errors.Is and errors.As.
func (e *ErrorLogger) Err() error {
	return errors.Join(e.errors...)
}
