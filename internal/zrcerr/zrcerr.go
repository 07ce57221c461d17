// Copyright (C) 2026 zrc-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package zrcerr classifies ZRC errors into the kinds from spec §7 and maps
// each kind to the stable process exit code from spec §6. Every component
// returns ordinary Go errors; this package is the single place that turns
// "what went wrong" into "what the process should report."
package zrcerr

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories named in the specification.
type Kind int

const (
	// KindSuccess is not a failure; it is the zero value used by ExitCode
	// for the no-error case.
	KindSuccess Kind = iota
	KindInvalidInput
	KindAuthentication
	KindTimeout
	KindTransport
	KindNotPaired
	KindPermissionDenied
	KindQuota
	KindVerification
	KindInternal
)

// String renders a Kind for logs and JSON envelopes.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindInvalidInput:
		return "invalid_input"
	case KindAuthentication:
		return "authentication_failed"
	case KindTimeout:
		return "timeout"
	case KindTransport:
		return "connection_failed"
	case KindNotPaired:
		return "not_paired"
	case KindPermissionDenied:
		return "permission_denied"
	case KindQuota:
		return "quota_exceeded"
	case KindVerification:
		return "verification_failed"
	case KindInternal:
		return "internal_error"
	default:
		return "unknown"
	}
}

// exitCodes implements the stable mapping from spec §6. These values are
// part of the process-boundary contract and must never change.
var exitCodes = map[Kind]int{
	KindSuccess:          0,
	KindInternal:         1,
	KindAuthentication:   2,
	KindTimeout:          3,
	KindTransport:        4,
	KindInvalidInput:     5,
	KindNotPaired:        6,
	KindPermissionDenied: 7,
	// Quota and verification failures don't terminate the process with a
	// dedicated code in spec §6; they surface through KindInternal's
	// generic failure path unless the caller maps them more specifically.
	KindQuota:       1,
	KindVerification: 1,
}

// ExitCode returns the documented process exit code for kind. It is always
// in [0, 255]; KindSuccess is the only kind mapping to 0.
func ExitCode(kind Kind) int {
	if code, ok := exitCodes[kind]; ok {
		return code
	}
	return 1
}

// Error is a classified ZRC error: it carries a Kind (for exit-code mapping
// and audit logging) plus a wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs a classified error around an existing cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ClassifyOf extracts the Kind carried by err, walking the Unwrap chain.
// Unclassified errors are treated as KindInternal — "log and surface;
// never silently succeed" (spec §7).
func ClassifyOf(err error) Kind {
	if err == nil {
		return KindSuccess
	}
	var zerr *Error
	if errors.As(err, &zerr) {
		return zerr.Kind
	}
	return KindInternal
}

// ExitCodeOf is a convenience wrapper around ExitCode(ClassifyOf(err)).
func ExitCodeOf(err error) int {
	return ExitCode(ClassifyOf(err))
}
