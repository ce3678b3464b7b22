// sdmmc
// Copyright (c) 2026 The sdmmc Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of sdmmc.
//
// sdmmc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// sdmmc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with sdmmc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package sdmmc

import (
	"errors"
	"fmt"
)

// Sentinel errors for the conditions a caller may want to compare against
// with errors.Is. Diagnostic detail beyond these lives in DriverError.
var (
	ErrNotReady            = errors.New("sdmmc: card not ready")
	ErrNoCard              = errors.New("sdmmc: no card present")
	ErrWriteProtected      = errors.New("sdmmc: card is write protected")
	ErrBusyTimeout         = errors.New("sdmmc: timed out waiting for card to leave busy state")
	ErrCommandTimeout      = errors.New("sdmmc: timed out waiting for command response")
	ErrCommandError        = errors.New("sdmmc: card returned a command error response")
	ErrCRCError            = errors.New("sdmmc: CRC error reported or detected")
	ErrDataTokenError      = errors.New("sdmmc: did not receive a valid data start token")
	ErrWriteResponseError  = errors.New("sdmmc: card rejected a written data block")
	ErrCSDReadFailed       = errors.New("sdmmc: failed to read CSD register")
	ErrInitFailed          = errors.New("sdmmc: card initialization sequence failed")
	ErrUnsupportedCard     = errors.New("sdmmc: card type not supported")
	ErrInvalidSector       = errors.New("sdmmc: sector address out of range")
	ErrNotInitialized      = errors.New("sdmmc: driver used before Initialize")
)

// ErrorType classifies an error by how a caller should react to it.
type ErrorType int

const (
	// ErrorTypeTransient conditions are worth retrying as-is: a dropped
	// byte, a CRC mismatch, a busy card that will clear.
	ErrorTypeTransient ErrorType = iota
	// ErrorTypeTimeout conditions are worth retrying, possibly after
	// backing off or re-selecting the card.
	ErrorTypeTimeout
	// ErrorTypePermanent conditions will not resolve by retrying: the card
	// is missing, unsupported, or the request itself is invalid.
	ErrorTypePermanent
)

// String implements fmt.Stringer.
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypePermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// DriverError wraps a lower-level failure with the operation it occurred
// during and whether it is worth retrying. Codec and transaction code
// returns these; BlockDevice callers that just want the three filesystem
// codes from Result should use GetErrorType/IsRetryable or ResultCode
// rather than inspecting DriverError directly.
type DriverError struct {
	Err       error
	Op        string
	Type      ErrorType
	Retryable bool
}

func (e *DriverError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("sdmmc: %v", e.Err)
	}
	return fmt.Sprintf("sdmmc: %s: %v", e.Op, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

// NewDriverError builds a DriverError for op, wrapping err and classifying
// it as errType. The Retryable flag is derived from errType: true for
// every type except ErrorTypePermanent.
func NewDriverError(op string, err error, errType ErrorType) *DriverError {
	return &DriverError{
		Op:        op,
		Err:       err,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError builds a DriverError classified as ErrorTypeTimeout for op.
func NewTimeoutError(op string, err error) *DriverError {
	return &DriverError{Op: op, Err: err, Type: ErrorTypeTimeout, Retryable: true}
}

// classification of the closed sentinel set above, consulted by
// IsRetryable/GetErrorType when the error isn't already a *DriverError.
var sentinelTypes = map[error]ErrorType{
	ErrNotReady:           ErrorTypeTransient,
	ErrBusyTimeout:        ErrorTypeTimeout,
	ErrCommandTimeout:     ErrorTypeTimeout,
	ErrCommandError:       ErrorTypeTransient,
	ErrCRCError:           ErrorTypeTransient,
	ErrDataTokenError:     ErrorTypeTransient,
	ErrWriteResponseError: ErrorTypeTransient,
	ErrCSDReadFailed:      ErrorTypeTransient,
	ErrNoCard:             ErrorTypePermanent,
	ErrWriteProtected:     ErrorTypePermanent,
	ErrInitFailed:         ErrorTypePermanent,
	ErrUnsupportedCard:    ErrorTypePermanent,
	ErrInvalidSector:      ErrorTypePermanent,
	ErrNotInitialized:     ErrorTypePermanent,
}

// GetErrorType classifies err. nil and unrecognized errors are
// ErrorTypePermanent: callers should not retry something they can't
// classify as safe to retry.
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}
	var de *DriverError
	if errors.As(err, &de) {
		return de.Type
	}
	for sentinel, t := range sentinelTypes {
		if errors.Is(err, sentinel) {
			return t
		}
	}
	return ErrorTypePermanent
}

// IsRetryable reports whether err is worth retrying without caller-side
// intervention (reselecting the card, reinitializing, or prompting the
// user for a different card all count as intervention).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var de *DriverError
	if errors.As(err, &de) {
		return de.Retryable
	}
	return GetErrorType(err) != ErrorTypePermanent
}

// Result is the status a BlockDevice reports to a filesystem
// layer above it, per the driver's external status contract. Internal
// errors carry far more detail than this; ResultCode collapses them to it
// at the boundary.
type Result int

const (
	ResultOK Result = iota
	ResultNotReady
	ResultWriteProtected
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultNotReady:
		return "not ready"
	case ResultWriteProtected:
		return "write protected"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// ResultCode collapses any error produced by this package into one of the
// three failure Results a filesystem layer understands. A nil err maps to
// ResultOK.
func ResultCode(err error) Result {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrWriteProtected):
		return ResultWriteProtected
	case errors.Is(err, ErrNoCard), errors.Is(err, ErrNotReady), errors.Is(err, ErrNotInitialized):
		return ResultNotReady
	default:
		return ResultError
	}
}
