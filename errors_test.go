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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetErrorType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypePermanent},
		{"sentinel transient", ErrCommandError, ErrorTypeTransient},
		{"sentinel timeout", ErrBusyTimeout, ErrorTypeTimeout},
		{"sentinel permanent", ErrNoCard, ErrorTypePermanent},
		{"wrapped sentinel", NewDriverError("op", ErrCRCError, ErrorTypeTransient), ErrorTypeTransient},
		{"unrecognized", errors.New("boom"), ErrorTypePermanent},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, GetErrorType(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	assert.False(t, IsRetryable(nil))
	assert.True(t, IsRetryable(ErrCRCError))
	assert.False(t, IsRetryable(ErrNoCard))
	assert.True(t, IsRetryable(NewDriverError("op", errors.New("x"), ErrorTypeTimeout)))
	assert.False(t, IsRetryable(&DriverError{Err: errors.New("x"), Type: ErrorTypePermanent, Retryable: false}))
}

func TestDriverErrorUnwrap(t *testing.T) {
	t.Parallel()
	inner := errors.New("underlying")
	de := NewDriverError("readSectors", inner, ErrorTypeTransient)

	require.ErrorIs(t, de, inner)
	assert.Contains(t, de.Error(), "readSectors")
	assert.Contains(t, de.Error(), "underlying")
}

func TestResultCode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want Result
	}{
		{"nil", nil, ResultOK},
		{"write protected", ErrWriteProtected, ResultWriteProtected},
		{"no card", ErrNoCard, ResultNotReady},
		{"not ready", ErrNotReady, ResultNotReady},
		{"not initialized", ErrNotInitialized, ResultNotReady},
		{"other", ErrCommandError, ResultError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResultCode(tt.err))
		})
	}
}

func TestResultString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ok", ResultOK.String())
	assert.Equal(t, "write protected", ResultWriteProtected.String())
	assert.Equal(t, "unknown", Result(99).String())
}
