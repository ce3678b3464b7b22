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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeCSD(t *testing.T) {
	t.Parallel()

	// v1 (standard capacity) card fixture of 943 MiB: structure version
	// bits 00, READ_BL_LEN=10, C_SIZE=3771, C_SIZE_MULT=6.
	v1 := [16]byte{
		0x00, 0x26, 0x00, 0x32, 0x5F, 0x5A, 0x83, 0xAE,
		0xFE, 0xFB, 0x2F, 0x80, 0x16, 0x80, 0x00, 0x00,
	}
	got := decodeCSD(v1)
	assert.Equal(t, uint64(1_931_264), got)

	// v2 (high capacity): structure version bits 01, C_SIZE=0x3B36 ->
	// sectors = (C_SIZE+1) << 10.
	v2 := [16]byte{
		0x40, 0x0E, 0x00, 0x32, 0x5B, 0x59, 0x00, 0x00,
		0x3B, 0x36, 0x7F, 0x80, 0x0A, 0x40, 0x00, 0x01,
	}
	got = decodeCSD(v2)
	assert.Equal(t, uint64(15_522_816), got)
}

func TestDecodeCSDv2(t *testing.T) {
	t.Parallel()
	var csd [16]byte
	csd[0] = 0x40
	csd[7] = 0x00
	csd[8] = 0x00
	csd[9] = 0x00
	assert.Equal(t, uint64(1<<10), decodeCSDv2(csd))
}

func TestDecodeCSDv1(t *testing.T) {
	t.Parallel()
	var csd [16]byte
	csd[5] = 0x09 // READ_BL_LEN = 9
	csd[6] = 0x00
	csd[7] = 0x00
	csd[8] = 0x00 // C_SIZE = 0
	csd[9] = 0x00
	csd[10] = 0x00 // C_SIZE_MULT = 0
	assert.Equal(t, uint64(4), decodeCSDv1(csd))
}
