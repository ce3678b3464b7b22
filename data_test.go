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

	"github.com/blockdevio/sdmmc/internal/crc"
	sdmmctesting "github.com/blockdevio/sdmmc/internal/testing"
	"github.com/stretchr/testify/require"
)

func TestReadData_Success(t *testing.T) {
	t.Parallel()
	block := make([]byte, 16)
	for i := range block {
		block[i] = byte(i + 1)
	}
	checksum := crc.CRC16(block)

	spi := &sdmmctesting.MockSPI{
		Responses: [][]byte{
			{0xFE},                                      // start token
			block,                                       // payload
			{byte(checksum >> 8), byte(checksum)},       // checksum
		},
	}
	drv, _ := newTestDriver(t, spi)

	buf := make([]byte, 16)
	err := drv.readData(buf, 16)
	require.NoError(t, err)
	require.Equal(t, block, buf)
}

func TestReadData_CRCMismatch(t *testing.T) {
	t.Parallel()
	block := make([]byte, 16)
	block[0] = 0x01
	spi := &sdmmctesting.MockSPI{
		Responses: [][]byte{
			{0xFE},
			block,
			{0x00, 0x00}, // deliberately wrong: real checksum of block is nonzero
		},
	}
	drv, _ := newTestDriver(t, spi)

	buf := make([]byte, 16)
	err := drv.readData(buf, 16)
	require.ErrorIs(t, err, ErrCRCError)
}

func TestWaitDataToken_TimesOut(t *testing.T) {
	t.Parallel()
	spi := &sdmmctesting.MockSPI{}
	for i := 0; i < 300; i++ {
		spi.Responses = append(spi.Responses, []byte{0xFF})
	}
	drv, _ := newTestDriver(t, spi)

	_, err := drv.waitDataToken()
	require.ErrorIs(t, err, ErrDataTokenError)
}

func TestWriteData_Accepted(t *testing.T) {
	t.Parallel()
	buf := make([]byte, 16)
	spi := &sdmmctesting.MockSPI{
		Responses: [][]byte{
			{0xFF},       // waitReady
			{0x01},       // token echo
			buf,          // payload echo
			{0x00, 0x00}, // crc echo
			{0x05},       // data response: accepted
		},
	}
	drv, _ := newTestDriver(t, spi)

	code, err := drv.writeData(buf, 0xFE)
	require.NoError(t, err)
	require.Equal(t, byte(0x05), code)
}
