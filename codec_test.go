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
	"time"

	sdmmctesting "github.com/blockdevio/sdmmc/internal/testing"
	"github.com/blockdevio/sdmmc/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestBuildFrame(t *testing.T) {
	t.Parallel()

	frame := buildFrame(cmdGoIdleState, 0, true)
	require.Equal(t, [6]byte{0x40, 0x00, 0x00, 0x00, 0x00, 0x95}, frame)

	frame = buildFrame(cmdSendIfCond, 0x1AA, true)
	require.Equal(t, [6]byte{0x48, 0x00, 0x00, 0x01, 0xAA, 0x87}, frame)

	// CRC disabled, non-mandatory command: fixed placeholder trailer.
	frame = buildFrame(cmdSendStatus, 0, false)
	require.Equal(t, byte(0x01), frame[5])
}

func TestTrailerLen(t *testing.T) {
	t.Parallel()
	require.Equal(t, 0, trailerLen(cmdGoIdleState))
	require.Equal(t, 1, trailerLen(cmdSendStatus))
	require.Equal(t, 4, trailerLen(cmdSendIfCond))
	require.Equal(t, 4, trailerLen(cmdReadOCR))
}

func newTestDriver(t *testing.T, spi SPIBus) (*Driver, *sdmmctesting.MockPins) {
	t.Helper()
	pins := sdmmctesting.NewMockPins()
	drv, err := New(spi, pins, pins, WithClock(&stepClock{}))
	require.NoError(t, err)
	return drv, pins
}

// stepClock is a Clock whose Now() advances a fixed step every call, so
// timeout loops in codec.go/data.go/transaction.go terminate
// deterministically without a real wall-clock dependency.
type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func (c *stepClock) Sleep(time.Duration) {}

func TestSendRaw_PollsUntilR1Clears(t *testing.T) {
	t.Parallel()
	spi := &sdmmctesting.MockSPI{
		Responses: [][]byte{
			{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, // command frame echo
			{0xFF}, {0xFF}, {0x00},               // R1 poll: two misses, then 0x00
		},
	}
	drv, _ := newTestDriver(t, spi)

	resp, err := drv.sendRaw(cmdGoIdleState, 0)
	require.NoError(t, err)
	require.Equal(t, byte(0x00), resp.r1)
}

func TestSend_RetriesOnCRCFlaggedR1(t *testing.T) {
	t.Parallel()
	spi := &sdmmctesting.MockSPI{
		Responses: [][]byte{
			{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, {0x08}, // attempt 1: CRC error
			{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, {0x00}, // attempt 2: ok
		},
	}
	drv, _ := newTestDriver(t, spi)

	resp, err := drv.send(cmdGoIdleState, 0)
	require.NoError(t, err)
	require.Equal(t, byte(0x00), resp.r1)
}

func TestSend_RetriesACMDWithFreshCMD55Prelude(t *testing.T) {
	t.Parallel()
	spi := &sdmmctesting.MockSPI{
		Responses: [][]byte{
			{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, {0x00}, {0xFF}, // attempt 1: CMD55 prelude, ok
			{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, {0x08}, // attempt 1: ACMD41 itself, CRC error
			{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, {0x00}, {0xFF}, // attempt 2: CMD55 prelude, ok
			{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, {0x00}, // attempt 2: ACMD41 itself, ok
		},
	}
	drv, _ := newTestDriver(t, spi)

	resp, err := drv.send(acmdSDSendOpCond, 0)
	require.NoError(t, err)
	require.Equal(t, byte(0x00), resp.r1)

	cmd55Frames := 0
	for _, sent := range spi.Sent {
		if len(sent) == 6 && sent[0] == byte(wire.CommandPrefix|cmdAppCmd) {
			cmd55Frames++
		}
	}
	require.Equal(t, 2, cmd55Frames, "the retried ACMD41 attempt must resend its own CMD55 prelude")
}
