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

	sdmmctesting "github.com/blockdevio/sdmmc/internal/testing"
	"github.com/stretchr/testify/require"
)

// newCardDriver wires a Driver to a VirtualCard through MockPins, the way
// the other scenario tests in this file and blockdevice_test.go do.
func newCardDriver(t *testing.T, card *sdmmctesting.VirtualCard, opts ...Option) (*Driver, *sdmmctesting.MockPins) {
	t.Helper()
	pins := sdmmctesting.NewMockPins()
	allOpts := append([]Option{WithClock(&stepClock{})}, opts...)
	drv, err := New(card, pins, pins, allOpts...)
	require.NoError(t, err)
	return drv, pins
}

func TestInitialize_FreshSDHC(t *testing.T) {
	t.Parallel()
	card := sdmmctesting.NewVirtualCard()
	card.CommandR1[58] = []byte{0x01, 0x00}
	card.CommandTrailer[58] = [][]byte{
		{0x00, 0x10, 0x00, 0x00}, // voltage window set, not yet ready
		{0x40, 0x10, 0x00, 0x00}, // ready, CCS set: SDHC
	}
	card.CommandTrailer[8] = [][]byte{{0x00, 0x00, 0x01, 0xAA}}

	drv, _ := newCardDriver(t, card, WithFrequency(100_000_000))

	err := drv.Initialize()
	require.NoError(t, err)
	require.Equal(t, CardTypeSDv2HC, drv.CardType())
	require.Equal(t, sdMaxFrequencyHz, card.LastSpeed())
}

func TestInitialize_MMCv3Fallback(t *testing.T) {
	t.Parallel()
	card := sdmmctesting.NewVirtualCard()
	card.CommandR1[8] = []byte{0x05}  // CMD8 illegal: card predates SDv2
	card.CommandR1[58] = []byte{0x01} // OCR: voltage window present, not CCS-tagged
	card.CommandTrailer[58] = [][]byte{{0x00, 0x10, 0x00, 0x00}}
	card.CommandR1[41] = []byte{0x05} // ACMD41 illegal: not an SD card

	drv, _ := newCardDriver(t, card, WithFrequency(100_000_000))

	err := drv.Initialize()
	require.NoError(t, err)
	require.Equal(t, CardTypeMMC, drv.CardType())
	require.Equal(t, mmcMaxFrequencyHz, card.LastSpeed())
}

func TestInitialize_NoCardPresent(t *testing.T) {
	t.Parallel()
	card := sdmmctesting.NewVirtualCard()
	drv, pins := newCardDriver(t, card)
	pins.SetPresent(false)

	err := drv.Initialize()
	require.ErrorIs(t, err, ErrNoCard)
	require.NotZero(t, drv.Status()&StatusNoDisk)
}
