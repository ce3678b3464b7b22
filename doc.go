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

/*
Package sdmmc drives SD and MMC memory cards over SPI, exposing a narrow
BlockDevice interface to a filesystem layer above it.

The driver owns card detection, the initialization handshake, command
framing and response decoding, data-block transfer with CRC16 integrity
checking, error recovery, and CSD geometry decoding. It talks to the
hardware through three small interfaces (SPIBus, ChipSelect, CardDetect)
so it can run against a real periph.io-backed SPI bus (see transport/spi)
or a mock in tests.

Basic usage:

	bus, cs, cd := platformWiring()
	drv, err := sdmmc.New(bus, cs, cd)
	if err != nil {
	    log.Fatal(err)
	}

	if err := drv.Initialize(); err != nil {
	    log.Fatal(err)
	}

	buf := make([]byte, 512)
	if res := drv.ReadSectors(buf, 0, 1); res != sdmmc.ResultOK {
	    log.Fatalf("read failed: %v", res)
	}

Card types:

The driver classifies a card into one of CardTypeMMC, CardTypeSDv1,
CardTypeSDv2SC, or CardTypeSDv2HC during Initialize, driving both its
addressing mode (byte offset vs. block number) and its post-init clock
ceiling.

Error handling:

Operations return sentinel errors comparable with errors.Is, or the
Result enum (ResultOK plus three failure codes) at the BlockDevice
boundary:

	if errors.Is(err, sdmmc.ErrNoCard) {
	    // no card in the socket
	}

Thread safety:

A Driver is not safe for concurrent use. The one exception is the
card-detect edge callback, which only ever touches the atomic status
word and never re-enters the driver.
*/
package sdmmc
