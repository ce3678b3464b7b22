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

import "time"

// SPIBus is the narrow byte-transfer interface the driver needs from the
// hardware SPI peripheral. A concrete implementation lives in
// transport/spi; tests drive a MockSPI instead.
type SPIBus interface {
	// Transfer clocks out tx and clocks in the same number of bytes,
	// full-duplex, as SPI always does. Callers that only care about one
	// direction pass a buffer of 0xFF bytes to transfer, or a throwaway
	// slice to receive.
	Transfer(tx []byte) (rx []byte, err error)

	// SetSpeed changes the bus clock. Initialize calls it twice: first to
	// drop to the 400 kHz initialization clock, then to raise the clock
	// after the card has left its slow initialization window.
	SetSpeed(hz int) error
}

// WordSPIBus is an optional capability: a bus that can clock 16-bit words
// instead of bytes, which some SPI peripheral drivers require for bulk
// data transfer. If a bus doesn't implement it, data.go falls back to
// byte-at-a-time transfer.
type WordSPIBus interface {
	SPIBus
	TransferWords(tx []uint16) (rx []uint16, err error)
}

// ChipSelect is the GPIO line gating which device on the bus is listening.
type ChipSelect interface {
	Assert() error
	Deassert() error
}

// CardDetect reports whether a card is physically seated in the socket.
// Implementations should reflect the raw switch state; polarity (normally
// open vs normally closed) is handled by the caller via Config.CardDetectSwitch.
type CardDetect interface {
	// Present reports the current raw (active-high) pin level.
	Present() (bool, error)
	// Notify registers fn to be called on every edge of the card-detect
	// line. Implementations that can't generate interrupts may poll
	// internally; fn may be called from another goroutine.
	Notify(fn func(present bool)) error
}

// Clock is a thin injection seam over time.Now/time.Sleep so tests can run
// the busy-wait and timeout loops in codec.go, data.go, and init.go
// without real wall-clock delay.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// realClock is the Clock used outside of tests.
type realClock struct{}

func (realClock) Now() time.Time      { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }
