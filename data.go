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
	"time"

	"github.com/blockdevio/sdmmc/internal/crc"
	"github.com/blockdevio/sdmmc/internal/wire"
)

const dataTokenTimeout = 200 * time.Millisecond

// readData waits for a start-block token and reads length bytes plus the
// trailing CRC16 into buf. buf must have exactly length capacity.
func (d *Driver) readData(buf []byte, length int) error {
	token, err := d.waitDataToken()
	if err != nil {
		return err
	}
	if token != wire.StartBlockSingle && token != wire.StartBlockMulti {
		return NewDriverError("readData", ErrDataTokenError, ErrorTypeTransient)
	}

	payload, checksum, err := d.transferPayload(length)
	if err != nil {
		return err
	}
	copy(buf, payload)

	if d.config.CRC {
		want := crc.CRC16(payload)
		got := uint16(checksum[0])<<8 | uint16(checksum[1])
		if want != got {
			return NewDriverError("readData", ErrCRCError, ErrorTypeTransient)
		}
	}
	return nil
}

// waitDataToken clocks idle bytes until a non-0xFF byte arrives, within
// dataTokenTimeout.
func (d *Driver) waitDataToken() (byte, error) {
	deadline := d.now().Add(dataTokenTimeout)
	for d.now().Before(deadline) {
		b, err := d.clockBytes(1)
		if err != nil {
			return 0, err
		}
		if b[0] != wire.IdleByte {
			return b[0], nil
		}
	}
	return 0, NewDriverError("readData", ErrDataTokenError, ErrorTypeTimeout)
}

// transferPayload clocks length idle bytes to pump a read payload out of
// the card, plus the trailing 2-byte CRC16, switching to 16-bit word
// transfers when large-frames mode is enabled and the bus supports it.
func (d *Driver) transferPayload(length int) (payload, checksum []byte, err error) {
	if wordBus, ok := d.spi.(WordSPIBus); ok && d.config.LargeFrames {
		return d.transferPayloadWords(wordBus, length)
	}

	out := make([]byte, length)
	for i := range out {
		out[i] = wire.IdleByte
	}
	rx, err := d.spi.Transfer(out)
	if err != nil {
		return nil, nil, NewDriverError("transferPayload", err, ErrorTypeTransient)
	}

	crcRx, err := d.spi.Transfer([]byte{wire.IdleByte, wire.IdleByte})
	if err != nil {
		return nil, nil, NewDriverError("transferPayload", err, ErrorTypeTransient)
	}
	return rx, crcRx, nil
}

// transferPayloadWords is transferPayload's 16-bit-word path.
func (d *Driver) transferPayloadWords(bus WordSPIBus, length int) (payload, checksum []byte, err error) {
	words := make([]uint16, length/2)
	for i := range words {
		words[i] = 0xFFFF
	}
	rxWords, err := bus.TransferWords(words)
	if err != nil {
		return nil, nil, NewDriverError("transferPayloadWords", err, ErrorTypeTransient)
	}
	rx := make([]byte, length)
	for i, w := range rxWords {
		rx[2*i] = byte(w >> 8)
		rx[2*i+1] = byte(w)
	}

	crcWords, err := bus.TransferWords([]uint16{0xFFFF})
	if err != nil {
		return nil, nil, NewDriverError("transferPayloadWords", err, ErrorTypeTransient)
	}
	crcBytes := []byte{byte(crcWords[0] >> 8), byte(crcWords[0])}
	return rx, crcBytes, nil
}

// writeData waits for the bus to go ready, sends the start token, the
// 512-byte payload, and a CRC16 (or 0xFFFF if CRC is disabled), then
// returns the low 5 bits of the data-response byte.
func (d *Driver) writeData(buf []byte, token byte) (byte, error) {
	if err := d.waitReady(); err != nil {
		return 0, err
	}
	if _, err := d.spi.Transfer([]byte{token}); err != nil {
		return 0, NewDriverError("writeData", err, ErrorTypeTransient)
	}

	if _, err := d.spi.Transfer(buf); err != nil {
		return 0, NewDriverError("writeData", err, ErrorTypeTransient)
	}

	var checksum uint16 = 0xFFFF
	if d.config.CRC {
		checksum = crc.CRC16(buf)
	}
	if _, err := d.spi.Transfer([]byte{byte(checksum >> 8), byte(checksum)}); err != nil {
		return 0, NewDriverError("writeData", err, ErrorTypeTransient)
	}

	resp, err := d.clockBytes(1)
	if err != nil {
		return 0, err
	}
	return resp[0] & wire.DataResponseMask, nil
}
