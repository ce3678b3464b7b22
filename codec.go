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

// r1PollAttempts is the minimum bound on idle-byte polling for R1, per the
// "at least 8" requirement.
const r1PollAttempts = 10

// maxCommandRetries is the total number of attempts (including the first)
// made for a command whose R1 reports a CRC error.
const maxCommandRetries = 3

// response is the result of sending one command frame: the R1 byte plus
// whatever trailer the command calls for (nil if none).
type response struct {
	r1      byte
	trailer []byte
}

// buildFrame constructs the 6-byte command frame for cmd/arg. CMD0 and
// CMD8 always carry a valid CRC7 trailer; every other command does only
// when useCRC is true, otherwise the trailer is the fixed placeholder
// 0x01.
func buildFrame(cmd int, arg uint32, useCRC bool) [wire.FrameLength]byte {
	var frame [wire.FrameLength]byte
	frame[0] = wire.CommandPrefix | byte(cmd)
	frame[1] = byte(arg >> 24)
	frame[2] = byte(arg >> 16)
	frame[3] = byte(arg >> 8)
	frame[4] = byte(arg)

	if useCRC || cmd == cmdGoIdleState || cmd == cmdSendIfCond {
		frame[5] = (crc.CRC7(frame[:5]) << 1) | 1
	} else {
		frame[5] = 0x01
	}
	return frame
}

// trailerLen reports how many extra bytes follow R1 for cmd.
func trailerLen(cmd int) int {
	switch cmd {
	case cmdSendStatus:
		return 1
	case cmdSendIfCond, cmdReadOCR:
		return 4
	default:
		return 0
	}
}

// send transmits one command frame (flattening a CMD55 prelude when cmd
// is in acmdSet), polls for R1, retries on a CRC-flagged R1 up to
// maxCommandRetries total attempts, and collects any trailer.
func (d *Driver) send(cmd int, arg uint32) (response, error) {
	isACMD := acmdSet[cmd]

	var last response
	var lastErr error
	for attempt := 0; attempt < maxCommandRetries; attempt++ {
		if isACMD {
			// The card consumes APP_CMD on the very next frame regardless
			// of whether that frame's own response was valid, so a retried
			// ACMD needs its own fresh CMD55 prelude each attempt, not just
			// before the first one.
			pre, err := d.sendRaw(cmdAppCmd, 0)
			if err != nil {
				return response{}, err
			}
			if pre.r1 > 0x01 {
				return pre, nil
			}
			if err := d.clockIdle(1); err != nil {
				return response{}, err
			}
		}

		last, lastErr = d.sendRaw(cmd, arg)
		if lastErr != nil {
			return response{}, lastErr
		}
		if last.r1 == wire.R1NoResponse {
			return last, nil
		}
		if last.r1&wire.R1CRCError == 0 {
			return last, nil
		}
		// CRC-flagged: retry the whole frame (and, for an ACMD, its CMD55
		// prelude too).
		debugf("send: cmd=%d arg=%#x CRC-flagged R1=%#02x, attempt %d/%d", cmd, arg, last.r1, attempt+1, maxCommandRetries)
	}
	return last, nil
}

// sendRaw transmits a single frame with no ACMD flattening or retry: build
// frame, write it, clock the CMD12 stuff byte if needed, poll R1, read the
// trailer.
func (d *Driver) sendRaw(cmd int, arg uint32) (response, error) {
	frame := buildFrame(cmd, arg, d.config.CRC)
	if _, err := d.spi.Transfer(frame[:]); err != nil {
		return response{}, NewDriverError("sendRaw", err, ErrorTypeTransient)
	}

	if cmd == cmdStopTransmission {
		if err := d.clockIdle(1); err != nil {
			return response{}, err
		}
	}

	r1, err := d.pollR1()
	if err != nil {
		return response{}, err
	}

	res := response{r1: r1}
	if r1 == wire.R1NoResponse || r1 > 0x01 {
		return res, nil
	}

	n := trailerLen(cmd)
	if n == 0 {
		return res, nil
	}
	trailer, err := d.clockBytes(n)
	if err != nil {
		return response{}, err
	}
	res.trailer = trailer
	return res, nil
}

// pollR1 clocks idle bytes until bit 7 of a received byte clears, up to
// r1PollAttempts tries. Returns wire.R1NoResponse if it never clears.
func (d *Driver) pollR1() (byte, error) {
	for i := 0; i < r1PollAttempts; i++ {
		b, err := d.clockBytes(1)
		if err != nil {
			return 0, err
		}
		if b[0]&0x80 == 0 {
			return b[0], nil
		}
	}
	return wire.R1NoResponse, nil
}

// clockBytes clocks n idle (0xFF) bytes out and returns what came back.
func (d *Driver) clockBytes(n int) ([]byte, error) {
	tx := make([]byte, n)
	for i := range tx {
		tx[i] = wire.IdleByte
	}
	rx, err := d.spi.Transfer(tx)
	if err != nil {
		return nil, NewDriverError("clockBytes", err, ErrorTypeTransient)
	}
	return rx, nil
}

// clockIdle is clockBytes without needing the result.
func (d *Driver) clockIdle(n int) error {
	_, err := d.clockBytes(n)
	return err
}

// trailerR3R7 decodes a 4-byte big-endian R3/R7 trailer into a uint32.
func trailerR3R7(trailer []byte) uint32 {
	return uint32(trailer[0])<<24 | uint32(trailer[1])<<16 | uint32(trailer[2])<<8 | uint32(trailer[3])
}

func (d *Driver) now() time.Time      { return d.clock.Now() }
func (d *Driver) sleep(dur time.Duration) { d.clock.Sleep(dur) }
