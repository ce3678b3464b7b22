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

const initPollBudget = 1000 // iterations at ~1ms each, per ACMD41/CMD1 loop

// Initialize runs the card detection and handshake sequence. It is safe
// to call repeatedly; a card already past NOINIT returns immediately. With
// no card present it sets CardTypeNone and returns ErrNoCard. Any failure
// of the handshake itself resets the card type to CardTypeUnknown and
// leaves StatusNoInit set so the next block op retries from scratch.
func (d *Driver) Initialize() error {
	present, err := d.cd.Present()
	if err != nil {
		return NewDriverError("Initialize", err, ErrorTypeTransient)
	}
	if d.config.CardDetectSwitch == SwitchNC {
		present = !present
	}
	if !present {
		d.setNoDisk()
		return ErrNoCard
	}
	d.clearNoDisk()

	if d.status()&StatusNoInit == 0 {
		return nil
	}

	if err := d.runInitSequence(); err != nil {
		d.cardType = CardTypeUnknown
		return err
	}
	return nil
}

func (d *Driver) runInitSequence() error {
	if err := d.spi.SetSpeed(defaultFrequencyHz); err != nil {
		return NewDriverError("Initialize", err, ErrorTypeTransient)
	}
	if err := d.cs.Deassert(); err != nil {
		return NewDriverError("Initialize", err, ErrorTypeTransient)
	}
	if err := d.clockIdle(10); err != nil { // 80 idle cycles == 10 bytes
		return err
	}

	r1, err := d.commandTransaction(cmdGoIdleState, 0)
	if err != nil {
		return err
	}
	if r1.r1 != 0x01 {
		return NewDriverError("Initialize", ErrInitFailed, ErrorTypePermanent)
	}

	if d.config.CRC {
		r1, err = d.commandTransaction(cmdCRCOnOff, 1)
		if err != nil {
			return err
		}
		if r1.r1 != 0x01 {
			return NewDriverError("Initialize", ErrInitFailed, ErrorTypePermanent)
		}
	}

	ifCond, err := d.commandTransaction(cmdSendIfCond, sendIfCondVoltagePattern)
	if err != nil {
		return err
	}

	if ifCond.r1 == 0x01 {
		if err := d.initSDv2(ifCond); err != nil {
			return err
		}
	} else {
		if err := d.initSDv1OrMMC(); err != nil {
			return err
		}
	}

	if d.cardType != CardTypeSDv2HC {
		r1, err := d.commandTransaction(cmdSetBlocklen, sdBlockLength)
		if err != nil {
			return err
		}
		if r1.r1 != 0x00 {
			return NewDriverError("Initialize", ErrInitFailed, ErrorTypePermanent)
		}
	}

	if d.cardType != CardTypeMMC {
		r1, err := d.commandTransaction(acmdSetClrCardDetect, 0)
		if err != nil {
			return err
		}
		if r1.r1 != 0x00 {
			return NewDriverError("Initialize", ErrInitFailed, ErrorTypePermanent)
		}
	}

	d.clearNoInit()
	return d.raiseClock()
}

// initSDv2 handles the branch where CMD8 got an R1 of 0x01: check the R7
// echo pattern, confirm the voltage window via CMD58, run the ACMD41
// polling loop with HCS set, then read OCR again to learn SDHC vs SD.
func (d *Driver) initSDv2(ifCond response) error {
	if len(ifCond.trailer) != 4 || trailerR3R7(ifCond.trailer)&0xFFF != sendIfCondVoltagePattern {
		return NewDriverError("Initialize", ErrInitFailed, ErrorTypePermanent)
	}

	ocr, err := d.commandTransaction(cmdReadOCR, 0)
	if err != nil {
		return err
	}
	if ocr.r1 != 0x01 || len(ocr.trailer) != 4 || trailerR3R7(ocr.trailer)&ocrVoltageWindow == 0 {
		return NewDriverError("Initialize", ErrInitFailed, ErrorTypePermanent)
	}

	final, err := d.pollInitLoop(acmdSDSendOpCond, hcsBit|ocrVoltageWindow)
	if err != nil {
		return err
	}
	if final != 0x00 {
		return NewDriverError("Initialize", ErrInitFailed, ErrorTypePermanent)
	}

	ocr2, err := d.commandTransaction(cmdReadOCR, 0)
	if err != nil {
		return err
	}
	if ocr2.r1 != 0x00 || len(ocr2.trailer) != 4 {
		return NewDriverError("Initialize", ErrInitFailed, ErrorTypePermanent)
	}

	if trailerR3R7(ocr2.trailer)&ocrCCSBit != 0 {
		d.cardType = CardTypeSDv2HC
	} else {
		d.cardType = CardTypeSDv2SC
	}
	return nil
}

// initSDv1OrMMC handles the branch where CMD8 did not respond with 0x01:
// confirm the voltage window, try ACMD41 (SD v1), and fall back to CMD1
// (MMC) if that doesn't settle.
func (d *Driver) initSDv1OrMMC() error {
	ocr, err := d.commandTransaction(cmdReadOCR, 0)
	if err != nil {
		return err
	}
	if ocr.r1 != 0x01 || len(ocr.trailer) != 4 || trailerR3R7(ocr.trailer)&ocrVoltageWindow == 0 {
		return NewDriverError("Initialize", ErrUnsupportedCard, ErrorTypePermanent)
	}

	final, err := d.pollInitLoop(acmdSDSendOpCond, ocrVoltageWindow)
	if err != nil {
		return err
	}
	if final == 0x00 {
		d.cardType = CardTypeSDv1
		return nil
	}

	final, err = d.pollInitLoop(cmdSendOpCond, ocrVoltageWindow)
	if err != nil {
		return err
	}
	if final != 0x00 {
		return NewDriverError("Initialize", ErrInitFailed, ErrorTypePermanent)
	}
	d.cardType = CardTypeMMC
	return nil
}

// pollInitLoop repeats cmd(arg) up to initPollBudget times at ~1ms
// intervals until R1 is no longer 0x01, returning the final R1.
func (d *Driver) pollInitLoop(cmd int, arg uint32) (byte, error) {
	var r1 byte = 0x01
	for i := 0; i < initPollBudget && r1 == 0x01; i++ {
		resp, err := d.commandTransaction(cmd, arg)
		if err != nil {
			return 0, err
		}
		r1 = resp.r1
		if r1 == 0x01 {
			d.sleep(time.Millisecond)
		}
	}
	return r1, nil
}

// raiseClock programs the post-init SPI clock: the configured frequency,
// capped at 20 MHz for MMC or 25 MHz for SD/SDHC.
func (d *Driver) raiseClock() error {
	ceiling := sdMaxFrequencyHz
	if d.cardType == CardTypeMMC {
		ceiling = mmcMaxFrequencyHz
	}
	target := d.config.FrequencyHz
	if target > ceiling || target == 0 {
		target = ceiling
	}
	return d.spi.SetSpeed(target)
}
