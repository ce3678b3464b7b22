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

// Standard command indices (sent as 0x40 | index).
const (
	cmdGoIdleState        = 0  // CMD0: reset to SPI idle state
	cmdSendOpCond         = 1  // CMD1: MMC initiate initialization
	cmdSwitchFunc         = 6  // CMD6
	cmdSendIfCond         = 8  // CMD8: SDv2 interface condition / voltage check
	cmdSendCSD            = 9  // CMD9: read CSD register
	cmdSendCID            = 10 // CMD10: read CID register
	cmdStopTransmission   = 12 // CMD12: stop a CMD18/CMD25 stream
	cmdSendStatus         = 13 // CMD13: read card status (R2)
	cmdSetBlocklen        = 16 // CMD16: set block length for standard-capacity cards
	cmdReadSingleBlock    = 17 // CMD17
	cmdReadMultipleBlock  = 18 // CMD18
	cmdWriteBlock         = 24 // CMD24
	cmdWriteMultipleBlock = 25 // CMD25
	cmdAppCmd             = 55 // CMD55: application-command prelude
	cmdReadOCR            = 58 // CMD58: read OCR register (R3)
	cmdCRCOnOff           = 59 // CMD59: toggle command/data CRC
)

// Application command indices, sent after a CMD55 prelude.
const (
	acmdSetWrBlkEraseCount = 23 // ACMD23: pre-erase blocks before a multi-block write
	acmdSDSendOpCond       = 41 // ACMD41: SD initiate initialization
	acmdSetClrCardDetect   = 42 // ACMD42: disconnect the internal pull-up on CD/DAT3
)

// acmdReadNumWrBlocks is ACMD22: after a failed multi-block write, returns
// the 4-byte big-endian count of blocks successfully programmed.
const acmdReadNumWrBlocks = 22

// Argument constants from the initialization handshake.
const (
	sendIfCondVoltagePattern = 0x1AA      // 2.7-3.6V range, check pattern 0xAA
	hcsBit                   = 0x40000000 // ACMD41 HCS: host supports SDHC
	ocrVoltageWindow         = 0x00100000 // OCR bit 20: 3.2-3.3V
	ocrCCSBit                = 0x40000000 // OCR bit 30: card capacity status
	sdBlockLength            = 512
)

// acmdSet is the closed set of command indices that require a CMD55
// prelude. Anything not in this set is a standard command.
var acmdSet = map[int]bool{
	acmdSetWrBlkEraseCount: true,
	acmdSDSendOpCond:       true,
	acmdSetClrCardDetect:   true,
	acmdReadNumWrBlocks:    true,
}
