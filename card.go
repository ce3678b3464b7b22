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

// CardType identifies which init branch the card took and, therefore, how
// its addressing and CSD fields must be interpreted.
type CardType int

const (
	// CardTypeNone is the zero value: no card has ever been classified,
	// either because none has been inserted yet or because the last one
	// was removed. Distinct from CardTypeUnknown, which means a card is
	// (or was) present but the init sequence couldn't classify it.
	CardTypeNone   CardType = iota
	CardTypeMMC             // CMD1 branch: MMCv3, byte addressed
	CardTypeSDv1            // no CMD8 response: SD v1.x, byte addressed
	CardTypeSDv2SC          // CMD8 responded, OCR CCS=0: SDv2 standard capacity, byte addressed
	CardTypeSDv2HC          // CMD8 responded, OCR CCS=1: SDHC/SDXC, block addressed
	CardTypeUnknown         // present but classification failed
)

func (t CardType) String() string {
	switch t {
	case CardTypeNone:
		return "none"
	case CardTypeMMC:
		return "MMC"
	case CardTypeSDv1:
		return "SDv1"
	case CardTypeSDv2SC:
		return "SDv2 (standard capacity)"
	case CardTypeSDv2HC:
		return "SDHC/SDXC"
	default:
		return "unknown"
	}
}

// BlockAddressed reports whether sector addresses on the wire are already
// block numbers (SDHC/SDXC) rather than byte offsets that must be
// multiplied by 512 before being sent as a command argument.
func (t CardType) BlockAddressed() bool {
	return t == CardTypeSDv2HC
}

// StatusFlag is a bit in the driver's status word, mirroring the narrow
// status contract a filesystem layer is allowed to observe.
type StatusFlag uint32

const (
	StatusNoInit   StatusFlag = 1 << iota // Initialize has not completed successfully
	StatusNoDisk                          // no card detected in the socket
	StatusProtect                         // write-protect switch asserted
)

func (f StatusFlag) String() string {
	var names []string
	if f&StatusNoInit != 0 {
		names = append(names, "NOINIT")
	}
	if f&StatusNoDisk != 0 {
		names = append(names, "NODISK")
	}
	if f&StatusProtect != 0 {
		names = append(names, "PROTECT")
	}
	if len(names) == 0 {
		return "OK"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += "|" + n
	}
	return out
}
