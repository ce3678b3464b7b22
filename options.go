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

// CardDetectSwitch selects the polarity of the card-detect line.
type CardDetectSwitch int

const (
	// SwitchNO: presence is signaled by CD reading high (normally open).
	SwitchNO CardDetectSwitch = iota
	// SwitchNC: presence is signaled by CD reading low (normally closed).
	SwitchNC
)

const (
	defaultFrequencyHz = 400_000
	mmcMaxFrequencyHz  = 20_000_000
	sdMaxFrequencyHz   = 25_000_000
)

// Config holds the driver's tunables. Zero value is not valid standalone;
// use DefaultConfig and Options to build one.
type Config struct {
	CardDetectSwitch CardDetectSwitch
	FrequencyHz      int
	CRC              bool
	LargeFrames      bool
}

// DefaultConfig returns the default configuration: CRC on, large frames
// off, normally-open card-detect switch, and a 400 kHz post-init clock
// target, the same as the initialization-time clock, so the bus stays at
// 400 kHz after Initialize unless WithFrequency raises the target.
func DefaultConfig() Config {
	return Config{
		CardDetectSwitch: SwitchNO,
		FrequencyHz:      defaultFrequencyHz,
		CRC:              true,
		LargeFrames:      false,
	}
}

// Option configures a Driver at construction time.
type Option func(*Driver) error

// WithFrequency sets the post-init target SPI clock. It is capped to the
// per-card-type ceiling (20 MHz MMC, 25 MHz SD/SDHC) once the card type is
// known, per Initialize's last step.
func WithFrequency(hz int) Option {
	return func(d *Driver) error {
		d.config.FrequencyHz = hz
		return nil
	}
}

// WithCRC sets the initial command/data CRC enable flag.
func WithCRC(enabled bool) Option {
	return func(d *Driver) error {
		d.config.CRC = enabled
		return nil
	}
}

// WithLargeFrames enables 16-bit SPI word transfers for read data payloads
// when the bus implements WordSPIBus. Writes always use byte transfers.
func WithLargeFrames(enabled bool) Option {
	return func(d *Driver) error {
		d.config.LargeFrames = enabled
		return nil
	}
}

// WithCardDetectSwitch sets the card-detect line polarity.
func WithCardDetectSwitch(sw CardDetectSwitch) Option {
	return func(d *Driver) error {
		d.config.CardDetectSwitch = sw
		return nil
	}
}

// WithWriteProtectPin wires an optional mechanical write-protect switch.
// The driver never asserts StatusProtect on its own; this is the only way
// the flag becomes set, and it is read every time Status is queried.
func WithWriteProtectPin(pin CardDetect) Option {
	return func(d *Driver) error {
		d.wpPin = pin
		return nil
	}
}

// WithClock overrides the time source, for tests that want the busy-wait
// loops in codec.go/data.go/init.go to run without real delay.
func WithClock(c Clock) Option {
	return func(d *Driver) error {
		d.clock = c
		return nil
	}
}
