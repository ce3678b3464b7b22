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

// Package spi provides the periph.io-backed SPIBus, ChipSelect, and
// CardDetect implementations used outside of tests.
package spi

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Transport wraps a periph.io SPI port. It implements sdmmc.SPIBus; the
// chip-select line is driven separately (see Pin) because SD/MMC needs
// CS held low across multi-byte command/response sequences, not toggled
// once per Tx call the way conn.Conn normally assumes.
type Transport struct {
	mu   sync.Mutex
	port spi.PortCloser
	conn spi.Conn

	portName string
	mode     spi.Mode
	bits     int
}

// New opens the named SPI port (for example "/dev/spidev0.0" or a
// periph.io port alias) and connects at the given initial frequency.
// SD/MMC cards require CPOL=0, CPHA=0 and an explicit chip-select held by
// the caller, so the connection is made with spi.NoCS and mode Mode0.
func New(portName string, freqHz int) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("sdmmc/transport/spi: periph host init: %w", err)
	}

	port, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("sdmmc/transport/spi: open %s: %w", portName, err)
	}

	t := &Transport{
		port:     port,
		portName: portName,
		mode:     spi.Mode0 | spi.NoCS,
		bits:     8,
	}

	if err := t.connect(physic.Frequency(freqHz) * physic.Hertz); err != nil {
		_ = port.Close()
		return nil, err
	}

	return t, nil
}

func (t *Transport) connect(freq physic.Frequency) error {
	conn, err := t.port.Connect(freq, t.mode, t.bits)
	if err != nil {
		return fmt.Errorf("sdmmc/transport/spi: connect %s: %w", t.portName, err)
	}
	t.conn = conn
	return nil
}

// Transfer implements sdmmc.SPIBus.
func (t *Transport) Transfer(tx []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rx := make([]byte, len(tx))
	if err := t.conn.Tx(tx, rx); err != nil {
		return nil, fmt.Errorf("sdmmc/transport/spi: transfer on %s: %w", t.portName, err)
	}
	return rx, nil
}

// SetSpeed implements sdmmc.SPIBus by reconnecting at the new frequency;
// periph.io's spi.Conn has no in-place speed change.
func (t *Transport) SetSpeed(hz int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connect(physic.Frequency(hz) * physic.Hertz)
}

// Close releases the underlying SPI port.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port.Close()
}

// Pin adapts a periph.io gpio.PinIO to sdmmc.ChipSelect (DetectPin is the
// sdmmc.CardDetect adapter). SD/MMC chip-select is active low, so Assert
// drives the pin low and Deassert drives it high.
type Pin struct {
	pin gpio.PinIO
}

// NewPin looks up a GPIO pin by name (for example "GPIO24") and
// configures it as an output, initially deasserted (high).
func NewPin(name string) (*Pin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("sdmmc/transport/spi: no such gpio pin %q", name)
	}
	if err := p.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("sdmmc/transport/spi: configure pin %q as output: %w", name, err)
	}
	return &Pin{pin: p}, nil
}

// Assert implements sdmmc.ChipSelect.
func (p *Pin) Assert() error {
	return p.pin.Out(gpio.Low)
}

// Deassert implements sdmmc.ChipSelect.
func (p *Pin) Deassert() error {
	return p.pin.Out(gpio.High)
}

// DetectPin adapts a periph.io input pin to sdmmc.CardDetect.
type DetectPin struct {
	mu  sync.Mutex
	pin gpio.PinIO
}

// NewDetectPin looks up a GPIO pin by name and configures it as an input
// with a pull-up, rising and falling edges detected.
func NewDetectPin(name string) (*DetectPin, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("sdmmc/transport/spi: no such gpio pin %q", name)
	}
	if err := p.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return nil, fmt.Errorf("sdmmc/transport/spi: configure pin %q as input: %w", name, err)
	}
	return &DetectPin{pin: p}, nil
}

// Present implements sdmmc.CardDetect.
func (d *DetectPin) Present() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pin.Read() == gpio.High, nil
}

// Notify implements sdmmc.CardDetect by blocking on edge events in a new
// goroutine for as long as WaitForEdge keeps reporting edges. It always
// returns nil: on a pin without edge detection WaitForEdge returns false
// at once and the goroutine exits without calling fn, so presence changes
// are then seen only through sdmmc.Driver.PollPresence or Status.
func (d *DetectPin) Notify(fn func(present bool)) error {
	go func() {
		for d.pin.WaitForEdge(-1) {
			d.mu.Lock()
			level := d.pin.Read() == gpio.High
			d.mu.Unlock()
			fn(level)
		}
	}()
	return nil
}
