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

package main

import (
	"fmt"
	"os"

	"github.com/blockdevio/sdmmc"
	"github.com/blockdevio/sdmmc/transport/spi"
	"github.com/spf13/cobra"
)

var (
	spiPort  string
	csPin    string
	cdPin    string
	freqHz   int
	debugOut bool
)

var rootCmd = &cobra.Command{
	Use:   "sdtool",
	Short: "Drive an SD/MMC card over SPI",
	Long:  "sdtool opens an SD/MMC card over SPI and runs info, read, write, or benchmark operations against it.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&spiPort, "spi", "/dev/spidev0.0", "SPI port to open")
	rootCmd.PersistentFlags().StringVar(&csPin, "cs", "GPIO8", "chip-select GPIO pin name")
	rootCmd.PersistentFlags().StringVar(&cdPin, "cd", "", "card-detect GPIO pin name (omit if not wired)")
	rootCmd.PersistentFlags().IntVar(&freqHz, "freq", 400_000, "SPI clock in Hz after card initialization (capped at 20 MHz MMC, 25 MHz SD)")
	rootCmd.PersistentFlags().BoolVar(&debugOut, "debug", false, "enable SDMMC_DEBUG trace output")

	rootCmd.AddCommand(infoCmd, readCmd, writeCmd, benchCmd)
}

// openDriver wires up the real periph.io transport and runs Initialize,
// the sequence every subcommand needs before it can touch the card.
func openDriver() (*sdmmc.Driver, func(), error) {
	if debugOut {
		_ = os.Setenv("SDMMC_DEBUG", "1")
	}

	bus, err := spi.New(spiPort, freqHz)
	if err != nil {
		return nil, nil, fmt.Errorf("open spi: %w", err)
	}

	cs, err := spi.NewPin(csPin)
	if err != nil {
		_ = bus.Close()
		return nil, nil, fmt.Errorf("open chip select: %w", err)
	}

	var cd sdmmc.CardDetect
	if cdPin != "" {
		cd, err = spi.NewDetectPin(cdPin)
		if err != nil {
			_ = bus.Close()
			return nil, nil, fmt.Errorf("open card detect: %w", err)
		}
	} else {
		cd = alwaysPresent{}
	}

	drv, err := sdmmc.New(bus, cs, cd, sdmmc.WithFrequency(freqHz))
	if err != nil {
		_ = bus.Close()
		return nil, nil, fmt.Errorf("construct driver: %w", err)
	}

	if err := drv.Initialize(); err != nil {
		_ = bus.Close()
		return nil, nil, fmt.Errorf("initialize card: %w", err)
	}

	cleanup := func() {
		drv.Unmount()
		_ = bus.Close()
	}
	return drv, cleanup, nil
}

// alwaysPresent is used when no card-detect pin is configured: the card
// is assumed to be present for the lifetime of the command.
type alwaysPresent struct{}

func (alwaysPresent) Present() (bool, error)         { return true, nil }
func (alwaysPresent) Notify(func(present bool)) error { return nil }
