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
	"time"

	"github.com/blockdevio/sdmmc"
	"github.com/spf13/cobra"
)

var benchSectors int

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure sequential read throughput",
	RunE: func(_ *cobra.Command, _ []string) error {
		drv, cleanup, err := openDriver()
		if err != nil {
			return err
		}
		defer cleanup()

		buf := make([]byte, 512*benchSectors)
		start := time.Now()
		if res := drv.ReadSectors(buf, 0, benchSectors); res != sdmmc.ResultOK {
			return fmt.Errorf("bench read: %s", res)
		}
		elapsed := time.Since(start)

		mib := float64(len(buf)) / (1024 * 1024)
		fmt.Printf("read %d sectors (%.2f MiB) in %s, %.2f MiB/s\n",
			benchSectors, mib, elapsed, mib/elapsed.Seconds())
		return nil
	},
}

func init() {
	benchCmd.Flags().IntVar(&benchSectors, "sectors", 256, "number of sectors to read sequentially")
}
