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
	"github.com/spf13/cobra"
)

var (
	readLBA   uint32
	readCount int
	readOut   string
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read one or more 512-byte sectors to a file or stdout",
	RunE: func(_ *cobra.Command, _ []string) error {
		drv, cleanup, err := openDriver()
		if err != nil {
			return err
		}
		defer cleanup()

		buf := make([]byte, 512*readCount)
		if res := drv.ReadSectors(buf, readLBA, readCount); res != sdmmc.ResultOK {
			return fmt.Errorf("read sectors: %s", res)
		}

		if readOut == "" || readOut == "-" {
			_, err = os.Stdout.Write(buf)
			return err
		}
		return os.WriteFile(readOut, buf, 0o644)
	},
}

func init() {
	readCmd.Flags().Uint32Var(&readLBA, "lba", 0, "starting sector number")
	readCmd.Flags().IntVar(&readCount, "count", 1, "number of sectors to read")
	readCmd.Flags().StringVar(&readOut, "out", "-", "output file, or - for stdout")
}
