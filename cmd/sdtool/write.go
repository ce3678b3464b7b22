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
	writeLBA uint32
	writeIn  string
)

var writeCmd = &cobra.Command{
	Use:   "write",
	Short: "Write the contents of a file to one or more sectors",
	RunE: func(_ *cobra.Command, _ []string) error {
		if writeIn == "" {
			return fmt.Errorf("write: --in is required")
		}

		data, err := os.ReadFile(writeIn)
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}
		if len(data)%512 != 0 {
			return fmt.Errorf("write: input length %d is not a multiple of 512", len(data))
		}

		drv, cleanup, err := openDriver()
		if err != nil {
			return err
		}
		defer cleanup()

		count := len(data) / 512
		if res := drv.WriteSectors(data, writeLBA, count); res != sdmmc.ResultOK {
			return fmt.Errorf("write sectors: %s", res)
		}
		if res := drv.Sync(); res != sdmmc.ResultOK {
			return fmt.Errorf("sync: %s", res)
		}
		fmt.Printf("wrote %d sector(s) at lba %d\n", count, writeLBA)
		return nil
	},
}

func init() {
	writeCmd.Flags().Uint32Var(&writeLBA, "lba", 0, "starting sector number")
	writeCmd.Flags().StringVar(&writeIn, "in", "", "input file, length must be a multiple of 512 bytes")
}
