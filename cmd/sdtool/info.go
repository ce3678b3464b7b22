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

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Initialize the card and print its type, capacity, and status",
	RunE: func(_ *cobra.Command, _ []string) error {
		drv, cleanup, err := openDriver()
		if err != nil {
			return err
		}
		defer cleanup()

		sectors := drv.SectorCount()
		fmt.Printf("card type:     %s\n", drv.CardType())
		fmt.Printf("sector count:  %d\n", sectors)
		fmt.Printf("capacity:      %.2f MiB\n", float64(sectors)*512/(1024*1024))
		fmt.Printf("status:        %s\n", drv.Status())
		fmt.Printf("crc enabled:   %v\n", drv.CRC())
		return nil
	},
}
