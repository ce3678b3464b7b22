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

import (
	"fmt"
	"os"
	"sync"
)

// debugEnabled is read once, on the first trace call; protocol tracing is
// noisy enough (every retry, every FSM transition) that we don't want to
// pay a getenv per call on a bare-metal target.
var (
	debugOnce    sync.Once
	debugEnabled bool
)

func debugOn() bool {
	debugOnce.Do(func() { debugEnabled = os.Getenv("SDMMC_DEBUG") != "" })
	return debugEnabled
}

func debugln(args ...any) {
	if !debugOn() {
		return
	}
	fmt.Fprintln(os.Stderr, args...)
}

func debugf(format string, args ...any) {
	if !debugOn() {
		return
	}
	fmt.Fprintf(os.Stderr, "sdmmc: "+format+"\n", args...)
}
