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

// PollPresence samples the card-detect line once and updates the status
// word accordingly. It is the synchronous counterpart to the edge
// callback registered in New via CardDetect.Notify, useful on platforms
// where the card-detect pin can't raise an interrupt and must be polled
// by the caller instead. It does not debounce; a single raw read of the
// pin is authoritative, per this driver's Non-goals.
func (d *Driver) PollPresence() (bool, error) {
	raw, err := d.cd.Present()
	if err != nil {
		return false, NewDriverError("PollPresence", err, ErrorTypeTransient)
	}

	present := raw
	if d.config.CardDetectSwitch == SwitchNC {
		present = !raw
	}

	if present {
		d.clearNoDisk()
	} else {
		d.setNoDisk()
	}
	return present, nil
}
