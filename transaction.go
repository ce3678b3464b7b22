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

import "time"

const selectReadyTimeout = 500 * time.Millisecond

// selection is a scoped chip-select guard: selectCard returns one, and the
// caller defers release() so chip-select is always deasserted, on every
// exit path, even on error. The one code path that holds select across a
// whole CMD25 stream just defers release() later than usual; it is never
// allowed to skip it.
type selection struct {
	d        *Driver
	released bool
}

// release deasserts chip-select and clocks the trailing idle byte so the
// card lets go of MISO. Safe to call more than once.
func (s *selection) release() error {
	if s.released {
		return nil
	}
	s.released = true
	if err := s.d.cs.Deassert(); err != nil {
		return NewDriverError("deselect", err, ErrorTypeTransient)
	}
	return s.d.clockIdle(1)
}

// selectCard asserts chip-select and waits for the bus to report ready
// (MISO returning 0xFF) within selectReadyTimeout. On timeout it
// deselects before returning the error, so a failed select never leaves
// the line asserted.
func (d *Driver) selectCard() (*selection, error) {
	if err := d.cs.Assert(); err != nil {
		return nil, NewDriverError("select", err, ErrorTypeTransient)
	}
	s := &selection{d: d}

	if err := d.clockIdle(1); err != nil {
		_ = s.release()
		return nil, err
	}

	deadline := d.now().Add(selectReadyTimeout)
	for d.now().Before(deadline) {
		b, err := d.clockBytes(1)
		if err != nil {
			_ = s.release()
			return nil, err
		}
		if b[0] == 0xFF {
			return s, nil
		}
		d.sleep(time.Millisecond)
	}

	_ = s.release()
	return nil, NewDriverError("select", ErrBusyTimeout, ErrorTypeTimeout)
}

// commandTransaction selects the card, runs the command codec, and always
// deselects before returning, whether or not the command succeeded.
func (d *Driver) commandTransaction(cmd int, arg uint32) (response, error) {
	sel, err := d.selectCard()
	if err != nil {
		return response{}, err
	}
	defer func() { _ = sel.release() }()

	return d.send(cmd, arg)
}

// waitReady busy-polls MISO for 0xFF, used after data transfer to wait out
// a card's internal programming cycle. Shares selectReadyTimeout's budget.
func (d *Driver) waitReady() error {
	deadline := d.now().Add(selectReadyTimeout)
	for d.now().Before(deadline) {
		b, err := d.clockBytes(1)
		if err != nil {
			return err
		}
		if b[0] == 0xFF {
			return nil
		}
		d.sleep(time.Millisecond)
	}
	return NewDriverError("waitReady", ErrBusyTimeout, ErrorTypeTimeout)
}
