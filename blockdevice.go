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
	"context"
	"sync/atomic"

	"github.com/blockdevio/sdmmc/internal/wire"
)

// BlockDevice is the narrow contract a filesystem layer consumes. The
// driver implements it by composition; nothing above this interface
// needs to know it is talking to an SD/MMC card over SPI rather than
// some other block device.
type BlockDevice interface {
	Initialize() error
	Status() StatusFlag
	ReadSectors(buf []byte, lba uint32, count int) Result
	WriteSectors(buf []byte, lba uint32, count int) Result
	Sync() Result
	SectorCount() uint64
	CardType() CardType
	Unmount()
}

// Driver implements BlockDevice for an SD/MMC card over SPI. It owns its
// SPI transport, chip-select, and card-detect pins exclusively for its
// lifetime; there is no bus arbitration with other peripherals.
//
// Driver is not safe for concurrent use: all calls must come from a
// single goroutine, matching the single-threaded cooperative model this
// protocol engine was designed for.
type Driver struct {
	spi      SPIBus
	cs       ChipSelect
	cd       CardDetect
	wpPin    CardDetect
	clock    Clock
	config   Config
	cardType CardType
	statusWord atomic.Uint32
}

// New constructs a Driver over the given SPI bus, chip-select, and
// card-detect pins, starting idle (NOINIT|NODISK, CardTypeNone).
// Initialize is not called automatically; it runs lazily on the first
// block operation, or may be called explicitly.
func New(spi SPIBus, cs ChipSelect, cd CardDetect, opts ...Option) (*Driver, error) {
	d := &Driver{
		spi:      spi,
		cs:       cs,
		cd:       cd,
		clock:    realClock{},
		config:   DefaultConfig(),
		cardType: CardTypeNone,
	}
	d.statusWord.Store(uint32(StatusNoInit | StatusNoDisk))

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}

	if err := cd.Notify(d.onCardDetectEdge); err != nil {
		return nil, NewDriverError("New", err, ErrorTypeTransient)
	}

	return d, nil
}

func (d *Driver) status() StatusFlag {
	return StatusFlag(d.statusWord.Load())
}

func (d *Driver) setStatusBit(bit StatusFlag) {
	for {
		old := d.statusWord.Load()
		if d.statusWord.CompareAndSwap(old, old|uint32(bit)) {
			return
		}
	}
}

func (d *Driver) clearStatusBit(bit StatusFlag) {
	for {
		old := d.statusWord.Load()
		if d.statusWord.CompareAndSwap(old, old&^uint32(bit)) {
			return
		}
	}
}

func (d *Driver) setNoDisk() {
	for {
		old := d.statusWord.Load()
		if d.statusWord.CompareAndSwap(old, old|uint32(StatusNoDisk|StatusNoInit)) {
			d.cardType = CardTypeNone
			return
		}
	}
}

func (d *Driver) clearNoDisk() { d.clearStatusBit(StatusNoDisk) }
func (d *Driver) clearNoInit() { d.clearStatusBit(StatusNoInit) }

// Status refreshes card-detect and the write-protect pin (if wired), then
// returns the current status word.
func (d *Driver) Status() StatusFlag {
	present, err := d.cd.Present()
	if err == nil && d.config.CardDetectSwitch == SwitchNC {
		present = !present
	}
	if err == nil && !present {
		d.setNoDisk()
	}
	if d.wpPin != nil {
		if protected, err := d.wpPin.Present(); err == nil {
			if protected {
				d.setStatusBit(StatusProtect)
			} else {
				d.clearStatusBit(StatusProtect)
			}
		}
	}
	return d.status()
}

// CardType returns the most recently determined card type: CardTypeNone
// before the first Initialize or after the card is removed, CardTypeUnknown
// if a card is present but the init sequence failed to classify it.
func (d *Driver) CardType() CardType {
	return d.cardType
}

// CRC reports the current command/data CRC enable flag.
func (d *Driver) CRC() bool { return d.config.CRC }

// SetCRC toggles command/data CRC at runtime. If the card is already
// initialized, it issues CMD59 to match the card's mode to the new
// setting.
func (d *Driver) SetCRC(enabled bool) error {
	d.config.CRC = enabled
	if d.status()&StatusNoInit != 0 {
		return nil
	}
	arg := uint32(0)
	if enabled {
		arg = 1
	}
	resp, err := d.commandTransaction(cmdCRCOnOff, arg)
	if err != nil {
		return err
	}
	if resp.r1 != 0x01 {
		return NewDriverError("SetCRC", ErrCommandError, ErrorTypeTransient)
	}
	return nil
}

// LargeFrames reports whether 16-bit SPI word transfers are enabled for
// read data payloads.
func (d *Driver) LargeFrames() bool { return d.config.LargeFrames }

// SetLargeFrames toggles 16-bit SPI word transfers for read data payloads
// (used only when the bus implements WordSPIBus; writes always use byte
// transfers).
func (d *Driver) SetLargeFrames(enabled bool) {
	d.config.LargeFrames = enabled
}

// Unmount marks the driver NOINIT with no known card type, without
// touching the physical card. A subsequent block op re-initializes.
func (d *Driver) Unmount() {
	d.setStatusBit(StatusNoInit)
	d.cardType = CardTypeNone
}

// onCardDetectEdge is the card-detect interrupt handler. Per the
// concurrency model, it touches only the status word, through atomic
// compare-and-swap loops, and never re-enters the driver.
func (d *Driver) onCardDetectEdge(raw bool) {
	present := raw
	if d.config.CardDetectSwitch == SwitchNC {
		present = !raw
	}
	if present {
		d.clearNoDisk()
	} else {
		d.setNoDisk()
	}
}

// ensureReady lazily initializes a present-but-uninitialized card, and
// fails fast with NOT_READY when no card is present at all.
func (d *Driver) ensureReady() error {
	if d.status()&StatusNoDisk != 0 {
		return ErrNoCard
	}
	if d.status()&StatusNoInit != 0 {
		return d.Initialize()
	}
	return nil
}

// wireAddress converts an LBA to the command argument: the LBA itself for
// block-addressed cards (SDHC/SDXC), or the byte offset for everything
// else.
func (d *Driver) wireAddress(lba uint32) uint32 {
	if d.cardType.BlockAddressed() {
		return lba
	}
	return lba * wire.BlockSize
}

// ReadSectors reads count sectors starting at lba into buf. buf must have
// capacity for count*512 bytes.
func (d *Driver) ReadSectors(buf []byte, lba uint32, count int) Result {
	if err := d.ensureReady(); err != nil {
		return ResultCode(err)
	}
	var err error
	if count == 1 {
		err = d.readSingleSector(buf, lba)
	} else {
		err = d.readMultipleSectors(buf, lba, count)
	}
	return ResultCode(err)
}

func (d *Driver) readSingleSector(buf []byte, lba uint32) error {
	addr := d.wireAddress(lba)
	var lastErr error
	for attempt := 0; attempt < maxCommandRetries; attempt++ {
		lastErr = d.readSingleSectorAttempt(buf, addr)
		if lastErr == nil {
			return nil
		}
		debugf("readSingleSector: lba=%d attempt %d failed: %v", lba, attempt+1, lastErr)
	}
	return lastErr
}

func (d *Driver) readSingleSectorAttempt(buf []byte, addr uint32) error {
	sel, err := d.selectCard()
	if err != nil {
		return err
	}
	defer func() { _ = sel.release() }()

	resp, err := d.send(cmdReadSingleBlock, addr)
	if err != nil {
		return err
	}
	if resp.r1 != 0x00 {
		return NewDriverError("readSectors", ErrCommandError, ErrorTypeTransient)
	}
	return d.readData(buf, wire.BlockSize)
}

func (d *Driver) readMultipleSectors(buf []byte, lba uint32, count int) error {
	var lastErr error
	failuresWithoutProgress := 0
	for failuresWithoutProgress < maxCommandRetries {
		n, err := d.readMultipleSectorsAttempt(buf, lba, count)
		if err == nil {
			return nil
		}
		lastErr = err
		// Preserve progress: shrink the remaining work to what's left, and
		// only count this failure against the retry cap if it made no
		// forward progress at all.
		lba += uint32(n)
		buf = buf[n*wire.BlockSize:]
		count -= n
		if count <= 0 {
			return nil
		}
		if n > 0 {
			failuresWithoutProgress = 0
		} else {
			failuresWithoutProgress++
		}
		debugf("readMultipleSectors: failed after %d blocks (%d/%d consecutive failures with no progress): %v", n, failuresWithoutProgress, maxCommandRetries, err)
	}
	return lastErr
}

// readMultipleSectorsAttempt returns the number of blocks successfully
// read before any failure, plus that failure (nil if all count blocks
// were read).
func (d *Driver) readMultipleSectorsAttempt(buf []byte, lba uint32, count int) (int, error) {
	addr := d.wireAddress(lba)
	sel, err := d.selectCard()
	if err != nil {
		return 0, err
	}
	defer func() { _ = sel.release() }()

	resp, err := d.send(cmdReadMultipleBlock, addr)
	if err != nil {
		return 0, err
	}
	if resp.r1 != 0x00 {
		return 0, NewDriverError("readSectors", ErrCommandError, ErrorTypeTransient)
	}

	var blockErr error
	read := 0
	for read < count {
		if err := d.readData(buf[read*wire.BlockSize:(read+1)*wire.BlockSize], wire.BlockSize); err != nil {
			blockErr = err
			break
		}
		read++
	}

	if _, err := d.send(cmdStopTransmission, 0); err != nil {
		if blockErr == nil {
			blockErr = err
		}
	}
	if blockErr != nil {
		_ = d.waitReady()
	}
	return read, blockErr
}

// WriteSectors writes count sectors starting at lba from buf.
func (d *Driver) WriteSectors(buf []byte, lba uint32, count int) Result {
	if err := d.ensureReady(); err != nil {
		return ResultCode(err)
	}
	if d.Status()&StatusProtect != 0 {
		return ResultWriteProtected
	}
	var err error
	if count == 1 {
		err = d.writeSingleSector(buf, lba)
	} else {
		err = d.writeMultipleSectors(buf, lba, count)
	}
	return ResultCode(err)
}

func (d *Driver) writeSingleSector(buf []byte, lba uint32) error {
	addr := d.wireAddress(lba)
	var lastErr error
	for attempt := 0; attempt < maxCommandRetries; attempt++ {
		lastErr = d.writeSingleSectorAttempt(buf, addr)
		if lastErr == nil {
			return nil
		}
		if errIsPermanent(lastErr) {
			return lastErr
		}
		debugf("writeSingleSector: attempt %d failed: %v", attempt+1, lastErr)
	}
	return lastErr
}

func (d *Driver) writeSingleSectorAttempt(buf []byte, addr uint32) error {
	code, err := d.writeOneBlock(cmdWriteBlock, addr, buf, wire.StartBlockSingle)
	if err != nil {
		return err
	}
	switch code {
	case wire.DataResponseAccepted:
		// fall through to verification
	case wire.DataResponseCRCError:
		return NewDriverError("writeSectors", ErrCRCError, ErrorTypeTransient)
	default:
		return NewDriverError("writeSectors", ErrWriteResponseError, ErrorTypePermanent)
	}

	resp, err := d.commandTransaction(cmdSendStatus, 0)
	if err != nil {
		return err
	}
	if resp.r1 != 0x00 || len(resp.trailer) != 1 || resp.trailer[0] != 0x00 {
		return NewDriverError("writeSectors", ErrWriteResponseError, ErrorTypePermanent)
	}
	return nil
}

// writeOneBlock selects the card, sends cmd(addr), and writes one block
// with the given start token, returning the data-response code.
func (d *Driver) writeOneBlock(cmd int, addr uint32, buf []byte, token byte) (byte, error) {
	sel, err := d.selectCard()
	if err != nil {
		return 0, err
	}
	defer func() { _ = sel.release() }()

	resp, err := d.send(cmd, addr)
	if err != nil {
		return 0, err
	}
	if resp.r1 != 0x00 {
		return 0, NewDriverError("writeSectors", ErrCommandError, ErrorTypeTransient)
	}
	return d.writeData(buf, token)
}

func (d *Driver) writeMultipleSectors(buf []byte, lba uint32, count int) error {
	if d.cardType != CardTypeMMC {
		resp, err := d.commandTransaction(acmdSetWrBlkEraseCount, uint32(count))
		if err != nil {
			return err
		}
		if resp.r1 != 0x00 {
			return NewDriverError("writeSectors", ErrCommandError, ErrorTypePermanent)
		}
	}

	for count > 0 {
		written, code, err := d.writeMultipleSectorsAttempt(buf, lba, count)
		if err != nil {
			return err
		}
		lba += uint32(written)
		buf = buf[written*wire.BlockSize:]
		count -= written
		if count == 0 {
			return nil
		}
		if code != wire.DataResponseCRCError {
			return NewDriverError("writeSectors", ErrWriteResponseError, ErrorTypePermanent)
		}
		// Resume: ACMD22 already told us how many blocks landed, so the
		// outer loop's lba/buf/count adjustment above is the retry.
		debugf("writeMultipleSectors: resuming at lba=%d, %d blocks left", lba, count)
	}
	return nil
}

// writeMultipleSectorsAttempt streams as many of count blocks as it can
// via CMD25, returning how many were written and, on early termination,
// the data-response code that stopped it (queried via ACMD22 when it was
// a CRC error).
func (d *Driver) writeMultipleSectorsAttempt(buf []byte, lba uint32, count int) (int, byte, error) {
	addr := d.wireAddress(lba)
	sel, err := d.selectCard()
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = sel.release() }()

	resp, err := d.send(cmdWriteMultipleBlock, addr)
	if err != nil {
		return 0, 0, err
	}
	if resp.r1 != 0x00 {
		return 0, 0, NewDriverError("writeSectors", ErrCommandError, ErrorTypeTransient)
	}

	written := 0
	var code byte = wire.DataResponseAccepted
	for written < count {
		code, err = d.writeData(buf[written*wire.BlockSize:(written+1)*wire.BlockSize], wire.StartBlockMulti)
		if err != nil {
			return written, code, err
		}
		if code != wire.DataResponseAccepted {
			break
		}
		written++
	}

	if err := d.waitReady(); err != nil {
		return written, code, err
	}

	if written == count {
		if _, err := d.spi.Transfer([]byte{wire.StopTranToken}); err != nil {
			return written, code, NewDriverError("writeSectors", err, ErrorTypeTransient)
		}
		if err := d.waitReady(); err != nil {
			return written, code, err
		}
		_ = sel.release()
		resp, err := d.commandTransaction(cmdSendStatus, 0)
		if err != nil {
			return written, code, err
		}
		if resp.r1 != 0x00 || len(resp.trailer) != 1 || resp.trailer[0] != 0x00 {
			return written, code, NewDriverError("writeSectors", ErrWriteResponseError, ErrorTypePermanent)
		}
		return written, code, nil
	}

	if _, err := d.send(cmdStopTransmission, 0); err != nil {
		return written, code, err
	}
	if err := d.waitReady(); err != nil {
		return written, code, err
	}
	_ = sel.release()

	if code != wire.DataResponseCRCError {
		return written, code, nil
	}

	n, err := d.readNumWrBlocks()
	if err != nil {
		return written, code, err
	}
	return n, code, nil
}

// readNumWrBlocks sends ACMD22 and reads its 4-byte big-endian data-block
// reply, the count of blocks successfully programmed before a failed
// multi-block write. Unlike commandTransaction, selection must stay held
// between the R1 and the data block that follows it.
func (d *Driver) readNumWrBlocks() (int, error) {
	sel, err := d.selectCard()
	if err != nil {
		return 0, err
	}
	defer func() { _ = sel.release() }()

	resp, err := d.send(acmdReadNumWrBlocks, 0)
	if err != nil {
		return 0, err
	}
	if resp.r1 != 0x00 {
		return 0, NewDriverError("writeSectors", ErrCommandError, ErrorTypePermanent)
	}
	var payload [4]byte
	if err := d.readData(payload[:], 4); err != nil {
		return 0, err
	}
	return int(trailerR3R7(payload[:])), nil
}

// Sync forces completion of any pending internal card programming by
// selecting and immediately deselecting. Like the other block operations
// it first runs ensureReady, which initializes a present but
// uninitialized card; the select/deselect itself changes no status flags.
func (d *Driver) Sync() Result {
	if err := d.ensureReady(); err != nil {
		return ResultCode(err)
	}
	sel, err := d.selectCard()
	if err != nil {
		return ResultCode(err)
	}
	return ResultCode(sel.release())
}

// SectorCount reads and decodes the CSD register, returning 0 on failure.
func (d *Driver) SectorCount() uint64 {
	if err := d.ensureReady(); err != nil {
		return 0
	}
	var csd [16]byte
	var lastErr error
	for attempt := 0; attempt < maxCommandRetries; attempt++ {
		lastErr = d.readCSD(csd[:])
		if lastErr == nil {
			return decodeCSD(csd)
		}
	}
	debugf("SectorCount: CSD read failed: %v", lastErr)
	return 0
}

func (d *Driver) readCSD(buf []byte) error {
	sel, err := d.selectCard()
	if err != nil {
		return err
	}
	defer func() { _ = sel.release() }()

	resp, err := d.send(cmdSendCSD, 0)
	if err != nil {
		return err
	}
	if resp.r1 != 0x00 {
		return NewDriverError("SectorCount", ErrCSDReadFailed, ErrorTypeTransient)
	}
	return d.readData(buf, 16)
}

func errIsPermanent(err error) bool {
	return GetErrorType(err) == ErrorTypePermanent
}

// --- context-aware siblings ---
//
// Each of these runs the blocking call in a goroutine and races it
// against ctx.Done(), returning whichever finishes first. The underlying
// operation itself has no cancellation hook (SPI transfers can't be
// interrupted mid-flight), so a cancelled context abandons the goroutine
// rather than stopping it; the result is simply never read on that path.

// ReadSectorsContext is ReadSectors with context cancellation.
func (d *Driver) ReadSectorsContext(ctx context.Context, buf []byte, lba uint32, count int) Result {
	resultChan := make(chan Result, 1)
	go func() { resultChan <- d.ReadSectors(buf, lba, count) }()
	select {
	case <-ctx.Done():
		return ResultError
	case r := <-resultChan:
		return r
	}
}

// WriteSectorsContext is WriteSectors with context cancellation.
func (d *Driver) WriteSectorsContext(ctx context.Context, buf []byte, lba uint32, count int) Result {
	resultChan := make(chan Result, 1)
	go func() { resultChan <- d.WriteSectors(buf, lba, count) }()
	select {
	case <-ctx.Done():
		return ResultError
	case r := <-resultChan:
		return r
	}
}

// InitializeContext is Initialize with context cancellation.
func (d *Driver) InitializeContext(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() { errChan <- d.Initialize() }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

var _ BlockDevice = (*Driver)(nil)
