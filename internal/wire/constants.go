// Package wire holds the byte-level constants of the SD/MMC SPI protocol:
// command frame shape, response tokens, and data-block markers. Kept
// separate from the driver logic so the wire format can be read (and
// tested) on its own.
package wire

// Command frame shape. A command frame is six bytes: the command byte
// (0x40 | index), four big-endian argument bytes, and a CRC7 trailer with
// its stop bit set.
const (
	CommandPrefix = 0x40
	FrameLength   = 6
)

// R1 response bits.
const (
	R1NoResponse = 0xFF // no R1 arrived within the poll budget
	R1CRCError   = 0x08 // bit 3: command CRC mismatch, retryable
	R1ErrorMask  = 0x7E // bits 1..6: command-level error
)

// Data-block start and stop tokens.
const (
	StartBlockSingle = 0xFE // CMD17/CMD18/CMD9/CMD24 and ACMD22's reply block
	StartBlockMulti  = 0xFC // one block within a CMD25 stream
	StopTranToken    = 0xFD // terminates a CMD25 stream
)

// Write-data response codes, the low 5 bits of the byte clocked out after a
// data block during a write.
const (
	DataResponseAccepted  = 0x05
	DataResponseCRCError  = 0x0A
	DataResponseWriteError = 0x0C
	DataResponseMask      = 0x1F
)

// BlockSize is the fixed SD/MMC data block size.
const BlockSize = 512

// IdleByte is the dummy byte clocked out to pump data in, or to let the
// card drive MISO.
const IdleByte = 0xFF
