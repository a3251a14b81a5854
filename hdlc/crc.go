package hdlc

import (
	"encoding/binary"

	"github.com/sigurn/crc16"
)

// CRC-16/CCITT-FALSE: poly 0x1021, init 0xFFFF, no reflection.
var crcTable = crc16.MakeTable(crc16.CRC16_CCITT_FALSE)

// Checksum computes the frame check sequence over p.
func Checksum(p []byte) uint16 {
	return crc16.Checksum(p, crcTable)
}

// AppendChecksum appends the big-endian checksum of p to dst.
func AppendChecksum(dst, p []byte) []byte {
	return binary.BigEndian.AppendUint16(dst, Checksum(p))
}
