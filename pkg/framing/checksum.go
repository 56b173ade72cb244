package framing

import "hash/crc32"

// Checksum returns the CRC-32 (ISO-HDLC: reflected polynomial 0xEDB88320,
// initial value and final XOR 0xFFFFFFFF) of the first length bytes of buf.
// length is clamped to the bounds of buf.
func Checksum(buf []byte, length int) uint32 {
	length = max(0, min(length, len(buf)))
	return crc32.ChecksumIEEE(buf[:length])
}
