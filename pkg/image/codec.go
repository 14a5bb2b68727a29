package image

import "encoding/binary"

// decodeUint16 decodes a little-endian 16-bit integer from raw bytes,
// mirroring the layout helpers the reference ext2 encoder uses for its own
// fixed-width fields. Every multi-byte field in this image format is
// 16 bits; there is no 32-bit field anywhere in the layout.
func decodeUint16(b0, b1 byte) uint16 {
	return binary.LittleEndian.Uint16([]byte{b0, b1})
}

// encodeUint16 appends a little-endian 16-bit integer to dst.
func encodeUint16(v uint16, dst []byte) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}
