// Package frame implements the NetDIMM wire frame: a 4-byte little-endian
// header (packet id, flags, 16-bit payload length) followed by the payload
// bytes. The codec performs no I/O; internal/stream owns the socket.
package frame

import (
	"encoding/binary"
	"fmt"
)

// MaxPayload is the largest payload a single frame can carry: the length
// field is 16 bits.
const MaxPayload = 0xFFFF

// HeaderSize is the size in bytes of the frame header.
const HeaderSize = 4

// Packet is a single NetDIMM wire packet.
//
//	bits 31..24 : packet id
//	bits 23..16 : flags
//	bits 15..0  : payload length (bytes)
type Packet struct {
	ID      uint8
	Flags   uint8
	Payload []byte
}

// New builds a Packet, validating that payload fits in the 16-bit length
// field.
func New(id, flags uint8, payload []byte) (Packet, error) {
	if len(payload) > MaxPayload {
		return Packet{}, fmt.Errorf("frame: payload of %d bytes exceeds max %d", len(payload), MaxPayload)
	}
	return Packet{ID: id, Flags: flags, Payload: payload}, nil
}

// Encode packs p into its wire representation: header followed by payload.
func Encode(p Packet) ([]byte, error) {
	if len(p.Payload) > MaxPayload {
		return nil, fmt.Errorf("frame: payload of %d bytes exceeds max %d", len(p.Payload), MaxPayload)
	}

	header := (uint32(p.ID) << 24) | (uint32(p.Flags) << 16) | (uint32(len(p.Payload)) & 0xFFFF)

	buf := make([]byte, HeaderSize+len(p.Payload))
	binary.LittleEndian.PutUint32(buf[0:HeaderSize], header)
	copy(buf[HeaderSize:], p.Payload)
	return buf, nil
}

// DecodeHeader extracts the packet id, flags, and declared payload length
// from a 4-byte header. The caller is responsible for then reading exactly
// length bytes of payload off the stream.
func DecodeHeader(header [HeaderSize]byte) (id, flags uint8, length uint16) {
	word := binary.LittleEndian.Uint32(header[:])
	id = uint8(word >> 24)
	flags = uint8(word >> 16)
	length = uint16(word & 0xFFFF)
	return
}
