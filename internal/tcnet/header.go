package tcnet

import (
	"bytes"
	"fmt"
)

// ManagementHeader is the 24-byte header present on every TCNet packet
type ManagementHeader struct {
	NodeID       uint16
	MinorVersion uint8
	MessageType  MessageType
	NodeName     string
	Sequence     uint8
	NodeType     NodeType
	NodeOptions  uint16
	Timestamp    uint32 // device clock in ms
}

// DecodeHeader parses and validates the management header
func DecodeHeader(data []byte) (ManagementHeader, error) {
	if len(data) < HeaderSize {
		return ManagementHeader{}, NewParseError(ErrOutOfBounds, 0,
			fmt.Sprintf("header needs %d bytes, got %d", HeaderSize, len(data)))
	}

	// Magic (offset 4-6)
	if !bytes.Equal(data[4:7], Magic) {
		return ManagementHeader{}, NewParseError(ErrBadMagic, 4,
			fmt.Sprintf("got %q, want %q", data[4:7], Magic))
	}

	// Major version (offset 2)
	if data[2] != MajorVersion {
		return ManagementHeader{}, NewParseError(ErrUnsupportedVersion, 2,
			fmt.Sprintf("major version %d, want %d", data[2], MajorVersion))
	}

	r := fieldReader{buf: data}
	h := ManagementHeader{
		NodeID:       r.u16(0),
		MinorVersion: r.u8(3),
		MessageType:  MessageType(r.u8(7)),
		NodeName:     r.ascii(8, 16),
		Sequence:     r.u8(16),
		NodeType:     NodeType(r.u8(17)),
		NodeOptions:  r.u16(18),
		Timestamp:    r.u32(20),
	}
	return h, r.err
}

// Encode writes the header into the first 24 bytes of buf
func (h *ManagementHeader) Encode(buf []byte) error {
	if len(buf) < HeaderSize {
		return NewParseError(ErrOutOfBounds, 0,
			fmt.Sprintf("header needs %d bytes, got %d", HeaderSize, len(buf)))
	}
	w := fieldWriter{buf: buf}
	w.ascii(8, NodeNameSize, h.NodeName)
	w.u16(0, h.NodeID)
	w.u8(2, MajorVersion)
	w.u8(3, h.MinorVersion)
	w.bytes(4, Magic)
	w.u8(7, uint8(h.MessageType))
	w.u8(16, h.Sequence)
	w.u8(17, uint8(h.NodeType))
	w.u16(18, h.NodeOptions)
	w.u32(20, h.Timestamp)
	return w.err
}
