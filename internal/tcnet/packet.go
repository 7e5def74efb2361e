package tcnet

import "fmt"

// Packet is a decoded TCNet message
type Packet interface {
	PacketHeader() *ManagementHeader
	// Length is the total wire size, header included, or -1 when it depends
	// on a nested payload.
	Length() int
}

// Encodable is implemented by the packets this client may send.
// Hardware telemetry (Status, Time, Data) only implements Packet.
type Encodable interface {
	Packet
	Encode(buf []byte) error
}

// Marshal allocates a buffer of p.Length() bytes and encodes p into it
func Marshal(p Packet) ([]byte, error) {
	e, ok := p.(Encodable)
	if !ok {
		return nil, NewParseError(ErrEncodeNotSupported, 0,
			fmt.Sprintf("%T is decode-only", p))
	}
	buf := make([]byte, e.Length())
	if err := e.Encode(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// requireLength fails with ErrTruncatedPacket when data is shorter than want
func requireLength(data []byte, want int, name string) error {
	if len(data) < want {
		return NewParseError(ErrTruncatedPacket, len(data),
			fmt.Sprintf("%s packet needs %d bytes, got %d", name, want, len(data)))
	}
	return nil
}

// encodeHeader checks buf against length and writes h tagged as typ
func encodeHeader(buf []byte, length int, h ManagementHeader, typ MessageType) (*fieldWriter, error) {
	if len(buf) < length {
		return nil, NewParseError(ErrOutOfBounds, 0,
			fmt.Sprintf("%s packet needs %d bytes, buffer has %d", typ, length, len(buf)))
	}
	h.MessageType = typ
	if err := h.Encode(buf); err != nil {
		return nil, err
	}
	return &fieldWriter{buf: buf}, nil
}
