package tcnet

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ReadU8 reads the byte at offset
func ReadU8(buf []byte, offset int) (uint8, error) {
	if err := checkBounds(buf, offset, 1); err != nil {
		return 0, err
	}
	return buf[offset], nil
}

// ReadU16LE reads a little-endian uint16 at offset
func ReadU16LE(buf []byte, offset int) (uint16, error) {
	if err := checkBounds(buf, offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[offset:]), nil
}

// ReadU32LE reads a little-endian uint32 at offset
func ReadU32LE(buf []byte, offset int) (uint32, error) {
	if err := checkBounds(buf, offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[offset:]), nil
}

// ReadFixedASCII returns the text in buf[start:end] up to the first NUL byte.
// Without a NUL the full-width slice is returned.
func ReadFixedASCII(buf []byte, start, end int) (string, error) {
	if start > end {
		return "", NewParseError(ErrOutOfBounds, start, fmt.Sprintf("invalid range [%d, %d)", start, end))
	}
	if err := checkBounds(buf, start, end-start); err != nil {
		return "", err
	}
	field := buf[start:end]
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field), nil
}

// WriteU8 writes v at offset
func WriteU8(buf []byte, offset int, v uint8) error {
	if err := checkBounds(buf, offset, 1); err != nil {
		return err
	}
	buf[offset] = v
	return nil
}

// WriteU16LE writes v little-endian at offset
func WriteU16LE(buf []byte, offset int, v uint16) error {
	if err := checkBounds(buf, offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(buf[offset:], v)
	return nil
}

// WriteU32LE writes v little-endian at offset
func WriteU32LE(buf []byte, offset int, v uint32) error {
	if err := checkBounds(buf, offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[offset:], v)
	return nil
}

// WriteFixedASCII writes text into a width-byte field at offset, padding with NUL
func WriteFixedASCII(buf []byte, text string, offset, width int) error {
	encoded := asciiBytes(text)
	if len(encoded) > width {
		return NewParseError(ErrFieldTooLong, offset,
			fmt.Sprintf("%q is %d bytes, field holds %d", text, len(encoded), width))
	}
	if err := checkBounds(buf, offset, width); err != nil {
		return err
	}
	n := copy(buf[offset:offset+width], encoded)
	clear(buf[offset+n : offset+width])
	return nil
}

// asciiBytes encodes text one byte per character. Characters outside
// the ASCII range become '?'.
func asciiBytes(text string) []byte {
	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r > 0x7f {
			r = '?'
		}
		out = append(out, byte(r))
	}
	return out
}

func checkBounds(buf []byte, offset, width int) error {
	if offset < 0 || width < 0 || offset+width > len(buf) {
		return NewParseError(ErrOutOfBounds, offset,
			fmt.Sprintf("%d bytes at offset %d exceed buffer of %d", width, offset, len(buf)))
	}
	return nil
}

// fieldReader reads fixed-offset fields and keeps the first error.
type fieldReader struct {
	buf []byte
	err error
}

func (r *fieldReader) u8(offset int) uint8 {
	if r.err != nil {
		return 0
	}
	v, err := ReadU8(r.buf, offset)
	r.err = err
	return v
}

func (r *fieldReader) u16(offset int) uint16 {
	if r.err != nil {
		return 0
	}
	v, err := ReadU16LE(r.buf, offset)
	r.err = err
	return v
}

func (r *fieldReader) u32(offset int) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := ReadU32LE(r.buf, offset)
	r.err = err
	return v
}

func (r *fieldReader) ascii(start, end int) string {
	if r.err != nil {
		return ""
	}
	v, err := ReadFixedASCII(r.buf, start, end)
	r.err = err
	return v
}

// fieldWriter mirrors fieldReader for encoding.
type fieldWriter struct {
	buf []byte
	err error
}

func (w *fieldWriter) u8(offset int, v uint8) {
	if w.err == nil {
		w.err = WriteU8(w.buf, offset, v)
	}
}

func (w *fieldWriter) u16(offset int, v uint16) {
	if w.err == nil {
		w.err = WriteU16LE(w.buf, offset, v)
	}
}

func (w *fieldWriter) u32(offset int, v uint32) {
	if w.err == nil {
		w.err = WriteU32LE(w.buf, offset, v)
	}
}

func (w *fieldWriter) ascii(offset, width int, text string) {
	if w.err == nil {
		w.err = WriteFixedASCII(w.buf, text, offset, width)
	}
}

func (w *fieldWriter) bytes(offset int, b []byte) {
	if w.err == nil {
		if w.err = checkBounds(w.buf, offset, len(b)); w.err == nil {
			copy(w.buf[offset:], b)
		}
	}
}
