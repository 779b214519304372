// Package binary provides bounds-checked binary primitives for walking and
// building tag blocks in memory.
package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// SliceReader reads sequentially from an in-memory block with bounds checking
// and contextual error messages.
type SliceReader struct {
	data []byte
	off  int
}

// NewSliceReader creates a SliceReader over b.
func NewSliceReader(b []byte) *SliceReader {
	return &SliceReader{data: b}
}

// Offset returns the number of bytes consumed so far.
func (r *SliceReader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *SliceReader) Remaining() int {
	return len(r.data) - r.off
}

// Bytes consumes and returns the next n bytes. The returned slice aliases the
// underlying block and must not be modified.
func (r *SliceReader) Bytes(n int, what string) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, fmt.Errorf("need %d bytes at offset %d for %s, have %d", n, r.off, what, r.Remaining())
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

// Skip advances past n bytes.
func (r *SliceReader) Skip(n int, what string) error {
	_, err := r.Bytes(n, what)
	return err
}

// CString consumes a null-terminated string, including the terminator.
func (r *SliceReader) CString(what string) (string, error) {
	idx := bytes.IndexByte(r.data[r.off:], 0)
	if idx < 0 {
		return "", fmt.Errorf("unterminated string at offset %d for %s", r.off, what)
	}
	s := string(r.data[r.off : r.off+idx])
	r.off += idx + 1
	return s, nil
}

// ReadBE reads a big-endian value of type T and advances the offset.
func ReadBE[T uint8 | uint16 | uint32](r *SliceReader, what string) (T, error) {
	var zero T
	buf, err := r.Bytes(sizeOf(zero), what)
	if err != nil {
		return zero, err
	}

	var val T
	switch any(zero).(type) {
	case uint8:
		val = T(buf[0])
	case uint16:
		val = T(binary.BigEndian.Uint16(buf))
	case uint32:
		val = T(binary.BigEndian.Uint32(buf))
	}
	return val, nil
}

// ReadLE reads a little-endian value of type T and advances the offset.
func ReadLE[T uint8 | uint16 | uint32](r *SliceReader, what string) (T, error) {
	var zero T
	buf, err := r.Bytes(sizeOf(zero), what)
	if err != nil {
		return zero, err
	}

	var val T
	switch any(zero).(type) {
	case uint8:
		val = T(buf[0])
	case uint16:
		val = T(binary.LittleEndian.Uint16(buf))
	case uint32:
		val = T(binary.LittleEndian.Uint32(buf))
	}
	return val, nil
}

func sizeOf[T uint8 | uint16 | uint32](zero T) int {
	switch any(zero).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	default:
		return 4
	}
}

// DecodeSynchsafe decodes a 4-byte synchsafe integer (7 bits per byte).
// ID3v2 headers store sizes with bit 7 of every byte clear.
func DecodeSynchsafe(b []byte) uint32 {
	if len(b) != 4 {
		return 0
	}
	return uint32(b[0]&0x7F)<<21 |
		uint32(b[1]&0x7F)<<14 |
		uint32(b[2]&0x7F)<<7 |
		uint32(b[3]&0x7F)
}

// EncodeSynchsafe encodes v as a 4-byte synchsafe integer.
// v must fit in 28 bits.
func EncodeSynchsafe(v uint32) [4]byte {
	return [4]byte{
		byte(v >> 21 & 0x7F),
		byte(v >> 14 & 0x7F),
		byte(v >> 7 & 0x7F),
		byte(v & 0x7F),
	}
}
