package packet

import (
	"bytes"
	"encoding/binary"

	"github.com/udisondev/tibiarelay/internal/constants"
	"github.com/udisondev/tibiarelay/internal/model"
)

// Writer serializes packet fields in wire order.
// Uses Little-Endian byte order for all multi-byte values.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter creates a new packet writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	w := &Writer{}
	w.buf.Grow(capacity)
	return w
}

// NewMessage creates a writer with the 2-byte remaining-length field reserved.
// Finish with Message.
func NewMessage() *Writer {
	w := NewWriter(64)
	w.buf.Write([]byte{0, 0})
	return w
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	return w.buf.WriteByte(b)
}

// WriteShort writes a uint16 (2 bytes, LE).
func (w *Writer) WriteShort(v uint16) {
	w.buf.WriteByte(byte(v))
	w.buf.WriteByte(byte(v >> 8))
}

// WriteInt writes a uint32 (4 bytes, LE).
func (w *Writer) WriteInt(v uint32) {
	w.buf.WriteByte(byte(v))
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v >> 16))
	w.buf.WriteByte(byte(v >> 24))
}

// WriteString writes a u16 length and the string bytes, no terminator.
// Strings longer than 0xFFFF bytes are truncated.
func (w *Writer) WriteString(s string) {
	if len(s) > 0xFFFF {
		s = s[:0xFFFF]
	}
	w.WriteShort(uint16(len(s)))
	w.buf.WriteString(s)
}

// WriteLocation writes x (u16), y (u16) and z (u8).
func (w *Writer) WriteLocation(l model.Location) {
	w.WriteShort(l.X)
	w.WriteShort(l.Y)
	w.buf.WriteByte(l.Z)
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

// Bytes returns the written bytes.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Reset clears the writer.
func (w *Writer) Reset() {
	w.buf.Reset()
}

// Message patches the remaining-length field reserved by NewMessage and
// returns the finished message.
func (w *Writer) Message() []byte {
	b := w.buf.Bytes()
	if len(b) < constants.MessageHeaderSize {
		return nil
	}
	binary.LittleEndian.PutUint16(b, uint16(len(b)-constants.MessageHeaderSize))
	return b
}
