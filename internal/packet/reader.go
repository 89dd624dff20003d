package packet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/udisondev/tibiarelay/internal/model"
)

var (
	// ErrUnderflow is returned when a read runs past the end of the buffer.
	ErrUnderflow = errors.New("packet: not enough data")
	// ErrNotASCII is returned for a string containing bytes above 0x7F.
	ErrNotASCII = errors.New("packet: string is not ASCII")
)

// Reader walks a decrypted buffer with the same primitives Writer produces.
// Uses Little-Endian byte order for all multi-byte values.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a new packet reader.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Index is the number of bytes consumed so far.
func (r *Reader) Index() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

func (r *Reader) need(op string, n int) error {
	if r.pos+n > len(r.data) {
		return fmt.Errorf("%s at %d (need %d, len %d): %w", op, r.pos, n, len(r.data), ErrUnderflow)
	}
	return nil
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.need("ReadByte", 1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadShort reads a uint16 (2 bytes, LE).
func (r *Reader) ReadShort() (uint16, error) {
	if err := r.need("ReadShort", 2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadInt reads a uint32 (4 bytes, LE).
func (r *Reader) ReadInt() (uint32, error) {
	if err := r.need("ReadInt", 4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadString reads a u16 length followed by that many ASCII bytes.
func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadShort()
	if err != nil {
		return "", err
	}
	raw, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	for _, c := range raw {
		if c > 0x7F {
			return "", fmt.Errorf("ReadString at %d: %w", r.pos-len(raw), ErrNotASCII)
		}
	}
	return string(raw), nil
}

// ReadLocation reads x (u16), y (u16) and z (u8).
func (r *Reader) ReadLocation() (model.Location, error) {
	if err := r.need("ReadLocation", 5); err != nil {
		return model.Location{}, err
	}
	loc := model.Location{
		X: binary.LittleEndian.Uint16(r.data[r.pos:]),
		Y: binary.LittleEndian.Uint16(r.data[r.pos+2:]),
		Z: r.data[r.pos+4],
	}
	r.pos += 5
	return loc, nil
}

// ReadBytes reads n bytes (zero-copy: returns a subslice of the message).
// Caller MUST NOT modify returned bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("ReadBytes: negative count %d", n)
	}
	if err := r.need("ReadBytes", n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	_, err := r.ReadBytes(n)
	return err
}
