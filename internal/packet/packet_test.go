package packet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tibiarelay/internal/model"
)

func TestWriterReader_SameOrderAndIndex(t *testing.T) {
	w := NewWriter(32)
	require.NoError(t, w.WriteByte(0x84))
	w.WriteLocation(model.NewLocation(32369, 32241, 7))
	w.WriteShort(0xBEEF)
	w.WriteInt(0xDEADBEEF)
	w.WriteString("Hello")
	w.WriteString("")
	w.WriteBytes([]byte{1, 2, 3})

	// 1 + 5 + 2 + 4 + (2+5) + 2 + 3
	require.Equal(t, 24, w.Len())

	r := NewReader(w.Bytes())
	b, err := r.ReadByte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x84), b)
	assert.Equal(t, 1, r.Index())

	loc, err := r.ReadLocation()
	require.NoError(t, err)
	assert.Equal(t, model.NewLocation(32369, 32241, 7), loc)

	s, err := r.ReadShort()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), s)

	i, err := r.ReadInt()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), i)

	str, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "Hello", str)

	str, err = r.ReadString()
	require.NoError(t, err)
	assert.Empty(t, str)

	raw, err := r.ReadBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, raw)

	assert.Equal(t, w.Len(), r.Index())
	assert.Zero(t, r.Remaining())
}

func TestReader_Underflow(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		read func(r *Reader) error
	}{
		{"byte", nil, func(r *Reader) error { _, err := r.ReadByte(); return err }},
		{"short", []byte{1}, func(r *Reader) error { _, err := r.ReadShort(); return err }},
		{"int", []byte{1, 2, 3}, func(r *Reader) error { _, err := r.ReadInt(); return err }},
		{"location", []byte{1, 2, 3, 4}, func(r *Reader) error { _, err := r.ReadLocation(); return err }},
		{"string body", []byte{5, 0, 'a'}, func(r *Reader) error { _, err := r.ReadString(); return err }},
		{"skip", []byte{1}, func(r *Reader) error { return r.Skip(2) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.read(NewReader(tt.data)), ErrUnderflow)
		})
	}
}

func TestReader_StringMustBeASCII(t *testing.T) {
	_, err := NewReader([]byte{2, 0, 'o', 0xE9}).ReadString()
	assert.ErrorIs(t, err, ErrNotASCII)
}

func TestReadBytes_Negative(t *testing.T) {
	_, err := NewReader([]byte{1}).ReadBytes(-1)
	assert.Error(t, err)
}

func TestWriter_Message(t *testing.T) {
	w := NewMessage()
	require.NoError(t, w.WriteByte(0x1E))
	w.WriteString("hi")

	assert.Equal(t, []byte{0x05, 0x00, 0x1E, 0x02, 0x00, 'h', 'i'}, w.Message())
}

func TestWriter_StringTruncated(t *testing.T) {
	w := NewWriter(0)
	w.WriteString(strings.Repeat("x", 0x10005))

	r := NewReader(w.Bytes())
	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Len(t, s, 0xFFFF)
}

func TestWriter_Reset(t *testing.T) {
	w := NewWriter(4)
	w.WriteInt(1)
	w.Reset()
	assert.Zero(t, w.Len())
	assert.Nil(t, w.Message())
}
