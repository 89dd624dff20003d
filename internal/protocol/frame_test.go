package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tibiarelay/internal/testutil"
)

func TestReadFrame(t *testing.T) {
	frame := []byte{0x03, 0x00, 0xAA, 0xBB, 0xCC}
	r := bytes.NewReader(append(frame, 0x01, 0x00, 0xDD))

	got, err := ReadFrame(r)
	require.NoError(t, err)
	assert.Equal(t, frame, got)

	got, err = ReadFrame(r)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0xDD}, got)

	_, err = ReadFrame(r)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrame_Errors(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{0x00, 0x00}))
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = ReadFrame(bytes.NewReader([]byte{0x05, 0x00, 0x01}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{0x02, 0x00, 0x01, 0x02}))
	assert.Equal(t, []byte{0x02, 0x00, 0x01, 0x02}, buf.Bytes())

	assert.Error(t, WriteFrame(&buf, []byte{0x05, 0x00, 0x01}), "inconsistent header")
}

func TestWriteFrame_WriterError(t *testing.T) {
	err := WriteFrame(failingWriter{}, []byte{0x01, 0x00, 0x01})
	assert.ErrorIs(t, err, testutil.ErrSimulated)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, testutil.ErrSimulated }

func TestPlainType(t *testing.T) {
	frame := []byte{0x07, 0x00, 0xAA, 0xBB, 0xCC, 0xDD, 0x0A, 0x02, 0x00}

	tag, err := PlainType(frame, false)
	require.NoError(t, err)
	assert.Equal(t, byte(0xAA), tag)

	tag, err = PlainType(frame, true)
	require.NoError(t, err)
	assert.Equal(t, byte(0x0A), tag)

	_, err = PlainType([]byte{0x01, 0x00}, false)
	assert.Error(t, err)
}

func TestAssembler(t *testing.T) {
	a := []byte{0x03, 0x00, 0x01, 0x02, 0x03}
	b := []byte{0x01, 0x00, 0x09}
	c := []byte{0x04, 0x00, 0x0A, 0x0B, 0x0C, 0x0D}
	stream := bytes.Join([][]byte{a, b, c}, nil)

	tests := []struct {
		name   string
		chunks []int // split points
	}{
		{"one read", nil},
		{"byte by byte", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}},
		{"split header", []int{1, 6}},
		{"split body", []int{3, 9}},
		{"frame boundaries", []int{5, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var asm Assembler
			var got [][]byte
			prev := 0
			for _, cut := range append(tt.chunks, len(stream)) {
				frames, err := asm.Feed(stream[prev:cut])
				require.NoError(t, err)
				got = append(got, frames...)
				prev = cut
			}
			assert.Equal(t, [][]byte{a, b, c}, got)
			assert.False(t, asm.Pending())
		})
	}
}

func TestAssembler_HoldsPartialUntilComplete(t *testing.T) {
	var asm Assembler

	frames, err := asm.Feed([]byte{0x04, 0x00, 0x01})
	require.NoError(t, err)
	assert.Empty(t, frames)
	assert.True(t, asm.Pending())

	frames, err = asm.Feed([]byte{0x02, 0x03, 0x04, 0x02, 0x00})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, []byte{0x04, 0x00, 0x01, 0x02, 0x03, 0x04}, frames[0])
	assert.True(t, asm.Pending(), "header of the next frame is buffered")
}

func TestAssembler_EmptyFrame(t *testing.T) {
	var asm Assembler

	frames, err := asm.Feed([]byte{0x01, 0x00, 0x05, 0x00, 0x00})
	assert.True(t, errors.Is(err, ErrEmptyFrame))
	assert.Equal(t, [][]byte{{0x01, 0x00, 0x05}}, frames)
	assert.False(t, asm.Pending())
}

func TestAssembler_FramesDoNotAliasInput(t *testing.T) {
	var asm Assembler
	chunk := []byte{0x01, 0x00, 0x07}

	frames, err := asm.Feed(chunk)
	require.NoError(t, err)
	chunk[2] = 0xFF
	assert.Equal(t, byte(0x07), frames[0][2])
}
