package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/udisondev/tibiarelay/internal/constants"
)

// ErrEmptyFrame is returned for a frame whose length prefix is zero.
var ErrEmptyFrame = errors.New("protocol: empty frame")

// ReadFrame reads one physical frame from r, length prefix included.
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [constants.FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("reading frame header: %w", err)
	}

	size := int(binary.LittleEndian.Uint16(header[:]))
	if size == 0 {
		return nil, ErrEmptyFrame
	}

	frame := make([]byte, constants.FrameHeaderSize+size)
	copy(frame, header[:])
	if _, err := io.ReadFull(r, frame[constants.FrameHeaderSize:]); err != nil {
		return nil, fmt.Errorf("reading frame body: %w", err)
	}
	return frame, nil
}

// WriteFrame writes one complete physical frame to w.
func WriteFrame(w io.Writer, frame []byte) error {
	if len(frame) < constants.FrameHeaderSize {
		return fmt.Errorf("write frame: %d bytes is shorter than the header", len(frame))
	}
	if size := int(binary.LittleEndian.Uint16(frame)); size != len(frame)-constants.FrameHeaderSize {
		return fmt.Errorf("write frame: header says %d, body is %d", size, len(frame)-constants.FrameHeaderSize)
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// PlainType returns the type tag of an unencrypted first frame (login and
// game-login requests), which sits right after the length prefix and, in
// checksum mode, the Adler-32 field.
func PlainType(frame []byte, checksum bool) (byte, error) {
	off := constants.FrameHeaderSize
	if checksum {
		off += constants.ChecksumSize
	}
	if len(frame) <= off {
		return 0, fmt.Errorf("plain type: frame of %d bytes", len(frame))
	}
	return frame[off], nil
}
