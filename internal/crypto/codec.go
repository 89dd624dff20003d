package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/udisondev/tibiarelay/internal/constants"
)

// Key is the 16-byte XTEA session key shared by the client and the server.
type Key [constants.XTEAKeySize]byte

var (
	// ErrShortBuffer means the frame does not hold a whole number of cipher blocks.
	ErrShortBuffer = errors.New("crypto: frame shorter than one cipher block")
	// ErrChecksum means the Adler-32 field does not match the ciphertext.
	ErrChecksum = errors.New("crypto: checksum mismatch")
	// ErrKeyMismatch means the plaintext length field is inconsistent with the
	// number of decrypted blocks, which is what a wrong key looks like.
	ErrKeyMismatch = errors.New("crypto: decrypted length inconsistent with block count (wrong key?)")
	// ErrBadLength means a message's remaining-length field disagrees with its size.
	ErrBadLength = errors.New("crypto: message length field mismatch")
)

// bodyOffset returns where the ciphertext starts inside a frame.
func bodyOffset(checksum bool) int {
	if checksum {
		return constants.FrameHeaderSize + constants.ChecksumSize
	}
	return constants.FrameHeaderSize
}

// Encrypt turns a message ([u16 R][R bytes]) into a physical frame:
// [u16 L][adler32]?[ciphertext]. The message is not modified.
func Encrypt(msg []byte, key Key, checksum bool) ([]byte, error) {
	if len(msg) < constants.MessageHeaderSize {
		return nil, fmt.Errorf("encrypt: %w", ErrBadLength)
	}
	if r := int(binary.LittleEndian.Uint16(msg)); r != len(msg)-constants.MessageHeaderSize {
		return nil, fmt.Errorf("encrypt: field %d, payload %d: %w", r, len(msg)-constants.MessageHeaderSize, ErrBadLength)
	}

	size := len(msg)
	if rem := size % constants.XTEABlockSize; rem != 0 {
		size += constants.XTEABlockSize - rem
	}
	off := bodyOffset(checksum)
	total := off + size
	if total-constants.FrameHeaderSize > constants.MaxFrameSize {
		return nil, fmt.Errorf("encrypt: frame of %d bytes exceeds maximum", total)
	}

	frame := make([]byte, total)
	copy(frame[off:], msg)

	c, err := NewXTEACipher(key[:])
	if err != nil {
		return nil, err
	}
	if err := c.Encrypt(frame, off, size); err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}
	if checksum {
		binary.LittleEndian.PutUint32(frame[constants.FrameHeaderSize:], Checksum(frame[off:]))
	}
	binary.LittleEndian.PutUint16(frame, uint16(total-constants.FrameHeaderSize))
	return frame, nil
}

// Decrypt turns a physical frame back into a message trimmed to its declared
// length. The frame is not modified.
func Decrypt(frame []byte, key Key, checksum bool) ([]byte, error) {
	off := bodyOffset(checksum)
	size := len(frame) - off
	if size < constants.XTEABlockSize || size%constants.XTEABlockSize != 0 {
		return nil, fmt.Errorf("decrypt %d bytes: %w", len(frame), ErrShortBuffer)
	}
	if checksum {
		want := binary.LittleEndian.Uint32(frame[constants.FrameHeaderSize:])
		if got := Checksum(frame[off:]); got != want {
			return nil, fmt.Errorf("decrypt: got %08x, want %08x: %w", got, want, ErrChecksum)
		}
	}

	plain := make([]byte, size)
	copy(plain, frame[off:])
	c, err := NewXTEACipher(key[:])
	if err != nil {
		return nil, err
	}
	if err := c.Decrypt(plain, 0, size); err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}

	r := int(binary.LittleEndian.Uint16(plain))
	n := constants.MessageHeaderSize + r
	if n > size || size-n >= constants.XTEABlockSize {
		return nil, fmt.Errorf("decrypt: length field %d for %d plaintext bytes: %w", r, size, ErrKeyMismatch)
	}
	return plain[:n], nil
}

// PeekType decrypts only the first block of a frame and returns the type tag
// of the first logical packet.
func PeekType(frame []byte, key Key, checksum bool) (byte, error) {
	off := bodyOffset(checksum)
	if len(frame)-off < constants.XTEABlockSize {
		return 0, fmt.Errorf("peek type: %w", ErrShortBuffer)
	}
	var block [constants.XTEABlockSize]byte
	copy(block[:], frame[off:])
	c, err := NewXTEACipher(key[:])
	if err != nil {
		return 0, err
	}
	if err := c.Decrypt(block[:], 0, len(block)); err != nil {
		return 0, fmt.Errorf("peek type: %w", err)
	}
	return block[constants.MessageHeaderSize], nil
}
