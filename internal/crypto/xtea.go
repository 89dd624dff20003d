package crypto

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/xtea"

	"github.com/udisondev/tibiarelay/internal/constants"
)

// XTEACipher wraps XTEA ECB encryption/decryption for the Tibia protocol.
//
// x/crypto/xtea reads key words and block halves big-endian; the client
// uses little-endian words, so the key and every block half are byte-swapped
// around the library calls.
type XTEACipher struct {
	cipher *xtea.Cipher
}

// NewXTEACipher creates a new XTEA ECB cipher from a 16-byte client key.
func NewXTEACipher(key []byte) (*XTEACipher, error) {
	if len(key) != constants.XTEAKeySize {
		return nil, fmt.Errorf("creating xtea cipher: key size %d, want %d", len(key), constants.XTEAKeySize)
	}
	var swapped [constants.XTEAKeySize]byte
	for i := 0; i < constants.XTEAKeySize; i += 4 {
		binary.BigEndian.PutUint32(swapped[i:], binary.LittleEndian.Uint32(key[i:]))
	}
	c, err := xtea.NewCipher(swapped[:])
	if err != nil {
		return nil, fmt.Errorf("creating xtea cipher: %w", err)
	}
	return &XTEACipher{cipher: c}, nil
}

// Encrypt encrypts data in-place. Size must be a multiple of 8.
func (x *XTEACipher) Encrypt(data []byte, offset, size int) error {
	if err := checkRange("xtea encrypt", data, offset, size); err != nil {
		return err
	}
	for i := offset; i < offset+size; i += constants.XTEABlockSize {
		block := data[i : i+constants.XTEABlockSize]
		swapHalves(block)
		x.cipher.Encrypt(block, block)
		swapHalves(block)
	}
	return nil
}

// Decrypt decrypts data in-place. Size must be a multiple of 8.
func (x *XTEACipher) Decrypt(data []byte, offset, size int) error {
	if err := checkRange("xtea decrypt", data, offset, size); err != nil {
		return err
	}
	for i := offset; i < offset+size; i += constants.XTEABlockSize {
		block := data[i : i+constants.XTEABlockSize]
		swapHalves(block)
		x.cipher.Decrypt(block, block)
		swapHalves(block)
	}
	return nil
}

func checkRange(op string, data []byte, offset, size int) error {
	if size%constants.XTEABlockSize != 0 {
		return fmt.Errorf("%s: size %d is not a multiple of %d", op, size, constants.XTEABlockSize)
	}
	if offset < 0 || offset+size > len(data) {
		return fmt.Errorf("%s: offset %d + size %d exceeds data length %d", op, offset, size, len(data))
	}
	return nil
}

// swapHalves reverses the byte order of both 32-bit halves of an 8-byte block.
func swapHalves(b []byte) {
	b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
	b[4], b[5], b[6], b[7] = b[7], b[6], b[5], b[4]
}
