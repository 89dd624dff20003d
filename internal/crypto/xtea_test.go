package crypto

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceEncrypt is the textbook XTEA loop over little-endian words, as the client does it.
func referenceEncrypt(key []byte, block []byte) {
	var k [4]uint32
	for i := range k {
		k[i] = binary.LittleEndian.Uint32(key[i*4:])
	}
	v0 := binary.LittleEndian.Uint32(block[0:])
	v1 := binary.LittleEndian.Uint32(block[4:])
	var sum uint32
	const delta = 0x9E3779B9
	for range 32 {
		v0 += (((v1 << 4) ^ (v1 >> 5)) + v1) ^ (sum + k[sum&3])
		sum += delta
		v1 += (((v0 << 4) ^ (v0 >> 5)) + v0) ^ (sum + k[(sum>>11)&3])
	}
	binary.LittleEndian.PutUint32(block[0:], v0)
	binary.LittleEndian.PutUint32(block[4:], v1)
}

func testKey() Key {
	return Key{0x10, 0x32, 0x54, 0x76, 0x98, 0xBA, 0xDC, 0xFE, 0x01, 0x23, 0x45, 0x67, 0x89, 0xAB, 0xCD, 0xEF}
}

func TestXTEACipher_MatchesLittleEndianReference(t *testing.T) {
	key := testKey()
	c, err := NewXTEACipher(key[:])
	require.NoError(t, err)

	data := []byte("tibia!!!xtea-le.")
	want := append([]byte(nil), data...)
	referenceEncrypt(key[:], want[0:8])
	referenceEncrypt(key[:], want[8:16])

	require.NoError(t, c.Encrypt(data, 0, len(data)))
	assert.Equal(t, want, data)

	require.NoError(t, c.Decrypt(data, 0, len(data)))
	assert.Equal(t, []byte("tibia!!!xtea-le."), data)
}

func TestXTEACipher_RangeErrors(t *testing.T) {
	key := testKey()
	c, err := NewXTEACipher(key[:])
	require.NoError(t, err)

	assert.Error(t, c.Encrypt(make([]byte, 12), 0, 12), "not a block multiple")
	assert.Error(t, c.Decrypt(make([]byte, 8), 4, 8), "past the end")
}

func TestNewXTEACipher_KeySize(t *testing.T) {
	_, err := NewXTEACipher(make([]byte, 8))
	assert.Error(t, err)
}
