package crypto

import "hash/adler32"

// Checksum returns the Adler-32 of data, the value checksum-mode frames carry
// in front of their ciphertext.
func Checksum(data []byte) uint32 {
	return adler32.Checksum(data)
}
