package testutil

import (
	"testing"

	"github.com/udisondev/tibiarelay/internal/crypto"
	"github.com/udisondev/tibiarelay/internal/packets"
)

// AssertPacketOpcode проверяет, что первый байт пакета соответствует ожидаемому opcode.
func AssertPacketOpcode(t testing.TB, expected packets.Type, packet []byte) {
	t.Helper()

	if len(packet) == 0 {
		t.Fatalf("packet is empty, expected opcode %s", expected)
	}
	if actual := packets.Type(packet[0]); actual != expected {
		t.Fatalf("packet opcode mismatch: expected %s, got %s", expected, actual)
	}
}

// AssertFrameType decrypts a frame and checks the tag of its first logical
// packet. Returns the decrypted message.
func AssertFrameType(t testing.TB, key crypto.Key, checksum bool, expected packets.Type, frame []byte) []byte {
	t.Helper()

	msg := DecryptFrame(t, key, checksum, frame)
	if len(msg) < 3 {
		t.Fatalf("frame carries an empty message, expected opcode %s", expected)
	}
	AssertPacketOpcode(t, expected, msg[2:])
	return msg
}
