package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/udisondev/tibiarelay/internal/crypto"
	"github.com/udisondev/tibiarelay/internal/packet"
	"github.com/udisondev/tibiarelay/internal/packets"
)

// Fixtures содержит предварительно сгенерированные тестовые данные
// для избежания дублирования в тестах.
var Fixtures = struct {
	CipherKey  crypto.Key
	Motd       string
	Characters []packets.CharacterInfo
}{
	CipherKey: crypto.Key{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F, 0x10,
	},
	Motd: "42\nWelcome to Tibia!",
	Characters: []packets.CharacterInfo{
		{Name: "Bubble", World: "Antica", IP: [4]byte{10, 0, 0, 1}, Port: 7172},
		{Name: "Cachero", World: "Secura", IP: [4]byte{10, 0, 0, 2}, Port: 7173},
		{Name: "Eternal Oblivion", World: "Nova", IP: [4]byte{10, 0, 0, 3}, Port: 7174},
	},
}

// Message concatenates logical packets into one decrypted message.
func Message(ps ...packets.Packet) []byte {
	w := packet.NewMessage()
	for _, p := range ps {
		p.Encode(w)
	}
	return w.Message()
}

// LoginResponse builds the decrypted MOTD + character list response.
func LoginResponse(motd string, chars []packets.CharacterInfo, premiumDays uint16) []byte {
	return Message(
		&packets.Text{Tag: packets.TypeMotd, Message: motd},
		&packets.CharList{Characters: chars, PremiumDays: premiumDays},
	)
}

// EncryptFrame encrypts a message into a physical frame or fails the test.
func EncryptFrame(tb testing.TB, key crypto.Key, checksum bool, msg []byte) []byte {
	tb.Helper()
	frame, err := crypto.Encrypt(msg, key, checksum)
	if err != nil {
		tb.Fatalf("encrypting test frame: %v", err)
	}
	return frame
}

// DecryptFrame decrypts a physical frame or fails the test.
func DecryptFrame(tb testing.TB, key crypto.Key, checksum bool, frame []byte) []byte {
	tb.Helper()
	msg, err := crypto.Decrypt(frame, key, checksum)
	if err != nil {
		tb.Fatalf("decrypting test frame: %v", err)
	}
	return msg
}

// PlainFrame builds an unencrypted first frame (login or game login request):
// the tag is cleartext and the rest stands in for the RSA block.
func PlainFrame(tag packets.Type, checksum bool, body ...byte) []byte {
	off := 2
	if checksum {
		off += 4
	}
	frame := make([]byte, off+1+len(body))
	frame[off] = byte(tag)
	copy(frame[off+1:], body)
	if checksum {
		binary.LittleEndian.PutUint32(frame[2:], crypto.Checksum(frame[off:]))
	}
	binary.LittleEndian.PutUint16(frame, uint16(len(frame)-2))
	return frame
}
