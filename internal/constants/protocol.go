package constants

import "time"

// Tibia 8.x protocol constants shared by the codec, framing and relay.

// Framing
const (
	// FrameHeaderSize is the 2-byte little-endian length prefix of every physical frame.
	FrameHeaderSize = 2

	// MessageHeaderSize is the 2-byte remaining-length field at the start of a decrypted message.
	MessageHeaderSize = 2

	// ChecksumSize is the Adler-32 field that follows the frame header in checksum mode.
	ChecksumSize = 4

	// MaxFrameSize bounds L (u16).
	MaxFrameSize = 0xFFFF
)

// XTEA
const (
	// XTEAKeySize is the size of the session key read from the client.
	XTEAKeySize = 16

	// XTEABlockSize is the cipher block size; ciphertext is always a multiple of it.
	XTEABlockSize = 8
)

// Network
const (
	// DefaultPort is the login port of the official servers and the first port probed locally.
	DefaultPort = 7171

	// DefaultLocalHost is what the rewritten character list points at.
	DefaultLocalHost = "127.0.0.1"

	// DefaultReadBufSize is the size of a single physical read from a leg.
	DefaultReadBufSize = 8192

	// DefaultSendQueueSize is the buffered capacity of a leg's send queue.
	DefaultSendQueueSize = 256
)

// Timing
const (
	// ServerWriteInterval is the minimum spacing between two writes to the game server.
	ServerWriteInterval = 125 * time.Millisecond

	// LoginNotifyDelay delays the LogIn notification so the client finishes drawing the map.
	LoginNotifyDelay = 250 * time.Millisecond

	// RestartDelay is the pause between tearing a session down and listening again.
	RestartDelay = 500 * time.Millisecond

	// DefaultWriteTimeout bounds a single socket write.
	DefaultWriteTimeout = 5 * time.Second

	// DefaultDialTimeout bounds connecting to a login or game server.
	DefaultDialTimeout = 10 * time.Second
)
