package packets

import (
	"errors"

	"github.com/udisondev/tibiarelay/internal/packet"
)

var (
	// ErrUnknownType is returned for a tag with no registered decoder.
	ErrUnknownType = errors.New("packets: unknown packet type")
	// ErrUndecodable is returned when a registered decoder cannot tell how
	// long the packet is, e.g. a map packet carrying a creature.
	ErrUndecodable = errors.New("packets: packet shape cannot be determined")
)

// Packet is a decoded logical packet. Index is the number of bytes it
// consumed, counting the type tag.
type Packet interface {
	Type() Type
	Index() int
	Encode(w *packet.Writer)
}

// Base carries the consumed length; every concrete packet embeds it.
type Base struct {
	n int
}

// Index returns the bytes consumed by the packet, tag included.
func (b *Base) Index() int { return b.n }

func (b *Base) setIndex(n int) { b.n = n }

// ItemTraits tells whether an item id is followed by a count/subtype byte.
// That comes from the client's item database, which only the external
// client-state collaborator can read.
type ItemTraits interface {
	HasCount(id uint16) bool
}

// DecodeContext carries what a decoder needs beyond the bytes.
type DecodeContext struct {
	// Checksum is the protocol flavour; newer (checksummed) clients widen
	// some fields.
	Checksum bool
	// Items may be nil; packets that carry items are then undecodable.
	Items ItemTraits
}

// Decoder reads a packet body. The reader is positioned right after the tag.
type Decoder func(r *packet.Reader, dc DecodeContext) (Packet, error)

// Build serializes p into a message ready for crypto.Encrypt.
func Build(p Packet) []byte {
	w := packet.NewMessage()
	p.Encode(w)
	return w.Message()
}
