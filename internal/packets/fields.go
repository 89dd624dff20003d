package packets

import (
	"fmt"

	"github.com/udisondev/tibiarelay/internal/model"
	"github.com/udisondev/tibiarelay/internal/packet"
)

// fields wraps a Reader with a sticky error so decoders can read a whole
// shape and check once.
type fields struct {
	r   *packet.Reader
	err error
}

func (f *fields) u8() byte {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadByte()
	f.err = err
	return v
}

func (f *fields) u16() uint16 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadShort()
	f.err = err
	return v
}

func (f *fields) u32() uint32 {
	if f.err != nil {
		return 0
	}
	v, err := f.r.ReadInt()
	f.err = err
	return v
}

func (f *fields) str() string {
	if f.err != nil {
		return ""
	}
	v, err := f.r.ReadString()
	f.err = err
	return v
}

func (f *fields) loc() model.Location {
	if f.err != nil {
		return model.Location{}
	}
	v, err := f.r.ReadLocation()
	f.err = err
	return v
}

// Item is an item id with its optional count/subtype byte.
type Item struct {
	ID       uint16
	Count    uint8
	HasCount bool
}

func (f *fields) item(dc DecodeContext) Item {
	id := f.u16()
	if f.err != nil {
		return Item{}
	}
	return f.itemBody(id, dc)
}

func (f *fields) itemBody(id uint16, dc DecodeContext) Item {
	if dc.Items == nil {
		f.err = fmt.Errorf("item %d without item traits: %w", id, ErrUndecodable)
		return Item{}
	}
	it := Item{ID: id}
	if dc.Items.HasCount(id) {
		it.HasCount = true
		it.Count = f.u8()
	}
	return it
}

func writeItem(w *packet.Writer, it Item) {
	w.WriteShort(it.ID)
	if it.HasCount {
		u8(w, it.Count)
	}
}

// Thing ids that introduce a creature instead of an item on a tile.
const (
	thingUnknownCreature = 0x61
	thingKnownCreature   = 0x62
	thingCreatureTurn    = 0x63
)

// thing reads a tile thing. Creatures are not decoded.
func (f *fields) thing(dc DecodeContext) Item {
	id := f.u16()
	if f.err != nil {
		return Item{}
	}
	switch id {
	case thingUnknownCreature, thingKnownCreature, thingCreatureTurn:
		f.err = fmt.Errorf("creature thing 0x%02X: %w", id, ErrUndecodable)
		return Item{}
	}
	return f.itemBody(id, dc)
}

// u8 writes one byte; bytes.Buffer never fails.
func u8(w *packet.Writer, v byte) {
	_ = w.WriteByte(v)
}
