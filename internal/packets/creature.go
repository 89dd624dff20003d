package packets

import "github.com/udisondev/tibiarelay/internal/packet"

// CreatureHealth carries a health percentage.
type CreatureHealth struct {
	Base
	CreatureID uint32
	Percent    uint8
}

func (p *CreatureHealth) Type() Type { return TypeCreatureHealth }

func (p *CreatureHealth) Encode(w *packet.Writer) {
	u8(w, byte(TypeCreatureHealth))
	w.WriteInt(p.CreatureID)
	u8(w, p.Percent)
}

func decodeCreatureHealth(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &CreatureHealth{CreatureID: f.u32(), Percent: f.u8()}
	return p, f.err
}

// CreatureSquare draws a coloured square around a creature (it attacked you).
type CreatureSquare struct {
	Base
	CreatureID uint32
	Color      uint8
}

func (p *CreatureSquare) Type() Type { return TypeCreatureSquare }

func (p *CreatureSquare) Encode(w *packet.Writer) {
	u8(w, byte(TypeCreatureSquare))
	w.WriteInt(p.CreatureID)
	u8(w, p.Color)
}

func decodeCreatureSquare(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &CreatureSquare{CreatureID: f.u32(), Color: f.u8()}
	return p, f.err
}

// CreatureLight sets a creature's light.
type CreatureLight struct {
	Base
	CreatureID uint32
	Level      uint8
	Color      uint8
}

func (p *CreatureLight) Type() Type { return TypeCreatureLight }

func (p *CreatureLight) Encode(w *packet.Writer) {
	u8(w, byte(TypeCreatureLight))
	w.WriteInt(p.CreatureID)
	u8(w, p.Level)
	u8(w, p.Color)
}

func decodeCreatureLight(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &CreatureLight{CreatureID: f.u32(), Level: f.u8(), Color: f.u8()}
	return p, f.err
}

// Outfit is a look type with colours, or an item look when LookType is 0.
type Outfit struct {
	LookType uint16
	Head     uint8
	Body     uint8
	Legs     uint8
	Feet     uint8
	Addons   uint8
	LookItem uint16
}

// CreatureOutfit changes a creature's outfit.
type CreatureOutfit struct {
	Base
	CreatureID uint32
	Outfit     Outfit
}

func (p *CreatureOutfit) Type() Type { return TypeCreatureOutfit }

func (p *CreatureOutfit) Encode(w *packet.Writer) {
	u8(w, byte(TypeCreatureOutfit))
	w.WriteInt(p.CreatureID)
	w.WriteShort(p.Outfit.LookType)
	if p.Outfit.LookType != 0 {
		for _, b := range []uint8{p.Outfit.Head, p.Outfit.Body, p.Outfit.Legs, p.Outfit.Feet, p.Outfit.Addons} {
			u8(w, b)
		}
		return
	}
	w.WriteShort(p.Outfit.LookItem)
}

func decodeCreatureOutfit(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &CreatureOutfit{CreatureID: f.u32()}
	o := &p.Outfit
	o.LookType = f.u16()
	if o.LookType != 0 {
		o.Head, o.Body, o.Legs, o.Feet, o.Addons = f.u8(), f.u8(), f.u8(), f.u8(), f.u8()
	} else {
		o.LookItem = f.u16()
	}
	return p, f.err
}

// CreatureSpeed changes a creature's walking speed.
type CreatureSpeed struct {
	Base
	CreatureID uint32
	Speed      uint16
}

func (p *CreatureSpeed) Type() Type { return TypeCreatureSpeed }

func (p *CreatureSpeed) Encode(w *packet.Writer) {
	u8(w, byte(TypeCreatureSpeed))
	w.WriteInt(p.CreatureID)
	w.WriteShort(p.Speed)
}

func decodeCreatureSpeed(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &CreatureSpeed{CreatureID: f.u32(), Speed: f.u16()}
	return p, f.err
}

// CreatureSkull changes a creature's skull.
type CreatureSkull struct {
	Base
	CreatureID uint32
	Skull      uint8
}

func (p *CreatureSkull) Type() Type { return TypeCreatureSkull }

func (p *CreatureSkull) Encode(w *packet.Writer) {
	u8(w, byte(TypeCreatureSkull))
	w.WriteInt(p.CreatureID)
	u8(w, p.Skull)
}

func decodeCreatureSkull(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &CreatureSkull{CreatureID: f.u32(), Skull: f.u8()}
	return p, f.err
}

// CreatureShield changes a creature's party shield.
type CreatureShield struct {
	Base
	CreatureID uint32
	Shield     uint8
}

func (p *CreatureShield) Type() Type { return TypeCreatureShield }

func (p *CreatureShield) Encode(w *packet.Writer) {
	u8(w, byte(TypeCreatureShield))
	w.WriteInt(p.CreatureID)
	u8(w, p.Shield)
}

func decodeCreatureShield(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &CreatureShield{CreatureID: f.u32(), Shield: f.u8()}
	return p, f.err
}
