package packets

import (
	"github.com/udisondev/tibiarelay/internal/model"
	"github.com/udisondev/tibiarelay/internal/packet"
)

// MapItemAdd puts an item on a tile.
type MapItemAdd struct {
	Base
	Location model.Location
	Item     Item
}

func (p *MapItemAdd) Type() Type { return TypeMapItemAdd }

func (p *MapItemAdd) Encode(w *packet.Writer) {
	u8(w, byte(TypeMapItemAdd))
	w.WriteLocation(p.Location)
	writeItem(w, p.Item)
}

func decodeMapItemAdd(r *packet.Reader, dc DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &MapItemAdd{Location: f.loc()}
	p.Item = f.thing(dc)
	return p, f.err
}

// MapItemUpdate replaces the thing at a stack position.
type MapItemUpdate struct {
	Base
	Location model.Location
	StackPos uint8
	Item     Item
}

func (p *MapItemUpdate) Type() Type { return TypeMapItemUpdate }

func (p *MapItemUpdate) Encode(w *packet.Writer) {
	u8(w, byte(TypeMapItemUpdate))
	w.WriteLocation(p.Location)
	u8(w, p.StackPos)
	writeItem(w, p.Item)
}

func decodeMapItemUpdate(r *packet.Reader, dc DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &MapItemUpdate{Location: f.loc(), StackPos: f.u8()}
	p.Item = f.thing(dc)
	return p, f.err
}

// MapItemRemove removes the thing at a stack position.
type MapItemRemove struct {
	Base
	Location model.Location
	StackPos uint8
}

func (p *MapItemRemove) Type() Type { return TypeMapItemRemove }

func (p *MapItemRemove) Encode(w *packet.Writer) {
	u8(w, byte(TypeMapItemRemove))
	w.WriteLocation(p.Location)
	u8(w, p.StackPos)
}

func decodeMapItemRemove(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &MapItemRemove{Location: f.loc(), StackPos: f.u8()}
	return p, f.err
}

// CreatureMove moves the creature at From/StackPos to To.
type CreatureMove struct {
	Base
	From     model.Location
	StackPos uint8
	To       model.Location
}

func (p *CreatureMove) Type() Type { return TypeCreatureMove }

func (p *CreatureMove) Encode(w *packet.Writer) {
	u8(w, byte(TypeCreatureMove))
	w.WriteLocation(p.From)
	u8(w, p.StackPos)
	w.WriteLocation(p.To)
}

func decodeCreatureMove(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &CreatureMove{From: f.loc(), StackPos: f.u8(), To: f.loc()}
	return p, f.err
}

// WorldLight sets the ambient light.
type WorldLight struct {
	Base
	Level uint8
	Color uint8
}

func (p *WorldLight) Type() Type { return TypeWorldLight }

func (p *WorldLight) Encode(w *packet.Writer) {
	u8(w, byte(TypeWorldLight))
	u8(w, p.Level)
	u8(w, p.Color)
}

func decodeWorldLight(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &WorldLight{Level: f.u8(), Color: f.u8()}
	return p, f.err
}

// TileAnimation plays a magic effect on a tile.
type TileAnimation struct {
	Base
	Location model.Location
	Effect   uint8
}

func (p *TileAnimation) Type() Type { return TypeTileAnimation }

func (p *TileAnimation) Encode(w *packet.Writer) {
	u8(w, byte(TypeTileAnimation))
	w.WriteLocation(p.Location)
	u8(w, p.Effect)
}

func decodeTileAnimation(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &TileAnimation{Location: f.loc(), Effect: f.u8()}
	return p, f.err
}

// AnimatedText is floating text on a tile (damage numbers, exp gained).
type AnimatedText struct {
	Base
	Location model.Location
	Color    uint8
	Message  string
}

func (p *AnimatedText) Type() Type { return TypeAnimatedText }

func (p *AnimatedText) Encode(w *packet.Writer) {
	u8(w, byte(TypeAnimatedText))
	w.WriteLocation(p.Location)
	u8(w, p.Color)
	w.WriteString(p.Message)
}

func decodeAnimatedText(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &AnimatedText{Location: f.loc(), Color: f.u8(), Message: f.str()}
	return p, f.err
}

// Projectile is a distance effect flying between two tiles.
type Projectile struct {
	Base
	From   model.Location
	To     model.Location
	Effect uint8
}

func (p *Projectile) Type() Type { return TypeProjectile }

func (p *Projectile) Encode(w *packet.Writer) {
	u8(w, byte(TypeProjectile))
	w.WriteLocation(p.From)
	w.WriteLocation(p.To)
	u8(w, p.Effect)
}

func decodeProjectile(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &Projectile{From: f.loc(), To: f.loc(), Effect: f.u8()}
	return p, f.err
}
