package packets

import "github.com/udisondev/tibiarelay/internal/packet"

// CharacterInfo is one entry of the login server's character list.
type CharacterInfo struct {
	Name  string
	World string
	IP    [4]byte
	Port  uint16
	// AddrOffset is where the IP field starts, counted from the CharList
	// tag. The port follows it; the rewriter patches both in place.
	AddrOffset int
}

// CharList is the character list that follows the MOTD in a successful
// login response.
type CharList struct {
	Base
	Characters  []CharacterInfo
	PremiumDays uint16
}

func (p *CharList) Type() Type { return TypeCharList }

func (p *CharList) Encode(w *packet.Writer) {
	u8(w, byte(TypeCharList))
	u8(w, uint8(len(p.Characters)))
	for _, c := range p.Characters {
		w.WriteString(c.Name)
		w.WriteString(c.World)
		w.WriteBytes(c.IP[:])
		w.WriteShort(c.Port)
	}
	w.WriteShort(p.PremiumDays)
}

func decodeCharList(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &CharList{}
	n := int(f.u8())
	for i := 0; i < n && f.err == nil; i++ {
		c := CharacterInfo{Name: f.str(), World: f.str()}
		c.AddrOffset = r.Index()
		c.IP = [4]byte{f.u8(), f.u8(), f.u8(), f.u8()}
		c.Port = f.u16()
		p.Characters = append(p.Characters, c)
	}
	p.PremiumDays = f.u16()
	return p, f.err
}
