package packets

import "github.com/udisondev/tibiarelay/internal/packet"

// SelfAppear is the first packet of a game session: the server accepted the
// login and tells the client its own creature id.
type SelfAppear struct {
	Base
	PlayerID      uint32
	DrawSpeed     uint16
	CanReportBugs bool
}

func (p *SelfAppear) Type() Type { return TypeSelfAppear }

func (p *SelfAppear) Encode(w *packet.Writer) {
	u8(w, byte(TypeSelfAppear))
	w.WriteInt(p.PlayerID)
	w.WriteShort(p.DrawSpeed)
	u8(w, boolByte(p.CanReportBugs))
}

func decodeSelfAppear(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &SelfAppear{PlayerID: f.u32(), DrawSpeed: f.u16(), CanReportBugs: f.u8() != 0}
	return p, f.err
}

// StatusUpdate carries the player's stats. Checksummed clients send a 32-bit
// capacity and a stamina field.
type StatusUpdate struct {
	Base
	Wide         bool
	Health       uint16
	MaxHealth    uint16
	Capacity     uint32
	Experience   uint32
	Level        uint16
	LevelPercent uint8
	Mana         uint16
	MaxMana      uint16
	MagicLevel   uint8
	MagicPercent uint8
	Soul         uint8
	Stamina      uint16
}

func (p *StatusUpdate) Type() Type { return TypeStatusUpdate }

func (p *StatusUpdate) Encode(w *packet.Writer) {
	u8(w, byte(TypeStatusUpdate))
	w.WriteShort(p.Health)
	w.WriteShort(p.MaxHealth)
	if p.Wide {
		w.WriteInt(p.Capacity)
	} else {
		w.WriteShort(uint16(p.Capacity))
	}
	w.WriteInt(p.Experience)
	w.WriteShort(p.Level)
	u8(w, p.LevelPercent)
	w.WriteShort(p.Mana)
	w.WriteShort(p.MaxMana)
	u8(w, p.MagicLevel)
	u8(w, p.MagicPercent)
	u8(w, p.Soul)
	if p.Wide {
		w.WriteShort(p.Stamina)
	}
}

func decodeStatusUpdate(r *packet.Reader, dc DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &StatusUpdate{Wide: dc.Checksum, Health: f.u16(), MaxHealth: f.u16()}
	if p.Wide {
		p.Capacity = f.u32()
	} else {
		p.Capacity = uint32(f.u16())
	}
	p.Experience = f.u32()
	p.Level = f.u16()
	p.LevelPercent = f.u8()
	p.Mana = f.u16()
	p.MaxMana = f.u16()
	p.MagicLevel = f.u8()
	p.MagicPercent = f.u8()
	p.Soul = f.u8()
	if p.Wide {
		p.Stamina = f.u16()
	}
	return p, f.err
}

// Skill order in SkillUpdate.
const (
	SkillFist = iota
	SkillClub
	SkillSword
	SkillAxe
	SkillDistance
	SkillShielding
	SkillFishing
	skillCount
)

// Skill is a level and the percent to the next one.
type Skill struct {
	Level   uint8
	Percent uint8
}

// SkillUpdate carries every skill.
type SkillUpdate struct {
	Base
	Skills [skillCount]Skill
}

func (p *SkillUpdate) Type() Type { return TypeSkillUpdate }

func (p *SkillUpdate) Encode(w *packet.Writer) {
	u8(w, byte(TypeSkillUpdate))
	for _, s := range p.Skills {
		u8(w, s.Level)
		u8(w, s.Percent)
	}
}

func decodeSkillUpdate(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &SkillUpdate{}
	for i := range p.Skills {
		p.Skills[i] = Skill{Level: f.u8(), Percent: f.u8()}
	}
	return p, f.err
}

// Player condition bits in FlagUpdate.
const (
	FlagPoisoned   uint16 = 1 << 0
	FlagBurning    uint16 = 1 << 1
	FlagElectric   uint16 = 1 << 2
	FlagDrunk      uint16 = 1 << 3
	FlagManaShield uint16 = 1 << 4
	FlagParalyzed  uint16 = 1 << 5
	FlagHasted     uint16 = 1 << 6
	FlagBattle     uint16 = 1 << 7
)

// FlagUpdate carries the condition icons.
type FlagUpdate struct {
	Base
	Flags uint16
}

func (p *FlagUpdate) Type() Type { return TypeFlagUpdate }

func (p *FlagUpdate) Encode(w *packet.Writer) {
	u8(w, byte(TypeFlagUpdate))
	w.WriteShort(p.Flags)
}

func decodeFlagUpdate(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &FlagUpdate{Flags: f.u16()}
	return p, f.err
}

// CancelAutoWalk stops client-side walking and turns the player.
type CancelAutoWalk struct {
	Base
	Direction uint8
}

func (p *CancelAutoWalk) Type() Type { return TypeCancelAutoWalk }

func (p *CancelAutoWalk) Encode(w *packet.Writer) {
	u8(w, byte(TypeCancelAutoWalk))
	u8(w, p.Direction)
}

func decodeCancelAutoWalk(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &CancelAutoWalk{Direction: f.u8()}
	return p, f.err
}

// BookOpen shows a readable or writable text item.
type BookOpen struct {
	Base
	WindowID  uint32
	ItemID    uint16
	MaxLength uint16
	Text      string
	Author    string
	Date      string
}

func (p *BookOpen) Type() Type { return TypeBookOpen }

func (p *BookOpen) Encode(w *packet.Writer) {
	u8(w, byte(TypeBookOpen))
	w.WriteInt(p.WindowID)
	w.WriteShort(p.ItemID)
	w.WriteShort(p.MaxLength)
	w.WriteString(p.Text)
	w.WriteString(p.Author)
	w.WriteString(p.Date)
}

func decodeBookOpen(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &BookOpen{WindowID: f.u32(), ItemID: f.u16(), MaxLength: f.u16(), Text: f.str(), Author: f.str(), Date: f.str()}
	return p, f.err
}

// VipAdd adds a name to the VIP list.
type VipAdd struct {
	Base
	PlayerID uint32
	Name     string
	Online   bool
}

func (p *VipAdd) Type() Type { return TypeVipAdd }

func (p *VipAdd) Encode(w *packet.Writer) {
	u8(w, byte(TypeVipAdd))
	w.WriteInt(p.PlayerID)
	w.WriteString(p.Name)
	u8(w, boolByte(p.Online))
}

func decodeVipAdd(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &VipAdd{PlayerID: f.u32(), Name: f.str(), Online: f.u8() != 0}
	return p, f.err
}

// VipStatus is a VIP logging in or out.
type VipStatus struct {
	Base
	Tag      Type
	PlayerID uint32
}

func (p *VipStatus) Type() Type { return p.Tag }

func (p *VipStatus) Encode(w *packet.Writer) {
	u8(w, byte(p.Tag))
	w.WriteInt(p.PlayerID)
}

func vipStatusDecoder(tag Type) Decoder {
	return func(r *packet.Reader, _ DecodeContext) (Packet, error) {
		f := fields{r: r}
		p := &VipStatus{Tag: tag, PlayerID: f.u32()}
		return p, f.err
	}
}
