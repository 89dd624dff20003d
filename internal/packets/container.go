package packets

import "github.com/udisondev/tibiarelay/internal/packet"

// ContainerOpened lists a container's contents.
type ContainerOpened struct {
	Base
	ContainerID uint8
	Item        Item
	Name        string
	Capacity    uint8
	HasParent   bool
	Items       []Item
}

func (p *ContainerOpened) Type() Type { return TypeContainerOpened }

func (p *ContainerOpened) Encode(w *packet.Writer) {
	u8(w, byte(TypeContainerOpened))
	u8(w, p.ContainerID)
	writeItem(w, p.Item)
	w.WriteString(p.Name)
	u8(w, p.Capacity)
	u8(w, boolByte(p.HasParent))
	u8(w, uint8(len(p.Items)))
	for _, it := range p.Items {
		writeItem(w, it)
	}
}

func decodeContainerOpened(r *packet.Reader, dc DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &ContainerOpened{ContainerID: f.u8()}
	p.Item = f.item(dc)
	p.Name = f.str()
	p.Capacity = f.u8()
	p.HasParent = f.u8() != 0
	n := int(f.u8())
	for i := 0; i < n && f.err == nil; i++ {
		p.Items = append(p.Items, f.item(dc))
	}
	return p, f.err
}

// ContainerClosed closes a container window.
type ContainerClosed struct {
	Base
	ContainerID uint8
}

func (p *ContainerClosed) Type() Type { return TypeContainerClosed }

func (p *ContainerClosed) Encode(w *packet.Writer) {
	u8(w, byte(TypeContainerClosed))
	u8(w, p.ContainerID)
}

func decodeContainerClosed(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &ContainerClosed{ContainerID: f.u8()}
	return p, f.err
}

// ContainerItemAdd adds an item to the front of a container.
type ContainerItemAdd struct {
	Base
	ContainerID uint8
	Item        Item
}

func (p *ContainerItemAdd) Type() Type { return TypeContainerItemAdd }

func (p *ContainerItemAdd) Encode(w *packet.Writer) {
	u8(w, byte(TypeContainerItemAdd))
	u8(w, p.ContainerID)
	writeItem(w, p.Item)
}

func decodeContainerItemAdd(r *packet.Reader, dc DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &ContainerItemAdd{ContainerID: f.u8()}
	p.Item = f.item(dc)
	return p, f.err
}

// ContainerItemUpdate replaces the item in a container slot.
type ContainerItemUpdate struct {
	Base
	ContainerID uint8
	Slot        uint8
	Item        Item
}

func (p *ContainerItemUpdate) Type() Type { return TypeContainerItemUpdate }

func (p *ContainerItemUpdate) Encode(w *packet.Writer) {
	u8(w, byte(TypeContainerItemUpdate))
	u8(w, p.ContainerID)
	u8(w, p.Slot)
	writeItem(w, p.Item)
}

func decodeContainerItemUpdate(r *packet.Reader, dc DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &ContainerItemUpdate{ContainerID: f.u8(), Slot: f.u8()}
	p.Item = f.item(dc)
	return p, f.err
}

// ContainerItemRemove empties a container slot.
type ContainerItemRemove struct {
	Base
	ContainerID uint8
	Slot        uint8
}

func (p *ContainerItemRemove) Type() Type { return TypeContainerItemRemove }

func (p *ContainerItemRemove) Encode(w *packet.Writer) {
	u8(w, byte(TypeContainerItemRemove))
	u8(w, p.ContainerID)
	u8(w, p.Slot)
}

func decodeContainerItemRemove(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &ContainerItemRemove{ContainerID: f.u8(), Slot: f.u8()}
	return p, f.err
}

// EqItemAdd fills an equipment slot.
type EqItemAdd struct {
	Base
	Slot uint8
	Item Item
}

func (p *EqItemAdd) Type() Type { return TypeEqItemAdd }

func (p *EqItemAdd) Encode(w *packet.Writer) {
	u8(w, byte(TypeEqItemAdd))
	u8(w, p.Slot)
	writeItem(w, p.Item)
}

func decodeEqItemAdd(r *packet.Reader, dc DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &EqItemAdd{Slot: f.u8()}
	p.Item = f.item(dc)
	return p, f.err
}

// EqItemRemove empties an equipment slot.
type EqItemRemove struct {
	Base
	Slot uint8
}

func (p *EqItemRemove) Type() Type { return TypeEqItemRemove }

func (p *EqItemRemove) Encode(w *packet.Writer) {
	u8(w, byte(TypeEqItemRemove))
	u8(w, p.Slot)
}

func decodeEqItemRemove(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &EqItemRemove{Slot: f.u8()}
	return p, f.err
}

// TradeOffer is one line of an NPC's trade window.
type TradeOffer struct {
	ItemID    uint16
	SubType   uint8
	Name      string
	Weight    uint32
	BuyPrice  uint32
	SellPrice uint32
}

// NpcTradeList opens an NPC trade window.
type NpcTradeList struct {
	Base
	Offers []TradeOffer
}

func (p *NpcTradeList) Type() Type { return TypeNpcTradeList }

func (p *NpcTradeList) Encode(w *packet.Writer) {
	u8(w, byte(TypeNpcTradeList))
	u8(w, uint8(len(p.Offers)))
	for _, o := range p.Offers {
		w.WriteShort(o.ItemID)
		u8(w, o.SubType)
		w.WriteString(o.Name)
		w.WriteInt(o.Weight)
		w.WriteInt(o.BuyPrice)
		w.WriteInt(o.SellPrice)
	}
}

func decodeNpcTradeList(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &NpcTradeList{}
	n := int(f.u8())
	for i := 0; i < n && f.err == nil; i++ {
		p.Offers = append(p.Offers, TradeOffer{
			ItemID:    f.u16(),
			SubType:   f.u8(),
			Name:      f.str(),
			Weight:    f.u32(),
			BuyPrice:  f.u32(),
			SellPrice: f.u32(),
		})
	}
	return p, f.err
}

// ItemCount is an item id and how many the player carries.
type ItemCount struct {
	ItemID uint16
	Count  uint8
}

// NpcTradeGoldCount tells the trade window what the player can pay and sell.
type NpcTradeGoldCount struct {
	Base
	Gold  uint32
	Items []ItemCount
}

func (p *NpcTradeGoldCount) Type() Type { return TypeNpcTradeGoldCount }

func (p *NpcTradeGoldCount) Encode(w *packet.Writer) {
	u8(w, byte(TypeNpcTradeGoldCount))
	w.WriteInt(p.Gold)
	u8(w, uint8(len(p.Items)))
	for _, it := range p.Items {
		w.WriteShort(it.ItemID)
		u8(w, it.Count)
	}
}

func decodeNpcTradeGoldCount(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &NpcTradeGoldCount{Gold: f.u32()}
	n := int(f.u8())
	for i := 0; i < n && f.err == nil; i++ {
		p.Items = append(p.Items, ItemCount{ItemID: f.u16(), Count: f.u8()})
	}
	return p, f.err
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
