package packets

import (
	"fmt"
	"slices"
	"sync"

	"github.com/udisondev/tibiarelay/internal/packet"
)

// Entry is one registered packet type.
type Entry struct {
	Direction Direction
	Tag       Type
	Name      string
	Decode    Decoder
}

// Registry maps (direction, tag) to a decoder.
type Registry struct {
	mu      sync.RWMutex
	entries [numDirections]map[Type]Entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.entries {
		r.entries[i] = make(map[Type]Entry)
	}
	return r
}

// Register adds or replaces the decoder for a tag.
func (r *Registry) Register(dir Direction, tag Type, name string, dec Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[dir][tag] = Entry{Direction: dir, Tag: tag, Name: name, Decode: dec}
}

// Lookup returns the entry for a tag.
func (r *Registry) Lookup(dir Direction, tag Type) (Entry, bool) {
	if dir < 0 || dir >= numDirections {
		return Entry{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[dir][tag]
	return e, ok
}

// Name returns the registered name of a tag, or its hex form.
func (r *Registry) Name(dir Direction, tag Type) string {
	if e, ok := r.Lookup(dir, tag); ok {
		return e.Name
	}
	return tag.String()
}

// Entries lists one direction's entries ordered by tag.
func (r *Registry) Entries(dir Direction) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries[dir]))
	for _, e := range r.entries[dir] {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return int(a.Tag) - int(b.Tag) })
	return out
}

// Decode decodes the logical packet at the start of buf (buf[0] is the tag).
// The returned packet's Index tells where the next one starts.
func (r *Registry) Decode(dir Direction, buf []byte, dc DecodeContext) (Packet, error) {
	if len(buf) == 0 {
		return nil, fmt.Errorf("decode %s: %w", dir, packet.ErrUnderflow)
	}
	tag := Type(buf[0])
	e, ok := r.Lookup(dir, tag)
	if !ok {
		return nil, fmt.Errorf("decode %s %s: %w", dir, tag, ErrUnknownType)
	}

	rd := packet.NewReader(buf)
	_ = rd.Skip(1)
	p, err := e.Decode(rd, dc)
	if err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", dir, e.Name, err)
	}
	if s, ok := p.(interface{ setIndex(int) }); ok {
		s.setIndex(rd.Index())
	}
	return p, nil
}

// DefaultRegistry returns a registry with every packet this package knows.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	in := []struct {
		tag  Type
		name string
		dec  Decoder
	}{
		{TypeSelfAppear, "SelfAppear", decodeSelfAppear},
		{TypeGameDisconnect, "GameDisconnect", textDecoder(TypeGameDisconnect)},
		{TypeInformationBox, "InformationBox", textDecoder(TypeInformationBox)},
		{TypeWaitingList, "WaitingList", waitingListDecoder(TypeWaitingList)},
		{TypePing, "Ping", emptyDecoder(TypePing)},
		{TypeDeath, "Death", emptyDecoder(TypeDeath)},
		{TypeMapItemAdd, "MapItemAdd", decodeMapItemAdd},
		{TypeMapItemUpdate, "MapItemUpdate", decodeMapItemUpdate},
		{TypeMapItemRemove, "MapItemRemove", decodeMapItemRemove},
		{TypeCreatureMove, "CreatureMove", decodeCreatureMove},
		{TypeContainerOpened, "ContainerOpened", decodeContainerOpened},
		{TypeContainerClosed, "ContainerClosed", decodeContainerClosed},
		{TypeContainerItemAdd, "ContainerItemAdd", decodeContainerItemAdd},
		{TypeContainerItemUpdate, "ContainerItemUpdate", decodeContainerItemUpdate},
		{TypeContainerItemRemove, "ContainerItemRemove", decodeContainerItemRemove},
		{TypeEqItemAdd, "EqItemAdd", decodeEqItemAdd},
		{TypeEqItemRemove, "EqItemRemove", decodeEqItemRemove},
		{TypeNpcTradeList, "NpcTradeList", decodeNpcTradeList},
		{TypeNpcTradeGoldCount, "NpcTradeGoldCount", decodeNpcTradeGoldCount},
		{TypeWorldLight, "WorldLight", decodeWorldLight},
		{TypeTileAnimation, "TileAnimation", decodeTileAnimation},
		{TypeAnimatedText, "AnimatedText", decodeAnimatedText},
		{TypeProjectile, "Projectile", decodeProjectile},
		{TypeCreatureSquare, "CreatureSquare", decodeCreatureSquare},
		{TypeCreatureHealth, "CreatureHealth", decodeCreatureHealth},
		{TypeCreatureLight, "CreatureLight", decodeCreatureLight},
		{TypeCreatureOutfit, "CreatureOutfit", decodeCreatureOutfit},
		{TypeCreatureSpeed, "CreatureSpeed", decodeCreatureSpeed},
		{TypeCreatureSkull, "CreatureSkull", decodeCreatureSkull},
		{TypeCreatureShield, "CreatureShield", decodeCreatureShield},
		{TypeBookOpen, "BookOpen", decodeBookOpen},
		{TypeStatusUpdate, "StatusUpdate", decodeStatusUpdate},
		{TypeSkillUpdate, "SkillUpdate", decodeSkillUpdate},
		{TypeFlagUpdate, "FlagUpdate", decodeFlagUpdate},
		{TypeChatMessage, "ChatMessage", decodeChatMessage},
		{TypeChannelList, "ChannelList", decodeChannelList},
		{TypeChannelOpen, "ChannelOpen", decodeChannelOpen},
		{TypePrivateChannelOpen, "PrivateChannelOpen", decodePrivateChannelOpen},
		{TypeStatusMessage, "StatusMessage", decodeStatusMessage},
		{TypeCancelAutoWalk, "CancelAutoWalk", decodeCancelAutoWalk},
		{TypeVipAdd, "VipAdd", decodeVipAdd},
		{TypeVipLogin, "VipLogin", vipStatusDecoder(TypeVipLogin)},
		{TypeVipLogout, "VipLogout", vipStatusDecoder(TypeVipLogout)},
	}
	for _, e := range in {
		r.Register(Incoming, e.tag, e.name, e.dec)
	}

	r.Register(Outgoing, TypeLogout, "Logout", emptyDecoder(TypeLogout))
	r.Register(Outgoing, TypeClientPing, "ClientPing", emptyDecoder(TypeClientPing))
	r.Register(Outgoing, TypePlayerSpeech, "PlayerSpeech", decodePlayerSpeech)

	r.Register(LoginResponse, TypeLoginError, "LoginError", textDecoder(TypeLoginError))
	r.Register(LoginResponse, TypeLoginErrorNew, "LoginErrorNew", textDecoder(TypeLoginErrorNew))
	r.Register(LoginResponse, TypeMotd, "Motd", textDecoder(TypeMotd))
	r.Register(LoginResponse, TypeLoginWaitingList, "LoginWaitingList", waitingListDecoder(TypeLoginWaitingList))
	r.Register(LoginResponse, TypeCharList, "CharList", decodeCharList)

	return r
}
