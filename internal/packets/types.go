// Package packets knows the shape of every logical packet the relay can
// decode. Tags collide across directions (0x14 is a logout from the client,
// a disconnect from the game server and the MOTD from the login server), so
// everything is keyed by Direction and tag.
package packets

import "fmt"

// Type is the one-byte tag that starts every logical packet.
type Type byte

func (t Type) String() string {
	return fmt.Sprintf("0x%02X", byte(t))
}

// Direction says which side sent a packet.
type Direction int

const (
	// Incoming is game server to client.
	Incoming Direction = iota
	// Outgoing is client to server.
	Outgoing
	// LoginResponse is login server to client.
	LoginResponse

	numDirections
)

func (d Direction) String() string {
	switch d {
	case Incoming:
		return "incoming"
	case Outgoing:
		return "outgoing"
	case LoginResponse:
		return "login"
	default:
		return "unknown"
	}
}

// Incoming (game server -> client).
const (
	TypeSelfAppear          Type = 0x0A
	TypeGameDisconnect      Type = 0x14
	TypeInformationBox      Type = 0x15
	TypeWaitingList         Type = 0x16
	TypePing                Type = 0x1E
	TypeDeath               Type = 0x28
	TypeMapItemAdd          Type = 0x6A
	TypeMapItemUpdate       Type = 0x6B
	TypeMapItemRemove       Type = 0x6C
	TypeCreatureMove        Type = 0x6D
	TypeContainerOpened     Type = 0x6E
	TypeContainerClosed     Type = 0x6F
	TypeContainerItemAdd    Type = 0x70
	TypeContainerItemUpdate Type = 0x71
	TypeContainerItemRemove Type = 0x72
	TypeEqItemAdd           Type = 0x78
	TypeEqItemRemove        Type = 0x79
	TypeNpcTradeList        Type = 0x7A
	TypeNpcTradeGoldCount   Type = 0x7B
	TypeWorldLight          Type = 0x82
	TypeTileAnimation       Type = 0x83
	TypeAnimatedText        Type = 0x84
	TypeProjectile          Type = 0x85
	TypeCreatureSquare      Type = 0x86
	TypeCreatureHealth      Type = 0x8C
	TypeCreatureLight       Type = 0x8D
	TypeCreatureOutfit      Type = 0x8E
	TypeCreatureSpeed       Type = 0x8F
	TypeCreatureSkull       Type = 0x90
	TypeCreatureShield      Type = 0x91
	TypeBookOpen            Type = 0x96
	TypeStatusUpdate        Type = 0xA0
	TypeSkillUpdate         Type = 0xA1
	TypeFlagUpdate          Type = 0xA2
	TypeChatMessage         Type = 0xAA
	TypeChannelList         Type = 0xAB
	TypeChannelOpen         Type = 0xAC
	TypePrivateChannelOpen  Type = 0xAD
	TypeStatusMessage       Type = 0xB4
	TypeCancelAutoWalk      Type = 0xB5
	TypeVipAdd              Type = 0xD2
	TypeVipLogin            Type = 0xD3
	TypeVipLogout           Type = 0xD4
)

// Outgoing (client -> server). The first two are never decoded: their body is
// an RSA block, only the cleartext tag is inspected.
const (
	TypeLoginRequest Type = 0x01
	TypeGameLogin    Type = 0x0A
	TypeLogout       Type = 0x14
	TypeClientPing   Type = 0x1E
	TypePlayerSpeech Type = 0x96
)

// LoginResponse (login server -> client).
const (
	TypeLoginError       Type = 0x0A
	TypeLoginErrorNew    Type = 0x0B
	TypeMotd             Type = 0x14
	TypeLoginWaitingList Type = 0x16
	TypeCharList         Type = 0x64
)
