package relay

import (
	"github.com/udisondev/tibiarelay/internal/crypto"
)

// ClientState is the running game client as seen by the relay: the values it
// reads from the client process and the one it writes back. Implementations
// may also satisfy packets.ItemTraits.
type ClientState interface {
	// ReadCipherKey is called for every frame; the key is never cached.
	ReadCipherKey() (crypto.Key, error)
	ReadSelectedCharacterIndex() (byte, error)
	ReadPlayerHealth() (int, error)
	HasBattleFlag() (bool, error)
	IsLoggedIn() (bool, error)
	// SetLocalRelayEndpoint points the client's login server list at the relay.
	SetLocalRelayEndpoint(host string, port int) error
}

// Phase is where the relay is in the connection lifecycle.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseAwaitingClientLoginRequest
	PhaseRelayingLoginHandshake
	PhaseAwaitingCharacterList
	PhaseCharacterListRewritten
	PhaseAwaitingClientReconnect
	PhaseConnectingToGameWorld
	PhaseRelayingLoggedOut
	PhaseRelayingLoggedIn
	PhaseCrashed
	PhaseRestarting
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseAwaitingClientLoginRequest:
		return "AWAITING_CLIENT_LOGIN_REQUEST"
	case PhaseRelayingLoginHandshake:
		return "RELAYING_LOGIN_HANDSHAKE"
	case PhaseAwaitingCharacterList:
		return "AWAITING_CHARACTER_LIST"
	case PhaseCharacterListRewritten:
		return "CHARACTER_LIST_REWRITTEN"
	case PhaseAwaitingClientReconnect:
		return "AWAITING_CLIENT_RECONNECT"
	case PhaseConnectingToGameWorld:
		return "CONNECTING_TO_GAME_WORLD"
	case PhaseRelayingLoggedOut:
		return "RELAYING_LOGGED_OUT"
	case PhaseRelayingLoggedIn:
		return "RELAYING_LOGGED_IN"
	case PhaseCrashed:
		return "CRASHED"
	case PhaseRestarting:
		return "RESTARTING"
	default:
		return "UNKNOWN"
	}
}
