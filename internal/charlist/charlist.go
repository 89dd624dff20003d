// Package charlist rewrites the login server's character list so every
// world points at the local relay, and remembers where each one really is.
package charlist

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/udisondev/tibiarelay/internal/constants"
	"github.com/udisondev/tibiarelay/internal/model"
	"github.com/udisondev/tibiarelay/internal/packets"
)

var (
	// ErrNotCharacterList is returned when the response carries no character list.
	ErrNotCharacterList = errors.New("charlist: response has no character list")
	// ErrNoSuchCharacter is returned for a selection index outside the list.
	ErrNoSuchCharacter = errors.New("charlist: no character at index")
)

// Outcome classifies a login server response by its first tag.
type Outcome int

const (
	OutcomeOther Outcome = iota
	OutcomeCharacterList
	OutcomeBadLogin
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCharacterList:
		return "CHARACTER_LIST"
	case OutcomeBadLogin:
		return "BAD_LOGIN"
	default:
		return "OTHER"
	}
}

// Classify looks at the first logical packet of a decrypted login response.
func Classify(msg []byte) Outcome {
	if len(msg) <= constants.MessageHeaderSize {
		return OutcomeOther
	}
	switch packets.Type(msg[constants.MessageHeaderSize]) {
	case packets.TypeLoginError, packets.TypeLoginErrorNew:
		return OutcomeBadLogin
	case packets.TypeMotd, packets.TypeCharList:
		return OutcomeCharacterList
	default:
		return OutcomeOther
	}
}

// Entry is one character with both the endpoint the login server sent and
// the one the client was given instead.
type Entry struct {
	Name     string
	World    string
	Original model.Endpoint
	Local    model.Endpoint
}

// List is a parsed login response.
type List struct {
	Motd        string
	PremiumDays uint16
	Entries     []Entry
}

// Endpoint returns the real game world of the character at a selection index.
func (l *List) Endpoint(index int) (model.Endpoint, error) {
	if index < 0 || index >= len(l.Entries) {
		return model.Endpoint{}, fmt.Errorf("%w %d (have %d)", ErrNoSuchCharacter, index, len(l.Entries))
	}
	return l.Entries[index].Original, nil
}

// Rewriter parses and rewrites login responses.
type Rewriter struct {
	reg *packets.Registry
}

// NewRewriter creates a Rewriter decoding with reg.
func NewRewriter(reg *packets.Registry) *Rewriter {
	return &Rewriter{reg: reg}
}

type located struct {
	list   *packets.CharList
	offset int // of the CharList tag within msg
	motd   string
}

func (rw *Rewriter) walk(msg []byte) (located, error) {
	var out located
	if len(msg) < constants.MessageHeaderSize {
		return out, fmt.Errorf("login response of %d bytes: %w", len(msg), ErrNotCharacterList)
	}
	end := constants.MessageHeaderSize + int(binary.LittleEndian.Uint16(msg))
	if end > len(msg) {
		return out, fmt.Errorf("login response declares %d bytes, has %d", end, len(msg))
	}

	for pos := constants.MessageHeaderSize; pos < end; {
		p, err := rw.reg.Decode(packets.LoginResponse, msg[pos:end], packets.DecodeContext{})
		if err != nil {
			return out, fmt.Errorf("login response at %d: %w", pos, err)
		}
		switch v := p.(type) {
		case *packets.Text:
			if v.Tag == packets.TypeMotd {
				out.motd = v.Message
			}
		case *packets.CharList:
			out.list, out.offset = v, pos
			return out, nil
		}
		pos += p.Index()
	}
	return out, ErrNotCharacterList
}

// Parse reads the character list without changing msg.
func (rw *Rewriter) Parse(msg []byte) (*List, error) {
	loc, err := rw.walk(msg)
	if err != nil {
		return nil, err
	}
	list := &List{Motd: loc.motd, PremiumDays: loc.list.PremiumDays}
	for _, c := range loc.list.Characters {
		orig := model.EndpointFromIPv4(c.IP, c.Port)
		list.Entries = append(list.Entries, Entry{Name: c.Name, World: c.World, Original: orig, Local: orig})
	}
	return list, nil
}

// Rewrite points every character at local, overwriting the IP and port
// fields of msg in place. The message length does not change. The returned
// list keeps the original endpoints by selection index.
func (rw *Rewriter) Rewrite(msg []byte, local model.Endpoint) (*List, error) {
	ip, err := local.IPv4()
	if err != nil {
		return nil, fmt.Errorf("rewriting character list: %w", err)
	}
	if local.Port <= 0 || local.Port > 0xFFFF {
		return nil, fmt.Errorf("rewriting character list: port %d out of range", local.Port)
	}

	loc, err := rw.walk(msg)
	if err != nil {
		return nil, err
	}
	list := &List{Motd: loc.motd, PremiumDays: loc.list.PremiumDays}
	for _, c := range loc.list.Characters {
		at := loc.offset + c.AddrOffset
		copy(msg[at:at+4], ip[:])
		binary.LittleEndian.PutUint16(msg[at+4:], uint16(local.Port))
		list.Entries = append(list.Entries, Entry{
			Name:     c.Name,
			World:    c.World,
			Original: model.EndpointFromIPv4(c.IP, c.Port),
			Local:    local,
		})
	}
	return list, nil
}
