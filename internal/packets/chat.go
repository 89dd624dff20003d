package packets

import (
	"github.com/udisondev/tibiarelay/internal/model"
	"github.com/udisondev/tibiarelay/internal/packet"
)

// SpeakType is the speech class of a chat line.
type SpeakType uint8

const (
	SpeakSay         SpeakType = 0x01
	SpeakWhisper     SpeakType = 0x02
	SpeakYell        SpeakType = 0x03
	SpeakPrivatePN   SpeakType = 0x04
	SpeakPrivateNP   SpeakType = 0x05
	SpeakPrivate     SpeakType = 0x06
	SpeakChannelY    SpeakType = 0x07
	SpeakChannelW    SpeakType = 0x08
	SpeakRVRChannel  SpeakType = 0x09
	SpeakRVRAnswer   SpeakType = 0x0A
	SpeakRVRContinue SpeakType = 0x0B
	SpeakBroadcast   SpeakType = 0x0C
	SpeakChannelR1   SpeakType = 0x0D
	SpeakPrivateRed  SpeakType = 0x0E
	SpeakChannelO    SpeakType = 0x0F
	SpeakChannelR2   SpeakType = 0x11
	SpeakMonsterSay  SpeakType = 0x13
	SpeakMonsterYell SpeakType = 0x14
)

// HasLocation reports whether the line is said on a tile.
func (s SpeakType) HasLocation() bool {
	switch s {
	case SpeakSay, SpeakWhisper, SpeakYell, SpeakPrivatePN, SpeakPrivateNP, SpeakMonsterSay, SpeakMonsterYell:
		return true
	}
	return false
}

// HasChannel reports whether the line belongs to a chat channel.
func (s SpeakType) HasChannel() bool {
	switch s {
	case SpeakChannelY, SpeakChannelW, SpeakChannelR1, SpeakChannelO, SpeakChannelR2:
		return true
	}
	return false
}

// HasReceiver reports whether a client-sent line names its recipient.
func (s SpeakType) HasReceiver() bool {
	switch s {
	case SpeakPrivate, SpeakPrivateRed, SpeakRVRAnswer:
		return true
	}
	return false
}

// ChatMessage is a line somebody said, as the server shows it.
type ChatMessage struct {
	Base
	StatementID uint32
	Sender      string
	Level       uint16
	Speak       SpeakType
	Location    model.Location // HasLocation
	ChannelID   uint16         // HasChannel
	ReportTime  uint32         // SpeakRVRChannel
	Message     string
}

func (p *ChatMessage) Type() Type { return TypeChatMessage }

func (p *ChatMessage) Encode(w *packet.Writer) {
	u8(w, byte(TypeChatMessage))
	w.WriteInt(p.StatementID)
	w.WriteString(p.Sender)
	w.WriteShort(p.Level)
	u8(w, byte(p.Speak))
	switch {
	case p.Speak.HasLocation():
		w.WriteLocation(p.Location)
	case p.Speak.HasChannel():
		w.WriteShort(p.ChannelID)
	case p.Speak == SpeakRVRChannel:
		w.WriteInt(p.ReportTime)
	}
	w.WriteString(p.Message)
}

func decodeChatMessage(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &ChatMessage{StatementID: f.u32(), Sender: f.str(), Level: f.u16(), Speak: SpeakType(f.u8())}
	switch {
	case p.Speak.HasLocation():
		p.Location = f.loc()
	case p.Speak.HasChannel():
		p.ChannelID = f.u16()
	case p.Speak == SpeakRVRChannel:
		p.ReportTime = f.u32()
	}
	p.Message = f.str()
	return p, f.err
}

// Channel is one entry of the channel list.
type Channel struct {
	ID   uint16
	Name string
}

// ChannelList answers the client's request for channels.
type ChannelList struct {
	Base
	Channels []Channel
}

func (p *ChannelList) Type() Type { return TypeChannelList }

func (p *ChannelList) Encode(w *packet.Writer) {
	u8(w, byte(TypeChannelList))
	u8(w, uint8(len(p.Channels)))
	for _, c := range p.Channels {
		w.WriteShort(c.ID)
		w.WriteString(c.Name)
	}
}

func decodeChannelList(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &ChannelList{}
	n := int(f.u8())
	for i := 0; i < n && f.err == nil; i++ {
		p.Channels = append(p.Channels, Channel{ID: f.u16(), Name: f.str()})
	}
	return p, f.err
}

// ChannelOpen opens a channel tab.
type ChannelOpen struct {
	Base
	ChannelID uint16
	Name      string
}

func (p *ChannelOpen) Type() Type { return TypeChannelOpen }

func (p *ChannelOpen) Encode(w *packet.Writer) {
	u8(w, byte(TypeChannelOpen))
	w.WriteShort(p.ChannelID)
	w.WriteString(p.Name)
}

func decodeChannelOpen(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &ChannelOpen{ChannelID: f.u16(), Name: f.str()}
	return p, f.err
}

// PrivateChannelOpen opens a private conversation tab.
type PrivateChannelOpen struct {
	Base
	Name string
}

func (p *PrivateChannelOpen) Type() Type { return TypePrivateChannelOpen }

func (p *PrivateChannelOpen) Encode(w *packet.Writer) {
	u8(w, byte(TypePrivateChannelOpen))
	w.WriteString(p.Name)
}

func decodePrivateChannelOpen(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &PrivateChannelOpen{Name: f.str()}
	return p, f.err
}

// StatusMessage is a line in the status bar or server log.
type StatusMessage struct {
	Base
	Class   uint8
	Message string
}

func (p *StatusMessage) Type() Type { return TypeStatusMessage }

func (p *StatusMessage) Encode(w *packet.Writer) {
	u8(w, byte(TypeStatusMessage))
	u8(w, p.Class)
	w.WriteString(p.Message)
}

func decodeStatusMessage(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &StatusMessage{Class: f.u8(), Message: f.str()}
	return p, f.err
}

// PlayerSpeech is a line the player typed, on its way to the server.
type PlayerSpeech struct {
	Base
	Speak     SpeakType
	Receiver  string // HasReceiver
	ChannelID uint16 // HasChannel
	Message   string
}

func (p *PlayerSpeech) Type() Type { return TypePlayerSpeech }

func (p *PlayerSpeech) Encode(w *packet.Writer) {
	u8(w, byte(TypePlayerSpeech))
	u8(w, byte(p.Speak))
	switch {
	case p.Speak.HasReceiver():
		w.WriteString(p.Receiver)
	case p.Speak.HasChannel():
		w.WriteShort(p.ChannelID)
	}
	w.WriteString(p.Message)
}

func decodePlayerSpeech(r *packet.Reader, _ DecodeContext) (Packet, error) {
	f := fields{r: r}
	p := &PlayerSpeech{Speak: SpeakType(f.u8())}
	switch {
	case p.Speak.HasReceiver():
		p.Receiver = f.str()
	case p.Speak.HasChannel():
		p.ChannelID = f.u16()
	}
	p.Message = f.str()
	return p, f.err
}
