package packets

import "github.com/udisondev/tibiarelay/internal/packet"

// Text is any packet whose whole body is one string: game disconnect,
// information box, login errors, the MOTD.
type Text struct {
	Base
	Tag     Type
	Message string
}

func (p *Text) Type() Type { return p.Tag }

func (p *Text) Encode(w *packet.Writer) {
	u8(w, byte(p.Tag))
	w.WriteString(p.Message)
}

func textDecoder(tag Type) Decoder {
	return func(r *packet.Reader, _ DecodeContext) (Packet, error) {
		f := fields{r: r}
		p := &Text{Tag: tag, Message: f.str()}
		return p, f.err
	}
}

// WaitingList tells the client to retry after Retry seconds.
type WaitingList struct {
	Base
	Tag     Type
	Message string
	Retry   uint8
}

func (p *WaitingList) Type() Type { return p.Tag }

func (p *WaitingList) Encode(w *packet.Writer) {
	u8(w, byte(p.Tag))
	w.WriteString(p.Message)
	u8(w, p.Retry)
}

func waitingListDecoder(tag Type) Decoder {
	return func(r *packet.Reader, _ DecodeContext) (Packet, error) {
		f := fields{r: r}
		p := &WaitingList{Tag: tag, Message: f.str(), Retry: f.u8()}
		return p, f.err
	}
}

// Empty is a packet that is only its tag: ping, death, logout.
type Empty struct {
	Base
	Tag Type
}

func (p *Empty) Type() Type { return p.Tag }

func (p *Empty) Encode(w *packet.Writer) {
	u8(w, byte(p.Tag))
}

func emptyDecoder(tag Type) Decoder {
	return func(*packet.Reader, DecodeContext) (Packet, error) {
		return &Empty{Tag: tag}, nil
	}
}
