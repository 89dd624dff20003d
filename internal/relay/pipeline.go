package relay

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/tibiarelay/internal/constants"
	"github.com/udisondev/tibiarelay/internal/crypto"
	"github.com/udisondev/tibiarelay/internal/events"
	"github.com/udisondev/tibiarelay/internal/packet"
	"github.com/udisondev/tibiarelay/internal/packets"
	"github.com/udisondev/tibiarelay/internal/protocol"
)

// duplex relays both directions until one side ends the session.
func (e *Engine) duplex(ctx context.Context, s *Session) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(s.client.writePump)
	g.Go(s.server.writePump)
	g.Go(func() error {
		return e.readLoop(gctx, s.client, func(frame []byte) error {
			return e.handleClientFrame(gctx, s, frame)
		})
	})
	g.Go(func() error {
		return e.readLoop(gctx, s.server, func(frame []byte) error {
			return e.handleServerFrame(gctx, s, frame)
		})
	})
	g.Go(func() error {
		<-gctx.Done()
		_ = s.client.Close()
		_ = s.server.Close()
		return nil
	})

	return g.Wait()
}

// readLoop cuts the leg's byte stream into frames and hands each to handle.
// Never returns nil.
func (e *Engine) readLoop(ctx context.Context, from *leg, handle func([]byte) error) error {
	var asm protocol.Assembler
	buf := make([]byte, constants.DefaultReadBufSize)

	for {
		n, err := from.conn.Read(buf)
		if n > 0 {
			frames, ferr := asm.Feed(buf[:n])
			for _, f := range frames {
				if herr := handle(f); herr != nil {
					return herr
				}
			}
			if ferr != nil {
				return fmt.Errorf("%w: %w", from.fail, ferr)
			}
		}
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %w", from.fail, ctx.Err())
			}
			return fmt.Errorf("%w: %w", from.fail, err)
		}
	}
}

func (e *Engine) cipherKey(fail error) (crypto.Key, error) {
	key, err := e.state.ReadCipherKey()
	if err != nil {
		return key, fmt.Errorf("%w: reading cipher key: %w", fail, err)
	}
	return key, nil
}

// handleClientFrame relays one client frame to the game server.
func (e *Engine) handleClientFrame(ctx context.Context, s *Session, frame []byte) error {
	key, err := e.cipherKey(errClientCrashed)
	if err != nil {
		return err
	}

	if e.loggedIn(s) {
		if tag, err := crypto.PeekType(frame, key, e.cfg.Checksum); err == nil && packets.Type(tag) == packets.TypeLogout {
			return e.handleLogout(ctx, s, frame)
		}
	}

	_, err = e.relayFrame(ctx, s, packets.Outgoing, frame, key, s.server)
	return err
}

// loggedIn reports whether either the session saw the player appear or the
// client says it is in game.
func (e *Engine) loggedIn(s *Session) bool {
	if s.loggedIn.Load() {
		return true
	}
	on, err := e.state.IsLoggedIn()
	if err != nil {
		s.log.Warn("reading logged-in flag", "error", err)
		return false
	}
	return on
}

// handleLogout decides what a logout request means: accepting death,
// leaving the game or a logout the server would refuse mid-battle.
func (e *Engine) handleLogout(ctx context.Context, s *Session, frame []byte) error {
	e.metrics.RecordFrame(packets.Outgoing.String())

	if hp, err := e.state.ReadPlayerHealth(); err == nil && hp == 0 {
		s.log.Info("death accepted")
		e.metrics.RecordPacket(packets.Outgoing.String(), false)
		e.notify(s, events.PlayerDeathAccept, "")
		return errDeathAccepted
	}

	battle, err := e.state.HasBattleFlag()
	if err != nil {
		s.log.Warn("reading battle flag", "error", err)
	}
	if battle {
		s.log.Debug("logout dropped while in battle")
		e.metrics.RecordPacket(packets.Outgoing.String(), false)
		return nil
	}

	e.metrics.RecordPacket(packets.Outgoing.String(), true)
	if err := s.server.Send(ctx, frame); err != nil {
		return fmt.Errorf("%w: %w", errServerClosed, err)
	}
	if err := s.server.Flush(ctx); err != nil {
		return fmt.Errorf("%w: %w", errServerClosed, err)
	}
	e.notify(s, events.LogOut, "")
	return errLoggedOut
}

// handleServerFrame relays one game server frame to the client and reacts
// to login and rejection packets.
func (e *Engine) handleServerFrame(ctx context.Context, s *Session, frame []byte) error {
	key, err := e.cipherKey(errServerClosed)
	if err != nil {
		return err
	}
	decoded, err := e.relayFrame(ctx, s, packets.Incoming, frame, key, s.client)
	if err != nil {
		return err
	}

	for _, p := range decoded {
		switch p.Type() {
		case packets.TypeSelfAppear:
			if s.loggedIn.CompareAndSwap(false, true) {
				e.setPhase(PhaseRelayingLoggedIn)
				s.log.Info("player logged in")
				s.after(e.cfg.LoginNotifyDelay, func() { e.notify(s, events.LogIn, "") })
			}
		case packets.TypeGameDisconnect, packets.TypeWaitingList:
			if err := s.client.Flush(ctx); err != nil {
				return fmt.Errorf("%w: %w", errClientCrashed, err)
			}
			msg := ""
			if t, ok := p.(*packets.Text); ok {
				msg = t.Message
			}
			s.log.Info("game server rejected the session", "type", p.Type().String(), "message", msg)
			return errGameRejected
		}
	}
	return nil
}

// relayFrame decrypts a frame, runs taps and observers over every logical
// packet and forwards what survives to the other leg. It returns the packets
// it could decode.
//
// If nothing was vetoed the original frame goes out unchanged. Otherwise each
// kept packet is re-encrypted as a message of its own, and an undecodable
// remainder as one more.
func (e *Engine) relayFrame(ctx context.Context, s *Session, dir packets.Direction, frame []byte, key crypto.Key, to *leg) ([]packets.Packet, error) {
	dirName := dir.String()
	e.metrics.RecordFrame(dirName)

	msg, err := crypto.Decrypt(frame, key, e.cfg.Checksum)
	if err != nil {
		if !errors.Is(err, crypto.ErrKeyMismatch) && !errors.Is(err, crypto.ErrChecksum) && !errors.Is(err, crypto.ErrShortBuffer) {
			return nil, err
		}
		e.metrics.RecordCipherError(dirName)
		s.log.Debug("frame undecryptable, forwarding as is", "direction", dirName, "error", err)
		return nil, e.forward(ctx, to, frame)
	}
	e.events.Tap(events.TapContext{SessionID: s.ID, Direction: dir, Message: msg})

	payload := msg[constants.MessageHeaderSize:]
	dc := packets.DecodeContext{Checksum: e.cfg.Checksum, Items: e.items}

	var (
		decoded []packets.Packet
		kept    [][]byte
		vetoed  bool
	)
	for pos := 0; pos < len(payload); {
		p, err := e.packets.Decode(dir, payload[pos:], dc)
		if err != nil {
			e.metrics.RecordUnknown(dirName)
			s.log.Debug("forwarding opaque remainder", "direction", dirName, "offset", pos, "error", err)
			kept = append(kept, payload[pos:])
			break
		}
		decoded = append(decoded, p)

		forward := e.events.Dispatch(dir, p)
		e.metrics.RecordPacket(dirName, forward)
		if forward {
			kept = append(kept, payload[pos:pos+p.Index()])
		} else {
			vetoed = true
		}
		pos += p.Index()
	}

	if !vetoed {
		return decoded, e.forward(ctx, to, frame)
	}
	for _, body := range kept {
		out, err := crypto.Encrypt(wrapMessage(body), key, e.cfg.Checksum)
		if err != nil {
			return decoded, fmt.Errorf("re-encrypting %s packet: %w", dirName, err)
		}
		if err := e.forward(ctx, to, out); err != nil {
			return decoded, err
		}
	}
	return decoded, nil
}

func (e *Engine) forward(ctx context.Context, to *leg, frame []byte) error {
	if err := to.Send(ctx, frame); err != nil {
		return fmt.Errorf("%w: %w", to.fail, err)
	}
	return nil
}

// wrapMessage prefixes body with its u16 length.
func wrapMessage(body []byte) []byte {
	w := packet.NewMessage()
	w.WriteBytes(body)
	return w.Message()
}
