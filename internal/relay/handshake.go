package relay

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/udisondev/tibiarelay/internal/charlist"
	"github.com/udisondev/tibiarelay/internal/crypto"
	"github.com/udisondev/tibiarelay/internal/events"
	"github.com/udisondev/tibiarelay/internal/packets"
	"github.com/udisondev/tibiarelay/internal/protocol"
)

// runSession drives one client from its first frame to the end of the game
// relay. The returned error is the outcome.
func (e *Engine) runSession(ctx context.Context, s *Session, conn net.Conn) error {
	first, err := e.readFirst(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return err
	}

	switch tag, _ := protocol.PlainType(first, e.cfg.Checksum); packets.Type(tag) {
	case packets.TypeLoginRequest:
		return e.relayLogin(ctx, s, conn, first)
	case packets.TypeGameLogin:
		return e.relayGame(ctx, s, conn, first)
	default:
		_ = conn.Close()
		return fmt.Errorf("%w %s", errUnexpectedFirst, packets.Type(tag))
	}
}

// readFirst reads the unencrypted first frame of a new client connection.
func (e *Engine) readFirst(ctx context.Context, conn net.Conn) ([]byte, error) {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	frame, err := protocol.ReadFrame(conn)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("reading first client frame: %w", err)
	}
	if _, err := protocol.PlainType(frame, e.cfg.Checksum); err != nil {
		return nil, err
	}
	return frame, nil
}

// dialLogin tries every configured login server in order.
func (e *Engine) dialLogin(ctx context.Context) (net.Conn, error) {
	var errs []error
	for _, ep := range e.loginServers {
		conn, err := e.dial(ctx, ep)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.log.Warn("login server unreachable", "server", ep.String(), "error", err)
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("no login server reachable: %w", errors.Join(errs...))
}

// writeClient is writeDirect for the client connection: a failure is a crash.
func (e *Engine) writeClient(conn net.Conn, frame []byte) error {
	if err := e.writeDirect(conn, frame); err != nil {
		return fmt.Errorf("%w: %w", errClientCrashed, err)
	}
	return nil
}

func (e *Engine) writeDirect(conn net.Conn, frame []byte) error {
	if e.cfg.WriteTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(e.cfg.WriteTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	return protocol.WriteFrame(conn, frame)
}

// relayLogin forwards the login request, rewrites the character list and
// waits for the client to come back for the game world.
func (e *Engine) relayLogin(ctx context.Context, s *Session, client net.Conn, first []byte) error {
	e.setPhase(PhaseRelayingLoginHandshake)
	defer client.Close()

	server, err := e.dialLogin(ctx)
	if err != nil {
		return err
	}
	defer server.Close()
	stop := context.AfterFunc(ctx, func() {
		_ = client.Close()
		_ = server.Close()
	})
	defer stop()

	if err := e.writeDirect(server, first); err != nil {
		return fmt.Errorf("forwarding login request: %w", err)
	}

	e.setPhase(PhaseAwaitingCharacterList)
	if e.cfg.DialTimeout > 0 {
		_ = server.SetReadDeadline(time.Now().Add(e.cfg.DialTimeout))
	}
	frame, err := protocol.ReadFrame(server)
	if err != nil {
		return fmt.Errorf("reading login response: %w", err)
	}
	e.metrics.RecordFrame(packets.LoginResponse.String())

	key, err := e.state.ReadCipherKey()
	if err != nil {
		return fmt.Errorf("reading cipher key: %w", err)
	}
	msg, err := crypto.Decrypt(frame, key, e.cfg.Checksum)
	if err != nil {
		e.metrics.RecordCipherError(packets.LoginResponse.String())
		s.log.Warn("login response undecryptable, forwarding as is", "error", err)
		if werr := e.writeClient(client, frame); werr != nil {
			return werr
		}
		return fmt.Errorf("%w: %w", errLoginUnexpected, err)
	}
	e.events.Tap(events.TapContext{SessionID: s.ID, Direction: packets.LoginResponse, Message: msg})

	switch charlist.Classify(msg) {
	case charlist.OutcomeCharacterList:
		list, err := e.rewriter.Rewrite(msg, e.local)
		if err != nil {
			if werr := e.writeClient(client, frame); werr != nil {
				return werr
			}
			return fmt.Errorf("%w: %w", errLoginUnexpected, err)
		}
		out, err := crypto.Encrypt(msg, key, e.cfg.Checksum)
		if err != nil {
			return fmt.Errorf("re-encrypting character list: %w", err)
		}
		if err := e.writeClient(client, out); err != nil {
			return fmt.Errorf("sending character list: %w", err)
		}
		e.setCharacters(list)
		e.setPhase(PhaseCharacterListRewritten)
		s.log.Info("character list rewritten", "characters", len(list.Entries), "local", e.local.String())

		// the client drops both connections and comes back for the world
		_ = server.Close()
		_ = client.Close()
		return e.awaitReconnect(ctx, s)

	case charlist.OutcomeBadLogin:
		text := e.loginErrorText(msg)
		if err := e.writeClient(client, frame); err != nil {
			return err
		}
		e.notify(s, events.BadLogin, text)
		return fmt.Errorf("%w: %s", errBadLogin, text)

	default:
		if err := e.writeClient(client, frame); err != nil {
			return err
		}
		return errLoginUnexpected
	}
}

func (e *Engine) loginErrorText(msg []byte) string {
	p, err := e.packets.Decode(packets.LoginResponse, msg[2:], packets.DecodeContext{Checksum: e.cfg.Checksum})
	if err != nil {
		return ""
	}
	if t, ok := p.(*packets.Text); ok {
		return t.Message
	}
	return ""
}

// awaitReconnect accepts the client's next connection on the same listener:
// normally the game login, or a new login if the player went back.
func (e *Engine) awaitReconnect(ctx context.Context, s *Session) error {
	e.setPhase(PhaseAwaitingClientReconnect)

	conn, err := e.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("accepting reconnect: %w", err)
	}
	first, err := e.readFirst(ctx, conn)
	if err != nil {
		_ = conn.Close()
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %w", errClientCrashed, err)
	}

	switch tag, _ := protocol.PlainType(first, e.cfg.Checksum); packets.Type(tag) {
	case packets.TypeGameLogin:
		return e.relayGame(ctx, s, conn, first)
	case packets.TypeLoginRequest:
		s.log.Info("client logged in again instead of entering the world")
		return e.relayLogin(ctx, s, conn, first)
	default:
		_ = conn.Close()
		return fmt.Errorf("%w %s after character list", errUnexpectedFirst, packets.Type(tag))
	}
}

// relayGame connects to the selected character's world and relays until the
// session ends.
func (e *Engine) relayGame(ctx context.Context, s *Session, client net.Conn, first []byte) error {
	e.setPhase(PhaseConnectingToGameWorld)

	list := e.Characters()
	if list == nil {
		_ = client.Close()
		return errNoCharacterList
	}
	idx, err := e.state.ReadSelectedCharacterIndex()
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("reading selected character: %w", err)
	}
	ep, err := list.Endpoint(int(idx))
	if err != nil {
		_ = client.Close()
		return err
	}
	server, err := e.dial(ctx, ep)
	if err != nil {
		_ = client.Close()
		return err
	}
	s.log.Info("connected to game world", "character", list.Entries[idx].Name, "world", ep.String())

	s.client = newLeg("client", client, errClientCrashed, e.cfg.SendQueueSize, e.cfg.WriteTimeout, 0)
	s.server = newLeg("server", server, errServerClosed, e.cfg.SendQueueSize, e.cfg.WriteTimeout, e.cfg.ServerWriteInterval)
	e.attach(s)
	defer e.detach(s)

	if err := s.server.Send(ctx, first); err != nil {
		_ = s.client.Close()
		_ = s.server.Close()
		return err
	}
	e.setPhase(PhaseRelayingLoggedOut)
	return e.duplex(ctx, s)
}
