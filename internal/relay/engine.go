// Package relay sits between the game client and the login/game servers,
// decrypting, inspecting and re-encrypting everything that passes.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/tibiarelay/internal/charlist"
	"github.com/udisondev/tibiarelay/internal/config"
	"github.com/udisondev/tibiarelay/internal/crypto"
	"github.com/udisondev/tibiarelay/internal/events"
	"github.com/udisondev/tibiarelay/internal/metrics"
	"github.com/udisondev/tibiarelay/internal/model"
	"github.com/udisondev/tibiarelay/internal/packets"
)

// ErrNotConnected is returned by injection while no game session is live.
var ErrNotConnected = errors.New("relay: not connected")

// Dialer opens connections to login and game servers.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Engine runs one session at a time on a local listener, restarting after
// each one ends.
type Engine struct {
	cfg          config.Relay
	state        ClientState
	loginServers []model.Endpoint

	packets  *packets.Registry
	events   *events.Registry
	notifier events.Notifier
	metrics  *metrics.Relay
	log      *slog.Logger
	dialer   Dialer
	items    packets.ItemTraits
	rewriter *charlist.Rewriter

	ln    net.Listener
	local model.Endpoint

	phase atomic.Int32

	mu      sync.Mutex
	session *Session
	chars   *charlist.List
}

// Option configures an Engine.
type Option func(*Engine)

// WithPackets replaces the default packet registry.
func WithPackets(r *packets.Registry) Option { return func(e *Engine) { e.packets = r } }

// WithEvents sets the observer registry.
func WithEvents(r *events.Registry) Option { return func(e *Engine) { e.events = r } }

// WithNotifier sets who hears about session milestones.
func WithNotifier(n events.Notifier) Option { return func(e *Engine) { e.notifier = n } }

func WithMetrics(m *metrics.Relay) Option { return func(e *Engine) { e.metrics = m } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.log = l } }

func WithDialer(d Dialer) Option { return func(e *Engine) { e.dialer = d } }

// WithItemTraits overrides item traits the client state may provide.
func WithItemTraits(t packets.ItemTraits) Option { return func(e *Engine) { e.items = t } }

// New creates an Engine. Call Listen (or let Run do it) before clients connect.
func New(cfg config.Relay, state ClientState, opts ...Option) (*Engine, error) {
	if state == nil {
		return nil, errors.New("relay: nil client state")
	}
	servers, err := cfg.LoginEndpoints()
	if err != nil {
		return nil, fmt.Errorf("login servers: %w", err)
	}

	e := &Engine{
		cfg:          cfg,
		state:        state,
		loginServers: servers,
		log:          slog.Default(),
	}
	if t, ok := state.(packets.ItemTraits); ok {
		e.items = t
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.packets == nil {
		e.packets = packets.DefaultRegistry()
	}
	if e.events == nil {
		e.events = events.NewRegistry()
	}
	if e.dialer == nil {
		e.dialer = &net.Dialer{Timeout: cfg.DialTimeout}
	}
	if e.cfg.SendQueueSize <= 0 {
		e.cfg.SendQueueSize = 1
	}
	e.rewriter = charlist.NewRewriter(e.packets)
	return e, nil
}

// Listen binds the first free port at or above the configured one and tells
// the client where the relay is.
func (e *Engine) Listen() error {
	ln, err := listenFrom(e.cfg.BindAddress, e.cfg.Port)
	if err != nil {
		return err
	}
	port := ln.Addr().(*net.TCPAddr).Port
	e.local = model.NewEndpoint(e.cfg.LocalHost, port)

	if err := e.state.SetLocalRelayEndpoint(e.cfg.LocalHost, port); err != nil {
		_ = ln.Close()
		return fmt.Errorf("publishing relay endpoint: %w", err)
	}
	e.ln = ln
	e.log.Info("relay listening", "address", ln.Addr().String(), "advertised", e.local.String())
	return nil
}

// Addr returns the listener address, nil before Listen.
func (e *Engine) Addr() net.Addr {
	if e.ln == nil {
		return nil
	}
	return e.ln.Addr()
}

// Phase returns the current phase.
func (e *Engine) Phase() Phase {
	return Phase(e.phase.Load())
}

// Characters returns the character list of the last successful login, or nil.
func (e *Engine) Characters() *charlist.List {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.chars
}

// SessionID returns the id of the live game session.
func (e *Engine) SessionID() (uuid.UUID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return uuid.Nil, false
	}
	return e.session.ID, true
}

// Run accepts clients until ctx is cancelled. It only fails when the
// listener does.
func (e *Engine) Run(ctx context.Context) error {
	if e.ln == nil {
		if err := e.Listen(); err != nil {
			return err
		}
	}
	defer e.ln.Close()
	stop := context.AfterFunc(ctx, func() { _ = e.ln.Close() })
	defer stop()

	for {
		e.setPhase(PhaseIdle)
		e.setPhase(PhaseAwaitingClientLoginRequest)

		conn, err := e.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting client: %w", err)
		}

		s := newSession(e.log)
		err = e.runSession(ctx, s, conn)
		e.finish(s, err)
		if ctx.Err() != nil {
			return nil
		}

		e.setPhase(PhaseRestarting)
		t := time.NewTimer(e.cfg.RestartDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil
		}
	}
}

// finish records how a session ended.
func (e *Engine) finish(s *Session, err error) {
	s.stopTimers()
	outcome := outcomeOf(err)
	e.metrics.RecordSession(outcome, time.Since(s.started).Seconds())

	switch {
	case errors.Is(err, context.Canceled):
		s.log.Info("session stopped", "outcome", outcome)
	case errors.Is(err, errClientCrashed), errors.Is(err, errServerClosed):
		e.setPhase(PhaseCrashed)
		e.notify(s, events.Crash, err.Error())
		s.log.Warn("session crashed", "error", err)
	case outcome == "error":
		s.log.Warn("session ended", "error", err)
	default:
		s.log.Info("session ended", "outcome", outcome)
	}
}

func (e *Engine) setPhase(p Phase) {
	if old := Phase(e.phase.Swap(int32(p))); old != p {
		e.log.Debug("phase", "from", old.String(), "to", p.String())
	}
	e.metrics.SetPhase(int(p))
}

func (e *Engine) setCharacters(l *charlist.List) {
	e.mu.Lock()
	e.chars = l
	e.mu.Unlock()
}

func (e *Engine) attach(s *Session) {
	e.mu.Lock()
	e.session = s
	e.mu.Unlock()
}

func (e *Engine) detach(s *Session) {
	e.mu.Lock()
	if e.session == s {
		e.session = nil
	}
	e.mu.Unlock()
}

// notify delivers a notification on its own goroutine.
func (e *Engine) notify(s *Session, kind events.Kind, msg string) {
	e.metrics.RecordNotification(kind.String())
	if e.notifier == nil {
		return
	}
	n := events.Notification{Kind: kind, Message: msg, SessionID: s.ID, At: time.Now()}
	go e.notifier.Notify(n)
}

// SendToServer encrypts msg ([u16 R][payload]) with the current key and queues
// it for the game server.
func (e *Engine) SendToServer(ctx context.Context, msg []byte) error {
	return e.inject(ctx, packets.Outgoing, msg)
}

// SendToClient encrypts msg with the current key and queues it for the client.
func (e *Engine) SendToClient(ctx context.Context, msg []byte) error {
	return e.inject(ctx, packets.Incoming, msg)
}

func (e *Engine) inject(ctx context.Context, dir packets.Direction, msg []byte) error {
	e.mu.Lock()
	s := e.session
	e.mu.Unlock()
	if s == nil {
		return ErrNotConnected
	}

	key, err := e.state.ReadCipherKey()
	if err != nil {
		return fmt.Errorf("reading cipher key: %w", err)
	}
	frame, err := crypto.Encrypt(msg, key, e.cfg.Checksum)
	if err != nil {
		return fmt.Errorf("inject %s: %w", dir, err)
	}

	to := s.server
	if dir == packets.Incoming {
		to = s.client
	}
	if err := to.Send(ctx, frame); err != nil {
		if errors.Is(err, errLegClosed) {
			return ErrNotConnected
		}
		return err
	}
	e.metrics.RecordInjected(dir.String())
	return nil
}

func (e *Engine) dial(ctx context.Context, ep model.Endpoint) (net.Conn, error) {
	if e.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.DialTimeout)
		defer cancel()
	}
	conn, err := e.dialer.DialContext(ctx, "tcp", ep.String())
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", ep, err)
	}
	return conn, nil
}
