package relay

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session outcomes. Each ends the session; Run then restarts.
var (
	errLoggedOut       = errors.New("player logged out")
	errDeathAccepted   = errors.New("player accepted death")
	errGameRejected    = errors.New("game server rejected the login")
	errClientCrashed   = errors.New("client connection lost")
	errServerClosed    = errors.New("server connection lost")
	errBadLogin        = errors.New("login server refused the account")
	errLoginUnexpected = errors.New("unexpected login server response")
	errNoCharacterList = errors.New("game login without a character list")
	errUnexpectedFirst = errors.New("unexpected first client packet")
)

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, errLoggedOut):
		return "logout"
	case errors.Is(err, errDeathAccepted):
		return "death_accept"
	case errors.Is(err, errGameRejected):
		return "game_rejected"
	case errors.Is(err, errClientCrashed):
		return "client_crash"
	case errors.Is(err, errServerClosed):
		return "server_closed"
	case errors.Is(err, errBadLogin):
		return "bad_login"
	case errors.Is(err, errLoginUnexpected):
		return "login_other"
	default:
		return "error"
	}
}

// Session is one client lifetime: the login handshake, the reconnect and the
// game relay. Discarded on restart.
type Session struct {
	ID      uuid.UUID
	started time.Time
	log     *slog.Logger

	client *leg
	server *leg

	loggedIn atomic.Bool

	mu     sync.Mutex
	timers []*time.Timer
}

func newSession(log *slog.Logger) *Session {
	id := uuid.New()
	return &Session{
		ID:      id,
		started: time.Now(),
		log:     log.With("session", id.String()),
	}
}

// after runs fn once d has passed unless the session ends first.
func (s *Session) after(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers = append(s.timers, time.AfterFunc(d, fn))
}

func (s *Session) stopTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
	s.timers = nil
}
