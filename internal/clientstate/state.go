// Package clientstate provides an in-process stand-in for the game client's
// memory: the values the relay would otherwise read from the running client.
package clientstate

import (
	"fmt"
	"sync"

	"github.com/udisondev/tibiarelay/internal/config"
	"github.com/udisondev/tibiarelay/internal/crypto"
	"github.com/udisondev/tibiarelay/internal/model"
)

// Static is a settable client state. Safe for concurrent use.
type Static struct {
	mu       sync.RWMutex
	key      crypto.Key
	selected byte
	health   int
	battle   bool
	loggedIn bool
	local    model.Endpoint
	hasLocal bool
	err      error
}

// New creates a Static holding key, with full health.
func New(key crypto.Key) *Static {
	return &Static{key: key, health: 100}
}

// FromConfig seeds a Static from the client section of the config.
func FromConfig(c config.ClientConfig) (*Static, error) {
	s := &Static{health: c.Health}
	if c.CipherKey != "" {
		key, err := c.Key()
		if err != nil {
			return nil, err
		}
		s.key = key
	}
	if c.SelectedCharacter < 0 || c.SelectedCharacter > 0xFF {
		return nil, fmt.Errorf("clientstate: selected character %d out of range", c.SelectedCharacter)
	}
	s.selected = byte(c.SelectedCharacter)
	return s, nil
}

// Fail makes every read return err until Fail(nil).
func (s *Static) Fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *Static) SetCipherKey(k crypto.Key) {
	s.mu.Lock()
	s.key = k
	s.mu.Unlock()
}

func (s *Static) SetSelectedCharacter(i byte) {
	s.mu.Lock()
	s.selected = i
	s.mu.Unlock()
}

func (s *Static) SetHealth(hp int) {
	s.mu.Lock()
	s.health = hp
	s.mu.Unlock()
}

func (s *Static) SetBattleFlag(on bool) {
	s.mu.Lock()
	s.battle = on
	s.mu.Unlock()
}

func (s *Static) SetLoggedIn(on bool) {
	s.mu.Lock()
	s.loggedIn = on
	s.mu.Unlock()
}

// LocalRelayEndpoint returns what the relay last reported via SetLocalRelayEndpoint.
func (s *Static) LocalRelayEndpoint() (model.Endpoint, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.local, s.hasLocal
}

func (s *Static) ReadCipherKey() (crypto.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.err
}

func (s *Static) ReadSelectedCharacterIndex() (byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.err
}

func (s *Static) ReadPlayerHealth() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.health, s.err
}

func (s *Static) HasBattleFlag() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.battle, s.err
}

func (s *Static) IsLoggedIn() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn, s.err
}

func (s *Static) SetLocalRelayEndpoint(host string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.local = model.NewEndpoint(host, port)
	s.hasLocal = true
	return nil
}
