package events

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tibiarelay/internal/packets"
)

func TestDispatch_DefaultsToForward(t *testing.T) {
	reg := NewRegistry()
	assert.True(t, reg.Dispatch(packets.Incoming, &packets.CreatureHealth{}))
}

func TestDispatch_ObserverDecides(t *testing.T) {
	reg := NewRegistry()
	var seen []uint8
	On(reg, packets.Incoming, packets.TypeCreatureHealth, func(p *packets.CreatureHealth) bool {
		seen = append(seen, p.Percent)
		return p.Percent > 0
	})

	assert.True(t, reg.Dispatch(packets.Incoming, &packets.CreatureHealth{Percent: 40}))
	assert.False(t, reg.Dispatch(packets.Incoming, &packets.CreatureHealth{Percent: 0}))
	assert.Equal(t, []uint8{40, 0}, seen)

	// Same tag, other direction: no observer.
	assert.True(t, reg.Dispatch(packets.Outgoing, &packets.CreatureHealth{Percent: 0}))
}

func TestRegister_ReplacesAndUnregister(t *testing.T) {
	reg := NewRegistry()
	reg.Register(packets.Outgoing, packets.TypePlayerSpeech, ObserverFunc(func(packets.Packet) bool { return false }))
	reg.Register(packets.Outgoing, packets.TypePlayerSpeech, ObserverFunc(func(packets.Packet) bool { return true }))

	assert.True(t, reg.Dispatch(packets.Outgoing, &packets.PlayerSpeech{}))

	reg.Register(packets.Outgoing, packets.TypePlayerSpeech, ObserverFunc(func(packets.Packet) bool { return false }))
	reg.Unregister(packets.Outgoing, packets.TypePlayerSpeech)
	_, ok := reg.Observer(packets.Outgoing, packets.TypePlayerSpeech)
	assert.False(t, ok)
	assert.True(t, reg.Dispatch(packets.Outgoing, &packets.PlayerSpeech{}))
}

func TestOn_WrongConcreteTypeIsForwarded(t *testing.T) {
	reg := NewRegistry()
	On(reg, packets.Incoming, packets.TypeVipLogin, func(*packets.VipAdd) bool { return false })

	assert.True(t, reg.Dispatch(packets.Incoming, &packets.VipStatus{Tag: packets.TypeVipLogin}))
}

func TestTap_PerDirection(t *testing.T) {
	reg := NewRegistry()
	var got []TapContext
	reg.AddTap(packets.Incoming, func(tc TapContext) { got = append(got, tc) })
	reg.AddTap(packets.Incoming, func(tc TapContext) { got = append(got, tc) })

	id := uuid.New()
	reg.Tap(TapContext{SessionID: id, Direction: packets.Incoming, Message: []byte{1, 0, 0x1E}})
	reg.Tap(TapContext{SessionID: id, Direction: packets.Outgoing, Message: []byte{1, 0, 0x1E}})

	require.Len(t, got, 2)
	assert.Equal(t, id, got[0].SessionID)
}

func TestNotifiers_FanOut(t *testing.T) {
	var a, b []Kind
	ns := Notifiers{
		NotifierFunc(func(n Notification) { a = append(a, n.Kind) }),
		NotifierFunc(func(n Notification) { b = append(b, n.Kind) }),
	}

	ns.Notify(Notification{Kind: BadLogin, Message: "wrong password", At: time.Now()})

	assert.Equal(t, []Kind{BadLogin}, a)
	assert.Equal(t, []Kind{BadLogin}, b)
	assert.Equal(t, "bad_login", BadLogin.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
