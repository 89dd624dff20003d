package relay

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tibiarelay/internal/charlist"
	"github.com/udisondev/tibiarelay/internal/clientstate"
	"github.com/udisondev/tibiarelay/internal/config"
	"github.com/udisondev/tibiarelay/internal/constants"
	"github.com/udisondev/tibiarelay/internal/events"
	"github.com/udisondev/tibiarelay/internal/model"
	"github.com/udisondev/tibiarelay/internal/packets"
	"github.com/udisondev/tibiarelay/internal/protocol"
	"github.com/udisondev/tibiarelay/internal/testutil"
)

// world is a running relay with a fake login server and three fake game
// worlds, all on loopback.
type world struct {
	e      *Engine
	state  *clientstate.Static
	notes  chan events.Notification
	login  net.Listener
	worlds []net.Listener
	chars  []packets.CharacterInfo
	cancel context.CancelFunc
	runErr chan error
}

func startWorld(t *testing.T, mods ...func(*config.Relay)) *world {
	t.Helper()

	w := &world{
		state:  clientstate.New(testutil.Fixtures.CipherKey),
		notes:  make(chan events.Notification, 16),
		runErr: make(chan error, 1),
	}
	var loginAddr string
	w.login, loginAddr = testutil.ListenTCP(t)
	for _, c := range testutil.Fixtures.Characters {
		ln, _ := testutil.ListenTCP(t)
		w.worlds = append(w.worlds, ln)
		c.IP = [4]byte{127, 0, 0, 1}
		c.Port = uint16(ln.Addr().(*net.TCPAddr).Port)
		w.chars = append(w.chars, c)
	}

	cfg := config.DefaultRelay()
	cfg.BindAddress = "127.0.0.1"
	cfg.Port = 0
	cfg.LoginServers = []string{loginAddr}
	cfg.RestartDelay = constants.TestRestartDelay
	cfg.ServerWriteInterval = constants.TestWriteInterval
	cfg.DialTimeout = constants.TestIOTimeout
	for _, m := range mods {
		m(&cfg)
	}

	e, err := New(cfg, w.state, WithNotifier(events.NotifierFunc(func(n events.Notification) {
		w.notes <- n
	})))
	require.NoError(t, err)
	require.NoError(t, e.Listen())
	w.e = e

	ctx, cancel := testutil.ContextWithCancel(t)
	w.cancel = cancel
	go func() { w.runErr <- e.Run(ctx) }()
	return w
}

func (w *world) stop(t *testing.T) {
	t.Helper()
	w.cancel()
	select {
	case err := <-w.runErr:
		require.NoError(t, err)
	case <-time.After(constants.TestIOTimeout):
		t.Fatal("relay did not stop")
	}
}

func (w *world) note(t *testing.T) events.Notification {
	t.Helper()
	select {
	case n := <-w.notes:
		return n
	case <-time.After(constants.TestIOTimeout):
		t.Fatal("no notification")
		return events.Notification{}
	}
}

func (w *world) dial(t *testing.T) net.Conn {
	t.Helper()
	c, err := net.DialTimeout("tcp", w.e.Addr().String(), constants.TestIOTimeout)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func (w *world) waitPhase(t *testing.T, p Phase) {
	t.Helper()
	testutil.WaitFor(t, func() bool { return w.e.Phase() == p }, constants.TestIOTimeout)
}

func accept(t *testing.T, ln net.Listener) net.Conn {
	t.Helper()
	return testutil.AcceptTCP(t, ln, constants.TestIOTimeout)
}

func readFrame(t *testing.T, c net.Conn) []byte {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(constants.TestIOTimeout)))
	f, err := protocol.ReadFrame(c)
	require.NoError(t, err)
	return f
}

func writeFrame(t *testing.T, c net.Conn, f []byte) {
	t.Helper()
	require.NoError(t, c.SetWriteDeadline(time.Now().Add(constants.TestIOTimeout)))
	require.NoError(t, protocol.WriteFrame(c, f))
}

// expectClosed fails unless the peer closes c without sending anything more.
func expectClosed(t *testing.T, c net.Conn) {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(constants.TestIOTimeout)))
	buf := make([]byte, 64)
	n, err := c.Read(buf)
	require.Error(t, err, "connection still open")
	assert.Zero(t, n)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		t.Fatal("connection still open")
	}
}

func encrypt(t *testing.T, ps ...packets.Packet) []byte {
	t.Helper()
	return testutil.EncryptFrame(t, testutil.Fixtures.CipherKey, true, testutil.Message(ps...))
}

// loginFlow runs the login exchange and returns the list the client saw.
func (w *world) loginFlow(t *testing.T) *charlist.List {
	t.Helper()
	key := testutil.Fixtures.CipherKey

	client := w.dial(t)
	req := testutil.PlainFrame(packets.TypeLoginRequest, true, 0xAA, 0xBB, 0xCC)
	writeFrame(t, client, req)

	ls := accept(t, w.login)
	assert.Equal(t, req, readFrame(t, ls))
	resp := testutil.LoginResponse(testutil.Fixtures.Motd, w.chars, 30)
	writeFrame(t, ls, testutil.EncryptFrame(t, key, true, resp))

	got := testutil.AssertFrameType(t, key, true, packets.TypeMotd, readFrame(t, client))
	assert.Len(t, got, len(resp))
	list, err := charlist.NewRewriter(packets.DefaultRegistry()).Parse(got)
	require.NoError(t, err)

	// the relay hangs up so the client reconnects for the world
	expectClosed(t, client)
	return list
}

// enterWorld logs in, reconnects and waits for the player to appear.
// Returns the client and game server ends.
func (w *world) enterWorld(t *testing.T, index int) (net.Conn, net.Conn) {
	t.Helper()
	w.state.SetSelectedCharacter(byte(index))
	w.loginFlow(t)

	client := w.dial(t)
	gameLogin := testutil.PlainFrame(packets.TypeGameLogin, true, 0x01, 0x02, 0x03)
	writeFrame(t, client, gameLogin)

	gs := accept(t, w.worlds[index])
	assert.Equal(t, gameLogin, readFrame(t, gs))

	appear := encrypt(t, &packets.SelfAppear{PlayerID: 0x10000001, DrawSpeed: 220})
	writeFrame(t, gs, appear)
	assert.Equal(t, appear, readFrame(t, client))
	assert.Equal(t, events.LogIn, w.note(t).Kind)
	assert.Equal(t, PhaseRelayingLoggedIn, w.e.Phase())
	return client, gs
}

func TestEngine_CharacterListRewritten(t *testing.T) {
	w := startWorld(t)
	defer w.stop(t)

	local, ok := w.state.LocalRelayEndpoint()
	require.True(t, ok)
	assert.Equal(t, model.NewEndpoint("127.0.0.1", w.e.Addr().(*net.TCPAddr).Port), local)

	list := w.loginFlow(t)
	require.Len(t, list.Entries, 3)
	assert.Equal(t, testutil.Fixtures.Motd, list.Motd)
	for i, entry := range list.Entries {
		assert.Equal(t, w.chars[i].Name, entry.Name)
		assert.Equal(t, local, entry.Original, "client must see the relay")
	}

	held := w.e.Characters()
	require.NotNil(t, held)
	require.Len(t, held.Entries, 3)
	for i, entry := range held.Entries {
		assert.Equal(t, model.EndpointFromIPv4(w.chars[i].IP, w.chars[i].Port), entry.Original)
		assert.Equal(t, local, entry.Local)
	}
	w.waitPhase(t, PhaseAwaitingClientReconnect)
}

func TestEngine_FullSession(t *testing.T) {
	w := startWorld(t)
	defer w.stop(t)

	client, gs := w.enterWorld(t, 1)

	// other worlds never see a connection
	for _, i := range []int{0, 2} {
		require.NoError(t, w.worlds[i].(*net.TCPListener).SetDeadline(time.Now().Add(50*time.Millisecond)))
		_, err := w.worlds[i].Accept()
		assert.Error(t, err)
	}

	speech := encrypt(t, &packets.PlayerSpeech{Speak: packets.SpeakSay, Message: "hi"})
	writeFrame(t, client, speech)
	assert.Equal(t, speech, readFrame(t, gs))

	// two logical packets in one frame come through as one frame
	both := encrypt(t,
		&packets.CreatureHealth{CreatureID: 7, Percent: 10},
		&packets.Empty{Tag: packets.TypePing},
	)
	writeFrame(t, gs, both)
	assert.Equal(t, both, readFrame(t, client))

	info := testutil.Message(&packets.Text{Tag: packets.TypeInformationBox, Message: "from relay"})
	require.NoError(t, w.e.SendToClient(context.Background(), info))
	assert.Equal(t, info, testutil.DecryptFrame(t, testutil.Fixtures.CipherKey, true, readFrame(t, client)))

	logout := encrypt(t, &packets.Empty{Tag: packets.TypeLogout})
	writeFrame(t, client, logout)
	assert.Equal(t, logout, readFrame(t, gs))
	assert.Equal(t, events.LogOut, w.note(t).Kind)

	expectClosed(t, gs)
	expectClosed(t, client)
	w.waitPhase(t, PhaseAwaitingClientLoginRequest)
	assert.ErrorIs(t, w.e.SendToServer(context.Background(), info), ErrNotConnected)
}

func TestEngine_DeathAccept(t *testing.T) {
	w := startWorld(t)
	defer w.stop(t)

	client, gs := w.enterWorld(t, 0)
	w.state.SetHealth(0)

	writeFrame(t, client, encrypt(t, &packets.Empty{Tag: packets.TypeLogout}))
	assert.Equal(t, events.PlayerDeathAccept, w.note(t).Kind)

	// the logout never reaches the server
	expectClosed(t, gs)
	w.waitPhase(t, PhaseAwaitingClientLoginRequest)
}

func TestEngine_BattleLogoutDropped(t *testing.T) {
	w := startWorld(t)
	defer w.stop(t)

	client, gs := w.enterWorld(t, 2)
	w.state.SetBattleFlag(true)

	writeFrame(t, client, encrypt(t, &packets.Empty{Tag: packets.TypeLogout}))
	ping := encrypt(t, &packets.Empty{Tag: packets.TypeClientPing})
	writeFrame(t, client, ping)

	// only the ping arrives
	assert.Equal(t, ping, readFrame(t, gs))
	assert.Equal(t, PhaseRelayingLoggedIn, w.e.Phase())
}

func TestEngine_ClientCrash(t *testing.T) {
	w := startWorld(t)
	defer w.stop(t)

	client, gs := w.enterWorld(t, 1)
	require.NoError(t, client.Close())

	n := w.note(t)
	assert.Equal(t, events.Crash, n.Kind)
	expectClosed(t, gs)
	w.waitPhase(t, PhaseAwaitingClientLoginRequest)
}

func TestEngine_ClientDropDuringReconnect(t *testing.T) {
	w := startWorld(t)
	defer w.stop(t)

	w.loginFlow(t)
	w.waitPhase(t, PhaseAwaitingClientReconnect)

	client := w.dial(t)
	require.NoError(t, client.Close())

	assert.Equal(t, events.Crash, w.note(t).Kind)
	w.waitPhase(t, PhaseAwaitingClientLoginRequest)
	// the list is kept for the next game login
	assert.NotNil(t, w.e.Characters())
}

func TestEngine_LoginAgainInsteadOfWorld(t *testing.T) {
	w := startWorld(t)
	defer w.stop(t)

	w.loginFlow(t)
	list := w.loginFlow(t)
	assert.Len(t, list.Entries, 3)

	client, gs := w.enterWorld(t, 0)
	speech := encrypt(t, &packets.PlayerSpeech{Speak: packets.SpeakSay, Message: "back"})
	writeFrame(t, client, speech)
	assert.Equal(t, speech, readFrame(t, gs))
}

func TestEngine_GameRejected(t *testing.T) {
	w := startWorld(t)
	defer w.stop(t)

	w.loginFlow(t)
	client := w.dial(t)
	writeFrame(t, client, testutil.PlainFrame(packets.TypeGameLogin, true, 0x01))
	gs := accept(t, w.worlds[0])
	readFrame(t, gs)

	full := encrypt(t, &packets.WaitingList{Tag: packets.TypeWaitingList, Message: "Too many players online.", Retry: 5})
	writeFrame(t, gs, full)
	assert.Equal(t, full, readFrame(t, client))
	expectClosed(t, client)
	w.waitPhase(t, PhaseAwaitingClientLoginRequest)

	// the list survives the restart: a direct game login still works
	again := w.dial(t)
	writeFrame(t, again, testutil.PlainFrame(packets.TypeGameLogin, true, 0x02))
	gs2 := accept(t, w.worlds[0])
	readFrame(t, gs2)
}

func TestEngine_BadLogin(t *testing.T) {
	w := startWorld(t, func(c *config.Relay) { c.Checksum = false })
	defer w.stop(t)

	client := w.dial(t)
	writeFrame(t, client, testutil.PlainFrame(packets.TypeLoginRequest, false, 0x01))
	ls := accept(t, w.login)
	readFrame(t, ls)

	text := "Account name or password is not correct."
	refusal := testutil.EncryptFrame(t, testutil.Fixtures.CipherKey, false,
		testutil.Message(&packets.Text{Tag: packets.TypeLoginError, Message: text}))
	writeFrame(t, ls, refusal)

	assert.Equal(t, refusal, readFrame(t, client))
	n := w.note(t)
	assert.Equal(t, events.BadLogin, n.Kind)
	assert.Equal(t, text, n.Message)
	assert.Nil(t, w.e.Characters())
	w.waitPhase(t, PhaseAwaitingClientLoginRequest)
}

func TestEngine_LoginFailover(t *testing.T) {
	dead, deadAddr := testutil.ListenTCP(t)
	require.NoError(t, dead.Close())

	w := startWorld(t, func(c *config.Relay) {
		c.LoginServers = append([]string{deadAddr}, c.LoginServers...)
	})
	defer w.stop(t)

	list := w.loginFlow(t)
	assert.Len(t, list.Entries, 3)
}

func TestEngine_GameLoginWithoutList(t *testing.T) {
	w := startWorld(t)
	defer w.stop(t)

	client := w.dial(t)
	writeFrame(t, client, testutil.PlainFrame(packets.TypeGameLogin, true, 0x01))
	expectClosed(t, client)
	w.waitPhase(t, PhaseAwaitingClientLoginRequest)
}

func TestEngine_UnexpectedFirstFrame(t *testing.T) {
	w := startWorld(t)
	defer w.stop(t)

	client := w.dial(t)
	writeFrame(t, client, testutil.PlainFrame(packets.Type(0x33), true))
	expectClosed(t, client)
}

func TestNew_NilState(t *testing.T) {
	_, err := New(config.DefaultRelay(), nil)
	assert.Error(t, err)
}

func TestListenFrom(t *testing.T) {
	taken, _ := testutil.ListenTCP(t)
	start := taken.Addr().(*net.TCPAddr).Port
	if start == 0xFFFF {
		t.Skip("no room above the taken port")
	}

	ln, err := listenFrom("127.0.0.1", start)
	require.NoError(t, err)
	defer ln.Close()
	assert.Greater(t, ln.Addr().(*net.TCPAddr).Port, start)

	_, err = listenFrom("127.0.0.1", 0x10000)
	assert.ErrorIs(t, err, ErrNoFreePort)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "IDLE", PhaseIdle.String())
	assert.Equal(t, "RELAYING_LOGGED_IN", PhaseRelayingLoggedIn.String())
	assert.Equal(t, "RESTARTING", PhaseRestarting.String())
	assert.Equal(t, "UNKNOWN", Phase(99).String())
}
