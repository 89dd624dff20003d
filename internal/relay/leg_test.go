package relay

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/tibiarelay/internal/constants"
	"github.com/udisondev/tibiarelay/internal/packets"
	"github.com/udisondev/tibiarelay/internal/testutil"
)

func pingFrame(t *testing.T) []byte {
	t.Helper()
	return testutil.EncryptFrame(t, testutil.Fixtures.CipherKey, true, testutil.Message(&packets.Empty{Tag: packets.TypePing}))
}

func startLeg(t *testing.T, name string, interval time.Duration) (*leg, *testutil.MockConn, chan error) {
	t.Helper()
	conn := testutil.NewMockConn()
	l := newLeg(name, conn, errServerClosed, 16, time.Second, interval)
	done := make(chan error, 1)
	go func() { done <- l.writePump() }()
	return l, conn, done
}

// TestLeg_ServerSpacing verifies three queued frames leave at least
// ServerWriteInterval apart. Uses synctest for instant fake-clock execution.
func TestLeg_ServerSpacing(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l, conn, done := startLeg(t, "server", constants.ServerWriteInterval)
		ctx := context.Background()

		frame := pingFrame(t)
		for range 3 {
			require.NoError(t, l.Send(ctx, frame))
		}
		require.NoError(t, l.Flush(ctx))

		times := conn.WriteTimes()
		require.Len(t, times, 3)
		for i := 1; i < len(times); i++ {
			assert.GreaterOrEqual(t, times[i].Sub(times[i-1]), constants.ServerWriteInterval)
		}

		require.NoError(t, l.Close())
		assert.NoError(t, <-done)
	})
}

func TestLeg_NoSpacingWithoutInterval(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		l, conn, done := startLeg(t, "client", 0)
		ctx := context.Background()

		frame := pingFrame(t)
		for range 3 {
			require.NoError(t, l.Send(ctx, frame))
		}
		require.NoError(t, l.Flush(ctx))

		times := conn.WriteTimes()
		require.Len(t, times, 3)
		assert.Equal(t, times[0], times[2])

		require.NoError(t, l.Close())
		assert.NoError(t, <-done)
	})
}

func TestLeg_FIFO(t *testing.T) {
	l, conn, done := startLeg(t, "client", 0)
	ctx := testutil.ContextWithTimeout(t, 5*time.Second)

	var want [][]byte
	for i := range 10 {
		f := testutil.EncryptFrame(t, testutil.Fixtures.CipherKey, false,
			testutil.Message(&packets.CreatureHealth{CreatureID: uint32(i), Percent: 50}))
		want = append(want, f)
		require.NoError(t, l.Send(ctx, f))
	}
	require.NoError(t, l.Flush(ctx))
	assert.Equal(t, want, conn.Writes())

	require.NoError(t, l.Close())
	assert.NoError(t, <-done)
}

func TestLeg_WriteFailure(t *testing.T) {
	l, conn, done := startLeg(t, "server", 0)
	conn.FailWrites(testutil.ErrSimulated)
	ctx := testutil.ContextWithTimeout(t, 5*time.Second)

	require.NoError(t, l.Send(ctx, pingFrame(t)))

	err := <-done
	assert.ErrorIs(t, err, errServerClosed)
	assert.ErrorIs(t, err, testutil.ErrSimulated)

	// the pump is gone: nothing more is accepted
	assert.ErrorIs(t, l.Flush(ctx), errLegClosed)
	_ = l.Close()
}

func TestLeg_SendAfterClose(t *testing.T) {
	l, _, done := startLeg(t, "client", 0)
	require.NoError(t, l.Close())
	require.NoError(t, <-done)
	require.NoError(t, l.Close())

	ctx := testutil.ContextWithTimeout(t, time.Second)
	assert.ErrorIs(t, l.Send(ctx, pingFrame(t)), errLegClosed)
}
