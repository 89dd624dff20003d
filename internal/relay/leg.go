package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/udisondev/tibiarelay/internal/protocol"
)

var errLegClosed = errors.New("relay: leg closed")

// sendItem is either a frame or a flush marker.
type sendItem struct {
	frame   []byte
	flushed chan struct{}
}

// leg is one side of a session: the client or the game server connection.
// Frames are written strictly in the order they were queued by a single
// writePump goroutine.
type leg struct {
	name string
	conn net.Conn
	// fail wraps every error the leg reports, so the session knows which
	// side went away.
	fail error

	sendCh    chan sendItem
	closeCh   chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	writeTimeout time.Duration
	// minimum spacing between writes, zero for none
	interval  time.Duration
	lastWrite time.Time
}

func newLeg(name string, conn net.Conn, fail error, queueSize int, writeTimeout, interval time.Duration) *leg {
	return &leg{
		name:         name,
		conn:         conn,
		fail:         fail,
		sendCh:       make(chan sendItem, queueSize),
		closeCh:      make(chan struct{}),
		done:         make(chan struct{}),
		writeTimeout: writeTimeout,
		interval:     interval,
	}
}

// writePump is the only writer of conn. Returns nil when the leg is closed,
// or the write error.
func (l *leg) writePump() error {
	defer close(l.done)

	for {
		select {
		case it := <-l.sendCh:
			if it.flushed != nil {
				close(it.flushed)
				continue
			}
			if err := l.write(it.frame); err != nil {
				if errors.Is(err, errLegClosed) {
					return nil
				}
				slog.Warn("write failed", "leg", l.name, "error", err)
				return fmt.Errorf("%w: %w", l.fail, err)
			}

		case <-l.closeCh:
			return nil
		}
	}
}

func (l *leg) write(frame []byte) error {
	if l.interval > 0 && !l.lastWrite.IsZero() {
		if wait := l.interval - time.Since(l.lastWrite); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-t.C:
			case <-l.closeCh:
				t.Stop()
				return errLegClosed
			}
		}
	}

	if l.writeTimeout > 0 {
		if err := l.conn.SetWriteDeadline(time.Now().Add(l.writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}
	if err := protocol.WriteFrame(l.conn, frame); err != nil {
		return err
	}
	l.lastWrite = time.Now()
	return nil
}

func (l *leg) enqueue(ctx context.Context, it sendItem) error {
	select {
	case <-l.closeCh:
		return errLegClosed
	case <-l.done:
		return errLegClosed
	default:
	}

	select {
	case l.sendCh <- it:
		return nil
	case <-l.closeCh:
		return errLegClosed
	case <-l.done:
		return errLegClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send queues a complete physical frame. Blocks while the queue is full.
func (l *leg) Send(ctx context.Context, frame []byte) error {
	return l.enqueue(ctx, sendItem{frame: frame})
}

// Flush waits until every frame queued before it has been written.
func (l *leg) Flush(ctx context.Context) error {
	ch := make(chan struct{})
	if err := l.enqueue(ctx, sendItem{flushed: ch}); err != nil {
		return err
	}
	select {
	case <-ch:
		return nil
	case <-l.done:
		// pump may have handled the marker right before exiting
		select {
		case <-ch:
			return nil
		default:
			return errLegClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the pump and closes the connection. Safe to call multiple times.
func (l *leg) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.closeCh)
		err = l.conn.Close()
	})
	return err
}
