package audit

import (
	"bytes"
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/udisondev/tibiarelay/internal/constants"
	"github.com/udisondev/tibiarelay/internal/events"
	"github.com/udisondev/tibiarelay/internal/packets"
)

// flushTimeout bounds the final flush after the recorder is stopped.
const flushTimeout = 5 * time.Second

// Recorder buffers audit rows and writes them in batches from one goroutine.
// Tap and Notify never block: when the queue is full the row is dropped.
type Recorder struct {
	store     Store
	packets   chan Record
	events    chan Event
	batchSize int
	interval  time.Duration
	dropped   atomic.Int64
}

// NewRecorder creates a Recorder. Call Run to start writing.
func NewRecorder(store Store, queueSize, batchSize int, interval time.Duration) *Recorder {
	if queueSize <= 0 {
		queueSize = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Recorder{
		store:     store,
		packets:   make(chan Record, queueSize),
		events:    make(chan Event, queueSize),
		batchSize: batchSize,
		interval:  interval,
	}
}

// Tap records a decrypted message. It has the events.Tap signature.
func (r *Recorder) Tap(tc events.TapContext) {
	rec := Record{
		SessionID: tc.SessionID,
		Direction: tc.Direction,
		Length:    len(tc.Message),
		Payload:   bytes.Clone(tc.Message),
		At:        time.Now(),
	}
	if len(tc.Message) > constants.MessageHeaderSize {
		rec.Type = packets.Type(tc.Message[constants.MessageHeaderSize])
	}
	select {
	case r.packets <- rec:
	default:
		r.drop("packet")
	}
}

// Notify records a session notification.
func (r *Recorder) Notify(n events.Notification) {
	ev := Event{SessionID: n.SessionID, Kind: n.Kind.String(), Message: n.Message, At: n.At}
	select {
	case r.events <- ev:
	default:
		r.drop("event")
	}
}

func (r *Recorder) drop(what string) {
	if r.dropped.Add(1) == 1 {
		slog.Warn("audit queue full, dropping rows", "kind", what)
	}
}

// Dropped returns how many rows were lost to a full queue.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Run writes batches until ctx is cancelled, then flushes what is queued.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var (
		pk []Record
		ev []Event
	)
	flush := func(ctx context.Context) {
		if err := r.store.InsertPackets(ctx, pk); err != nil {
			slog.Error("writing audit packets", "count", len(pk), "error", err)
		}
		if err := r.store.InsertEvents(ctx, ev); err != nil {
			slog.Error("writing session events", "count", len(ev), "error", err)
		}
		pk, ev = nil, nil
	}

	for {
		select {
		case rec := <-r.packets:
			pk = append(pk, rec)
			if len(pk) >= r.batchSize {
				flush(ctx)
			}
		case e := <-r.events:
			ev = append(ev, e)
			if len(ev) >= r.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			if len(pk) > 0 || len(ev) > 0 {
				flush(ctx)
			}
		case <-ctx.Done():
		drain:
			for {
				select {
				case rec := <-r.packets:
					pk = append(pk, rec)
				case e := <-r.events:
					ev = append(ev, e)
				default:
					break drain
				}
			}
			fctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			flush(fctx)
			cancel()
			return nil
		}
	}
}
