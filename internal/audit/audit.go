// Package audit keeps a log of every decrypted message and session
// milestone, in PostgreSQL or a local SQLite file.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/udisondev/tibiarelay/internal/audit/migrations"
	"github.com/udisondev/tibiarelay/internal/config"
	"github.com/udisondev/tibiarelay/internal/packets"
)

// Record is one decrypted message as it passed the relay.
type Record struct {
	SessionID uuid.UUID
	Direction packets.Direction
	// Type is the tag of the first logical packet, 0 for an empty message.
	Type    packets.Type
	Length  int
	Payload []byte // whole message, length field included
	At      time.Time
}

// Event is a stored session notification.
type Event struct {
	SessionID uuid.UUID
	Kind      string
	Message   string
	At        time.Time
}

// Store persists audit rows.
type Store interface {
	InsertPackets(ctx context.Context, recs []Record) error
	InsertEvents(ctx context.Context, evs []Event) error
	// Packets returns a session's records in insertion order.
	Packets(ctx context.Context, sessionID uuid.UUID) ([]Record, error)
	// Events returns a session's events in insertion order.
	Events(ctx context.Context, sessionID uuid.UUID) ([]Event, error)
	Close() error
}

// Open connects to the configured store and brings its schema up to date.
func Open(ctx context.Context, cfg config.AuditConfig) (Store, error) {
	// конкретный nil-указатель не должен попасть в интерфейс
	switch cfg.Driver {
	case "postgres":
		s, err := OpenPostgres(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown audit driver %q", cfg.Driver)
	}
}

// goose keeps its dialect and base FS in package state.
var gooseMu sync.Mutex

// migrate runs the embedded migrations of one dialect.
func migrate(ctx context.Context, db *sql.DB, dialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("running %s migrations: %w", dialect, err)
	}
	return nil
}
