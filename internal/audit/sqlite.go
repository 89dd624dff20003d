package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/udisondev/tibiarelay/internal/audit/migrations"
	"github.com/udisondev/tibiarelay/internal/packets"
)

// SQLiteStore writes audit rows to a local file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and migrates it.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit database %s: %w", path, err)
	}
	// SQLite не поддерживает конкурентную запись
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		slog.Warn("failed to enable WAL mode", "path", path, "error", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging audit database: %w", err)
	}
	if err := migrate(ctx, db, "sqlite3", migrations.SQLiteDir); err != nil {
		_ = db.Close()
		return nil, err
	}

	slog.Info("audit database opened", "path", path)
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) InsertPackets(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	return s.tx(ctx, `INSERT INTO packet_audit (session_id, direction, packet_type, length, payload, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)`, len(recs), func(stmt *sql.Stmt, i int) error {
		r := recs[i]
		_, err := stmt.ExecContext(ctx, r.SessionID.String(), int(r.Direction), int(r.Type), r.Length, r.Payload, r.At.UnixMilli())
		return err
	})
}

func (s *SQLiteStore) InsertEvents(ctx context.Context, evs []Event) error {
	if len(evs) == 0 {
		return nil
	}
	return s.tx(ctx, `INSERT INTO session_events (session_id, kind, message, recorded_at) VALUES (?, ?, ?, ?)`,
		len(evs), func(stmt *sql.Stmt, i int) error {
			e := evs[i]
			_, err := stmt.ExecContext(ctx, e.SessionID.String(), e.Kind, e.Message, e.At.UnixMilli())
			return err
		})
}

// tx runs one prepared statement n times in a transaction.
func (s *SQLiteStore) tx(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning audit transaction: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing audit insert: %w", err)
	}
	defer stmt.Close()

	for i := range n {
		if err := exec(stmt, i); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("inserting audit row %d of %d: %w", i+1, n, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing audit rows: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Packets(ctx context.Context, sessionID uuid.UUID) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT direction, packet_type, length, payload, recorded_at
		 FROM packet_audit WHERE session_id = ? ORDER BY id`, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("querying audit packets: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			dir, typ, length int
			payload          []byte
			at               int64
		)
		if err := rows.Scan(&dir, &typ, &length, &payload, &at); err != nil {
			return nil, fmt.Errorf("scanning audit packet: %w", err)
		}
		out = append(out, Record{
			SessionID: sessionID,
			Direction: packets.Direction(dir),
			Type:      packets.Type(typ),
			Length:    length,
			Payload:   payload,
			At:        time.UnixMilli(at),
		})
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Events(ctx context.Context, sessionID uuid.UUID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, message, recorded_at FROM session_events WHERE session_id = ? ORDER BY id`,
		sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("querying session events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e := Event{SessionID: sessionID}
		var at int64
		if err := rows.Scan(&e.Kind, &e.Message, &at); err != nil {
			return nil, fmt.Errorf("scanning session event: %w", err)
		}
		e.At = time.UnixMilli(at)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
