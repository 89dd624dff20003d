package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/udisondev/tibiarelay/internal/audit/migrations"
	"github.com/udisondev/tibiarelay/internal/packets"
)

// PostgresStore writes audit rows through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and migrates.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sql connection for migrations: %w", err)
	}
	err = migrate(ctx, sqlDB, "postgres", migrations.PostgresDir)
	_ = sqlDB.Close()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an already migrated pool. The store does not own it.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// InsertPackets copies a batch in one round trip.
func (s *PostgresStore) InsertPackets(ctx context.Context, recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, []any{pgUUID(r.SessionID), int16(r.Direction), int16(r.Type), int32(r.Length), r.Payload, r.At})
	}
	_, err := s.pool.CopyFrom(ctx,
		pgx.Identifier{"packet_audit"},
		[]string{"session_id", "direction", "packet_type", "length", "payload", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("inserting %d audit packets: %w", len(recs), err)
	}
	return nil
}

// InsertEvents queues the inserts in one batch.
func (s *PostgresStore) InsertEvents(ctx context.Context, evs []Event) error {
	if len(evs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range evs {
		batch.Queue(
			`INSERT INTO session_events (session_id, kind, message, recorded_at) VALUES ($1, $2, $3, $4)`,
			pgUUID(e.SessionID), e.Kind, e.Message, e.At,
		)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting %d session events: %w", len(evs), err)
	}
	return nil
}

func (s *PostgresStore) Packets(ctx context.Context, sessionID uuid.UUID) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT direction, packet_type, length, payload, recorded_at
		 FROM packet_audit WHERE session_id = $1 ORDER BY id`, pgUUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("querying audit packets: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			dir, typ int16
			length   int32
			payload  []byte
			at       time.Time
		)
		if err := rows.Scan(&dir, &typ, &length, &payload, &at); err != nil {
			return nil, fmt.Errorf("scanning audit packet: %w", err)
		}
		out = append(out, Record{
			SessionID: sessionID,
			Direction: packets.Direction(dir),
			Type:      packets.Type(typ),
			Length:    int(length),
			Payload:   payload,
			At:        at,
		})
	}
	return out, rows.Err()
}

func (s *PostgresStore) Events(ctx context.Context, sessionID uuid.UUID) ([]Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT kind, message, recorded_at FROM session_events WHERE session_id = $1 ORDER BY id`,
		pgUUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("querying session events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		e := Event{SessionID: sessionID}
		if err := rows.Scan(&e.Kind, &e.Message, &e.At); err != nil {
			return nil, fmt.Errorf("scanning session event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
