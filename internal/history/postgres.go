package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type PostgresService struct {
	db          *sql.DB
	recentLimit int
	log         logrus.FieldLogger
}

func NewPostgresService(dsn string, recentLimit int, log logrus.FieldLogger) (*PostgresService, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensurePostgresSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history schema: %w", err)
	}
	return &PostgresService{db: db, recentLimit: recentLimit, log: log}, nil
}

func (s *PostgresService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresService) AppendEvent(handID string, ev EventItem) {
	if strings.TrimSpace(handID) == "" {
		return
	}
	if ev.EventType == "" {
		ev.EventType = "unknown"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO hand_event_stream (hand_id, seq, event_type, payload_b64, server_ts_ms)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (hand_id, seq) DO NOTHING
`, handID, int64(ev.Seq), ev.EventType, ev.PayloadB64, nullableInt64(ev.ServerTsMs))
	if err != nil {
		s.log.WithFields(logrus.Fields{"hand": handID, "seq": ev.Seq}).WithError(err).Error("append event failed")
	}
}

func (s *PostgresService) RecordHand(ctx context.Context, rec HandRecord) error {
	if strings.TrimSpace(rec.HandID) == "" {
		return fmt.Errorf("hand id is required")
	}
	if rec.PlayedAt.IsZero() {
		rec.PlayedAt = time.Now().UTC()
	}
	if rec.Summary == nil {
		rec.Summary = map[string]any{}
	}
	summaryRaw, err := json.Marshal(rec.Summary)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO hand_history (hand_id, table_id, hand_number, played_at, pot, showdown, summary_json)
VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
ON CONFLICT (hand_id) DO UPDATE
SET
    played_at = EXCLUDED.played_at,
    pot = EXCLUDED.pot,
    showdown = EXCLUDED.showdown,
    summary_json = EXCLUDED.summary_json
`, rec.HandID, rec.TableID, int64(rec.HandNumber), rec.PlayedAt, rec.Pot, rec.Showdown, string(summaryRaw)); err != nil {
		return err
	}

	if s.recentLimit > 0 {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM hand_event_stream
WHERE hand_id IN (
    SELECT hand_id FROM hand_history ORDER BY played_at DESC, id DESC OFFSET $1
)`, s.recentLimit); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
DELETE FROM hand_history
WHERE id IN (
    SELECT id FROM hand_history ORDER BY played_at DESC, id DESC OFFSET $1
)`, s.recentLimit); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *PostgresService) ListRecent(ctx context.Context, limit int) ([]HandRecord, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
SELECT hand_id, table_id, hand_number, played_at, pot, showdown, summary_json
FROM hand_history
ORDER BY played_at DESC, id DESC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HandRecord, 0, limit)
	for rows.Next() {
		var item HandRecord
		var handNumber int64
		var summaryRaw []byte
		if err := rows.Scan(&item.HandID, &item.TableID, &handNumber, &item.PlayedAt, &item.Pot, &item.Showdown, &summaryRaw); err != nil {
			return nil, err
		}
		item.HandNumber = uint64(handNumber)
		item.Summary = map[string]any{}
		if len(summaryRaw) > 0 {
			_ = json.Unmarshal(summaryRaw, &item.Summary)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresService) GetHandEvents(ctx context.Context, handID string) ([]EventItem, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM hand_history WHERE hand_id = $1)
    OR EXISTS (SELECT 1 FROM hand_event_stream WHERE hand_id = $1)
`, handID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT seq, event_type, payload_b64, server_ts_ms
FROM hand_event_stream
WHERE hand_id = $1
ORDER BY seq ASC
`, handID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]EventItem, 0, 32)
	for rows.Next() {
		var ev EventItem
		var seq int64
		var ts sql.NullInt64
		if err := rows.Scan(&seq, &ev.EventType, &ev.PayloadB64, &ts); err != nil {
			return nil, err
		}
		ev.Seq = uint64(seq)
		if ts.Valid {
			ev.ServerTsMs = ts.Int64
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func ensurePostgresSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS hand_event_stream (
    id BIGSERIAL PRIMARY KEY,
    hand_id TEXT NOT NULL,
    seq BIGINT NOT NULL,
    event_type TEXT NOT NULL,
    payload_b64 TEXT NOT NULL DEFAULT '',
    server_ts_ms BIGINT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (hand_id, seq)
)`,
		`
CREATE TABLE IF NOT EXISTS hand_history (
    id BIGSERIAL PRIMARY KEY,
    hand_id TEXT NOT NULL UNIQUE,
    table_id TEXT NOT NULL DEFAULT '',
    hand_number BIGINT NOT NULL DEFAULT 0,
    played_at TIMESTAMPTZ NOT NULL,
    pot BIGINT NOT NULL DEFAULT 0,
    showdown BOOLEAN NOT NULL DEFAULT FALSE,
    summary_json JSONB NOT NULL DEFAULT '{}'::jsonb
)`,
		`CREATE INDEX IF NOT EXISTS idx_hand_history_recent ON hand_history(played_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
