package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const defaultLocalDBName = "holdem_tafel.db"

type SQLiteService struct {
	db          *sql.DB
	recentLimit int
	log         logrus.FieldLogger
}

func NewSQLiteService(dbPath string, recentLimit int, log logrus.FieldLogger) (*SQLiteService, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		p, err := defaultLocalDatabasePath()
		if err != nil {
			return nil, err
		}
		dbPath = p
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// a single connection also keeps a :memory: database alive
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := ensureSQLiteSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteService{db: db, recentLimit: recentLimit, log: log}, nil
}

func (s *SQLiteService) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteService) AppendEvent(handID string, ev EventItem) {
	if strings.TrimSpace(handID) == "" {
		return
	}
	if ev.EventType == "" {
		ev.EventType = "unknown"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO hand_event_stream (hand_id, seq, event_type, payload_b64, server_ts_ms, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (hand_id, seq) DO NOTHING
`, handID, ev.Seq, ev.EventType, ev.PayloadB64, nullableInt64(ev.ServerTsMs), time.Now().UnixMilli())
	if err != nil {
		s.log.WithFields(logrus.Fields{"hand": handID, "seq": ev.Seq}).WithError(err).Error("append event failed")
	}
}

func (s *SQLiteService) RecordHand(ctx context.Context, rec HandRecord) error {
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
INSERT INTO hand_history (hand_id, table_id, hand_number, played_at_ms, pot, showdown, summary_json)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (hand_id) DO UPDATE
SET
    played_at_ms = excluded.played_at_ms,
    pot = excluded.pot,
    showdown = excluded.showdown,
    summary_json = excluded.summary_json
`, rec.HandID, rec.TableID, rec.HandNumber, rec.PlayedAt.UnixMilli(), rec.Pot, boolToInt(rec.Showdown), string(summaryRaw)); err != nil {
		return err
	}

	if s.recentLimit > 0 {
		if _, err := tx.ExecContext(ctx, `
DELETE FROM hand_event_stream
WHERE hand_id IN (
    SELECT hand_id FROM hand_history ORDER BY played_at_ms DESC, id DESC LIMIT -1 OFFSET ?
)`, s.recentLimit); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
DELETE FROM hand_history
WHERE id IN (
    SELECT id FROM hand_history ORDER BY played_at_ms DESC, id DESC LIMIT -1 OFFSET ?
)`, s.recentLimit); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteService) ListRecent(ctx context.Context, limit int) ([]HandRecord, error) {
	limit = clampLimit(limit)
	rows, err := s.db.QueryContext(ctx, `
SELECT hand_id, table_id, hand_number, played_at_ms, pot, showdown, summary_json
FROM hand_history
ORDER BY played_at_ms DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]HandRecord, 0, limit)
	for rows.Next() {
		var item HandRecord
		var playedAtMs int64
		var showdown int
		var summaryRaw string
		if err := rows.Scan(&item.HandID, &item.TableID, &item.HandNumber, &playedAtMs, &item.Pot, &showdown, &summaryRaw); err != nil {
			return nil, err
		}
		item.PlayedAt = time.UnixMilli(playedAtMs).UTC()
		item.Showdown = showdown != 0
		item.Summary = map[string]any{}
		if summaryRaw != "" {
			_ = json.Unmarshal([]byte(summaryRaw), &item.Summary)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteService) GetHandEvents(ctx context.Context, handID string) ([]EventItem, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(1) FROM (
    SELECT hand_id FROM hand_history WHERE hand_id = ?
    UNION ALL
    SELECT hand_id FROM hand_event_stream WHERE hand_id = ?
)`, handID, handID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT seq, event_type, payload_b64, server_ts_ms
FROM hand_event_stream
WHERE hand_id = ?
ORDER BY seq ASC
`, handID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]EventItem, 0, 32)
	for rows.Next() {
		var ev EventItem
		var ts sql.NullInt64
		if err := rows.Scan(&ev.Seq, &ev.EventType, &ev.PayloadB64, &ts); err != nil {
			return nil, err
		}
		if ts.Valid {
			ev.ServerTsMs = ts.Int64
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func ensureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`
CREATE TABLE IF NOT EXISTS hand_event_stream (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hand_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    event_type TEXT NOT NULL,
    payload_b64 TEXT NOT NULL DEFAULT '',
    server_ts_ms INTEGER,
    created_at_ms INTEGER NOT NULL,
    UNIQUE (hand_id, seq)
)`,
		`CREATE INDEX IF NOT EXISTS idx_hand_event_stream_hand_seq ON hand_event_stream(hand_id, seq)`,
		`
CREATE TABLE IF NOT EXISTS hand_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hand_id TEXT NOT NULL UNIQUE,
    table_id TEXT NOT NULL DEFAULT '',
    hand_number INTEGER NOT NULL DEFAULT 0,
    played_at_ms INTEGER NOT NULL,
    pot INTEGER NOT NULL DEFAULT 0,
    showdown INTEGER NOT NULL DEFAULT 0,
    summary_json TEXT NOT NULL DEFAULT '{}'
)`,
		`CREATE INDEX IF NOT EXISTS idx_hand_history_recent ON hand_history(played_at_ms DESC)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func defaultLocalDatabasePath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userConfigDir, "HoldemTafel", defaultLocalDBName), nil
}

func nullableInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
