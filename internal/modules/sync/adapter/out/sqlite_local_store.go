package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sacredsound/internal/modules/sync/domain"
	syncout "sacredsound/internal/modules/sync/port/out"
	apperrors "sacredsound/internal/platform/errors"

	_ "modernc.org/sqlite"
)

// indexed columns allowed per collection
var allowedIndexes = map[domain.Collection]map[domain.Index]bool{
	domain.CollectionSessions:       {domain.IndexDate: true, domain.IndexType: true},
	domain.CollectionCustomSessions: {domain.IndexName: true},
}

type SQLiteLocalStore struct {
	db *sql.DB
}

var _ syncout.LocalStore = (*SQLiteLocalStore)(nil)

func NewSQLiteLocalStore(dbPath string) (*SQLiteLocalStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, apperrors.Storage("create db dir", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperrors.Storage("open sqlite", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	store := &SQLiteLocalStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteLocalStore) ensureSchema(ctx context.Context) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return apperrors.Storage(fmt.Sprintf("execute %q", pragma), err)
		}
	}
	const ddl = `
CREATE TABLE IF NOT EXISTS records (
  collection TEXT NOT NULL,
  key TEXT NOT NULL,
  body TEXT NOT NULL,
  date INTEGER,
  type TEXT,
  name TEXT,
  PRIMARY KEY (collection, key)
);
CREATE INDEX IF NOT EXISTS idx_records_date ON records(collection, date);
CREATE INDEX IF NOT EXISTS idx_records_type ON records(collection, type);
CREATE INDEX IF NOT EXISTS idx_records_name ON records(collection, name);
CREATE TABLE IF NOT EXISTS sync_queue (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  collection TEXT NOT NULL,
  action TEXT NOT NULL,
  key TEXT NOT NULL,
  payload TEXT,
  timestamp INTEGER NOT NULL,
  retry_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT NOT NULL DEFAULT '',
  parked INTEGER NOT NULL DEFAULT 0
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return apperrors.Storage("create schema", err)
	}
	return nil
}

func (s *SQLiteLocalStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteLocalStore) Get(ctx context.Context, collection domain.Collection, key string) (json.RawMessage, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM records WHERE collection = ? AND key = ?`, string(collection), key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apperrors.Storage("get record", err)
	}
	return json.RawMessage(body), true, nil
}

func (s *SQLiteLocalStore) GetAll(ctx context.Context, collection domain.Collection) ([]json.RawMessage, error) {
	return s.queryBodies(ctx, "list records", `SELECT body FROM records WHERE collection = ? ORDER BY key`, string(collection))
}

func (s *SQLiteLocalStore) GetAllByIndex(ctx context.Context, collection domain.Collection, index domain.Index, query domain.IndexQuery) ([]json.RawMessage, error) {
	if !allowedIndexes[collection][index] {
		return nil, fmt.Errorf("%w: collection %s has no index %q", apperrors.ErrInvalidInput, collection, index)
	}
	switch index {
	case domain.IndexDate:
		if query.To < query.From {
			return []json.RawMessage{}, nil
		}
		return s.queryBodies(ctx, "query date index",
			`SELECT body FROM records WHERE collection = ? AND date BETWEEN ? AND ? ORDER BY date, key`,
			string(collection), query.From, query.To)
	case domain.IndexType:
		return s.queryBodies(ctx, "query type index",
			`SELECT body FROM records WHERE collection = ? AND type = ? ORDER BY key`, string(collection), query.Equals)
	default:
		return s.queryBodies(ctx, "query name index",
			`SELECT body FROM records WHERE collection = ? AND name = ? ORDER BY key`, string(collection), query.Equals)
	}
}

func (s *SQLiteLocalStore) queryBodies(ctx context.Context, op, query string, args ...any) ([]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Storage(op, err)
	}
	defer rows.Close()
	out := []json.RawMessage{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, apperrors.Storage(op, err)
		}
		out = append(out, json.RawMessage(body))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(op, err)
	}
	return out, nil
}

type indexFields struct {
	Date *float64 `json:"date"`
	Type *string  `json:"type"`
	Name *string  `json:"name"`
}

func (s *SQLiteLocalStore) Put(ctx context.Context, collection domain.Collection, record json.RawMessage) error {
	key, err := domain.RecordKey(record)
	if err != nil {
		return err
	}
	fields := indexFields{}
	// Index columns are best effort; a record with odd field types is still stored.
	_ = json.Unmarshal(record, &fields)
	var date sql.NullInt64
	if fields.Date != nil {
		date = sql.NullInt64{Int64: int64(*fields.Date), Valid: true}
	}
	const stmt = `
INSERT INTO records (collection, key, body, date, type, name)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(collection, key) DO UPDATE SET
  body=excluded.body,
  date=excluded.date,
  type=excluded.type,
  name=excluded.name;
`
	if _, err := s.db.ExecContext(ctx, stmt, string(collection), key, string(record), date, nullString(fields.Type), nullString(fields.Name)); err != nil {
		return apperrors.Storage("put record", err)
	}
	return nil
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func (s *SQLiteLocalStore) Delete(ctx context.Context, collection domain.Collection, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND key = ?`, string(collection), key); err != nil {
		return apperrors.Storage("delete record", err)
	}
	return nil
}

func (s *SQLiteLocalStore) ClearAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Storage("begin clear", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return apperrors.Storage("clear records", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_queue`); err != nil {
		return apperrors.Storage("clear sync queue", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Storage("commit clear", err)
	}
	return nil
}

func (s *SQLiteLocalStore) Enqueue(ctx context.Context, entry domain.QueueEntry) (domain.QueueEntry, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_queue (collection, action, key, payload, timestamp, retry_count, last_error, parked) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(entry.Collection), string(entry.Action), entry.Key, nullPayload(entry.Payload),
		entry.Timestamp, entry.RetryCount, entry.LastError, boolInt(entry.Parked),
	)
	if err != nil {
		return domain.QueueEntry{}, apperrors.Storage("enqueue", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return domain.QueueEntry{}, apperrors.Storage("enqueue", err)
	}
	entry.Seq = seq
	return entry, nil
}

func nullPayload(payload json.RawMessage) sql.NullString {
	if len(payload) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(payload), Valid: true}
}

func (s *SQLiteLocalStore) ListQueue(ctx context.Context) ([]domain.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, collection, action, key, payload, timestamp, retry_count, last_error, parked FROM sync_queue ORDER BY seq`)
	if err != nil {
		return nil, apperrors.Storage("list queue", err)
	}
	defer rows.Close()
	out := []domain.QueueEntry{}
	for rows.Next() {
		var (
			entry      domain.QueueEntry
			collection string
			action     string
			payload    sql.NullString
			parked     int
		)
		if err := rows.Scan(&entry.Seq, &collection, &action, &entry.Key, &payload, &entry.Timestamp, &entry.RetryCount, &entry.LastError, &parked); err != nil {
			return nil, apperrors.Storage("list queue", err)
		}
		entry.Collection = domain.Collection(collection)
		entry.Action = domain.Action(action)
		entry.Parked = parked != 0
		if payload.Valid {
			entry.Payload = json.RawMessage(payload.String)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("list queue", err)
	}
	return out, nil
}

func (s *SQLiteLocalStore) RemoveQueueEntry(ctx context.Context, seq int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE seq = ?`, seq); err != nil {
		return apperrors.Storage("remove queue entry", err)
	}
	return nil
}

func (s *SQLiteLocalStore) UpdateQueueEntry(ctx context.Context, entry domain.QueueEntry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_queue SET retry_count = ?, last_error = ?, parked = ? WHERE seq = ?`,
		entry.RetryCount, entry.LastError, boolInt(entry.Parked), entry.Seq)
	if err != nil {
		return apperrors.Storage("update queue entry", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: queue entry %d", apperrors.ErrNotFound, entry.Seq)
	}
	return nil
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
