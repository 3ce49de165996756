package checkpoint

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"pitchdna/internal/records"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
// Existing checkpoint databases must be deleted after a schema change.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// SQLiteStore keeps the checkpoint in a SQLite database. Each flush replaces
// the header and every row in one transaction.
type SQLiteStore struct {
	db   *sql.DB
	path string

	mu    sync.Mutex
	stats Stats
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens or creates the checkpoint database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create checkpoint directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &SQLiteStore{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Stats returns write counters.
func (s *SQLiteStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Flush replaces the stored table unless its digest is unchanged.
func (s *SQLiteStore) Flush(ctx context.Context, table *records.Table) error {
	data, err := table.Encode()
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	sum := digest(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored string
	err = s.db.QueryRowContext(ctx, "SELECT digest FROM checkpoint_meta WHERE id = 1").Scan(&stored)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read checkpoint digest: %w", err)
	}
	if stored == sum {
		s.stats.Skipped++
		return nil
	}

	header, err := json.Marshal(table.Header())
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkpoint tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM checkpoint_rows"); err != nil {
		return fmt.Errorf("clear checkpoint rows: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO checkpoint_rows (row_index, cells) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("prepare row insert: %w", err)
	}
	defer stmt.Close()
	for i := 0; i < table.Len(); i++ {
		cells, err := json.Marshal(table.Row(i))
		if err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, i, string(cells)); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO checkpoint_meta (id, header, digest, row_count, updated_at)
         VALUES (1, ?, ?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET
            header = excluded.header,
            digest = excluded.digest,
            row_count = excluded.row_count,
            updated_at = excluded.updated_at`,
		string(header), sum, table.Len(), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write checkpoint meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit checkpoint: %w", err)
	}
	s.stats.Writes++
	return nil
}

// Load reads the stored table if a checkpoint exists.
func (s *SQLiteStore) Load(ctx context.Context) (*records.Table, bool, error) {
	var headerJSON string
	var rowCount int
	err := s.db.QueryRowContext(ctx, "SELECT header, row_count FROM checkpoint_meta WHERE id = 1").Scan(&headerJSON, &rowCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read checkpoint meta: %w", err)
	}
	var header []string
	if err := json.Unmarshal([]byte(headerJSON), &header); err != nil {
		return nil, false, fmt.Errorf("decode header: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT cells FROM checkpoint_rows ORDER BY row_index")
	if err != nil {
		return nil, false, fmt.Errorf("query checkpoint rows: %w", err)
	}
	defer rows.Close()
	cells := make([][]string, 0, rowCount)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, false, fmt.Errorf("scan checkpoint row: %w", err)
		}
		var row []string
		if err := json.Unmarshal([]byte(raw), &row); err != nil {
			return nil, false, fmt.Errorf("decode checkpoint row: %w", err)
		}
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate checkpoint rows: %w", err)
	}
	if len(cells) != rowCount {
		return nil, false, fmt.Errorf("checkpoint has %d rows, meta records %d", len(cells), rowCount)
	}
	table, err := records.FromRows(header, cells)
	if err != nil {
		return nil, false, fmt.Errorf("rebuild checkpoint table: %w", err)
	}
	return table, true, nil
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start over)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}
