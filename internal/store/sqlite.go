package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/backlog/internal/domain"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

// SQLDB is the SQLite database shared by every catalog kind
type SQLDB struct {
	sqlDB *sql.DB
}

// OpenSQLite opens (or creates) the SQLite cache under baseDir
func OpenSQLite(baseDir string) (*SQLDB, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(filepath.Clean(baseDir), "backlog.sqlite")
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &SQLDB{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (d *SQLDB) Close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// SQLStore implements domain.CatalogStore on one SQLite table per kind.
// The entity is stored as a JSON payload next to the indexed columns it is
// queried by.
type SQLStore[T any, P Record[T]] struct {
	sqlDB *sql.DB
	table string
	now   func() time.Time

	// Serializes upserts so the external ID check and write cannot interleave
	writeMu sync.Mutex
}

// NewSQLStore creates the table for kind and returns its store
func NewSQLStore[T any, P Record[T]](d *SQLDB, kind domain.Kind) (*SQLStore[T, P], error) {
	s := &SQLStore[T, P]{
		sqlDB: d.sqlDB,
		table: string(kind),
		now:   time.Now,
	}

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
	local_id INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	name_folded TEXT NOT NULL,
	rank REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	payload TEXT NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_%[1]s_external_id ON %[1]s (external_id);`, s.table)

	if _, err := s.sqlDB.Exec(schema); err != nil {
		return nil, fmt.Errorf("create %s table: %w", kind, err)
	}
	return s, nil
}

func (s *SQLStore[T, P]) scanRows(rows *sql.Rows) ([]P, error) {
	defer rows.Close()

	var out []P
	for rows.Next() {
		e, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLStore[T, P]) scanOne(row scanner) (P, error) {
	var (
		localID   int64
		createdAt string
		payload   string
	)
	if err := row.Scan(&localID, &createdAt, &payload); err != nil {
		return nil, err
	}

	e, err := decode[T, P]([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("row %d: %w", localID, err)
	}
	created, err := time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("row %d: parse created_at: %w", localID, err)
	}
	e.SetLocalID(localID)
	e.SetCreatedAt(created)
	return e, nil
}

func (s *SQLStore[T, P]) getOne(ctx context.Context, where string, arg any) (P, bool, error) {
	query := fmt.Sprintf("SELECT local_id, created_at, payload FROM %s WHERE %s", s.table, where)
	e, err := s.scanOne(s.sqlDB.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

func (s *SQLStore[T, P]) GetByLocalID(ctx context.Context, id int64) (P, bool, error) {
	return s.getOne(ctx, "local_id = ?", id)
}

func (s *SQLStore[T, P]) GetByExternalID(ctx context.Context, externalID int64) (P, bool, error) {
	return s.getOne(ctx, "external_id = ?", externalID)
}

// Search returns rows whose name contains term, ignoring case
func (s *SQLStore[T, P]) Search(ctx context.Context, term string) ([]P, error) {
	query := fmt.Sprintf(`SELECT local_id, created_at, payload FROM %s
WHERE instr(name_folded, ?) > 0
ORDER BY length(name), name_folded, local_id`, s.table)

	rows, err := s.sqlDB.QueryContext(ctx, query, strings.ToLower(strings.TrimSpace(term)))
	if err != nil {
		return nil, err
	}
	return s.scanRows(rows)
}

// ListAllOrderedByRank returns every row, highest rank first
func (s *SQLStore[T, P]) ListAllOrderedByRank(ctx context.Context) ([]P, error) {
	query := fmt.Sprintf(`SELECT local_id, created_at, payload FROM %s
ORDER BY rank DESC, local_id ASC`, s.table)

	rows, err := s.sqlDB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.scanRows(rows)
}

// Upsert inserts e or overwrites the row with the same external ID,
// keeping its local ID and created_at.
func (s *SQLStore[T, P]) Upsert(ctx context.Context, e P) (localID int64, err error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	payload, err := json.Marshal(e)
	if err != nil {
		return 0, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var createdAt string
	lookup := fmt.Sprintf("SELECT local_id, created_at FROM %s WHERE external_id = ?", s.table)
	err = tx.QueryRowContext(ctx, lookup, e.GetExternalID()).Scan(&localID, &createdAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		created := e.GetCreatedAt()
		if created.IsZero() {
			created = s.now().UTC()
		}
		createdAt = created.Format(timeFormat)

		insert := fmt.Sprintf(`INSERT INTO %s (external_id, name, name_folded, rank, created_at, payload)
VALUES (?, ?, ?, ?, ?, ?)`, s.table)
		var res sql.Result
		res, err = tx.ExecContext(ctx, insert,
			e.GetExternalID(), e.GetName(), strings.ToLower(e.GetName()), e.GetRank(), createdAt, string(payload))
		if err != nil {
			return 0, fmt.Errorf("insert %s: %w", s.table, err)
		}
		if localID, err = res.LastInsertId(); err != nil {
			return 0, err
		}

	case err != nil:
		return 0, fmt.Errorf("lookup %s: %w", s.table, err)

	default:
		update := fmt.Sprintf(`UPDATE %s SET name = ?, name_folded = ?, rank = ?, payload = ?
WHERE local_id = ?`, s.table)
		if _, err = tx.ExecContext(ctx, update,
			e.GetName(), strings.ToLower(e.GetName()), e.GetRank(), string(payload), localID); err != nil {
			return 0, fmt.Errorf("update %s: %w", s.table, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert: %w", err)
	}

	created, _ := time.Parse(timeFormat, createdAt)
	e.SetLocalID(localID)
	e.SetCreatedAt(created)
	return localID, nil
}

// DeleteAll removes every row. AUTOINCREMENT keeps local IDs from being reused.
func (s *SQLStore[T, P]) DeleteAll(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_, err := s.sqlDB.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", s.table))
	return err
}
