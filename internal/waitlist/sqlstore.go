package waitlist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLStore 基于 sqlx 的存储，支持 SQLite 与 Postgres
type SQLStore struct {
	db     *sqlx.DB
	driver string
	table  string
	now    func() time.Time
}

// OpenSQLite 打开（或创建）SQLite 数据库并建表
func OpenSQLite(ctx context.Context, path, table string) (*SQLStore, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// 单连接避免 SQLITE_BUSY
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return newSQLStore(ctx, db, "sqlite", table)
}

// OpenPostgres 连接 Postgres 并建表
func OpenPostgres(ctx context.Context, dsn, table string) (*SQLStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return newSQLStore(ctx, db, "postgres", table)
}

func newSQLStore(ctx context.Context, db *sqlx.DB, driver, table string) (*SQLStore, error) {
	if !tableNamePattern.MatchString(table) {
		db.Close()
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	s := &SQLStore{db: db, driver: driver, table: table, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	var stmt string
	switch s.driver {
	case "postgres":
		stmt = `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			id         UUID PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	default:
		stmt = `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			id         TEXT PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			created_at DATETIME NOT NULL
		)`
	}
	_, err := s.db.ExecContext(ctx, stmt)
	return err
}

// Insert 写入一条记录
func (s *SQLStore) Insert(ctx context.Context, email string) (Entry, error) {
	entry := Entry{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	query := s.db.Rebind(`INSERT INTO ` + s.table + ` (id, email, created_at) VALUES (?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query, entry.ID, entry.Email, entry.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return Entry{}, ErrDuplicate
		}
		return Entry{}, err
	}
	return entry, nil
}

// Count 记录总数
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+s.table); err != nil {
		return 0, err
	}
	return n, nil
}

// Close 关闭连接
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// isUniqueViolation 识别 Postgres 23505 与 SQLite UNIQUE 约束冲突
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
	}
	return false
}
