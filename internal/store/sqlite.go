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
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/law-makers/scavenger/internal/config"
	"github.com/law-makers/scavenger/pkg/models"
)

const scrapsTable = "scraps"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLite stores scraps and model rows in one database file.
type SQLite struct {
	db     *sql.DB
	path   string
	tables map[string]*modelTable
	now    func() time.Time
}

// OpenSQLite opens or creates the database at path and makes sure the
// scraps table and every model table exist.
func OpenSQLite(ctx context.Context, path string, defs map[string]config.ModelDef) (*SQLite, error) {
	tables, err := buildTables(defs)
	if err != nil {
		return nil, err
	}

	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = path + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// :memory: databases live on a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLite{db: db, path: path, tables: tables, now: time.Now}

	if path != MemoryPath {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Debug().Str("path", path).Int("models", len(tables)).Msg("Database opened")
	return s, nil
}

func (s *SQLite) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS scraps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hash VARCHAR(128) NOT NULL UNIQUE,
		title TEXT,
		model TEXT NOT NULL,
		related INTEGER NULL,
		data TEXT NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scraps_target ON scraps(target);
	CREATE INDEX IF NOT EXISTS idx_scraps_model ON scraps(model);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	for name, t := range s.tables {
		cols := make([]string, 0, len(t.columns)+3)
		cols = append(cols, "id INTEGER PRIMARY KEY AUTOINCREMENT")
		for _, c := range t.columns {
			cols = append(cols, fmt.Sprintf("%q TEXT", c))
		}
		cols = append(cols, "created_at TEXT NOT NULL", "updated_at TEXT NOT NULL")
		stmt := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", t.table, strings.Join(cols, ", "))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("model %s: %w", name, err)
		}
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScrap(r rowScanner) (*models.Scrap, error) {
	var (
		sc      models.Scrap
		title   sql.NullString
		related sql.NullInt64
		data    string
		created string
		updated string
	)
	if err := r.Scan(&sc.ID, &sc.Hash, &title, &sc.Model, &related, &data,
		&sc.Source, &sc.Target, &created, &updated); err != nil {
		return nil, err
	}
	sc.Title = title.String
	sc.Related = related.Int64
	sc.CreatedAt = parseTime(created)
	sc.UpdatedAt = parseTime(updated)
	if err := json.Unmarshal([]byte(data), &sc.Data); err != nil {
		return nil, fmt.Errorf("scrap %s: decode data: %w", sc.Hash, err)
	}
	return &sc, nil
}

const scrapColumns = "id, hash, title, model, related, data, source, target, created_at, updated_at"

func (s *SQLite) FindByHash(ctx context.Context, hash string) (*models.Scrap, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+scrapColumns+" FROM scraps WHERE hash = ?", hash)
	sc, err := scanScrap(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find scrap %s: %w", hash, err)
	}
	return sc, nil
}

func (s *SQLite) Save(ctx context.Context, sc *models.Scrap) error {
	if sc.Hash == "" {
		return fmt.Errorf("scrap has no hash")
	}
	data, err := json.Marshal(sc.Data)
	if err != nil {
		return fmt.Errorf("encode scrap data: %w", err)
	}
	related := sql.NullInt64{Int64: sc.Related, Valid: sc.Related > 0}
	now := formatTime(s.now())

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scraps (hash, title, model, related, data, source, target, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			title = excluded.title,
			model = excluded.model,
			related = COALESCE(excluded.related, scraps.related),
			data = excluded.data,
			source = excluded.source,
			target = excluded.target,
			updated_at = excluded.updated_at`,
		sc.Hash, sc.Title, sc.Model, related, string(data), sc.Source, sc.Target, now, now)
	if err != nil {
		return fmt.Errorf("save scrap %s: %w", sc.Hash, err)
	}

	stored, err := s.FindByHash(ctx, sc.Hash)
	if err != nil {
		return err
	}
	sc.ID = stored.ID
	sc.Related = stored.Related
	sc.CreatedAt = stored.CreatedAt
	sc.UpdatedAt = stored.UpdatedAt
	return nil
}

func (s *SQLite) List(ctx context.Context, f Filter) ([]models.Scrap, error) {
	var (
		where []string
		args  []any
	)
	if f.Target != "" {
		where = append(where, "target = ?")
		args = append(args, f.Target)
	}
	if f.Model != "" {
		where = append(where, "model = ?")
		args = append(args, f.Model)
	}
	q := "SELECT " + scrapColumns + " FROM scraps"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list scraps: %w", err)
	}
	defer rows.Close()

	var out []models.Scrap
	for rows.Next() {
		sc, err := scanScrap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sc)
	}
	return out, rows.Err()
}

func (s *SQLite) HasModel(name string) bool {
	_, ok := s.tables[name]
	return ok
}

func (s *SQLite) Columns(name string) []string {
	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	return append([]string(nil), t.columns...)
}

func (s *SQLite) Exists(ctx context.Context, model string, id int64) (bool, error) {
	t, ok := s.tables[model]
	if !ok {
		return false, fmt.Errorf("unknown model %q", model)
	}
	var n int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(1) FROM %q WHERE id = ?", t.table), id).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("lookup %s #%d: %w", model, id, err)
	}
	return n > 0, nil
}

func (s *SQLite) Create(ctx context.Context, model string, attrs map[string]string) (int64, error) {
	t, ok := s.tables[model]
	if !ok {
		return 0, fmt.Errorf("unknown model %q", model)
	}
	cols, vals := t.pick(attrs)
	now := formatTime(s.now())
	quoted := make([]string, 0, len(cols)+2)
	for _, c := range cols {
		quoted = append(quoted, fmt.Sprintf("%q", c))
	}
	quoted = append(quoted, "created_at", "updated_at")
	vals = append(vals, now, now)

	stmt := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		t.table, strings.Join(quoted, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(quoted)), ", "))
	res, err := s.db.ExecContext(ctx, stmt, vals...)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", model, err)
	}
	return res.LastInsertId()
}
