package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Local is an on-disk SQLite template store. One row per key.
type Local struct {
	readDB  *sql.DB
	writeDB *sql.DB
	path    string
}

func OpenLocal(dbPath string) (*Local, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	l := &Local{readDB: readDB, writeDB: writeDB, path: dbPath}
	if err := l.init(); err != nil {
		l.Close()
		return nil, err
	}
	return l, nil
}

func (l *Local) init() error {
	_, err := l.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS templates (
			url      TEXT PRIMARY KEY,
			id       TEXT NOT NULL,
			template TEXT NOT NULL,
			created  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_templates_created ON templates(created DESC);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (l *Local) Close() error {
	var errs []error
	if l.readDB != nil {
		errs = append(errs, l.readDB.Close())
	}
	if l.writeDB != nil {
		errs = append(errs, l.writeDB.Close())
	}
	return errors.Join(errs...)
}

func (l *Local) Get(ctx context.Context, key string) (Entry, bool, error) {
	var e Entry
	err := l.readDB.QueryRowContext(ctx,
		"SELECT id, url, template, created FROM templates WHERE url = ?", key,
	).Scan(&e.ID, &e.URL, &e.Template, &e.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, &TransportError{Op: "get", Err: err}
	}
	return e, true, nil
}

func (l *Local) Put(ctx context.Context, key, template string) (Entry, error) {
	e := Entry{ID: uuid.NewString(), URL: key, Template: template, Created: time.Now().UTC()}
	_, err := l.writeDB.ExecContext(ctx, `
		INSERT INTO templates (url, id, template, created)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			id = excluded.id,
			template = excluded.template,
			created = excluded.created
	`, e.URL, e.ID, e.Template, e.Created)
	if err != nil {
		return Entry{}, fmt.Errorf("storing template for %s: %w", key, err)
	}
	return e, nil
}

// Keys lists cached keys, newest first.
func (l *Local) Keys(ctx context.Context) ([]string, error) {
	rows, err := l.readDB.QueryContext(ctx, "SELECT url FROM templates ORDER BY created DESC")
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Stats returns the number of cached templates and the database file size.
func (l *Local) Stats() (count int, size int64, err error) {
	if err := l.readDB.QueryRow("SELECT COUNT(*) FROM templates").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting templates: %w", err)
	}
	info, err := os.Stat(l.path)
	if err != nil {
		return count, 0, err
	}
	return count, info.Size(), nil
}
