package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxConn is the subset of *pgxpool.Pool the store needs.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore keeps one row per key; Put replaces the previous template.
type PostgresStore struct {
	db    pgxConn
	table string
	now   func() time.Time
}

// OpenPostgres connects to dsn and makes sure the table exists.
func OpenPostgres(ctx context.Context, dsn, table string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	s := newPostgres(pool, table)
	if err := s.init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func newPostgres(db pgxConn, table string) *PostgresStore {
	if table == "" {
		table = "url_cache"
	}
	return &PostgresStore{db: db, table: pgx.Identifier{table}.Sanitize(), now: time.Now}
}

func (s *PostgresStore) init(ctx context.Context) error {
	_, err := s.db.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			url      TEXT PRIMARY KEY,
			id       TEXT NOT NULL,
			template TEXT NOT NULL,
			created  TIMESTAMPTZ NOT NULL
		)`, s.table))
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	var e Entry
	err := s.db.QueryRow(ctx,
		fmt.Sprintf("SELECT id, url, template, created FROM %s WHERE url = $1", s.table), key,
	).Scan(&e.ID, &e.URL, &e.Template, &e.Created)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, &TransportError{Op: "get", Err: err}
	}
	return e, true, nil
}

func (s *PostgresStore) Put(ctx context.Context, key, template string) (Entry, error) {
	e := Entry{ID: uuid.NewString(), URL: key, Template: template, Created: s.now().UTC()}
	_, err := s.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (url, id, template, created)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (url) DO UPDATE SET
			id = excluded.id,
			template = excluded.template,
			created = excluded.created`, s.table),
		e.URL, e.ID, e.Template, e.Created)
	if err != nil {
		return Entry{}, &TransportError{Op: "put", Err: err}
	}
	return e, nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
