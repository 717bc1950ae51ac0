package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("creating mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return newPostgres(mock, "url_cache"), mock
}

func TestPostgresGetHit(t *testing.T) {
	s, mock := newMockPostgres(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, url, template, created FROM "url_cache" WHERE url = \$1`).
		WithArgs("example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "url", "template", "created"}).
			AddRow("abc", "example.com", "<html></html>", created))

	e, ok, err := s.Get(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || e.ID != "abc" || !e.Created.Equal(created) {
		t.Errorf("unexpected result ok=%v entry=%+v", ok, e)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresGetMiss(t *testing.T) {
	s, mock := newMockPostgres(t)
	mock.ExpectQuery(`SELECT id, url, template, created FROM "url_cache"`).
		WithArgs("example.com").
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := s.Get(context.Background(), "example.com")
	if err != nil || ok {
		t.Errorf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestPostgresGetTransportError(t *testing.T) {
	s, mock := newMockPostgres(t)
	mock.ExpectQuery(`SELECT`).
		WithArgs("example.com").
		WillReturnError(errors.New("connection reset"))

	_, _, err := s.Get(context.Background(), "example.com")
	if !IsTransport(err) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestPostgresPutUpserts(t *testing.T) {
	s, mock := newMockPostgres(t)
	fixed := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	mock.ExpectExec(`INSERT INTO "url_cache" .* ON CONFLICT \(url\) DO UPDATE`).
		WithArgs("example.com", pgxmock.AnyArg(), "<html></html>", fixed).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	e, err := s.Put(context.Background(), "example.com", "<html></html>")
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if e.ID == "" || e.URL != "example.com" {
		t.Errorf("unexpected entry %+v", e)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresInit(t *testing.T) {
	s, mock := newMockPostgres(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "url_cache"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	if err := s.init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
}
