package store

import (
	"context"
	"fmt"

	"github.com/GetMystAdmin/hot-pot/internal/config"
)

// Open builds the backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case "astra":
		token := cfg.AstraToken()
		if token == "" {
			return nil, fmt.Errorf("astra backend needs a token (store.astra.token or ASTRA_DB_APPLICATION_TOKEN)")
		}
		return NewAstra(AstraOptions{
			DBID:     cfg.Store.Astra.DBID,
			Region:   cfg.Store.Astra.Region,
			Keyspace: cfg.Store.Astra.Keyspace,
			Table:    cfg.Store.Astra.Table,
			Token:    token,
			BaseURL:  cfg.Store.Astra.BaseURL,
			Timeout:  cfg.StoreTimeout(),
		}), nil
	case "postgres":
		dsn := cfg.PostgresDSN()
		if dsn == "" {
			return nil, fmt.Errorf("postgres backend needs a dsn (store.postgres.dsn or HOTPOT_DATABASE_URL)")
		}
		ctx, cancel := context.WithTimeout(ctx, cfg.StoreTimeout())
		defer cancel()
		return OpenPostgres(ctx, dsn, cfg.Store.Postgres.Table)
	case "local", "":
		return OpenLocal(config.CachePath())
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
