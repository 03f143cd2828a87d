package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/meridian-build/estimator/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "estimator.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		var poolCfg *store.PoolConfig
		if cfg.Store.MaxConns > 0 || cfg.Store.MinConns > 0 {
			poolCfg = &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			}
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, poolCfg)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
