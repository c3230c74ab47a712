package main

import (
	"context"
	"fmt"
	"log/slog"

	"shopnex/internal/config"
	"shopnex/internal/db"
	"shopnex/internal/repository"
	"shopnex/internal/repository/memory"
	"shopnex/internal/repository/mongo"
	"shopnex/internal/repository/postgres"
)

// store is the selected backend plus its lifecycle hooks.
type store struct {
	repository.ProductStore
	migrate func(ctx context.Context) error
	close   func()
}

func openStore(ctx context.Context, cfg config.Config) (*store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		slog.Warn("store_memory", "msg", "records are lost on exit")
		return &store{
			ProductStore: memory.New(),
			migrate:      func(context.Context) error { return nil },
			close:        func() {},
		}, nil

	case config.BackendPostgres:
		gdb, err := db.OpenPostgres(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		pg := postgres.New(gdb)
		if cfg.Postgres.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				_ = db.ClosePostgres(gdb)
				return nil, err
			}
		}
		return &store{
			ProductStore: pg,
			migrate:      pg.Migrate,
			close: func() {
				if err := db.ClosePostgres(gdb); err != nil {
					slog.Error("postgres_close", "error", err)
				}
			},
		}, nil

	case config.BackendMongo:
		conn := db.NewMongoConnector(cfg.Mongo)
		if !cfg.Mongo.Lazy {
			if _, err := conn.Connect(ctx); err != nil {
				return nil, err
			}
		}
		ms := mongo.New(conn)
		return &store{
			ProductStore: ms,
			migrate:      ms.EnsureIndexes,
			close: func() {
				if err := conn.Close(context.Background()); err != nil {
					slog.Error("mongo_close", "error", err)
				}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
