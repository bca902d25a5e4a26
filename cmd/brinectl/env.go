package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ahrav/go-brine/infrastructure/store"
	"github.com/ahrav/go-brine/internal/application"
	"github.com/ahrav/go-brine/internal/logger"
	"github.com/ahrav/go-brine/internal/ports"
)

// env is the per-invocation runtime shared by commands: validated
// configuration, the engine built from it and a logger.
type env struct {
	rt  *application.Runtime
	log *zap.Logger
}

func setup(ctx context.Context, f *rootFlags) (*env, error) {
	loader, err := application.NewConfigLoader()
	if err != nil {
		return nil, err
	}

	var rt *application.Runtime
	if f.configPath == "" {
		rt, err = loader.LoadDefault(ctx)
	} else {
		rt, err = loader.LoadFromFile(ctx, f.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	mode, level := rt.Config.Telemetry.LogMode, rt.Config.Telemetry.LogLevel
	if f.logMode != "" {
		mode = f.logMode
	}
	if f.logLevel != "" {
		level = f.logLevel
	}
	log, err := logger.New(mode, level)
	if err != nil {
		return nil, err
	}

	return &env{rt: rt, log: log.With(zap.String("config_hash", shortHash(rt.Hash)))}, nil
}

func (e *env) close() { _ = e.log.Sync() }

// openStore connects to the configured database, migrating it when the
// configuration asks for it. The returned func closes the connection.
func (e *env) openStore(ctx context.Context) (*store.GormStore, func(), error) {
	cfg := e.rt.Config.Store
	db, err := store.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	s := store.New(db, e.log)
	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			closeDB()
			return nil, nil, err
		}
	}
	return s, closeDB, nil
}

func (e *env) newService(s ports.OysterStore, opts ...application.ServiceOption) (*application.RecomputeService, error) {
	all := append([]application.ServiceOption{application.WithLogger(e.log)}, opts...)
	return application.NewRecomputeService(s, e.rt.Engine, e.rt.Config.Service, all...)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
