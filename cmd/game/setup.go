package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tatianab/saga/internal/backend"
	"github.com/tatianab/saga/internal/config"
	"github.com/tatianab/saga/internal/engine"
	"github.com/tatianab/saga/internal/models"
	"github.com/tatianab/saga/internal/store"
)

// session bundles what a command needs to run a story.
type session struct {
	cfg     *config.Config
	store   store.Store
	backend backend.Port
	engine  *engine.Engine
	logger  *zap.Logger
}

type sessionOptions struct {
	name     string
	genre    string
	logger   *zap.Logger
	onUpdate engine.UpdateFunc
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		return store.OpenSQLite(filepath.Join(cfg.SaveDir, "saga.db"))
	default:
		return store.NewFileStore(cfg.SaveDir), nil
	}
}

// openSession builds the engine. When opts.name refers to a saved session it
// is resumed; the configuration's connection settings always apply.
func openSession(ctx context.Context, cfg *config.Config, opts sessionOptions) (*session, error) {
	st, err := openStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	initial := engine.Initial()
	cfg.Apply(initial)
	if opts.genre != "" {
		initial.Genre = models.Genre(opts.genre)
	}

	doc := initial
	if opts.name != "" {
		saved, err := st.Load(ctx, opts.name)
		switch {
		case err == nil:
			cfg.Apply(saved)
			doc = saved
		case errors.Is(err, store.ErrNotFound):
		default:
			st.Close()
			return nil, fmt.Errorf("resume %s: %w", opts.name, err)
		}
	}

	b, err := cfg.NewBackend(ctx, doc, opts.logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("create backend: %w", err)
	}

	plugins, err := engine.NewPlugins(newLocationLog(opts.logger))
	if err != nil {
		st.Close()
		return nil, err
	}
	eng, err := engine.New(engine.Dependencies{
		Backend:  b,
		Plugins:  plugins,
		Logger:   opts.logger,
		OnUpdate: opts.onUpdate,
		Initial:  initial,
	})
	if err == nil && doc != initial {
		err = eng.Load(doc)
	}
	if err != nil {
		closeBackend(b)
		st.Close()
		return nil, err
	}

	return &session{cfg: cfg, store: st, backend: b, engine: eng, logger: opts.logger}, nil
}

func (s *session) Close() {
	closeBackend(s.backend)
	if err := s.store.Close(); err != nil {
		s.logger.Warn("close store", zap.Error(err))
	}
}

func closeBackend(b backend.Port) {
	if c, ok := b.(io.Closer); ok {
		c.Close()
	}
}
