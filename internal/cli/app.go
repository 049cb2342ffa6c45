// Package cli wires configuration into the stores, editors and servers used by
// the promptflow commands.
package cli

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/promptflow/internal/adapters/file"
	redisstore "github.com/aretw0/promptflow/internal/adapters/redis"
	"github.com/aretw0/promptflow/internal/config"
	"github.com/aretw0/promptflow/pkg/adapters/memory"
	redislock "github.com/aretw0/promptflow/pkg/adapters/redis"
	"github.com/aretw0/promptflow/pkg/layout"
	"github.com/aretw0/promptflow/pkg/observability"
	"github.com/aretw0/promptflow/pkg/persistence/middleware"
	"github.com/aretw0/promptflow/pkg/ports"
	"github.com/aretw0/promptflow/pkg/schema"
	"github.com/aretw0/promptflow/pkg/session"
	"github.com/aretw0/promptflow/pkg/store"
)

// App holds the dependencies shared by a command run.
// Resources opened through it are released by Close.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	layout  layout.Engine
	closers []func() error
}

// NewApp creates an App. The metrics registry also carries the Go runtime and
// process collectors.
func NewApp(cfg config.Config, logger *slog.Logger) *App {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		Metrics:  observability.NewMetrics(reg),
	}
}

// Layout returns the configured layout engine. Graphviz falls back to the
// layered engine when it fails.
func (a *App) Layout() layout.Engine {
	if a.layout != nil {
		return a.layout
	}
	switch a.Config.Editor.Layout {
	case "layered":
		a.layout = layout.Layered{}
	default:
		gv := layout.NewGraphviz()
		a.closers = append(a.closers, gv.Close)
		a.layout = layout.NewFallback(a.Logger, gv, layout.Layered{})
	}
	return a.layout
}

// DocumentStore opens the configured persistence backend, wrapped with the
// masking and encryption middlewares when they are configured. The locker is
// nil unless the redis backend runs with locking enabled.
func (a *App) DocumentStore(ctx context.Context) (ports.DocumentStore, ports.DistributedLocker, error) {
	docs, locker, err := a.backend(ctx)
	if err != nil {
		return nil, nil, err
	}

	var mws []middleware.Middleware
	if patterns := a.Config.Store.MaskParameters; len(patterns) > 0 {
		mw, err := middleware.NewMaskMiddleware(patterns)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, mw)
	}
	if encoded := a.Config.Store.EncryptionKey; encoded != "" {
		key, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, nil, fmt.Errorf("decode encryption key: %w", err)
		}
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, mw)
	}
	return middleware.Chain(docs, mws...), locker, nil
}

func (a *App) backend(ctx context.Context) (ports.DocumentStore, ports.DistributedLocker, error) {
	cfg := a.Config.Store
	switch cfg.Backend {
	case "memory":
		return memory.NewStore(), nil, nil
	case "file":
		return file.New(cfg.Dir, file.WithFormat(schema.Format(cfg.Format))), nil, nil
	case "redis":
		opts := []redisstore.Option{redisstore.WithPrefix(cfg.Redis.Prefix)}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redisstore.WithTTL(cfg.Redis.TTL))
		}
		docs := redisstore.New(cfg.Redis.Addr, "", 0, opts...)
		a.closers = append(a.closers, docs.Close)
		if err := docs.Client().Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		if !cfg.Redis.Lock {
			return docs, nil, nil
		}
		return docs, redislock.NewLocker(docs.Client(), cfg.Redis.Prefix), nil
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// StoreOptions configures an editor with the application metrics, layout and
// history size.
func (a *App) StoreOptions() []store.Option {
	return []store.Option{
		store.WithMetrics(a.Metrics),
		store.WithLayout(a.Layout()),
		store.WithHistorySize(a.Config.Editor.HistorySize),
	}
}

// Sessions opens the document store and returns a session manager on top of it.
func (a *App) Sessions(ctx context.Context) (*session.Manager, error) {
	docs, locker, err := a.DocumentStore(ctx)
	if err != nil {
		return nil, err
	}
	opts := []session.Option{
		session.WithLogger(a.Logger),
		session.WithMetrics(a.Metrics),
		session.WithCacheSize(a.Config.Session.CacheSize),
		session.WithStoreOptions(a.StoreOptions()...),
	}
	if locker != nil {
		opts = append(opts, session.WithLocker(locker))
	}
	a.Logger.Debug("Sessions ready", "backend", a.Config.Store.Backend, "locking", locker != nil)
	return session.NewManager(docs, opts...), nil
}

// Close releases everything the App opened, most recent first.
func (a *App) Close() error {
	var errs []error
	for _, closeFn := range slices.Backward(a.closers) {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
