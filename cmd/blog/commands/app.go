package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/smart-blog/internal/blog"
	"github.com/benvon/smart-blog/internal/client"
	"github.com/benvon/smart-blog/internal/config"
	"github.com/benvon/smart-blog/internal/logger"
	"github.com/benvon/smart-blog/internal/pages"
	"github.com/benvon/smart-blog/internal/session"
	"github.com/benvon/smart-blog/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds what every command needs, built from the environment
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	storage  session.Storage
	store    *session.Store
	api      *blog.Service
	nav      *pages.ConsoleNavigator
	handler  *pages.Handler
	closers  []func()
	shutdown func(context.Context)
}

// newApp wires the client for a command that starts on page location
func newApp(cmd *cobra.Command, opts *rootOptions, location string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	debugMode := cfg.DebugMode || (opts.debug != nil && *opts.debug)
	zapLogger, err := logger.New(debugMode, cfg.LogDev)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{cfg: cfg, logger: zapLogger}
	a.closers = append(a.closers, func() {
		// stderr sync fails on some terminals; nothing to do about it
		_ = logger.Sync(zapLogger)
	})

	storage, err := a.openStorage()
	if err != nil {
		a.close()
		return nil, err
	}
	a.storage = storage
	a.store = session.NewStore(storage, zapLogger.Named("session"))

	a.shutdown = telemetry.Setup(cmd.Context(), cfg.OTELEnabled, cfg.OTELEndpoint, zapLogger)

	dispatcher := client.NewDispatcher(cfg.APIBase, a.store,
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		client.WithLogger(zapLogger.Named("client")),
	)

	a.nav = pages.NewConsoleNavigator(location, cmd.ErrOrStderr(), zapLogger)
	guard := client.NewGuard(dispatcher, a.nav, client.DefaultLandings(), zapLogger)
	a.api = blog.NewService(guard, a.store, zapLogger.Named("blog"))
	a.handler = pages.New(a.api, a.store, a.nav, pages.NewConsoleNotifier(cmd.ErrOrStderr()), cmd.OutOrStdout(), zapLogger.Named("pages"))

	fields := []zap.Field{
		zap.String("api_base", cfg.APIBase),
		zap.String("storage", cfg.Storage),
		zap.String("page", location),
	}
	if fs, ok := storage.(*session.FileStorage); ok {
		fields = append(fields, zap.String("state_file", logger.SanitizePath(fs.Path())))
	}
	zapLogger.Debug("client_ready", fields...)
	return a, nil
}

func (a *app) openStorage() (session.Storage, error) {
	switch a.cfg.Storage {
	case config.StorageRedis:
		rs, err := session.DialRedisStorage(a.cfg.RedisURL, a.cfg.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis storage: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := rs.Close(); err != nil {
				a.logger.Warn("failed_to_close_redis_connection", zap.Error(err))
			}
		})
		return rs, nil
	case config.StorageMemory:
		return session.NewMemoryStorage(), nil
	default:
		return session.NewFileStorage(a.cfg.StateFile), nil
	}
}

func (a *app) close() {
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.shutdown(ctx)
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// run builds the app for location, runs fn and tears the app down
func run(cmd *cobra.Command, opts *rootOptions, location string, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(cmd, opts, location)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(cmd.Context(), a)
}
