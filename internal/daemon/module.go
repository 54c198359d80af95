package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/chatline/internal/account"
	"github.com/matheus3301/chatline/internal/api"
	"github.com/matheus3301/chatline/internal/auth"
	"github.com/matheus3301/chatline/internal/bus"
	"github.com/matheus3301/chatline/internal/config"
	"github.com/matheus3301/chatline/internal/control"
	"github.com/matheus3301/chatline/internal/instance"
	"github.com/matheus3301/chatline/internal/lock"
	"github.com/matheus3301/chatline/internal/logging"
	"github.com/matheus3301/chatline/internal/media"
	"github.com/matheus3301/chatline/internal/messaging"
	"github.com/matheus3301/chatline/internal/presence"
	"github.com/matheus3301/chatline/internal/realtime"
	"github.com/matheus3301/chatline/internal/relay"
	"github.com/matheus3301/chatline/internal/store"
)

// Params holds the resolved instance settings passed to the fx module.
type Params struct {
	Instance   string
	SocketPath string         // optional override for testing; empty = use default
	Config     *config.Config // optional; nil loads ~/.chatline/config.toml
}

// Module returns the fx module for the daemon, composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideConfig,
			provideBus,
			provideLock,
			provideStore,
			provideTokens,
			provideUploader,
			provideRegistry,
			provideRelay,
			provideAccounts,
			provideMessaging,
			provideRealtime,
			provideControl,
			provideRouter,
			NewHTTPServer,
			NewServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(instance.LogPath(p.Instance), p.Instance)
}

func provideConfig(p Params) (*config.Config, error) {
	if p.Config != nil {
		return p.Config, nil
	}
	if err := config.LoadDotenv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(instance.ConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := instance.EnsureDir(p.Instance); err != nil {
		return nil, err
	}
	logger.Info("acquiring instance lock")
	l, err := lock.Acquire(instance.Dir(p.Instance))
	if err != nil {
		return nil, err
	}
	logger.Info("instance lock acquired")
	return l, nil
}

// provideStore takes the lock so the database is only opened by its owner.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	path := instance.DBPath(p.Instance)
	db, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", path))
	return db, nil
}

func provideTokens(cfg *config.Config, logger *zap.Logger) (*auth.Tokens, error) {
	if cfg.Server.JWTSecret == "" {
		logger.Warn("no jwt secret configured; sessions will not survive a restart")
	}
	return auth.NewTokens(cfg.Server.JWTSecret, cfg.Server.TokenTTL.Duration, cfg.Server.SecureCookies)
}

func provideUploader(p Params, cfg *config.Config) (*media.DiskUploader, error) {
	dir := cfg.Server.MediaDir
	if dir == "" {
		dir = instance.MediaDir(p.Instance)
	}
	return media.NewDiskUploader(dir, cfg.Server.PublicBaseURL)
}

func provideRegistry(b *bus.Bus, logger *zap.Logger) *presence.Registry {
	return presence.NewRegistry(presence.NewBroadcaster(logger), b, logger)
}

func provideRelay(reg *presence.Registry, b *bus.Bus, logger *zap.Logger) *relay.Relay {
	return relay.New(reg, b, logger)
}

func provideAccounts(db *store.DB, up *media.DiskUploader, logger *zap.Logger) *account.Service {
	return account.NewService(db, up, logger)
}

func provideMessaging(db *store.DB, up *media.DiskUploader, r *relay.Relay, b *bus.Bus, logger *zap.Logger) *messaging.Service {
	return messaging.NewService(db, up, r, b, logger)
}

func provideRealtime(cfg *config.Config, tokens *auth.Tokens, reg *presence.Registry, logger *zap.Logger) *realtime.Handler {
	opts := realtime.DefaultOptions()
	opts.SendBuffer = cfg.Server.SendBuffer
	opts.WriteTimeout = cfg.Server.WriteTimeout.Duration
	opts.MaxMessageSize = cfg.Server.MaxMessageSize
	return realtime.NewHandler(tokens, reg, cfg.Server.AllowedOrigins, opts, logger)
}

func provideControl(p Params, reg *presence.Registry, db *store.DB, b *bus.Bus, logger *zap.Logger) *control.Service {
	return control.NewService(p.Instance, reg, db, b, logger)
}

func provideRouter(tokens *auth.Tokens, accounts *account.Service, msgs *messaging.Service, rt *realtime.Handler, up *media.DiskUploader, logger *zap.Logger) api.Deps {
	return api.Deps{
		Tokens:   tokens,
		Accounts: accounts,
		Messages: msgs,
		Realtime: rt,
		Media:    up,
		Logger:   logger,
	}
}

func registerLifecycle(lc fx.Lifecycle, httpSrv *HTTPServer, ctlSrv *Server, reg *presence.Registry, db *store.DB, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				if err := ctlSrv.Start(); err != nil {
					logger.Error("control server error", zap.Error(err))
				}
			}()
			go func() {
				if err := httpSrv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			// Hijacked websockets outlive http.Server.Shutdown.
			for _, h := range reg.Handles() {
				_ = h.Close()
			}
			if err := httpSrv.Stop(ctx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
			ctlSrv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
