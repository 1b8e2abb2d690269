package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/connectohq/connecto/internal/blob"
	"github.com/connectohq/connecto/internal/broadcast"
	"github.com/connectohq/connecto/internal/channel/mailrelay"
	"github.com/connectohq/connecto/internal/chat"
	"github.com/connectohq/connecto/internal/config"
	"github.com/connectohq/connecto/internal/db"
	"github.com/connectohq/connecto/internal/handlers"
	"github.com/connectohq/connecto/internal/identity"
	"github.com/connectohq/connecto/internal/ingest"
	"github.com/connectohq/connecto/internal/logger"
	"github.com/connectohq/connecto/internal/presence"
	"github.com/connectohq/connecto/internal/server"
	"github.com/connectohq/connecto/internal/ws"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideStore,
			provideResolver,
			providePipeline,
			provideMailParser,
			provideMailConfirmer,
			provideBlobFetcher,
			presence.NewRegistry,
			provideDispatcher,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideMailWebhookHandler),
			provideServerHandler(provideSMSWebhookHandler),
			provideServerHandler(provideThreadHandler),
			provideServerHandler(provideWSHandler),
			provideServer,
		),
		fx.Invoke(
			runMigrations,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { pool.Close(); return nil }})
	return pool, nil
}

func provideStore(log *slog.Logger, pool *pgxpool.Pool) *chat.Store {
	return chat.NewStore(log, pool)
}

func provideResolver(log *slog.Logger, store *chat.Store) *identity.Resolver {
	return identity.NewResolver(log, store)
}

func providePipeline(log *slog.Logger, resolver *identity.Resolver, store *chat.Store, dispatcher *broadcast.Dispatcher) *ingest.Pipeline {
	return ingest.NewPipeline(log, resolver, store, dispatcher)
}

func provideMailParser(cfg config.Config) *mailrelay.Parser {
	return mailrelay.NewParser(cfg.Mail.RecipientDomain)
}

func provideMailConfirmer(log *slog.Logger, cfg config.Config) *mailrelay.Confirmer {
	return mailrelay.NewConfirmer(log, fetchTimeout(cfg))
}

func provideBlobFetcher(log *slog.Logger, cfg config.Config) (blob.Fetcher, error) {
	fetcher, err := blob.NewS3Fetcher(context.Background(), log, cfg.Blob, fetchTimeout(cfg))
	if err != nil {
		return nil, fmt.Errorf("blob fetcher: %w", err)
	}
	return fetcher, nil
}

func fetchTimeout(cfg config.Config) time.Duration {
	ms := cfg.Mail.FetchTimeoutMS
	if ms <= 0 {
		ms = config.DefaultFetchTimeoutMS
	}
	return time.Duration(ms) * time.Millisecond
}

func provideDispatcher(log *slog.Logger, registry *presence.Registry) *broadcast.Dispatcher {
	return broadcast.NewDispatcher(log, registry)
}

func provideMailWebhookHandler(log *slog.Logger, parser *mailrelay.Parser, confirmer *mailrelay.Confirmer, fetcher blob.Fetcher, pipeline *ingest.Pipeline) *handlers.MailWebhookHandler {
	return handlers.NewMailWebhookHandler(log, parser, confirmer, fetcher, pipeline)
}

func provideSMSWebhookHandler(log *slog.Logger, pipeline *ingest.Pipeline) *handlers.SMSWebhookHandler {
	return handlers.NewSMSWebhookHandler(log, pipeline)
}

func provideThreadHandler(log *slog.Logger, store *chat.Store) *handlers.ThreadHandler {
	return handlers.NewThreadHandler(log, store)
}

func provideWSHandler(log *slog.Logger, registry *presence.Registry, dispatcher *broadcast.Dispatcher, pipeline *ingest.Pipeline) *ws.Handler {
	return ws.NewHandler(log, registry, dispatcher, pipeline)
}

type serverParams struct {
	fx.In
	Logger   *slog.Logger
	Config   config.Config
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.New(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.Handlers)
}

func runMigrations(cfg config.Config, log *slog.Logger) error {
	if err := db.Migrate(cfg.Postgres); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("database schema up to date")
	return nil
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
