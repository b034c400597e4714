package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/chatgatehq/chatgate/internal/channel"
	"github.com/chatgatehq/chatgate/internal/config"
	"github.com/chatgatehq/chatgate/internal/db"
	"github.com/chatgatehq/chatgate/internal/dialogue"
	"github.com/chatgatehq/chatgate/internal/generate"
	"github.com/chatgatehq/chatgate/internal/handlers"
	"github.com/chatgatehq/chatgate/internal/logger"
	"github.com/chatgatehq/chatgate/internal/notify"
	"github.com/chatgatehq/chatgate/internal/server"
	"github.com/chatgatehq/chatgate/internal/webhook"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideChannelStore,
			provideDialogueStore,
			channel.NewService,
			dialogue.NewService,
			provideGenerator,
			notify.NewNotifier,
			provideProcessor,
			provideServerHandler(handlers.NewPingHandler),
			provideServerHandler(provideWebhookHandler),
			provideServerHandler(provideChannelHandler),
			provideServer,
		),
		fx.Invoke(startServer),
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
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideChannelStore(conn *pgxpool.Pool) channel.Store {
	return channel.NewPostgresStore(conn)
}

func provideDialogueStore(conn *pgxpool.Pool) dialogue.Store {
	return dialogue.NewPostgresStore(conn)
}

func provideGenerator(log *slog.Logger, cfg config.Config) (generate.Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Generator.Provider)) {
	case "", "static":
		return generate.NewStaticGenerator(""), nil
	case "openai":
		timeout := time.Duration(cfg.Generator.TimeoutSeconds) * time.Second
		return generate.NewOpenAIGenerator(log, cfg.Generator.BaseURL, cfg.Generator.APIKey, cfg.Generator.Model, timeout), nil
	default:
		return nil, fmt.Errorf("unknown generator provider: %s", cfg.Generator.Provider)
	}
}

func provideProcessor(log *slog.Logger, channels *channel.Service, dialogues *dialogue.Service, generator generate.Generator, notifier *notify.Notifier) *webhook.Processor {
	return webhook.NewProcessor(log, channels, dialogues, generator, notifier)
}

func provideWebhookHandler(log *slog.Logger, processor *webhook.Processor) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, processor)
}

func provideChannelHandler(log *slog.Logger, service *channel.Service) *handlers.ChannelHandler {
	return handlers.NewChannelHandler(log, service)
}

type serverParams struct {
	fx.In

	Logger   *slog.Logger
	Config   config.Config
	Handlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Server.AdminToken, params.Handlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
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
