package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"notetaker/internal/editor/adapters/graphql"
	editorhttp "notetaker/internal/editor/adapters/http"
	"notetaker/internal/editor/adapters/postgres"
	"notetaker/internal/editor/adapters/redis"
	"notetaker/internal/editor/app"
	"notetaker/internal/editor/config"
	"notetaker/internal/editor/ports/gateway"
	"notetaker/pkg/logger"
	"notetaker/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "NOTETAKER_LOGGER_MODE"
	EnvLoggerLevel = "NOTETAKER_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrCreateGateway        = "failed to create notes gateway"
	ErrStartEditor          = "failed to start note editor"
	ErrStartHTTPServer      = "failed to start HTTP server"
	ErrMutationRejected     = "mutation rejected by backend"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "notetaker started"
	LogServiceShutdownDone = "notetaker shutdown complete"
	LogInitGateway         = "initializing notes gateway"
	LogStartingEditor      = "starting note editor"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
	LogStoppingHTTP        = "stopping HTTP server"
	LogClosingEditor       = "closing note editor and gateway"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	if err := logger.InitGlobalLoggerWithLevel(env, os.Getenv(EnvLoggerLevel)); err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	ctx := logger.NewRequestIDContext(context.Background(), "")
	log := logger.Log(ctx)

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("gateway", cfg.Gateway.Kind),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		log.Info(ctx, LogInitGateway, zap.String("kind", cfg.Gateway.Kind))
		gw, err := newGateway(ctx, cfg)
		if err != nil {
			log.Error(ctx, ErrCreateGateway, zap.Error(err))
			exitCode = 1
			return
		}

		opts := []app.Option{
			app.WithRequestTimeout(cfg.Gateway.RequestTimeout),
			app.WithOnError(func(intent app.Intent, err error) {
				log.Warn(ctx, ErrMutationRejected,
					zap.String("intent", intent.Kind.String()),
					zap.String("note_id", intent.ID),
					zap.Error(err))
			}),
		}
		if cfg.Gateway.StrictSeed {
			opts = append(opts, app.WithStrictSeed())
		}

		log.Info(ctx, LogStartingEditor)
		editor := app.NewNoteEditor(gw, opts...)
		if err := editor.Start(ctx); err != nil {
			log.Error(ctx, ErrStartEditor, zap.Error(err))
			_ = gw.Close()
			exitCode = 1
			return
		}

		log.Info(ctx, LogInitHTTPServer)
		server := fiber.New(fiber.Config{
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		})
		editorhttp.SetupRouter(server, editor, log)

		log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
		go func() {
			if err := server.Listen(cfg.HTTP.GetAddress()); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			}
		}()

		shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(),
			// Остановка HTTP сервера.
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingHTTP)
				return server.ShutdownWithContext(ctx)
			},
			// Редактор освобождает подписки раньше, чем закрывается шлюз.
			func(ctx context.Context) error {
				log.Info(ctx, LogClosingEditor)
				return errors.Join(editor.Close(), gw.Close())
			},
		)

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func newGateway(ctx context.Context, cfg *config.Config) (gateway.NotesGateway, error) {
	switch cfg.Gateway.Kind {
	case config.GatewayGraphQL:
		return graphql.NewGateway(ctx, &cfg.GraphQL)
	case config.GatewayRedis:
		return redis.NewGateway(ctx, &cfg.Redis)
	case config.GatewayPostgres:
		return postgres.NewGateway(ctx, &cfg.Postgres)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownGateway, cfg.Gateway.Kind)
	}
}
