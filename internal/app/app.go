package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kalprint/internal/bot"
	"kalprint/internal/config"
	"kalprint/internal/database"
	"kalprint/internal/logger"
	"kalprint/internal/telegram"
	"kalprint/internal/web"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Options are the command-line switches for one run.
type Options struct {
	ConfigPath string
	Mode       string // "bot", "web" or "both"
	Migrate    bool
	Verbose    bool
}

// Run wires the whole application together and blocks until SIGINT or
// SIGTERM.
func Run(opts Options) error {
	cfg, err := config.NewConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.Verbose {
		cfg.Logger.Level = "debug"
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	db, err := database.NewConnection(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if opts.Migrate {
		if err := database.Migrate(db, log); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	users := database.NewUserRepository(db, log)
	services := database.NewServiceRepository(db, log)
	orders := database.NewOrderRepository(db, log)
	schedules := database.NewScheduleRepository(db, log)
	messages := database.NewMessageRepository(db, log)
	settings := database.NewSettingsRepository(db, log)

	tg, err := telegram.NewTelegramClient(cfg.Telegram.Token)
	if err != nil {
		return err
	}

	notifier := bot.NewNotifier(tg, log, cfg.Telegram.AdminChatID, cfg.Telegram.Channel, cfg.Business)

	sessionTTL := time.Duration(cfg.Sessions.TTLMinutes) * time.Minute
	var sessionStore bot.SessionStore
	if cfg.Sessions.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Sessions.RedisAddr,
			Password: cfg.Sessions.RedisPassword,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		sessionStore = bot.NewRedisStore(rdb, sessionTTL)
		log.Info("using redis session store", zap.String("addr", cfg.Sessions.RedisAddr))
	} else {
		memStore := bot.NewMemoryStore(sessionTTL)
		defer memStore.Close()
		sessionStore = memStore
		log.Info("using in-memory session store")
	}

	flows := bot.NewFlowManager(tg, log, notifier, sessionStore, orders, schedules, messages, services)
	botService := bot.NewService(
		tg, log, flows, sessionStore,
		users, services, settings, notifier,
		cfg.Business, cfg.Telegram.Channel,
	)

	webServer := web.NewServer(log, cfg.Web, services, orders, schedules, messages, settings, users, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 2)

	runBot := opts.Mode == "bot" || opts.Mode == "both"
	runWeb := opts.Mode == "web" || opts.Mode == "both"
	if !runBot && !runWeb {
		return fmt.Errorf("unknown mode %q, want bot, web or both", opts.Mode)
	}

	if runBot {
		go func() {
			errCh <- botService.Start(ctx)
		}()
	}
	if runWeb {
		go func() {
			errCh <- webServer.Start(cfg.Web.Addr)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			log.Error("component failed", zap.Error(err))
		}
	}

	cancel()
	if runWeb {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := webServer.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to stop web server", zap.Error(err))
		}
	}

	log.Info("stopped")
	return nil
}
