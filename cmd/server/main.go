package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/visadesk-io/visadesk/internal/api"
	"github.com/visadesk-io/visadesk/internal/app"
	"github.com/visadesk-io/visadesk/internal/app/jobs"
	iauth "github.com/visadesk-io/visadesk/internal/auth"
	"github.com/visadesk-io/visadesk/internal/channels"
	"github.com/visadesk-io/visadesk/internal/database"
	"github.com/visadesk-io/visadesk/internal/services"
	"github.com/visadesk-io/visadesk/internal/storage"
	"github.com/visadesk-io/visadesk/internal/sweep"
	"github.com/visadesk-io/visadesk/pkg/logger"
	"github.com/visadesk-io/visadesk/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("visadesk-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	if err := ensureSecretsPresent(cfg); err != nil {
		return err
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	jwtService, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	notificationSvc, err := services.NewNotificationService(db)
	if err != nil {
		return fmt.Errorf("initialise notification service: %w", err)
	}

	dispatchChannels, err := buildChannels(cfg, notificationSvc, log)
	if err != nil {
		return err
	}

	engine, err := sweep.NewEngine(db, dispatchChannels)
	if err != nil {
		return fmt.Errorf("initialise sweep engine: %w", err)
	}

	blobs, err := storage.NewDiskStore(cfg.Storage.DocumentsDir)
	if err != nil {
		return fmt.Errorf("initialise document storage: %w", err)
	}

	runner := buildJobRunner(cfg, engine, notificationSvc)
	if err := runner.Start(); err != nil {
		return fmt.Errorf("start background jobs: %w", err)
	}
	defer func() {
		<-runner.Stop().Done()
	}()

	router, err := api.NewRouter(db, jwtService, cfg, engine, blobs)
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func ensureSecretsPresent(cfg *app.Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Auth.JWT.Secret = strings.TrimSpace(cfg.Auth.JWT.Secret)
	if cfg.Auth.JWT.Secret == "" {
		return errors.New("auth.jwt.secret must be configured")
	}

	cfg.Sweep.CronSecret = strings.TrimSpace(cfg.Sweep.CronSecret)
	if cfg.Sweep.CronSecret == "" {
		return errors.New("sweep.cron_secret must be configured")
	}

	return nil
}

// buildChannels assembles the dispatch channel list from configuration. The
// in-app channel is always present; transport channels join only when enabled.
func buildChannels(cfg *app.Config, notifications *services.NotificationService, log *zap.Logger) ([]channels.Channel, error) {
	inApp, err := channels.NewInApp(notifications)
	if err != nil {
		return nil, fmt.Errorf("initialise in-app channel: %w", err)
	}
	list := []channels.Channel{inApp}

	if cfg.Channels.Email.SMTP.Enabled {
		mailer, err := mail.NewSMTP(cfg.Channels.Email.SMTPSettings())
		if err != nil {
			return nil, fmt.Errorf("initialise smtp mailer: %w", err)
		}
		email, err := channels.NewEmail(mailer)
		if err != nil {
			return nil, fmt.Errorf("initialise email channel: %w", err)
		}
		list = append(list, email)
		log.Info("email channel enabled", zap.String("host", cfg.Channels.Email.SMTP.Host))
	}

	if cfg.Channels.Telegram.Enabled {
		telegram, err := channels.NewTelegram(cfg.Channels.Telegram.Token, cfg.Channels.Telegram.ChatID)
		if err != nil {
			return nil, fmt.Errorf("initialise telegram channel: %w", err)
		}
		list = append(list, telegram)
		log.Info("telegram channel enabled")
	}

	if cfg.Channels.Push.Enabled {
		push, err := channels.NewPush(cfg.Channels.Push.PushSettings())
		if err != nil {
			return nil, fmt.Errorf("initialise push channel: %w", err)
		}
		list = append(list, push)
		log.Info("push channel enabled", zap.String("endpoint", cfg.Channels.Push.Endpoint))
	}

	return list, nil
}

func buildJobRunner(cfg *app.Config, engine *sweep.Engine, notifications *services.NotificationService) *jobs.Runner {
	opts := []jobs.Option{
		jobs.WithSweepSchedule(cfg.Sweep.Schedule),
		jobs.WithNotificationRetentionDays(cfg.Retention.NotificationDays),
	}

	sweepEngine := engine
	if !cfg.Sweep.Enabled {
		sweepEngine = nil
	}

	return jobs.NewRunner(sweepEngine, notifications, opts...)
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		dbCfg.Host = strings.TrimSpace(cfg.Database.Postgres.Host)
		dbCfg.Port = cfg.Database.Postgres.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.Postgres.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.Postgres.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.Postgres.Password)
	case "mysql":
		dbCfg.Host = strings.TrimSpace(cfg.Database.MySQL.Host)
		dbCfg.Port = cfg.Database.MySQL.Port
		dbCfg.Name = strings.TrimSpace(cfg.Database.MySQL.Database)
		dbCfg.User = strings.TrimSpace(cfg.Database.MySQL.Username)
		dbCfg.Password = strings.TrimSpace(cfg.Database.MySQL.Password)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
