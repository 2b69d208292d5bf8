package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"rciconnect/internal/api"
	"rciconnect/internal/config"
	"rciconnect/internal/database"
	"rciconnect/internal/domain"
	"rciconnect/internal/events"
	"rciconnect/internal/export"
	"rciconnect/internal/google"
	"rciconnect/internal/logging"
	"rciconnect/internal/metrics"
	"rciconnect/internal/models"
	"rciconnect/internal/notify"
	"rciconnect/internal/repository"
	"rciconnect/internal/service"
	"rciconnect/internal/token"
	"rciconnect/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sheetsService := initGoogleSheets(ctx, cfg, &logger)
	redisClient, sessions := initSessions(ctx, cfg, &logger)
	defer func() {
		if redisClient != nil {
			_ = repository.Close(redisClient)
		}
	}()

	// typed-nil *SheetsWorker must not leak into the interface field
	var syncWorker domain.SyncWorker
	if sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		sheetsWorker := worker.NewSheetsWorker(db, sheetsService, redisClient, retryPolicy, &logger)
		go sheetsWorker.Start(ctx)
		syncWorker = sheetsWorker
	}

	eventBus := events.NewEventBus()
	subscribeNotifications(cfg, eventBus, &logger)

	tokens := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.RefreshTTL())

	deps := api.HTTPServerDeps{
		Availability: service.NewAvailabilityService(db, &logger),
		Applications: service.NewApplicationService(db, eventBus, syncWorker, &logger),
		Auth:         service.NewAuthService(db, sessions, tokens, &logger),
		Newsletter:   service.NewNewsletterService(db, eventBus, &logger),
		Content:      db,
		Tokens:       tokens,
		Exporter:     export.NewExporter(db, cfg.Exports.Path, &logger),
	}

	uploads, err := api.NewUploadStore(cfg.Uploads.Path, cfg.Auth.JWTSecret,
		time.Duration(cfg.Uploads.SignedURLTTLMins)*time.Minute)
	if err != nil {
		return err
	}
	deps.Uploads = uploads

	metrics.Register()

	httpServer := api.NewHTTPServer(cfg, deps, &logger)
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	var grpcServer *api.GRPCServer
	if cfg.Server.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg, &logger)
		if err != nil {
			return err
		}
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("gRPC server error")
			}
		}()
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	logger.Info().Msg("rciconnect started")
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP shutdown error")
	}
	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("failed to create database directory")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("failed to create exports directory")
			return err
		}
	}
	return nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize database")
		return nil, err
	}

	ctx := context.Background()
	if err := db.SeedTimezones(ctx, models.DefaultTimezones); err != nil {
		logger.Warn().Err(err).Msg("timezone seed failed")
	}

	if seed, err := loadContentSeed(); err != nil {
		logger.Warn().Err(err).Msg("content seed fixture unreadable")
	} else if err := db.SeedContent(ctx, seed); err != nil {
		logger.Warn().Err(err).Msg("content seed failed")
	}

	return db, nil
}

func loadContentSeed() (database.ContentSeed, error) {
	var seed database.ContentSeed

	contentPath := os.Getenv("CONTENT_PATH")
	if contentPath == "" {
		contentPath = "configs/content.yaml"
	}

	data, err := os.ReadFile(contentPath)
	if err != nil {
		return seed, err
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seed, err
	}
	return seed, nil
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.ApplicationsSpreadSheetID == "" {
		logger.Warn().Msg("Google Sheets not configured; sync disabled")
		return nil
	}

	sheetsSvc, err := google.NewSimpleSheetsService(
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.ApplicationsSpreadSheetID,
		cfg.Google.SubscribersSpreadSheetID,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}

	if err := sheetsSvc.TestConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Google Sheets connection test failed")
		return nil
	}

	logger.Info().Msg("Google Sheets service initialized successfully")
	return sheetsSvc
}

func initSessions(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *repository.FailoverSessionRepository) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primary := repository.NewRedisSessionRepository(redisClient, models.DefaultSessionTTL)
	fallback := repository.NewMemorySessionRepository(models.DefaultSessionTTL)
	return redisClient, repository.NewFailoverSessionRepository(primary, fallback, logger)
}

func subscribeNotifications(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Notify.TelegramBotToken == "" || len(cfg.Notify.AdminChatIDs) == 0 {
		logger.Info().Msg("telegram notifications not configured")
		return
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Notify.TelegramBotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to create telegram bot")
		return
	}

	notifier := notify.NewNotifier(botAPI, cfg.Notify.AdminChatIDs, logger)
	notifier.SubscribeAll(bus)
	logger.Info().Int("chats", len(cfg.Notify.AdminChatIDs)).Msg("telegram notifications enabled")
}
