package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/clay-tournament/cache"
	"github.com/Dosada05/clay-tournament/classification"
	"github.com/Dosada05/clay-tournament/config"
	"github.com/Dosada05/clay-tournament/db"
	_ "github.com/Dosada05/clay-tournament/docs"
	"github.com/Dosada05/clay-tournament/handlers"
	"github.com/Dosada05/clay-tournament/repositories"
	"github.com/Dosada05/clay-tournament/repositories/memory"
	api "github.com/Dosada05/clay-tournament/routes"
	"github.com/Dosada05/clay-tournament/services"
	"github.com/Dosada05/clay-tournament/storage"
	"github.com/Dosada05/clay-tournament/telemetry"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

// repositorySet groups the persistence backends the services are built on.
type repositorySet struct {
	tx            repositories.Transactor
	tournaments   repositories.TournamentRepository
	disciplines   repositories.DisciplineRepository
	timeSlots     repositories.TimeSlotRepository
	squads        repositories.SquadRepository
	registrations repositories.RegistrationRepository
	athletes      repositories.AthleteRepository
	teams         repositories.TeamRepository
	scores        repositories.ScoreRepository
	imports       repositories.ImportRepository
}

func postgresRepositories(dbConn *sql.DB, maxTxAttempts int) repositorySet {
	return repositorySet{
		tx:            repositories.NewPostgresTransactor(dbConn, maxTxAttempts),
		tournaments:   repositories.NewPostgresTournamentRepository(dbConn),
		disciplines:   repositories.NewPostgresDisciplineRepository(dbConn),
		timeSlots:     repositories.NewPostgresTimeSlotRepository(dbConn),
		squads:        repositories.NewPostgresSquadRepository(dbConn),
		registrations: repositories.NewPostgresRegistrationRepository(dbConn),
		athletes:      repositories.NewPostgresAthleteRepository(dbConn),
		teams:         repositories.NewPostgresTeamRepository(dbConn),
		scores:        repositories.NewPostgresScoreRepository(dbConn),
		imports:       repositories.NewPostgresImportRepository(dbConn),
	}
}

func memoryRepositories() repositorySet {
	store := memory.New()
	return repositorySet{
		tx:            store,
		tournaments:   store.Tournaments(),
		disciplines:   store.Disciplines(),
		timeSlots:     store.TimeSlots(),
		squads:        store.Squads(),
		registrations: store.Registrations(),
		athletes:      store.Athletes(),
		teams:         store.Teams(),
		scores:        store.Scores(),
		imports:       store.Imports(),
	}
}

// @title Clay Tournament API
// @version 1.0
// @description Squad scheduling, score ledger and leaderboards for clay-target tournaments.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
		slog.String("classification_policy", cfg.ClassificationPolicy),
	)

	ctx := context.Background()

	shutdownTracing, err := telemetry.Setup(ctx, "clay-tournament", cfg.OTelEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", slog.Any("error", err))
		}
	}()

	// Инициализация репозиториев
	var repos repositorySet
	switch cfg.StorageDriver {
	case config.DriverMemory:
		repos = memoryRepositories()
		logger.Warn("using in-memory storage; data is lost on restart")
	default:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			} else {
				logger.Info("database connection closed")
			}
		}()
		if err := db.ApplySchema(ctx, dbConn); err != nil {
			logger.Error("failed to apply schema", slog.Any("error", err))
			os.Exit(1)
		}
		repos = postgresRepositories(dbConn, cfg.TxMaxAttempts)
		logger.Info("database connection established")
	}

	// Инициализация загрузчика файлов (Cloudflare R2)
	var uploader storage.FileUploader
	if cfg.R2.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		uploader = storage.NewMemoryUploader(fmt.Sprintf("http://localhost:%d/files", cfg.ServerPort))
		logger.Warn("R2 is not configured; published files are kept in memory")
	}

	var snapshots cache.SnapshotCache = cache.Noop{}
	if cfg.RedisURL != "" {
		snapshots, err = cache.NewRedis(ctx, cfg.RedisURL, cfg.LeaderboardCacheTTL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("leaderboard cache enabled", slog.Duration("ttl", cfg.LeaderboardCacheTTL))
	}
	defer snapshots.Close()

	policy, err := classification.New(cfg.ClassificationPolicy, cfg.ClassificationMinTargets, cfg.ClassificationSeed)
	if err != nil {
		logger.Error("failed to build classification policy", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация сервисов
	tournamentService := services.NewTournamentService(repos.tx, repos.tournaments, repos.squads, repos.timeSlots, logger)
	disciplineService := services.NewDisciplineService(repos.disciplines)
	registrationService := services.NewRegistrationService(
		repos.tx,
		repos.registrations,
		repos.tournaments,
		repos.athletes,
		repos.teams,
		repos.squads,
		logger,
	)
	schedulerService := services.NewSchedulerService(
		repos.tx,
		repos.tournaments,
		repos.timeSlots,
		repos.squads,
		repos.registrations,
		repos.athletes,
		repos.scores,
		logger,
	)
	ledgerService := services.NewLedgerService(
		repos.tx,
		repos.scores,
		repos.imports,
		repos.tournaments,
		repos.disciplines,
		repos.athletes,
		repos.teams,
		repos.registrations,
		repos.squads,
		snapshots,
		uploader,
		logger,
	)
	leaderboardService := services.NewLeaderboardService(repos.tournaments, repos.scores, snapshots, uploader, logger)
	classificationService := services.NewClassificationService(policy, repos.athletes, repos.disciplines, repos.scores, repos.tournaments, snapshots, logger)
	rosterService := services.NewRosterService(repos.tx, repos.athletes, repos.teams, logger)
	logger.Info("services initialized")

	// Запуск планировщика автоматического обновления статусов турниров
	schedulerCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	go runStatusScheduler(schedulerCtx, logger, tournamentService, cfg.StatusUpdateInterval)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{
			Logger:         logger,
			JWTSecret:      []byte(cfg.JWTSecretKey),
			AllowedOrigins: cfg.CORSAllowedOrigins,
		},
		handlers.NewTournamentHandler(tournamentService, disciplineService, registrationService),
		handlers.NewScheduleHandler(schedulerService),
		handlers.NewScoreHandler(ledgerService),
		handlers.NewLeaderboardHandler(leaderboardService, classificationService),
		handlers.NewRosterHandler(rosterService),
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			return
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}

// runStatusScheduler moves tournaments between upcoming, active and completed as their dates pass.
func runStatusScheduler(ctx context.Context, logger *slog.Logger, ts services.TournamentService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.Info("tournament status scheduler started", slog.Duration("interval", interval))

	if err := ts.AutoUpdateTournamentStatusesByDates(ctx); err != nil {
		logger.Error("scheduler: initial run failed", slog.Any("error", err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ts.AutoUpdateTournamentStatusesByDates(ctx); err != nil {
				logger.Error("scheduler: periodic run failed", slog.Any("error", err))
			}
		}
	}
}
