package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clubdeck/competition-engine/competition"
	"github.com/clubdeck/competition-engine/config"
	"github.com/clubdeck/competition-engine/db"
	"github.com/clubdeck/competition-engine/handlers"
	"github.com/clubdeck/competition-engine/repositories"
	api "github.com/clubdeck/competition-engine/routes"
	"github.com/clubdeck/competition-engine/services"
	"github.com/clubdeck/competition-engine/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

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
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
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
	logger.Info("database connection established")

	// Инициализация загрузчика файлов (Cloudflare R2)
	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	// Websocket hub: комнаты по турнирам
	wsHub := competition.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Репозитории
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	groupRepo := repositories.NewPostgresGroupRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	slotRepo := repositories.NewPostgresPlayoffSlotRepository(dbConn)
	scheduleRepo := repositories.NewPostgresAvailableScheduleRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	logger.Info("repositories initialized")

	// Сервисы
	authService := services.NewAuthService(userRepo)
	courtService := services.NewCourtService(courtRepo)
	tournamentService := services.NewTournamentService(
		dbConn, tournamentRepo, teamRepo, groupRepo, matchRepo, scheduleRepo,
		uploader, wsHub, logger,
	)
	teamService := services.NewTeamService(dbConn, tournamentRepo, teamRepo, groupRepo)
	groupService := services.NewGroupService(
		dbConn, tournamentRepo, teamRepo, groupRepo, matchRepo, standingRepo,
		scheduleRepo, courtRepo, wsHub, logger,
	)
	matchService := services.NewMatchService(
		dbConn, tournamentRepo, groupRepo, matchRepo, standingRepo, slotRepo,
		wsHub, logger,
	)
	playoffService := services.NewPlayoffService(
		dbConn, tournamentRepo, groupRepo, matchRepo, standingRepo, slotRepo,
		wsHub, logger,
	)
	logger.Info("services initialized")

	// HTTP-обработчики
	authHandler := handlers.NewAuthHandler(authService, cfg.JWTSecretKey)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	teamHandler := handlers.NewTeamHandler(teamService)
	groupHandler := handlers.NewGroupHandler(groupService)
	matchHandler := handlers.NewMatchHandler(matchService)
	playoffHandler := handlers.NewPlayoffHandler(playoffService)
	courtHandler := handlers.NewCourtHandler(courtService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		cfg.CORSAllowedOrigins,
		authHandler,
		tournamentHandler,
		teamHandler,
		groupHandler,
		matchHandler,
		playoffHandler,
		courtHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
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
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
