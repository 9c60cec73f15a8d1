package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/nimven/autotourney/config"
	"github.com/nimven/autotourney/db"
	"github.com/nimven/autotourney/handlers"
	"github.com/nimven/autotourney/lichess"
	"github.com/nimven/autotourney/live"
	"github.com/nimven/autotourney/repositories"
	api "github.com/nimven/autotourney/routes"
	"github.com/nimven/autotourney/services"
	"github.com/nimven/autotourney/sheets"
	"github.com/nimven/autotourney/storage"
)

const lichessBaseURL = "https://lichess.org"

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
	if err := db.EnsureSchema(context.Background(), dbConn); err != nil {
		logger.Error("failed to ensure database schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	// Клиент lichess: турниры, результаты и OAuth
	lichessClient := lichess.NewClient(lichessBaseURL, cfg.LichessClientID, cfg.BaseURL+"/login", logger)

	// Клиент Google Sheets для таблиц статистики
	sheetsClient, err := sheets.NewClient(cfg.SheetsKeyFile, cfg.SheetsShareEmail, logger)
	if err != nil {
		logger.Error("failed to initialize sheets client", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("sheets client initialized")

	// Объектное хранилище (Cloudflare R2) для макетов дипломов
	diplomaStore, err := storage.NewCloudflareR2Store(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 store", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 store initialized")

	// Инициализация WebSocket Hub
	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	templateRepo := repositories.NewPostgresTemplateRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	diplomaRepo := repositories.NewPostgresDiplomaRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, lichessClient, cfg.SessionSecret, logger)
	templateService := services.NewTemplateService(templateRepo, logger)
	scheduleService := services.NewScheduleService(templateRepo, tournamentRepo, lichessClient, wsHub, logger)
	statsService := services.NewStatsService(userRepo, tournamentRepo, lichessClient, sheetsClient, logger)
	lookupService := services.NewLookupService(lichessClient, lichessClient, logger)
	diplomaService := services.NewDiplomaService(diplomaRepo, diplomaStore, logger)
	logger.Info("Services initialized")

	// Инициализация обработчиков HTTP
	secureCookies := strings.HasPrefix(cfg.BaseURL, "https://")
	authHandler := handlers.NewAuthHandler(authService, secureCookies)
	templateHandler := handlers.NewTemplateHandler(templateService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	statsHandler := handlers.NewStatsHandler(statsService)
	tournamentHandler := handlers.NewTournamentHandler(scheduleService, lookupService)
	diplomaHandler := handlers.NewDiplomaHandler(diplomaService)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		authService,
		authHandler,
		templateHandler,
		scheduleHandler,
		statsHandler,
		tournamentHandler,
		diplomaHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second, // batch creation can take a while
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
			os.Exit(1)
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if err := server.Close(); err != nil {
				logger.Error("forced shutdown failed", slog.Any("error", err))
			}
		}
	}

	logger.Info("server stopped")
}
