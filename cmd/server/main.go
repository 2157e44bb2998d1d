package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ugcmarket/ugc-backend/internal/config"
	"github.com/ugcmarket/ugc-backend/internal/db"
	httpHandlers "github.com/ugcmarket/ugc-backend/internal/http/handlers"
	httpRouter "github.com/ugcmarket/ugc-backend/internal/http/router"
	"github.com/ugcmarket/ugc-backend/internal/logger"
	"github.com/ugcmarket/ugc-backend/internal/repository"
	"github.com/ugcmarket/ugc-backend/internal/service"
	"github.com/ugcmarket/ugc-backend/internal/storage"
	"github.com/ugcmarket/ugc-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	if cfg.Env == "development" {
		logger.Init("debug")
		logger.SetTextFormatter()
	} else {
		logger.Init("info")
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	mediaStorage, err := storage.NewMediaStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	applicationRepo := repository.NewApplicationRepository(dbConn)
	submissionRepo := repository.NewSubmissionRepository(dbConn)
	conversationRepo := repository.NewConversationRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	payoutRepo := repository.NewPayoutRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	settingsRepo := repository.NewSettingsRepository(dbConn)
	outboxRepo := repository.NewOutboxRepository(dbConn)
	mediaRepo := repository.NewMediaRepository(dbConn)

	// Стартовые настройки платформы из окружения; дальше правятся через API.
	if err := settingsRepo.EnsureExists(ctx, cfg.CommissionBps, cfg.DefaultCurrency); err != nil {
		log.Fatalf("main: не удалось создать настройки платформы: %v", err)
	}

	// Вебсокеты.
	hub := ws.NewHub()
	go hub.Run()

	// Сервисы.
	notificationService := service.NewNotificationService(notificationRepo)
	events := service.NewEventEmitter(outboxRepo, notificationService, hub)

	authService := service.NewAuthService(userRepo, tokenManager)
	jobService := service.NewJobService(jobRepo, submissionRepo, paymentRepo, disputeRepo, userRepo, settingsRepo, events)
	applicationService := service.NewApplicationService(applicationRepo, jobRepo, events)
	conversationService := service.NewConversationService(conversationRepo, events)
	paymentService := service.NewPaymentService(paymentRepo, jobRepo, settingsRepo, events)
	payoutService := service.NewPayoutService(payoutRepo, events)
	disputeService := service.NewDisputeService(disputeRepo, jobRepo, paymentRepo, settingsRepo, events)

	// HTTP хэндлеры.
	h := httpRouter.Handlers{
		Auth:         httpHandlers.NewAuthHandler(authService),
		Job:          httpHandlers.NewJobHandler(jobService),
		Application:  httpHandlers.NewApplicationHandler(applicationService),
		Conversation: httpHandlers.NewConversationHandler(conversationService),
		Dispute:      httpHandlers.NewDisputeHandler(disputeService),
		Payment:      httpHandlers.NewPaymentHandler(paymentService),
		Payout:       httpHandlers.NewPayoutHandler(payoutService),
		Notification: httpHandlers.NewNotificationHandler(notificationService),
		Media:        httpHandlers.NewMediaHandler(mediaRepo, mediaStorage),
		Admin:        httpHandlers.NewAdminHandler(jobService, paymentService, outboxRepo),
		Health:       httpHandlers.NewHealthHandler(dbConn),
		WS:           httpHandlers.NewWSHandler(hub, tokenManager),
	}

	engine := httpRouter.SetupRouter(cfg, h, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
