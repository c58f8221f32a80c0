package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/cancel_reservation"
	checkInHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/check_in"
	checkOutHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/check_out"
	createReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/create_reservation"
	getReservationHandler "github.com/m04kA/SMC-ReservationService/internal/api/handlers/get_reservation"
	"github.com/m04kA/SMC-ReservationService/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationService/internal/auth"
	"github.com/m04kA/SMC-ReservationService/internal/clock"
	"github.com/m04kA/SMC-ReservationService/internal/config"
	"github.com/m04kA/SMC-ReservationService/internal/infra/events"
	"github.com/m04kA/SMC-ReservationService/internal/infra/idempotency"
	"github.com/m04kA/SMC-ReservationService/internal/infra/reconciliation"
	"github.com/m04kA/SMC-ReservationService/internal/infra/storage/memory"
	reservationRepo "github.com/m04kA/SMC-ReservationService/internal/infra/storage/reservation"
	confirmationClient "github.com/m04kA/SMC-ReservationService/internal/integrations/confirmation"
	inventoryClient "github.com/m04kA/SMC-ReservationService/internal/integrations/inventory"
	paymentsClient "github.com/m04kA/SMC-ReservationService/internal/integrations/payments"
	pricingClient "github.com/m04kA/SMC-ReservationService/internal/integrations/pricing"
	"github.com/m04kA/SMC-ReservationService/internal/saga"
	reservationsService "github.com/m04kA/SMC-ReservationService/internal/service/reservations"
	cancelReservationUC "github.com/m04kA/SMC-ReservationService/internal/usecase/cancel_reservation"
	createReservationUC "github.com/m04kA/SMC-ReservationService/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-ReservationService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationService/pkg/logger"
	"github.com/m04kA/SMC-ReservationService/pkg/metrics"
)

// reservationStore хранилище, общее для usecases и сервиса
type reservationStore interface {
	createReservationUC.ReservationRepository
	reservationsService.ReservationRepository
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ReservationService...")
	log.Info("Configuration loaded from config.toml")

	systemClock := clock.NewSystem()

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище бронирований
	var store reservationStore
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store = memory.NewStore(systemClock)
		log.Warn("Using in-memory reservation store, data is lost on restart")
	default:
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		// Проверяем соединение
		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		if cfg.Metrics.Enabled {
			store = reservationRepo.NewRepository(dbmetrics.WrapWithDefault(db, metricsCollector, stopMetricsCh))
			log.Info("Database metrics collection started")
		} else {
			store = reservationRepo.NewRepository(db)
		}
	}

	// Redis: захват reservation_id на время саги или перехода и журнал неосвобожденных захватов
	var (
		guard  createReservationUC.SagaGuard
		ledger reconciliation.Ledger
		spool  events.Spool
	)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()

		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancelPing()
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}
		cancelPing()

		guard = idempotency.NewRedisGuard(rdb, cfg.Saga.GuardTTL())
		ledger = reconciliation.NewRedisLedger(rdb)
		spool = events.NewRedisSpool(rdb)
		log.Info("Redis connected (addr=%s, db=%d)", cfg.Redis.Addr, cfg.Redis.DB)
	} else {
		guard = idempotency.NewMemoryGuard(systemClock, cfg.Saga.GuardTTL())
		ledger = reconciliation.NewMemoryLedger()
		spool = events.NewMemorySpool()
		log.Warn("Redis disabled, saga guard, orphaned hold ledger and event spool are process-local")
	}

	// Транспорт событий
	var publisher events.Publisher
	if cfg.Kafka.Enabled {
		writer := events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		kafkaPublisher := events.NewKafkaPublisher(writer)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info("Kafka publisher enabled (brokers=%v)", cfg.Kafka.Brokers)
	} else {
		publisher = events.NewLogPublisher(log)
		log.Warn("Kafka disabled, events are written to the log")
	}

	eventsCfg := events.Config{
		BufferSize:   cfg.Events.BufferSize,
		Workers:      cfg.Events.Workers,
		MaxAttempts:  cfg.Events.MaxAttempts,
		RetryBackoff: cfg.Events.RetryBackoff(),
		Redeliver:    cfg.Events.RedeliverInterval(),
	}
	var notifier *events.Notifier
	if cfg.Metrics.Enabled {
		notifier = events.NewNotifier(publisher, eventsCfg, log, events.WithSpool(spool), events.WithMetrics(metricsCollector))
	} else {
		notifier = events.NewNotifier(publisher, eventsCfg, log, events.WithSpool(spool))
	}

	// Выпуск внутренних токенов
	issuer, err := auth.NewIssuer(auth.Config{
		Secret:     []byte(cfg.Auth.JWTSecret),
		Algorithm:  cfg.Auth.JWTAlgorithm,
		Issuer:     cfg.Auth.Issuer,
		DefaultTTL: cfg.Auth.InternalTTL(),
		SessionTTL: cfg.Auth.SessionTTL(),
	})
	if err != nil {
		log.Fatal("Failed to initialize token issuer: %v", err)
	}

	// Инициализируем интеграционных клиентов
	inventory := inventoryClient.NewClient(cfg.InventoryService.URL, cfg.InventoryService.TimeoutDuration(), log)
	pricing := pricingClient.NewClient(cfg.PricingService.URL, cfg.PricingService.TimeoutDuration(), log)
	confirmation := confirmationClient.NewClient(cfg.ConfirmationService.URL, cfg.ConfirmationService.TimeoutDuration(), log)
	payments := paymentsClient.NewClient(cfg.PaymentService.URL, cfg.PaymentService.TimeoutDuration(), log)
	log.Info("Integration clients initialized (Inventory=%s, Pricing=%s, Confirmation=%s, Payments=%s)",
		cfg.InventoryService.URL, cfg.PricingService.URL, cfg.ConfirmationService.URL, cfg.PaymentService.URL)

	// Исполнители саг
	var sagaOpts []saga.Option
	if cfg.Metrics.Enabled {
		sagaOpts = append(sagaOpts, saga.WithMetrics(metricsCollector))
	}
	createSaga := saga.NewExecutor("create_reservation", cfg.Saga.StepTimeout(), log, sagaOpts...)
	cancelSaga := saga.NewExecutor("cancel_reservation", cfg.Saga.StepTimeout(), log, sagaOpts...)

	// Инициализируем use cases и сервисы
	createReservationUseCase := createReservationUC.NewUseCase(
		store,
		issuer,
		inventory,
		pricing,
		confirmation,
		notifier,
		guard,
		reconciliation.NewRecorder(ledger, systemClock, log),
		createSaga,
		log,
	)
	cancelReservationUseCase := cancelReservationUC.NewUseCase(
		store,
		issuer,
		inventory,
		payments,
		notifier,
		guard,
		cancelSaga,
		cfg.Saga.ConflictRetries,
		log,
	)
	reservationSvc := reservationsService.NewService(store, notifier, guard, cfg.Saga.ConflictRetries, log)

	// Сверка неосвобожденных захватов
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	if cfg.Reconciliation.Enabled {
		sweeper := reconciliation.NewSweeper(ledger, inventory, issuer, systemClock, log,
			cfg.Reconciliation.Interval(), cfg.Reconciliation.LockMaxAge())
		go sweeper.Run(sweepCtx)
		log.Info("Reconciliation sweeper started (interval=%v)", cfg.Reconciliation.Interval())
	}

	// Инициализируем handlers
	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	cancelReservation := cancelReservationHandler.NewHandler(cancelReservationUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationSvc, log)
	checkIn := checkInHandler.NewHandler(reservationSvc, log)
	checkOut := checkOutHandler.NewHandler(reservationSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// ============================================================
	// PROTECTED ROUTES (требуют Authorization: Bearer)
	// ============================================================

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth(issuer, log))

	api.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)
	api.HandleFunc("/reservations/cancel", cancelReservation.Handle).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{reservationId}", getReservation.Handle).Methods(http.MethodGet)
	api.HandleFunc("/reservations/{reservationId}", cancelReservation.Handle).Methods(http.MethodDelete)

	// --- Персонал отеля ---
	api.HandleFunc("/reservations/{reservationId}/checkin", checkIn.Handle).Methods(http.MethodPost)
	api.HandleFunc("/reservations/{reservationId}/checkout", checkOut.Handle).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	stopSweeper()

	// Доставляем события из очереди до закрытия транспорта
	if err := notifier.Close(shutdownCtx); err != nil {
		log.Error("Event notifier did not drain: %v", err)
	}

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	log.Info("Server stopped gracefully")
}
