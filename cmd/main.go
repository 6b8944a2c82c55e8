package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-CourtBookingService/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-CourtBookingService/internal/api/handlers/create_booking"
	getAutomationConfigHandler "github.com/m04kA/SMC-CourtBookingService/internal/api/handlers/get_automation_config"
	getBookingHandler "github.com/m04kA/SMC-CourtBookingService/internal/api/handlers/get_booking"
	getCourtBookingsHandler "github.com/m04kA/SMC-CourtBookingService/internal/api/handlers/get_court_bookings"
	getFreeIntervalsHandler "github.com/m04kA/SMC-CourtBookingService/internal/api/handlers/get_free_intervals"
	markAbsentHandler "github.com/m04kA/SMC-CourtBookingService/internal/api/handlers/mark_absent"
	saveParticipantsHandler "github.com/m04kA/SMC-CourtBookingService/internal/api/handlers/save_participants"
	updateAutomationConfigHandler "github.com/m04kA/SMC-CourtBookingService/internal/api/handlers/update_automation_config"
	updateBookingStatusHandler "github.com/m04kA/SMC-CourtBookingService/internal/api/handlers/update_booking_status"
	"github.com/m04kA/SMC-CourtBookingService/internal/api/middleware"
	"github.com/m04kA/SMC-CourtBookingService/internal/clocksync"
	"github.com/m04kA/SMC-CourtBookingService/internal/config"
	"github.com/m04kA/SMC-CourtBookingService/internal/infra/cache"
	"github.com/m04kA/SMC-CourtBookingService/internal/infra/events"
	automationRepo "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/automation"
	bookingRepo "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/booking"
	participantRepo "github.com/m04kA/SMC-CourtBookingService/internal/infra/storage/participant"
	clubServiceClient "github.com/m04kA/SMC-CourtBookingService/internal/integrations/clubservice"
	"github.com/m04kA/SMC-CourtBookingService/internal/realtime"
	"github.com/m04kA/SMC-CourtBookingService/internal/scheduler"
	automationService "github.com/m04kA/SMC-CourtBookingService/internal/service/automation"
	bookingsService "github.com/m04kA/SMC-CourtBookingService/internal/service/bookings"
	participantsService "github.com/m04kA/SMC-CourtBookingService/internal/service/participants"
	createBookingUC "github.com/m04kA/SMC-CourtBookingService/internal/usecase/create_booking"
	getFreeIntervalsUC "github.com/m04kA/SMC-CourtBookingService/internal/usecase/get_free_intervals"
	"github.com/m04kA/SMC-CourtBookingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-CourtBookingService/pkg/logger"
	"github.com/m04kA/SMC-CourtBookingService/pkg/metrics"
	"github.com/m04kA/SMC-CourtBookingService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-CourtBookingService/pkg/txmanager"
)

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

	log.Info("Starting SMC-CourtBookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
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

	// Инициализируем клиента ClubService
	clubClient := clubServiceClient.NewClient(
		cfg.ClubService.URL,
		time.Duration(cfg.ClubService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration client initialized (ClubService=%s timeout=%ds)",
		cfg.ClubService.URL, cfg.ClubService.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository     *bookingRepo.Repository
		participantRepository *participantRepo.Repository
		automationRepository  *automationRepo.Repository
	)

	// Интерфейс transaction manager для usecases
	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		participantRepository = participantRepo.NewRepository(wrappedDB)
		automationRepository = automationRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		participantRepository = participantRepo.NewRepository(db)
		automationRepository = automationRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Скорректированные часы: офсет к серверному времени БД
	clk := clocksync.New(
		bookingRepository,
		time.Duration(cfg.ClockSync.RefreshInterval)*time.Second,
		log,
	)

	// Защитные окна автоматизации
	guard := scheduler.NewGuard(clk, scheduler.GuardWindows{
		ManualOverrideTTL: time.Duration(cfg.Automation.ManualOverrideTTL) * time.Second,
		RecentWriteWindow: time.Duration(cfg.Automation.RecentWriteWindow) * time.Second,
		RealtimeDebounce:  time.Duration(cfg.Automation.RealtimeDebounce) * time.Millisecond,
	})

	// Планировщик автоматических переходов статусов
	var schedObserver scheduler.Observer
	if cfg.Metrics.Enabled {
		schedObserver = metricsCollector
	}
	sched := scheduler.New(
		bookingRepository,
		automationRepository,
		guard,
		clk,
		schedObserver,
		log,
		scheduler.Options{
			SafetyTick:      time.Duration(cfg.Automation.SafetyTick) * time.Second,
			SweepInterval:   time.Duration(cfg.Automation.SweepInterval) * time.Second,
			TriggerBuffer:   time.Duration(cfg.Automation.TriggerBuffer) * time.Second,
			MaxTriggerDelay: time.Duration(cfg.Automation.MaxTriggerDelay) * time.Second,
			Horizon:         24 * time.Hour,
			EmptyRetryDelay: time.Duration(cfg.Automation.EmptyListRetryDelay) * time.Second,
		},
	)

	// Снапшот-кэш списков бронирований (опционально)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	}
	snapshotCache := cache.NewSnapshotCache(
		redisClient,
		time.Duration(cfg.Redis.SnapshotTTL)*time.Second,
		log,
	)
	if redisClient != nil {
		log.Info("Redis snapshot cache enabled (addr=%s)", cfg.Redis.Addr)
	}

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		participantRepository,
		clubClient,
		snapshotCache,
		guard,
		sched,
		clk,
		log,
		time.Duration(cfg.Automation.EmptyListRetryDelay)*time.Second,
	)
	participantSvc := participantsService.NewService(
		bookingRepository,
		participantRepository,
		clubClient,
		guard,
		sched,
		log,
	)
	automationSvc := automationService.NewService(
		automationRepository,
		clubClient,
		sched,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		participantRepository,
		clubClient,
		txMgr,
		guard,
		sched,
		clk,
		log,
	)
	getFreeIntervalsUseCase := getFreeIntervalsUC.NewUseCase(
		bookingRepository,
		clubClient,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	markAbsent := markAbsentHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	getCourtBookings := getCourtBookingsHandler.NewHandler(bookingSvc, log)
	getFreeIntervals := getFreeIntervalsHandler.NewHandler(getFreeIntervalsUseCase, log)
	saveParticipants := saveParticipantsHandler.NewHandler(participantSvc, log)
	getAutomationConfig := getAutomationConfigHandler.NewHandler(automationSvc, log)
	updateAutomationConfig := updateAutomationConfigHandler.NewHandler(automationSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Свободные интервалы корта на день
	api.HandleFunc("/clubs/{clubId}/courts/{courtId}/free-intervals",
		getFreeIntervals.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/absent", markAbsent.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)

	// --- Участники ---
	protected.HandleFunc("/bookings/{bookingId}/participants", saveParticipants.Handle).Methods(http.MethodPut)

	// --- Управление клубом (для менеджеров) ---
	protected.HandleFunc("/clubs/{clubId}/bookings", getCourtBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/clubs/{clubId}/automation-config", getAutomationConfig.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/clubs/{clubId}/automation-config", updateAutomationConfig.Handle).Methods(http.MethodPut)

	// Фоновые контуры: часы, планировщик, realtime-события
	bgCtx, bgCancel := context.WithCancel(context.Background())
	var bg sync.WaitGroup

	bg.Add(1)
	go func() {
		defer bg.Done()
		clk.Run(bgCtx)
	}()

	bg.Add(1)
	go func() {
		defer bg.Done()
		sched.Run(bgCtx)
	}()

	if cfg.AMQP.Enabled {
		subscriber := events.NewSubscriber(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		coordinator := realtime.NewCoordinator(subscriber, sched, guard, log)

		bg.Add(1)
		go func() {
			defer bg.Done()
			coordinator.Run(bgCtx)
		}()
		log.Info("Realtime change subscription enabled (exchange=%s)", cfg.AMQP.Exchange)
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

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

	// Останавливаем фоновые контуры
	bgCancel()
	bg.Wait()

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close redis client: %v", err)
		}
	}

	log.Info("Server exited")
}
