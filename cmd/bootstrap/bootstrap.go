package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procedure-scheduler/config"
	"procedure-scheduler/internal/allocator"
	deliveryHttp "procedure-scheduler/internal/delivery/http"
	"procedure-scheduler/internal/delivery/http/handler"
	"procedure-scheduler/internal/delivery/http/middleware"
	"procedure-scheduler/internal/domain/entity"
	"procedure-scheduler/internal/infrastructure/cache"
	"procedure-scheduler/internal/infrastructure/database"
	"procedure-scheduler/internal/infrastructure/messaging"
	"procedure-scheduler/internal/repository"
	"procedure-scheduler/internal/service"
	"procedure-scheduler/internal/usecase"
	"procedure-scheduler/pkg/validator"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AMQPConn    *amqp.Connection
	Locker      service.SlotLocker
	Server      *http.Server
}

// New creates a new App instance with all dependencies initialized.
// The allocator is loaded from the store before the server is built.
func New(envFile string) (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := setupLogger(cfg.App.LogLevel)
	app.Log = log
	log.Info("Configuration loaded successfully")

	// Initialize database
	db, err := OpenDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	app.DB = db

	if err := prepareSchema(cfg, db, log); err != nil {
		app.Close()
		return nil, err
	}

	// Slot lock: Redis when enabled, in-process otherwise
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(cfg.Redis, log)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		app.RedisClient = redisClient
		app.Locker = service.NewRedisSlotLocker(redisClient, cfg.Redis.LockTTL, log)
	} else {
		app.Locker = service.NewLocalSlotLocker(log)
		log.Info("Redis disabled, using in-process slot locks")
	}

	// Domain events
	var publisher service.EventPublisher
	if cfg.Events.Enabled {
		conn, err := messaging.NewRabbitMQConnection(cfg.Events, log)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		app.AMQPConn = conn
		publisher = service.NewAMQPEventPublisher(conn, cfg.Events.Queue, log)
	} else {
		publisher = service.NewNoopEventPublisher(log)
		log.Info("Events disabled, slot events are only logged")
	}

	// Initialize all layers
	server, err := initializeServer(cfg, log, db, app.Locker, publisher)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Server = server

	return app, nil
}

// setupLogger configures a JSON logrus logger at the given level
func setupLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)

	return log
}

// OpenDatabase connects to the configured store
func OpenDatabase(cfg *config.Config, log *logrus.Logger) (*gorm.DB, error) {
	switch cfg.DB.Driver {
	case "sqlite":
		db, err := database.NewSQLiteConnection(cfg.DB.SQLitePath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, nil
	default:
		db, err := database.NewPostgresConnection(cfg.DB, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db, nil
	}
}

// prepareSchema runs SQL migrations on postgres and gorm AutoMigrate on sqlite
func prepareSchema(cfg *config.Config, db *gorm.DB, log *logrus.Logger) error {
	if cfg.DB.Driver == "sqlite" {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
		return nil
	}

	migrator, err := database.NewMigrator(db, log)
	if err != nil {
		return err
	}
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// NewDomain builds the slot domain from the schedule settings
func NewDomain(cfg config.ScheduleConfig) allocator.Domain {
	rooms := make([]entity.Room, len(cfg.Rooms))
	for i, r := range cfg.Rooms {
		rooms[i] = entity.Room{ID: r.ID, Label: r.Label}
	}

	return allocator.Domain{
		Rooms:     rooms,
		FirstHour: cfg.FirstHour,
		LastHour:  cfg.LastHour,
		PastDates: allocator.PastDatePolicy(cfg.PastDatePolicy),
	}
}

// initializeServer creates and configures the HTTP server
func initializeServer(
	cfg *config.Config,
	log *logrus.Logger,
	db *gorm.DB,
	locker service.SlotLocker,
	publisher service.EventPublisher,
) (*http.Server, error) {
	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	procedureRepo := repository.NewProcedureRepository()
	bindingRepo := repository.NewSlotBindingRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	auditService := service.NewAuditService(log, auditLogRepo)
	allocs := service.NewAllocatorService(db, log, procedureRepo, allocator.New(NewDomain(cfg.Schedule)))

	// Must finish before the server accepts traffic
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := allocs.SyncOnStartup(ctx); err != nil {
		return nil, fmt.Errorf("failed to sync allocator: %w", err)
	}

	// Initialize usecases
	procedureUsecase := usecase.NewProcedureUsecase(db, log, procedureRepo, auditService, allocs)
	schedulingUsecase := usecase.NewSchedulingUsecase(db, log, procedureRepo, bindingRepo, auditService, allocs, locker, publisher)
	calendarUsecase := usecase.NewCalendarUsecase(log, allocs, time.Now)
	auditLogUsecase := usecase.NewAuditLogUsecase(db, log, auditLogRepo)

	// Initialize handlers
	procedureHandler := handler.NewProcedureHandler(procedureUsecase, customValidator)
	scheduleHandler := handler.NewScheduleHandler(schedulingUsecase, customValidator)
	calendarHandler := handler.NewCalendarHandler(calendarUsecase, customValidator)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)

	// Initialize middleware
	loggingMiddleware := middleware.NewLoggingMiddleware(log)
	corsMiddleware := middleware.NewCORSMiddleware()

	// Initialize router
	router := deliveryHttp.NewRouter(procedureHandler, scheduleHandler, calendarHandler, auditLogHandler, loggingMiddleware, corsMiddleware)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, rabbitmq) and stops the lock janitor
func (app *App) Close() {
	if app.Locker != nil {
		app.Locker.Stop()
	}

	// Close RabbitMQ connection
	if app.AMQPConn != nil {
		_ = app.AMQPConn.Close()
	}

	// Close Redis connection
	if app.RedisClient != nil {
		_ = app.RedisClient.Close()
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	}
}
