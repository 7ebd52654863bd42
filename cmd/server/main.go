package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	financeapp "github.com/lhajoosten/ExpenseAI/internal/application/finance"
	identityapp "github.com/lhajoosten/ExpenseAI/internal/application/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/ai"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/auth"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/cache"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/config"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/event"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/logger"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/migration"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/notification"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/persistence"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/storage"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/telemetry"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/handler"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/middleware"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/router"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/lhajoosten/ExpenseAI/docs"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// eventDedupTTL bounds how long a forwarded event ID is remembered
const eventDedupTTL = 24 * time.Hour

//	@title			ExpenseAI API
//	@version		1.0
//	@description	Expense tracking, budgets and invoicing with AI assisted categorization

//	@contact.name	API Support
//	@contact.url	https://github.com/lhajoosten/ExpenseAI

//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	bootLog, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	// Re-create the logger so records are also exported over OTLP.
	log := bootLog
	if core := providers.LogCore(); core != nil {
		if log, err = logger.New(logger.FromAppConfig(cfg.Log), core); err != nil {
			bootLog.Fatal("Failed to initialize logger", zap.Error(err))
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ExpenseAI",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.Bool("telemetry", providers.Enabled()),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.ParseGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.InstrumentDB(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        cfg.Database.Driver,
	}, log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	if err := migrateSchema(cfg, db, log); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database ready", zap.String("driver", cfg.Database.Driver))

	// Reservations back invoice numbers, token revocation and event dedup.
	store, err := cache.NewReservationStore(ctx, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
		cache.WithKeyPrefix(cfg.Redis.KeyPrefix),
	)
	if err != nil {
		log.Fatal("Failed to initialize reservation store", zap.Error(err))
	}
	defer func() {
		_ = store.Close()
	}()

	receipts, err := storage.NewReceiptStorage(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize receipt storage", zap.Error(err))
	}

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	meter := otel.Meter(cfg.Telemetry.ServiceName)
	businessMetrics, err := telemetry.NewBusinessMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	eventBus.Subscribe(businessMetrics)

	var amqpPublisher *notification.AMQPPublisher
	if cfg.AMQP.Enabled {
		amqpPublisher, err = notification.Dial(cfg.AMQP, event.NewEventSerializer(), notification.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to connect to AMQP broker", zap.Error(err))
		}
		eventBus.Subscribe(event.NewIdempotentHandler(amqpPublisher, store, eventDedupTTL, log))
		log.Info("Forwarding domain events", zap.String("exchange", cfg.AMQP.Exchange))
	}

	// Application services
	uow := persistence.NewGormUnitOfWork(db.DB)
	taxonomy := finance.DefaultTaxonomy()
	categorizer := ai.NewKeywordCategorizer(cfg.AI.KeywordRules, ai.WithCategorizerLogger(log))

	var numbers finance.InvoiceNumberGenerator = finance.NewDateRandomGenerator()
	if cfg.Invoice.NumberFormat == config.InvoiceFormatSequence {
		numbers = finance.NewYearSequenceGenerator(persistence.NewGormInvoiceRepository(db.DB))
	}

	expenseService := financeapp.NewExpenseService(uow, taxonomy, eventBus, log,
		financeapp.WithCategorizer(categorizer),
		financeapp.WithDocumentExtractor(ai.NewTextExtractor(categorizer, log)),
		financeapp.WithFileStorage(receipts),
		financeapp.WithConfidenceThreshold(cfg.AI.ConfidenceThreshold),
	)
	budgetService := financeapp.NewBudgetService(uow, taxonomy, eventBus, log)
	invoiceService := financeapp.NewInvoiceService(uow, numbers, eventBus, log,
		financeapp.WithReservationStore(store),
		financeapp.WithReservationTTL(cfg.Invoice.ReservationTTL),
	)
	categoryService := financeapp.NewCategoryService(uow, taxonomy, log)
	userService := identityapp.NewUserService(persistence.NewGormUserRepository(db.DB), eventBus, log)

	// Authentication: bearer tokens when JWT is enabled, otherwise the
	// caller is taken from the X-User-ID header set by the gateway.
	identity := middleware.HeaderIdentity()
	authHandler := handler.NewAuthHandler(userService, nil, nil)
	if cfg.JWT.Enabled {
		jwtService := auth.NewJWTService(cfg.JWT)
		blacklist := auth.NewTokenBlacklist(store)
		jwtCfg := middleware.DefaultJWTConfig(jwtService)
		jwtCfg.Revocations = blacklist
		jwtCfg.Logger = log
		identity = middleware.JWTAuthMiddlewareWithConfig(jwtCfg)
		authHandler = handler.NewAuthHandler(userService, jwtService, blacklist)
	} else {
		log.Warn("JWT disabled, trusting the X-User-ID header")
	}

	var authLimiter *middleware.RateLimiter
	if cfg.HTTP.AuthRateLimit > 0 {
		authLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimit, cfg.HTTP.AuthRateWindow)
		defer authLimiter.Close()
	}

	checks := map[string]handler.HealthCheck{
		"database": func(context.Context) error { return db.Ping() },
		"reservations": func(ctx context.Context) error {
			_, err := store.IsReserved(ctx, "health:ping")
			return err
		},
	}

	engine := router.NewEngine(router.EngineConfig{
		Logger:      log,
		HTTP:        cfg.HTTP,
		Swagger:     cfg.Swagger,
		Tracing:     providers.Enabled(),
		ServiceName: cfg.Telemetry.ServiceName,
		Meter:       meter,
		Identity:    identity,
		AuthLimiter: authLimiter,
	}, router.Handlers{
		System:     handler.NewSystemHandler(version, checks),
		Auth:       authHandler,
		Users:      handler.NewUserHandler(userService),
		Categories: handler.NewCategoryHandler(categoryService),
		Expenses:   handler.NewExpenseHandler(expenseService),
		Budgets:    handler.NewBudgetHandler(budgetService),
		Invoices:   handler.NewInvoiceHandler(invoiceService),
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if stopErr := eventBus.Stop(shutdownCtx); stopErr != nil {
			log.Warn("Failed to stop event bus", zap.Error(stopErr))
		}
		if amqpPublisher != nil {
			if closeErr := amqpPublisher.Close(); closeErr != nil {
				log.Warn("Failed to close AMQP publisher", zap.Error(closeErr))
			}
		}
		if telErr := providers.Shutdown(shutdownCtx); telErr != nil {
			log.Warn("Failed to flush telemetry", zap.Error(telErr))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Server exited gracefully")
}

// migrateSchema brings the schema up to date. SQLite uses GORM AutoMigrate;
// postgres applies the embedded SQL migrations on a dedicated connection
// because the migrate driver closes the connection it is handed.
func migrateSchema(cfg *config.Config, db *persistence.Database, log *zap.Logger) error {
	if cfg.Database.Driver == config.DriverSQLite {
		return db.AutoMigrate()
	}

	conn, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return err
	}
	m, err := migration.New(conn, migration.Embedded(), log)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		_ = m.Close()
	}()
	return m.Up()
}
