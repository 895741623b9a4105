package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contentpay_backend/internal/auth"
	"contentpay_backend/internal/config"
	"contentpay_backend/internal/database"
	"contentpay_backend/internal/email"
	"contentpay_backend/internal/events"
	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/handlers"
	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/middleware"
	"contentpay_backend/internal/routes"
	"contentpay_backend/internal/services"
	"contentpay_backend/internal/validator"
	"contentpay_backend/internal/workers"
	"contentpay_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

type backgroundWorker interface {
	Start(ctx context.Context)
	Wait()
}

// App is the assembled payment engine: one gateway client, one event
// publisher and the services, handlers and workers built on them.
type App struct {
	Config    *config.Config
	DB        *gorm.DB
	Gateway   gateway.Client
	Publisher *events.AsyncPublisher
	Services  *services.ServiceContainer
	Tokens    *auth.Manager
	Router    *gin.Engine

	emailProvider email.Provider
	workers       []backgroundWorker
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	apperrors.SetDebug(cfg.Server.Env == "development")
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}
	logger.Info("Database connected")

	a, err := New(cfg, db)
	if err != nil {
		logger.Fatal("Failed to assemble application", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.StartWorkers(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if err := a.Close(shutdownCtx); err != nil {
		logger.Error("Shutdown incomplete", "error", err)
	}
	logger.Info("Server stopped")
}

// New builds the application on an open database. Workers are not started.
func New(cfg *config.Config, db *gorm.DB) (*App, error) {
	provider, err := NewEmailProvider(cfg)
	if err != nil {
		return nil, err
	}

	gw := gateway.NewHTTPClient(gateway.Config{
		BaseURL:   cfg.Gateway.BaseURL,
		SecretKey: cfg.Gateway.SecretKey,
		Timeout:   cfg.GatewayTimeout(),
	})

	repos := services.NewRepositories()
	publisher := events.NewAsyncPublisher(cfg.Events.Workers, cfg.Events.QueueSize,
		events.NewNotificationListener(db, repos.Notifications),
		events.NewEmailListener(provider),
	)

	container := services.NewServiceContainer(gw, publisher, repos, services.Options{
		PayoutDelayDays:         cfg.Settlement.PayoutDelayDays,
		SubscriptionMaxFailures: cfg.Subscription.MaxFailures,
	})

	tokens := auth.NewManager(cfg.JWT.Secret, cfg.TokenTTL())

	a := &App{
		Config:        cfg,
		DB:            db,
		Gateway:       gw,
		Publisher:     publisher,
		Services:      container,
		Tokens:        tokens,
		emailProvider: provider,
	}
	a.Router = SetupRouter(cfg, db, container, gateway.NewSigner(cfg.Gateway.WebhookSecret), tokens)
	a.workers = []backgroundWorker{
		workers.NewSettlementWorker(db, container.SettlementEngine, minutes(cfg.Settlement.IntervalMinutes)),
		workers.NewReconciliationWorker(db, container.Reconciler,
			minutes(cfg.Reconciliation.IntervalMinutes), cfg.PendingTimeout(), cfg.Reconciliation.BatchSize),
		workers.NewSubscriptionWorker(db, container.SubscriptionService, minutes(cfg.Subscription.IntervalMinutes)),
	}
	return a, nil
}

// SetupRouter builds the gin engine with the middleware chain and all routes.
func SetupRouter(cfg *config.Config, db *gorm.DB, container *services.ServiceContainer, signer *gateway.Signer, tokens *auth.Manager) *gin.Engine {
	if cfg.Server.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(middleware.DBMiddleware(db))

	routes.RegisterRoutes(router, initializeHandlers(container, signer, tokens), tokens)
	return router
}

func initializeHandlers(container *services.ServiceContainer, signer *gateway.Signer, tokens *auth.Manager) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler:         handlers.NewAuthHandler(baseHandler, tokens),
		PaymentHandler:      handlers.NewPaymentHandler(baseHandler, container.OrderService, container.Executor),
		WebhookHandler:      handlers.NewWebhookHandler(baseHandler, signer, container.Reconciler),
		BillingHandler:      handlers.NewBillingHandler(baseHandler, container.BillingKeyService, container.SubscriptionService),
		SettlementHandler:   handlers.NewSettlementHandler(baseHandler, container.SettlementEngine),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, container.NotificationService),
	}
}

// NewEmailProvider returns the SMTP provider when email is enabled and a
// logging provider otherwise.
func NewEmailProvider(cfg *config.Config) (email.Provider, error) {
	tag, err := language.Parse(cfg.Email.Locale)
	if err != nil {
		return nil, fmt.Errorf("email locale %q: %w", cfg.Email.Locale, err)
	}
	formatter, err := email.NewAmountFormatter(cfg.Email.Currency, tag)
	if err != nil {
		return nil, fmt.Errorf("email currency %q: %w", cfg.Email.Currency, err)
	}
	templates, err := email.NewDefaultTemplateManager(formatter)
	if err != nil {
		return nil, fmt.Errorf("email templates: %w", err)
	}
	if cfg.Email.TemplatesDir != "" {
		if err := templates.LoadTemplates(cfg.Email.TemplatesDir); err != nil {
			return nil, fmt.Errorf("email templates: %w", err)
		}
	}

	if !cfg.Email.Enabled {
		logger.Warn("Email delivery disabled, messages are only logged")
		return email.NewLogProvider(templates), nil
	}

	provider := email.NewSMTPProvider(&email.SMTPConfig{
		Host:      cfg.Email.SMTPHost,
		Port:      cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
		Timeout:   10 * time.Second,
	}, templates)
	if err := provider.Validate(); err != nil {
		return nil, fmt.Errorf("smtp config: %w", err)
	}
	return provider, nil
}

func (a *App) StartWorkers(ctx context.Context) {
	for _, w := range a.workers {
		w.Start(ctx)
	}
	logger.Info("Background workers started", "count", len(a.workers))
}

// Close waits for workers (their ctx must already be cancelled), drains the
// event queue and releases the email provider and database.
func (a *App) Close(ctx context.Context) error {
	for _, w := range a.workers {
		w.Wait()
	}

	var errs []error
	if err := a.Publisher.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("publisher: %w", err))
	}
	if err := a.emailProvider.Close(); err != nil {
		errs = append(errs, fmt.Errorf("email: %w", err))
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}
