package main

import (
	"fmt"
	"os"

	"contentpay_backend/internal/app"
	"contentpay_backend/internal/auth"
	"contentpay_backend/internal/config"
	"contentpay_backend/internal/database"
	"contentpay_backend/internal/email"
	"contentpay_backend/internal/events"
	"contentpay_backend/internal/gateway"
	"contentpay_backend/internal/logger"
	"contentpay_backend/internal/services"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// environment is opened once per invocation. Events are delivered
// synchronously so every side effect finishes before the command exits.
type environment struct {
	configPath string

	cfg      *config.Config
	db       *gorm.DB
	services *services.ServiceContainer
	tokens   *auth.Manager
	provider email.Provider
}

func (e *environment) open(cmd *cobra.Command) error {
	if e.configPath != "" {
		if err := os.Setenv("CONFIG_PATH", e.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	e.cfg = cfg
	logger.Init(e.cfg.Server.Env)
	e.tokens = auth.NewManager(e.cfg.JWT.Secret, e.cfg.TokenTTL())

	if cmd.Annotations["offline"] == "true" {
		return nil
	}

	db, err := database.Connect(e.cfg.Database.Driver, e.cfg.Database.DSN)
	if err != nil {
		return err
	}
	e.db = db

	provider, err := app.NewEmailProvider(e.cfg)
	if err != nil {
		return err
	}
	e.provider = provider

	repos := services.NewRepositories()
	publisher := events.NewSyncPublisher(
		events.NewNotificationListener(db, repos.Notifications),
		events.NewEmailListener(provider),
	)
	gw := gateway.NewHTTPClient(gateway.Config{
		BaseURL:   e.cfg.Gateway.BaseURL,
		SecretKey: e.cfg.Gateway.SecretKey,
		Timeout:   e.cfg.GatewayTimeout(),
	})
	e.services = services.NewServiceContainer(gw, publisher, repos, services.Options{
		PayoutDelayDays:         e.cfg.Settlement.PayoutDelayDays,
		SubscriptionMaxFailures: e.cfg.Subscription.MaxFailures,
	})
	return nil
}

func (e *environment) close() error {
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			return fmt.Errorf("close email provider: %w", err)
		}
	}
	if e.db != nil {
		sqlDB, err := e.db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
