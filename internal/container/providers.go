package container

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/application/service"
	"github.com/expensedesk/expensedesk/internal/config"
	"github.com/expensedesk/expensedesk/internal/engine"
	"github.com/expensedesk/expensedesk/internal/infrastructure/store"
	httpiface "github.com/expensedesk/expensedesk/internal/interfaces/http"
	"github.com/expensedesk/expensedesk/internal/report"
	"github.com/expensedesk/expensedesk/internal/scan"
)

// provideState opens the SQLite store and loads the persisted document.
func provideState(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.SQLiteStore, *service.App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	st, err := store.NewSQLiteStore(store.Config{
		Path:            cfg.Store.Path,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	state, err := st.Load(ctx)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	return st, service.NewApp(state, st), nil
}

func provideServices(app *service.App, eng *engine.Engine, logger *zap.Logger) *ServiceBundle {
	return &ServiceBundle{
		Auth:     service.NewAuthService(app, logger),
		Users:    service.NewUserService(app, logger),
		Expenses: service.NewExpenseService(app, eng, logger),
		Settings: service.NewSettingsService(app, logger),
	}
}

// provideServer builds the HTTP adapter around the services.
func provideServer(cfg *config.Config, services *ServiceBundle, st *store.SQLiteStore, logger *zap.Logger) (*httpiface.Server, error) {
	if err := os.MkdirAll(cfg.Report.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	handlers := httpiface.NewHandlers(
		services.Auth,
		services.Users,
		services.Expenses,
		services.Settings,
		scan.NewScanner(cfg.Scan.Delay, logger),
		report.NewExporter(logger),
		cfg.Report.OutputDir,
		logger,
	)
	handlers.SetPinger(st)

	return httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, handlers, logger), nil
}
