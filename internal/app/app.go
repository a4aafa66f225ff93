package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/uvm-fablab/scheduler/internal/config"
	"github.com/uvm-fablab/scheduler/internal/handler"
	"github.com/uvm-fablab/scheduler/internal/logger"
	"github.com/uvm-fablab/scheduler/internal/service"
	"github.com/uvm-fablab/scheduler/internal/store"
)

const shutdownTimeout = 10 * time.Second

// App wires configuration, storage and services into a running HTTP server.
type App struct {
	config *config.Config
	logger *logger.Logger

	store  store.Store
	server *http.Server
}

func New(cfg *config.Config, log *logger.Logger) *App {
	if log == nil {
		log = logger.New()
	}
	return &App{
		config: cfg,
		logger: log,
	}
}

// Initialize opens the booking store, loads the optional fleet config and
// builds the HTTP server. Call Close when done.
func (a *App) Initialize() error {
	st, err := store.NewSQLiteStore(a.config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open booking store: %w", err)
	}
	a.store = st

	var fleet *service.FleetConfig
	if a.config.FleetPath != "" {
		fleet, err = service.LoadFleetConfig(a.config.FleetPath)
		if err != nil {
			if cerr := st.Close(); cerr != nil {
				return errors.Join(err, cerr)
			}
			return err
		}
		a.logger.Info("Fleet config loaded", logger.Count(len(fleet.Printers)))
	}

	reservations := service.NewReservationService(a.store, fleet)
	auth := service.NewAuthService(service.NewCSVCredentialSource(a.config.UsersCSV))
	api := handler.NewAPIHandler(reservations, auth, a.logger, a.config.PublicDir)

	a.server = &http.Server{
		Addr:              a.config.ListenAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return nil
}

// Run serves requests until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	if a.server == nil {
		return fmt.Errorf("app not initialized")
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Scheduler listening", logger.Addr(a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	a.logger.Info("Scheduler stopped", logger.Status("shutdown_complete"))
	return <-errCh
}

func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Close(); err != nil {
		return fmt.Errorf("failed to close booking store: %w", err)
	}
	return nil
}
