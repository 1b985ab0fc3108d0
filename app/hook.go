package app

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Close releases the module, event bus and database, then flushes traces.
func (app *App) Close() error {
	logger := app.Observability.Provider.Logger
	logger.Info("Shutting down application")

	var errs []error
	if app.SeasonModule != nil {
		if err := app.SeasonModule.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := app.Observability.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
	}

	logger.Info("Application shut down")
	return errors.Join(errs...)
}
