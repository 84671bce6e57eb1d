package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/estatecrm/internal/core"
)

type httpServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

type importDrainer interface {
	LimiterStatus() core.LimiterStatus
	WaitForImports(ctx context.Context) error
}

// serve runs the server until it fails or is shut down. After a shutdown it
// blocks until done closes, so deferred cleanup in main runs last.
func serve(srv httpServer, done <-chan struct{}) error {
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}

// drain stops accepting requests, waits for running imports, then closes
// the event connection. events may be nil.
func drain(ctx context.Context, srv httpServer, imports importDrainer, events io.Closer) {
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}

	if status := imports.LimiterStatus(); status.Active > 0 {
		slog.Info("waiting for imports to complete", "active", status.Active)
		if err := imports.WaitForImports(ctx); err != nil {
			slog.Warn("imports did not complete in time", "error", err)
		}
	}

	if events != nil {
		if err := events.Close(); err != nil {
			slog.Warn("nats drain failed", "error", err)
		}
	}
}
