package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashureev/nia-console/internal/api"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP façade and snapshot stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = a.cfg.ListenAddr
			}
			handler := api.NewHandler(a.ctrl, a.cfg.AllowedOrigins, a.logger)

			// WriteTimeout stays 0 for the websocket stream.
			srv := &http.Server{
				Addr:         addr,
				Handler:      api.NewRouter(handler),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 0,
				IdleTimeout:  120 * time.Second,
			}
			return serve(cmd.Context(), srv, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default NIA_LISTEN_ADDR)")
	return cmd
}

// serve runs srv until ctx is cancelled and then shuts it down.
func serve(ctx context.Context, srv *http.Server, a *app) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Server listening", "addr", srv.Addr, "api_url", a.cfg.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Server forced to shutdown", "error", err)
		return err
	}
	a.logger.Info("Server stopped successfully")
	return nil
}
