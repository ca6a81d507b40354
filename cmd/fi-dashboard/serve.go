package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"time-value-analyser/fi-dashboard/internal/metrics"
	"time-value-analyser/fi-dashboard/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load the datasets and serve the dashboard API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	log.Printf("fi-dashboard %s starting...", Version)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Malformed inputs stop the process here rather than serving partial data.
	cfg, st, err := loadStore(ctx)
	if err != nil {
		return err
	}
	m := metrics.New()
	m.ObserveLoad(st)
	srv := server.New(cfg, st, m)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("serving dashboard on %s", cfg.Server.ListenAddress)
		if err := srv.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Println("shutting down...")
	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	return srv.Shutdown(shutdownCtx)
}
