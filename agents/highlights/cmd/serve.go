package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"f1-highlights/agents/highlights/api"
	"f1-highlights/agents/highlights/api/types"
	"f1-highlights/shared/scheduler"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

var (
	serverHost string
	serverPort int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the highlights API server.

When a schedule is configured the pipeline also runs on that cron schedule.

Example:
  highlights serve
  highlights serve --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.pipeline.Initialize(ctx); err != nil {
		return err
	}

	if serverHost == "" {
		serverHost = a.config.Server.Host
	}
	if serverPort == 0 {
		serverPort = a.config.Server.Port
	}
	address := fmt.Sprintf("%s:%d", serverHost, serverPort)

	srv := api.NewServer(address, &types.Dependencies{
		Runner:      a.pipeline,
		Videos:      a.store,
		Database:    a.store,
		Monitor:     a.monitor,
		RecentLimit: a.config.Pipeline.RecentLimit,
	})

	sched := scheduler.New(a.config.Schedule, a.pipeline)
	if sched.Enabled() {
		go func() {
			if err := sched.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Scheduler failed: %v", err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	log.Printf("🏎️  Highlights API listening on %s", address)

	select {
	case <-ctx.Done():
		log.Println("Shutting down server...")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server gracefully stopped")
	return nil
}
