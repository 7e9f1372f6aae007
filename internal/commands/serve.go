package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/outline/internal/api"
	"github.com/dgallion1/outline/internal/config"
	"github.com/spf13/cobra"
)

func addServe(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document over the HTTP API.",
		Example: `
outline serve
OUTLINE_PORT=9000 OUTLINE_API_KEY=secret outline serve
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			level, _ := config.ParseLevel(cfg.LogLevel)
			log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

			e, err := openWith(cfg, log)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), e)
		},
	}

	topLevel.AddCommand(cmd)
}

func serve(ctx context.Context, e *env) error {
	srv := api.NewServer(e.sess, e.log, e.cfg)

	httpServer := &http.Server{
		Addr:         ":" + e.cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	srv.Start(ctx)
	go func() {
		<-ctx.Done()
		e.log.Info("shutting down...")

		srv.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	e.log.Info("starting outline", "port", e.cfg.Port, "file", e.sess.Path())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
