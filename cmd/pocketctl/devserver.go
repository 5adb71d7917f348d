package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pocketsync/pocketsync/internal/logger"
	"github.com/pocketsync/pocketsync/internal/remotefake"
)

func init() {
	var addr, apiKey string
	devCmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run the in-memory item service for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New("pocketsync-dev")
			srv := &http.Server{
				Addr:              addr,
				Handler:           remotefake.New(apiKey).Router(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			log.Info().Str("addr", addr).Bool("auth", apiKey != "").Msg("dev item service listening")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		},
	}
	devCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	devCmd.Flags().StringVar(&apiKey, "api-key", "", "Require this bearer token (empty disables auth)")
	rootCmd.AddCommand(devCmd)
}
