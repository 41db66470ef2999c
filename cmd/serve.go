package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/cwbudde/curvefit/internal/server"
)

var (
	serveAddr  string
	serveStore storeFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server",
	Long: `Serves the job API: POST a run configuration to /api/v1/jobs, follow progress
on /api/v1/jobs/{id}/stream and move the dataset with PUT /api/v1/jobs/{id}/points.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveStore.register(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	checkpointStore, closeStore, err := serveStore.open()
	if err != nil {
		return err
	}
	defer closeStore()

	srv := server.NewServer(serveAddr, checkpointStore)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	ctx := commandContext(cmd)
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("Server stopped")
	return nil
}
