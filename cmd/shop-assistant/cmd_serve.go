package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"shop-assistant/internal/app/routers"
	"shop-assistant/internal/app/services"
	"shop-assistant/internal/pkg/storage"
	"shop-assistant/pkg/config"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assistant HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := storage.Init(); err != nil {
		return err
	}
	defer storage.Close()

	if err := services.Init(); err != nil {
		return fmt.Errorf("init services: %w", err)
	}

	serverConf := config.GetServerConf()
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", serverConf.Port),
		Handler: routers.SetUp(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("shop-assistant %s listening on %s", serverConf.Release, httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Infof("received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(ctx)
}
