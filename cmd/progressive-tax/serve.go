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

	"github.com/iwvelando/progressive-tax/internal/server"
	"github.com/iwvelando/progressive-tax/internal/tax"
	"github.com/iwvelando/progressive-tax/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	serverConfig string
	address      string
	maxBodySize  string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tax engine over a JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.serverConfig, "server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	cmd.Flags().StringVar(&opts.address, "address", "", "listen address override")
	cmd.Flags().StringVar(&opts.maxBodySize, "max-body-size", "", "request body limit override (e.g. 64K, 1M)")
	return cmd
}

func runServe(cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	const op = "main.runServe"

	cfg, err := server.LoadConfig(opts.serverConfig)
	if err != nil {
		return err
	}
	if opts.address != "" {
		cfg.Address = opts.address
	}
	if opts.maxBodySize != "" {
		size, err := server.ParseSize(opts.maxBodySize)
		if err != nil {
			return err
		}
		cfg.SetBodySizeBytes(size)
	}

	logger, err := initializeLogger(cfg.Logging, root.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	registry := cfg.Registry()
	if cfg.TaxConfig != "" {
		logger.Info("using bracket table from tax configuration",
			zap.String("op", op),
			zap.String("taxConfig", cfg.TaxConfig),
		)
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(logger, tax.NewEngine(registry, logger), cfg.BodySizeBytes(), version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("op", op),
			zap.String("address", cfg.Address),
			zap.Int64("maxBodySize", cfg.BodySizeBytes()),
			zap.Ints("years", registry.Years()),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("server stopped",
			zap.String("op", op),
			zap.Error(err),
		)
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down",
		zap.String("op", op),
	)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
