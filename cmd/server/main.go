package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"studygames/tetris/config"
	"studygames/tetris/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1) //nolint:gocritic
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tetris-server",
		Short: "Serve Tetris sessions over gRPC",
		Long: `tetris-server hosts Tetris games for remote terminals.

Each session runs its own game with the board and level settings given here.
Set --otel-endpoint to export traces of every call.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, closeLog, err := cfg.Logger(os.Stdout)
			if err != nil {
				return err
			}
			defer closeLog() //nolint:errcheck
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cfg.EngineFlags(cmd.Flags())
	cfg.CommonFlags(cmd.Flags())
	cmd.Flags().StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP/HTTP traces endpoint, empty disables tracing (env: TETRIS_OTEL_ENDPOINT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdown, err := server.SetupTracing(ctx, cfg.OTelEndpoint, "tetris-server")
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			logger.Error("unable to flush traces", slog.String("error", err.Error()))
		}
	}()

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	srv := server.New(&server.Options{Logger: logger, Config: cfg.Engine()})
	gs, hs := server.NewGRPCServer(srv)

	serveErr := make(chan error, 1)
	go func() { serveErr <- gs.Serve(lis) }()
	logger.Info("starting server", slog.String("addr", lis.Addr().String()))

	select {
	case err := <-serveErr:
		srv.Close()
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", slog.Int("sessions", srv.Sessions()))
	hs.Shutdown()
	// stopping the games ends the Watch streams so GracefulStop doesn't wait on them.
	srv.Close()
	gs.GracefulStop()
	return nil
}
