package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-decks/internal/api"
	"github.com/ramonehamilton/commander-decks/internal/cardcache"
)

func newServeCmd(c *cli) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the import HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				c.cfg.Server.Addr = addr
			}
			return c.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	p, err := newPipeline(c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			c.logger.Warn("Error closing card cache", zap.Error(err))
		}
	}()

	if p.store != nil && c.cfg.Cache.PruneIntervalDuration() > 0 && c.cfg.Cache.TTLDuration() > 0 {
		pruner := cardcache.NewPruner(p.store, cardcache.PrunerConfig{
			Interval: c.cfg.Cache.PruneIntervalDuration(),
			TTL:      c.cfg.Cache.TTLDuration(),
		}, c.logger.Named("pruner"))
		if err := pruner.Start(); err != nil {
			return err
		}
		defer pruner.Stop()
	}

	server := api.NewServer(&api.Config{
		Addr:           c.cfg.Server.Addr,
		RequestTimeout: c.cfg.Server.RequestTimeoutDuration(),
		AllowedOrigins: c.cfg.Server.AllowedOrigins,
		MaxBodyBytes:   int64(c.cfg.Import.MaxTextBytes) + 4096,
	}, api.Dependencies{
		Importer:  p.importer,
		Suggester: p.suggester(),
	}, c.logger.Named("api"))

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	c.logger.Info("API server running", zap.String("addr", server.Addr()))

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.cfg.Server.ShutdownTimeoutDuration())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error during shutdown: %w", err)
	}
	c.logger.Info("API server stopped")
	return nil
}
