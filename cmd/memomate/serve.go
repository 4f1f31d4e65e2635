package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sant0-9/memomate/internal/metrics"
	"github.com/sant0-9/memomate/internal/server"
	"github.com/sant0-9/memomate/internal/session"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type serveOptions struct {
	addr         string
	secureCookie bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MemoMate web page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default from config, 127.0.0.1:8501)")
	cmd.Flags().BoolVar(&opts.secureCookie, "secure-cookie", false, "mark the session cookie Secure (behind TLS)")

	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg, "")
	if err != nil {
		return err
	}
	defer logger.Sync()

	m := metrics.NewMetrics()
	p, provider, err := newPipeline(cfg, logger, m)
	if err != nil {
		return err
	}

	store := session.NewStore(session.WithIdleTTL(cfg.Server.SessionTTL))

	srv, err := server.New(p,
		server.WithStore(store),
		server.WithLogger(logger),
		server.WithMetrics(m),
		server.WithProviderName(provider.Name()),
		server.WithSecureCookie(opts.secureCookie),
	)
	if err != nil {
		return err
	}

	addr := opts.addr
	if addr == "" && cfg.Server != nil {
		addr = cfg.Server.Addr
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", addr, "provider", provider.Name(), "model", cfg.Model)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return goerr.Wrap(err, "http server failed", goerr.V("addr", addr))
		}
		return nil
	})
	g.Go(func() error {
		store.Run(gctx, time.Minute, func(n int) {
			logger.Debug("sessions expired", "count", n, "active", store.Len())
		})
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
