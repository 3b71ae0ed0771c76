package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/WessleyAI/cardna/engine/events"
	"github.com/WessleyAI/cardna/engine/search"
	"github.com/WessleyAI/cardna/engine/site"
	"github.com/WessleyAI/cardna/pkg/config"
	"github.com/WessleyAI/cardna/pkg/metrics"
	"github.com/WessleyAI/cardna/pkg/mid"
	"github.com/WessleyAI/cardna/pkg/natsutil"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the CarDNA web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTP.Addr = addr
			}
			logger := newLogger(cmd.OutOrStdout(), cfg.Log)
			slog.SetDefault(logger)

			srv, cleanup, err := newServer(cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			ln, err := net.Listen("tcp", cfg.HTTP.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.HTTP.Addr, err)
			}
			return serve(cmd.Context(), srv, ln, cfg.HTTP.ShutdownTimeout, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	return cmd
}

// newServer wires the catalog, search service and site into an
// http.Server. The returned cleanup closes the event connection.
func newServer(cfg *config.Config, logger *slog.Logger) (*http.Server, func(), error) {
	cat, err := loadCatalog(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, err
	}
	if problems := cat.Check(); len(problems) > 0 {
		return nil, nil, fmt.Errorf("catalog integrity: %w", errors.Join(problems...))
	}

	m := metrics.New()
	m.CatalogProfiles.Set(float64(cat.Len()))

	cleanup := func() {}
	var pub events.Publisher = events.LogPublisher{Logger: logger}
	if cfg.NATS.URL != "" {
		nc, err := natsutil.Connect(cfg.NATS.URL, "cardna", logger)
		if err != nil {
			return nil, nil, err
		}
		pub = events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix, logger)
		cleanup = func() {
			if err := nc.Drain(); err != nil {
				logger.Warn("nats drain failed", "err", err)
			}
		}
	} else {
		logger.Info("nats not configured, events go to the log")
	}

	svc := search.New(cat, search.Options{
		Delay: cfg.Search.Delay,
		Rate:  cfg.Search.Rate,
		Burst: cfg.Search.Burst,
	}, pub, m, logger)

	s, err := site.New(svc, cat, m, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	handler := mid.Chain(s.Routes(),
		mid.RequestID(),
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.HTTP.CORSOrigin),
		mid.OTel("cardna"),
	)

	logger.Info("catalog loaded", "profiles", cat.Len(), "brands", len(cat.Brands()))
	return &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}, cleanup, nil
}

// serve runs srv on ln until ctx is done, then shuts down gracefully
// within timeout.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("cardna server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")
		shutCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
	return g.Wait()
}
