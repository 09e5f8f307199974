package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dyluth/roster/internal/admin"
	"github.com/dyluth/roster/internal/printer"
	"github.com/dyluth/roster/internal/query"
	"github.com/dyluth/roster/internal/schema"
	"github.com/dyluth/roster/internal/server"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr      string
	serveExposeRaw bool
	serveTimeout   time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registry over HTTP",
	Long: `Serve the registry over HTTP.

Endpoints:
  GET   /api/registry             Rendered registry (?protocol=legacy|current or X-Roster-Protocol)
  POST  /api/registry             Append an entry (validated against the schema)
  PATCH /api/registry/{position}  Update name and/or status of an entry
  GET   /api/registry/raw         Unredacted entries (only with --expose-raw)
  GET   /healthz                  Store health
  GET   /metrics                  Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (env ROSTER_ADDR)")
	serveCmd.Flags().BoolVar(&serveExposeRaw, "expose-raw", false, "Mount the unredacted raw endpoint (env ROSTER_EXPOSE_RAW)")
	serveCmd.Flags().DurationVar(&serveTimeout, "request-timeout", 0, "Per-request timeout (env ROSTER_REQUEST_TIMEOUT)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr = serveAddr
	}
	if cmd.Flags().Changed("expose-raw") {
		cfg.ExposeRaw = serveExposeRaw
	}
	if cmd.Flags().Changed("request-timeout") {
		cfg.RequestTimeout = serveTimeout
	}
	if err := cfg.Validate(); err != nil {
		return printer.Error("invalid configuration", err.Error(), nil)
	}

	log, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}

	def, err := schema.LoadOrDefault(cfg.SchemaFile)
	if err != nil {
		return fmt.Errorf("failed to load schema: %w", err)
	}

	client, err := connect(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(client)

	client.OnPublishError(func(err error) {
		log.Warn("entry event not published", "error", err)
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	handler := server.New(server.Options{
		Query:          query.NewService(client),
		Admin:          admin.NewService(def, client, log),
		Health:         client,
		Logger:         log,
		Registry:       reg,
		ExposeRaw:      cfg.ExposeRaw,
		RequestTimeout: cfg.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("registry server listening",
			"addr", cfg.Addr,
			"instance", cfg.Instance,
			"expose_raw", cfg.ExposeRaw,
			"schema_version", def.Version,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down registry server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
