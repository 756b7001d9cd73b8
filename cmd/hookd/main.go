// Command hookd hosts a webhook router with a set of demo handlers.
//
// Run:
//
//	go run ./cmd/hookd
//
// Print the route manifest:
//
//	go run ./cmd/hookd -routes
//
// Then deliver:
//
//	POST http://localhost:8080/Sample/Text                -- plain text body
//	POST http://localhost:8080/Sample/CustomResponse      -- 202 "Custom Response Data"
//	POST http://localhost:8080/Orders/Import?source=cli   -- JSON order
//	GET  http://localhost:8080/Orders/Search?status=paid  -- query-bound filter
//	GET  http://localhost:8080/_routes                    -- route manifest
//
// Configuration comes from HOOKD_* environment variables; see config. When
// HOOKD_NATS_URL is set, instructions published on HOOKD_NATS_SUBJECT are
// dispatched too.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/bjaus/hook"
	"github.com/bjaus/hook/hooknats"
	"github.com/bjaus/hook/otelhook"
)

func main() {
	routesFlag := flag.Bool("routes", false, "Print the route manifest as YAML and exit")
	flag.Parse()

	if err := run(*routesFlag); err != nil {
		slog.Error("hookd failed", "err", err)
		os.Exit(1)
	}
}

func run(printRoutes bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.level()}))
	slog.SetDefault(logger)

	receivers, err := loadReceivers(cfg.ReceiversFile, os.LookupEnv)
	if err != nil {
		return err
	}

	r, err := newRouter(cfg, logger, receivers)
	if err != nil {
		return err
	}

	if printRoutes {
		return r.WriteRoutes(os.Stdout, "yaml")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("GET /_routes", r.ManifestHandler())
	mux.Handle("/", r)

	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = hooknats.Connect(cfg.NATSURL, "hookd")
		if err != nil {
			return err
		}
		defer nc.Close()
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "addr", cfg.Addr)
		if err := hook.Serve(ctx, cfg.Addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if nc != nil {
		g.Go(func() error {
			return hooknats.Serve(ctx, nc, cfg.NATSSubject, r,
				hooknats.WithQueue(cfg.NATSQueue),
				hooknats.WithLogger(logger),
				hooknats.WithTimeout(cfg.Timeout),
			)
		})
	}

	err = g.Wait()
	logger.Info("server stopped")
	return err
}

func newRouter(cfg config, logger *slog.Logger, receivers map[string]hook.Receiver) (*hook.Router, error) {
	opts := []hook.RouterOption{
		hook.WithLogger(logger),
		hook.WithTracer(otelhook.New(otel.GetTracerProvider())),
		hook.WithFailureReporter(otelhook.RecordFailure),
	}
	for name, rcv := range receivers {
		opts = append(opts, hook.WithReceiver(name, rcv))
	}

	r := hook.New(opts...)
	r.Use(
		hook.RequestID(hook.RequestIDConfig{Fallback: []string{"X-GitHub-Delivery"}}),
		hook.Recovery(logger),
		hook.Logger(logger),
		hook.BodyLimit(cfg.BodyLimit, cfg.RouteBodyLimits),
		hook.Timeout(cfg.Timeout, cfg.RouteTimeouts),
	)
	if cfg.RateLimit > 0 {
		r.Use(hook.RateLimit(hook.RateLimitConfig{Rate: cfg.RateLimit, Burst: cfg.RateBurst}))
	}

	if err := register(r, logger, receivers); err != nil {
		return nil, err
	}
	return r, nil
}
