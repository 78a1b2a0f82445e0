// Package main wires high-level dependencies, exposes the HTTP router, and
// keeps the server lifecycle small. Business logic lives in internal service
// packages.
package main

import (
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/mahavirb22/EventLens/internal/admin"
	"github.com/mahavirb22/EventLens/internal/audit"
	"github.com/mahavirb22/EventLens/internal/captoken"
	"github.com/mahavirb22/EventLens/internal/claims"
	"github.com/mahavirb22/EventLens/internal/event"
	"github.com/mahavirb22/EventLens/internal/issuer"
	"github.com/mahavirb22/EventLens/internal/kv"
	"github.com/mahavirb22/EventLens/internal/platform/config"
	"github.com/mahavirb22/EventLens/internal/platform/httpserver"
	"github.com/mahavirb22/EventLens/internal/platform/logger"
	"github.com/mahavirb22/EventLens/internal/platform/metrics"
	"github.com/mahavirb22/EventLens/internal/ratelimit"
	httptransport "github.com/mahavirb22/EventLens/internal/transport/http"
	"github.com/mahavirb22/EventLens/internal/verification"
	"github.com/mahavirb22/EventLens/internal/vision"
)

func main() {
	cfgFile := flag.String("config", "", "optional config file path")
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log.Info("initializing eventlens",
		"addr", cfg.Addr,
		"confidence_threshold", cfg.ConfidenceThreshold,
		"data_dir", cfg.DataDir,
	)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Error("failed to create data directory", "error", err)
		os.Exit(1)
	}
	store, err := kv.NewFileStore(filepath.Join(cfg.DataDir, "eventlens.json"))
	if err != nil {
		log.Error("failed to open data store", "error", err)
		os.Exit(1)
	}

	var provider vision.Provider = vision.Unconfigured{}
	if cfg.VisionAPIKey != "" {
		provider, err = vision.NewOpenAIProvider(vision.Config{
			APIKey:  cfg.VisionAPIKey,
			BaseURL: cfg.VisionBaseURL,
			Model:   cfg.VisionModel,
			Timeout: cfg.VisionTimeout,
		})
		if err != nil {
			log.Error("failed to create vision provider", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("no vision API key configured, all claims will fail closed")
	}

	m := metrics.New()
	registry := event.NewRegistry(store)
	ledger := claims.NewLedger(store)
	judge := vision.NewJudge(provider, cfg.VerdictTTL, log)
	tokens := captoken.New(cfg.VerifySecret, log, captoken.WithTTL(cfg.TokenTTL))
	governor := ratelimit.NewGovernor(cfg.RateLimitRequests, cfg.RateLimitWindow)
	throttle := ratelimit.NewGlobalThrottle(cfg.GlobalRatePerSec, cfg.GlobalRateBurst)

	// In-memory dev backend; a production deploy swaps in the chain client.
	backend := issuer.NewFake()

	trail := audit.NewPublisher(audit.NewInMemoryStore(),
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	defer trail.Close()

	adminSvc, err := admin.New(cfg.AdminPassword, cfg.AdminTokenSecret,
		admin.WithSessionTTL(cfg.AdminTokenTTL))
	if err != nil {
		log.Error("failed to create admin service", "error", err)
		os.Exit(1)
	}

	svc := verification.New(
		log, m, registry, ledger, judge, tokens, governor, backend, trail,
		verification.WithConfidenceThreshold(cfg.ConfidenceThreshold),
		verification.WithMaxUploadBytes(cfg.MaxUploadBytes),
		verification.WithGeofenceMaxKm(cfg.GeofenceMaxKm),
		verification.WithGlobalThrottle(throttle),
	)

	handler := httptransport.NewHandler(svc, registry, adminSvc, backend, log, cfg.MaxUploadBytes,
		httptransport.WithMetrics(m),
		httptransport.WithAuditTrail(trail),
	)
	router := httptransport.NewRouter(handler, log)
	srv := httpserver.New(cfg.Addr, router)

	pruneStop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.RateLimitWindow)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				governor.Prune()
			case <-pruneStop:
				return
			}
		}
	}()

	log.Info("starting http server", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	close(pruneStop)

	log.Info("shutting down server gracefully")
	if err := httpserver.Shutdown(srv, 10*time.Second); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
