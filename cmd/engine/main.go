// Package main provides the entry point for the odds aggregation engine.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/sharpline/internal/adapter"
	"github.com/yourusername/sharpline/internal/api"
	"github.com/yourusername/sharpline/internal/config"
	"github.com/yourusername/sharpline/internal/database"
	"github.com/yourusername/sharpline/internal/logger"
	"github.com/yourusername/sharpline/internal/matcher"
	"github.com/yourusername/sharpline/internal/metrics"
	"github.com/yourusername/sharpline/internal/publisher"
	"github.com/yourusername/sharpline/internal/quotes"
	"github.com/yourusername/sharpline/internal/repository"
	"github.com/yourusername/sharpline/internal/scanner"
	"github.com/yourusername/sharpline/internal/scheduler"
)

var version = "dev"

func main() {
	// Local development convenience; production injects real env vars.
	_ = godotenv.Load()

	configPath := os.Getenv("SHARPLINE_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.LoadWithDefaults(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     version,
	}).Info("Sharpline engine starting")

	metrics.InitRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build source adapters. Stream adapters own a background connection
	// loop; poll adapters fetch on demand during the scan cycle.
	factory := adapter.NewFactory(appLog)
	adapters, err := factory.BuildAll(cfg)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to build source adapters")
	}
	for _, a := range adapters {
		if stream, ok := a.(*adapter.StreamAdapter); ok {
			go stream.Run(ctx)
		}
	}
	appLog.WithField("sources", len(adapters)).Info("Source adapters initialized")

	store := quotes.NewStore()
	match := matcher.New(cfg.Engine.MatchTolerance(), appLog)
	engine := scanner.New(cfg.Engine, adapters, store, match, appLog)

	var auditRepo *repository.AuditRepository
	if cfg.Audit.Enabled {
		db, err := database.Initialize(ctx, &cfg.Audit.Database)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to connect to audit database")
		}
		defer db.Close()
		auditRepo = repository.NewAuditRepository(db, appLog)
		engine.AddSink(auditRepo)
		appLog.Info("Opportunity audit log enabled")
	}

	if cfg.Publisher.Enabled {
		pub, err := publisher.NewRedisPublisher(ctx, cfg.Publisher.RedisAddr, cfg.Publisher.Stream, appLog)
		if err != nil {
			appLog.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.WithError(err).Error("Failed to close Redis connection")
			}
		}()
		engine.AddSink(pub)
		appLog.WithField("stream", cfg.Publisher.Stream).Info("Redis stream publisher enabled")
	}

	// The API server exposes /metrics when enabled; a dedicated listener is
	// only needed for deployments that run without the API.
	if cfg.Metrics.Enabled && cfg.Metrics.Port > 0 {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux := http.NewServeMux()
		mux.Handle(path, metrics.Handler())
		go func() {
			addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
			appLog.WithField("addr", addr).Info("Metrics server listening")
			if err := http.ListenAndServe(addr, mux); err != nil {
				appLog.WithError(err).Error("Metrics server stopped")
			}
		}()
	}

	if cfg.API.Enabled {
		serverCfg := api.Config{
			Port:    cfg.API.Port,
			Version: version,
			Engine:  engine,
			Logger:  appLog,
		}
		if auditRepo != nil {
			serverCfg.Audit = auditRepo
		}
		apiServer := api.NewServer(serverCfg)
		if err := apiServer.Start(ctx); err != nil {
			appLog.WithError(err).Fatal("Failed to start API server")
		}
	}

	// Each source polls on its own cadence and writes into the store; the
	// scan job reads whatever the store holds. Polls register before the
	// scan so the immediate first run fetches before the first cycle.
	sched := scheduler.New(engine, appLog)
	ingestor := scanner.NewIngestor(store, appLog)
	for _, a := range adapters {
		if !a.IsEnabled() {
			continue
		}
		interval := cfg.Engine.ScanInterval()
		fetchTimeout := adapter.DefaultFetchTimeout
		if src, ok := cfg.Source(a.Name()); ok {
			if src.PollIntervalSeconds > 0 {
				interval = time.Duration(src.PollIntervalSeconds) * time.Second
			}
			if src.TimeoutSeconds > 0 {
				fetchTimeout = time.Duration(src.TimeoutSeconds) * time.Second
			}
		}
		a := a
		err := sched.SchedulePoll(a.Name(), interval, func() {
			fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
			defer cancel()
			_ = ingestor.Fetch(fetchCtx, a)
		})
		if err != nil {
			appLog.WithError(err).Fatal("Failed to schedule source poll")
		}
	}
	engine.UsePollDrivenIngestion()

	if err := sched.ScheduleScans(cfg.Engine.ScanInterval()); err != nil {
		appLog.WithError(err).Fatal("Failed to schedule scans")
	}
	if err := sched.Start(); err != nil {
		appLog.WithError(err).Fatal("Failed to start scheduler")
	}

	appLog.WithFields(logrus.Fields{
		"scan_interval": cfg.Engine.ScanInterval(),
		"safety_margin": cfg.Engine.ArbitrageSafetyMargin,
		"min_sources":   cfg.Engine.MinSourcesPerMarket,
	}).Info("Engine is running")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	cancel()
	if err := sched.Stop(); err != nil {
		appLog.WithError(err).Error("Error during scheduler shutdown")
	}

	// Give the API server and stream adapters time to drain.
	time.Sleep(2 * time.Second)

	appLog.Info("Sharpline engine shut down successfully")
}
