package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nexgenlabs/studio/internal/adapter/fsstore"
	studiohttp "github.com/nexgenlabs/studio/internal/adapter/http"
	"github.com/nexgenlabs/studio/internal/adapter/llm"
	studionats "github.com/nexgenlabs/studio/internal/adapter/nats"
	"github.com/nexgenlabs/studio/internal/adapter/otel"
	"github.com/nexgenlabs/studio/internal/adapter/postgres"
	"github.com/nexgenlabs/studio/internal/adapter/ristretto"
	"github.com/nexgenlabs/studio/internal/adapter/search"
	"github.com/nexgenlabs/studio/internal/adapter/video"
	"github.com/nexgenlabs/studio/internal/adapter/ws"
	"github.com/nexgenlabs/studio/internal/agents"
	"github.com/nexgenlabs/studio/internal/config"
	"github.com/nexgenlabs/studio/internal/domain/event"
	"github.com/nexgenlabs/studio/internal/logger"
	"github.com/nexgenlabs/studio/internal/resilience"
	"github.com/nexgenlabs/studio/internal/service"
	"github.com/nexgenlabs/studio/internal/tooling"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"video_provider", cfg.Video.Name,
	)

	ctx := context.Background()

	// --- Observability ---
	if cfg.OTel.Enabled {
		shutdown, err := otel.Init(ctx, cfg.Logging.Service, cfg.OTel.Endpoint)
		if err != nil {
			return fmt.Errorf("otel: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	// --- Infrastructure ---
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	queue, err := studionats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = queue.Drain() }()

	summaryCache, err := ristretto.New(cfg.Cache.MaxCostBytes)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer summaryCache.Close()

	artifacts, err := fsstore.New(cfg.Storage.Dir)
	if err != nil {
		return fmt.Errorf("artifact store: %w", err)
	}

	// --- Providers ---
	llmClient := llm.NewClient(cfg.LLM.URL, cfg.LLM.APIKey, cfg.LLM.Model)
	llmClient.SetBreaker(resilience.NewBreaker("llm", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	videoClient := video.NewClient(cfg.Video.Name, cfg.Video.URL, cfg.Video.APIKey,
		cfg.Video.PollInterval, cfg.Video.PollTimeout)
	videoClient.SetBreaker(resilience.NewBreaker("video", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))

	searchClient := search.NewClient(cfg.Search.URL, cfg.Search.APIKey)

	agentPool := agents.NewPool(llmClient)

	// --- Telemetry fanout ---
	hub := ws.NewHub()
	audit := service.NewAuditLog(0)
	sinks := []event.Emitter{
		service.LogEmitter(log),
		service.QueueEmitter(queue, log),
		audit,
		event.EmitterFunc(func(ctx context.Context, ev event.Event) {
			hub.BroadcastEvent(ctx, string(ev.Name), ev.Attributes)
		}),
	}
	if cfg.OTel.Enabled {
		metrics, err := otel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		sinks = append(sinks, otel.NewMetricsEmitter(metrics))
	}
	emitter := service.FanoutEmitter(sinks...)

	// --- Governance ---
	ledger := service.NewCostLedger(cfg.Budget.AlertPercentages, cfg.Budget.DefaultProjectLimitUSD, emitter)
	monitor := service.NewCostMonitor(cfg.Budget, emitter, log)

	// --- Tools ---
	runtime := tooling.NewRuntime(emitter)
	runtime.Register(tooling.NewCalculator())
	runtime.Register(tooling.NewWebSearch(searchClient, 5))
	runtime.Register(tooling.NewWebFetch())
	runtime.Register(tooling.NewVideoGeneration(videoClient))

	// --- Orchestrators ---
	creativeOrch := service.NewCreativeOrchestrator(service.CreativeOrchestratorOptions{
		Repo:            postgres.NewCreativeStore(pool),
		Artifacts:       artifacts,
		Agents:          agentPool,
		Video:           videoClient,
		Ledger:          ledger,
		Monitor:         monitor,
		Emitter:         emitter,
		Logger:          log,
		SequentialShots: cfg.Video.SequentialMode,
	})
	generalOrch := service.NewGeneralOrchestrator(service.GeneralOrchestratorOptions{
		Repo:                 postgres.NewGeneralStore(pool),
		Runtime:              runtime,
		Agents:               agentPool,
		Artifacts:            artifacts,
		Ledger:               ledger,
		Monitor:              monitor,
		Emitter:              emitter,
		Logger:               log,
		MemoryWindow:         cfg.Session.MemoryWindow,
		CompressionThreshold: cfg.Session.CompressionThreshold,
	})
	governance := service.NewGovernanceService(monitor, ledger, audit, summaryCache, cfg.Cache.SummaryTTL)

	// --- HTTP ---
	handlers := &studiohttp.Handlers{
		Creative:   creativeOrch,
		General:    generalOrch,
		Governance: governance,
		Hub:        hub,
	}

	r := chi.NewRouter()
	r.Use(studiohttp.CORS(cfg.Server.CORSOrigin))
	r.Use(studiohttp.RequestID)
	r.Use(studiohttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.OTel.Enabled {
		r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	}
	studiohttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
