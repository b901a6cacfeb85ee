// Command feriado serves the holiday / air-passenger analytics API.
//
// It loads the three source CSVs into an immutable store, wires the filter
// engine, metrics, query classifier, and workflow executor behind the HTTP
// surface, and keeps per-session state in memory or Redis. LLM-backed stage
// agents are optional: without a configured provider the service answers
// from the dataset alone.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/feriadolabs/feriado/agents"
	"github.com/feriadolabs/feriado/classify"
	"github.com/feriadolabs/feriado/config"
	"github.com/feriadolabs/feriado/dataset/csvload"
	"github.com/feriadolabs/feriado/filter"
	"github.com/feriadolabs/feriado/llm"
	"github.com/feriadolabs/feriado/middleware"
	"github.com/feriadolabs/feriado/observability"
	"github.com/feriadolabs/feriado/server"
	"github.com/feriadolabs/feriado/session"
	"github.com/feriadolabs/feriado/workflow"
)

const serviceName = "feriado"

var configPath = flag.String("config", "", "path to configuration file (optional)")

func main() {
	flag.Parse()

	// Provider API keys are usually kept in a local .env during development.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level, err := observability.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	logger := observability.ConfigureLogging(level, cfg.Logging.Format == "json", cfg.Tracing.Enabled)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		if _, err := observability.InitTracing(serviceName, cfg.Tracing.OTLPEndpoint, cfg.Tracing.ConsoleExport); err != nil {
			logger.Error("failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := observability.Shutdown(shutdownCtx); err != nil {
				logger.Error("tracing shutdown failed", "error", err)
			}
		}()
	}

	if _, err := observability.InitMetrics(serviceName); err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := observability.ShutdownMetrics(shutdownCtx); err != nil {
			logger.Error("metrics shutdown failed", "error", err)
		}
	}()

	recorder, err := observability.NewRecorder(observability.GetMeter(serviceName))
	if err != nil {
		logger.Error("failed to create metric recorder", "error", err)
		os.Exit(1)
	}

	store, err := csvload.LoadStore(csvload.Files{
		Holidays:   filepath.Join(cfg.Data.Dir, cfg.Data.HolidaysCSV),
		Passengers: filepath.Join(cfg.Data.Dir, cfg.Data.PassengersCSV),
		Countries:  filepath.Join(cfg.Data.Dir, cfg.Data.CountriesCSV),
	})
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset loaded",
		"holidays", store.NumHolidays(),
		"passengers", store.NumPassengers(),
		"years", len(store.Years()))

	responders, err := buildResponders(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build responders", "error", err)
		os.Exit(1)
	}

	history, err := buildHistory(cfg)
	if err != nil {
		logger.Error("failed to build session history", "error", err)
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Addr:          cfg.Server.Addr,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		ShutdownGrace: cfg.Server.ShutdownGrace,
	}, server.Deps{
		Store:      store,
		Engine:     filter.NewEngine(cfg.FilterConfig()),
		Classifier: classify.NewClassifier(),
		Responders: responders,
		Sessions:   session.NewManager(history),
		Logger:     logger,
		Recorder:   recorder,
	})
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// buildLLMClient constructs the configured provider client. The offline
// provider returns nil.
func buildLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		return llm.NewGeminiClient(ctx, "", cfg.LLM.Model)
	case "openai":
		return llm.NewOpenAIClient("", cfg.LLM.Model)
	case "bedrock":
		return llm.NewBedrockClient(ctx, llm.BedrockConfig{
			ModelID: cfg.LLM.Model,
			Region:  cfg.LLM.BedrockRegion,
			Profile: cfg.LLM.BedrockProfile,
		})
	default:
		return nil, nil
	}
}

// buildResponders wires the stage agents. With a live provider each stage is
// decorated with a per-stage timeout around retries, and falls back to the
// offline responder when the provider keeps failing. Provider construction
// errors degrade to offline mode instead of aborting startup.
func buildResponders(ctx context.Context, cfg *config.Config, logger *slog.Logger) (map[workflow.Stage]workflow.Responder, error) {
	offline := agents.OfflineRegistry()

	client, err := buildLLMClient(ctx, cfg)
	if err != nil {
		logger.Warn("llm provider unavailable, running offline",
			"provider", cfg.LLM.Provider, "error", err)
		return offline, nil
	}
	if client == nil {
		logger.Info("running offline", "provider", cfg.LLM.Provider)
		return offline, nil
	}
	logger.Info("llm provider ready", "provider", cfg.LLM.Provider, "model", client.Model())

	retryCfg := middleware.DefaultRetryConfig()
	retryCfg.MaxAttempts = cfg.Workflow.RetryAttempts + 1
	timeoutCfg := middleware.TimeoutConfig{Timeout: cfg.Workflow.StageTimeout}

	live := agents.Registry(client,
		agents.WithTemperature(cfg.LLM.Temperature),
		agents.WithMaxTokens(cfg.LLM.MaxTokens),
		agents.WithLogger(logger),
	)

	responders := make(map[workflow.Stage]workflow.Responder, len(live))
	for stage, responder := range live {
		guarded := middleware.NewTimeout(middleware.NewRetry(responder, retryCfg), timeoutCfg)
		withFallback, err := middleware.NewFallback(guarded, offline[stage])
		if err != nil {
			return nil, err
		}
		responders[stage] = withFallback
	}
	return responders, nil
}

// buildHistory selects the transcript backend.
func buildHistory(cfg *config.Config) (session.History, error) {
	if !cfg.Redis.Enabled {
		return session.NewMemoryHistory(cfg.History.MaxTurns), nil
	}
	return session.NewRedisHistory(cfg.Redis.URL, session.RedisHistoryConfig{
		KeyPrefix: cfg.Redis.KeyPrefix,
		MaxTurns:  cfg.History.MaxTurns,
		TTL:       cfg.Redis.TTL,
	})
}
