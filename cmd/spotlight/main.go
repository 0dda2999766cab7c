package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/spotlight/internal/config"
	dbRedis "github.com/kailas-cloud/spotlight/internal/db/redis"
	"github.com/kailas-cloud/spotlight/internal/domain"
	"github.com/kailas-cloud/spotlight/internal/highlight"
	"github.com/kailas-cloud/spotlight/internal/highlight/extractor"
	"github.com/kailas-cloud/spotlight/internal/ingest"
	logpkg "github.com/kailas-cloud/spotlight/internal/logger"
	"github.com/kailas-cloud/spotlight/internal/metrics"
	"github.com/kailas-cloud/spotlight/internal/ml"
	"github.com/kailas-cloud/spotlight/internal/repository/embcache"
	settingsrepo "github.com/kailas-cloud/spotlight/internal/repository/settings"
	usagerepo "github.com/kailas-cloud/spotlight/internal/repository/usage"
	chiTransport "github.com/kailas-cloud/spotlight/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/spotlight/internal/transport/openai"
	"github.com/kailas-cloud/spotlight/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting spotlight highlighting sidecar",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	if cfg.Storage.KeyPrefix != "" {
		domain.KeyPrefix = cfg.Storage.KeyPrefix
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterInferenceMetrics()
	metrics.RegisterEmbeddingMetrics()

	// Inference provider: highlighting models behind an OpenAI-compatible API
	inference := openaiTransport.NewHighlighter(&openaiTransport.HighlighterConfig{
		APIKey:      cfg.Inference.APIKey,
		BaseURL:     cfg.Inference.BaseURL,
		LocalModels: cfg.Inference.LocalModels,
		Logger:      logger,
	})

	models, err := ml.NewRegistry(inference, cfg.Inference.RegistryCacheSize, logger)
	if err != nil {
		logger.Fatal("Failed to create model registry", zap.Error(err))
	}

	// Per-model usage counters ride along on every successful inference call.
	usage := usagerepo.New(store, logger)
	inferenceClient := ml.NewAccountingClient(inference, usage, logger)

	embedder := buildEmbedder(cfg.Embedding, store, logger)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	// Cluster settings gate for system-generated factories
	settings := settingsrepo.New(store, cfg.Pipeline.EnabledFactories, logger)

	// Highlighting pipeline
	registry := extractor.NewRegistry()
	engine := highlight.NewEngine(inferenceClient, registry, logger)
	single, err := highlight.NewSingleHighlighter(engine, cfg.Highlight.Concurrency, logger)
	if err != nil {
		logger.Fatal("Failed to create single highlighter", zap.Error(err))
	}
	defer single.Close()

	processor := highlight.NewProcessor(
		highlight.NewConfigExtractor(registry, logger),
		highlight.NewContextBuilder(logger),
		single,
		inferenceClient,
		highlight.NewResultApplier(highlight.DefaultPreTag, highlight.DefaultPostTag, logger),
		models,
		settings,
		cfg.Highlight.IgnoreFailure,
		logger,
	)

	// Pass nil interface (not typed nil pointer!) if ingest is not configured.
	// Go gotcha: (*EmbeddingProcessor)(nil) wrapped in DocumentEnricher != nil.
	var enricher chiTransport.DocumentEnricher
	if len(cfg.Ingest.FieldMappings) > 0 {
		enricher = ingest.NewEmbeddingProcessor(embedder, cfg.Ingest.FieldMappings, logger)
	}

	server := chiTransport.NewServer(processor, embedder, enricher, settings, store, inference, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Asymmetric
func buildEmbedder(cfg config.EmbeddingConfig, store *dbRedis.Store, logger *zap.Logger) *domain.AsymmetricEmbedder {
	base := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cfg.CacheEnabled {
		cached := embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)
		if cfg.CacheTTLSeconds > 0 {
			cached.WithTTL(time.Duration(cfg.CacheTTLSeconds) * time.Second)
		}
		embedder = cached
	}

	// Asymmetric prefixes (outermost — cache key includes the prefix, so a
	// text embedded as a passage is never reused for a query)
	return domain.NewAsymmetricEmbedder(embedder, cfg.QueryPrefix, cfg.PassagePrefix)
}
