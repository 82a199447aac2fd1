// searchd builds the inverted index once at startup, freezes the ranking
// context, and serves ad-hoc queries over HTTP with an optional Redis result
// cache and Kafka-backed query analytics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/skarande/trecrank/internal/analytics"
	"github.com/skarande/trecrank/internal/corpus"
	"github.com/skarande/trecrank/internal/index"
	"github.com/skarande/trecrank/internal/normalizer"
	"github.com/skarande/trecrank/internal/ranker"
	"github.com/skarande/trecrank/internal/searchd"
	"github.com/skarande/trecrank/pkg/config"
	"github.com/skarande/trecrank/pkg/health"
	"github.com/skarande/trecrank/pkg/kafka"
	"github.com/skarande/trecrank/pkg/logger"
	"github.com/skarande/trecrank/pkg/metrics"
	"github.com/skarande/trecrank/pkg/middleware"
	pkgredis "github.com/skarande/trecrank/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stopwords, err := corpus.LoadStopwords(cfg.Corpus.StopwordsPath)
	if err != nil {
		slog.Error("failed to load stopwords", "error", err)
		os.Exit(1)
	}
	norm := normalizer.New(stopwords)

	documents, err := corpus.LoadDocuments(cfg.Corpus.DocumentsPath)
	if err != nil {
		slog.Error("failed to load corpus", "error", err)
		os.Exit(1)
	}
	builder := index.NewBuilder()
	for _, doc := range documents {
		builder.Add(doc.ID, norm.NormalizeDocument(doc.Title, doc.Body))
	}
	docCount := builder.DocCount()
	termCount := builder.TermCount()
	invIndex, lengths := builder.Build()
	rctx := ranker.NewContext(invIndex, lengths, ranker.Params{
		K1:   cfg.Retrieval.K1,
		B:    cfg.Retrieval.B,
		TopK: cfg.Retrieval.TopK,
	})
	slog.Info("index built, ranking context frozen",
		"documents", docCount,
		"terms", termCount,
		"avgdl", rctx.Avgdl(),
	)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		m.DocsIndexedTotal.Add(float64(docCount))
		m.IndexTerms.Set(float64(termCount))
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var resultCache *searchd.ResultCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, result caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		resultCache = searchd.NewResultCache(redisClient, cfg.Redis)
		slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	var collector *analytics.Collector
	var analyticsHandler *analytics.Handler
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents)
		collector = analytics.NewCollector(producer, 10000)
		collector.Start(ctx)
		defer collector.Close()

		aggregator := analytics.NewAggregator()
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.QueryEvents, analytics.HandleEvent(aggregator))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("analytics consumer error", "error", err)
			}
		}()
		analyticsHandler = analytics.NewHandler(aggregator)
		slog.Info("query analytics enabled", "topic", cfg.Kafka.Topics.QueryEvents)
	}

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if rctx.NumDocs() > 0 {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d documents indexed", rctx.NumDocs()),
			}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "empty index"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := searchd.New(norm, rctx, resultCache, collector, m, cfg.Server.DefaultLimit, cfg.Server.MaxLimit)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	if analyticsHandler != nil {
		mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
