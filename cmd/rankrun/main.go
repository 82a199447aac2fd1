// rankrun runs the full batch retrieval pipeline: load stopwords, corpus,
// and queries; normalise and index the corpus; rank every query; write the
// TREC run file; optionally archive the run to PostgreSQL and publish a
// run-completion event to Kafka.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skarande/trecrank/internal/analytics"
	"github.com/skarande/trecrank/internal/archive"
	"github.com/skarande/trecrank/internal/corpus"
	"github.com/skarande/trecrank/internal/index"
	"github.com/skarande/trecrank/internal/normalizer"
	"github.com/skarande/trecrank/internal/ranker"
	"github.com/skarande/trecrank/internal/runfile"
	"github.com/skarande/trecrank/pkg/config"
	"github.com/skarande/trecrank/pkg/kafka"
	"github.com/skarande/trecrank/pkg/logger"
	"github.com/skarande/trecrank/pkg/postgres"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	start := time.Now()

	stopwords, err := corpus.LoadStopwords(cfg.Corpus.StopwordsPath)
	if err != nil {
		return err
	}
	norm := normalizer.New(stopwords)
	slog.Info("stopwords loaded", "count", len(stopwords))

	documents, err := corpus.LoadDocuments(cfg.Corpus.DocumentsPath)
	if err != nil {
		return err
	}
	slog.Info("corpus loaded", "documents", len(documents))

	builder := index.NewBuilder()
	for _, doc := range documents {
		builder.Add(doc.ID, norm.NormalizeDocument(doc.Title, doc.Body))
	}
	docCount := builder.DocCount()
	termCount := builder.TermCount()
	invIndex, lengths := builder.Build()
	slog.Info("index built",
		"documents", docCount,
		"terms", termCount,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	rctx := ranker.NewContext(invIndex, lengths, ranker.Params{
		K1:   cfg.Retrieval.K1,
		B:    cfg.Retrieval.B,
		TopK: cfg.Retrieval.TopK,
	})
	slog.Info("ranking context frozen",
		"k1", cfg.Retrieval.K1,
		"b", cfg.Retrieval.B,
		"avgdl", rctx.Avgdl(),
		"num_docs", rctx.NumDocs(),
	)

	queryRecords, err := corpus.LoadQueries(cfg.Corpus.QueriesPath)
	if err != nil {
		return err
	}
	queries := make(map[ranker.QueryID]normalizer.TermFrequencyMap, len(queryRecords))
	for _, q := range queryRecords {
		queries[q.ID] = norm.Normalize(q.Text)
	}
	slog.Info("queries normalised", "count", len(queries))

	rankStart := time.Now()
	results, err := rctx.RankAll(ctx, queries, cfg.Retrieval.Workers)
	if err != nil {
		return fmt.Errorf("ranking queries: %w", err)
	}
	slog.Info("queries ranked",
		"count", len(results),
		"workers", cfg.Retrieval.Workers,
		"elapsed", time.Since(rankStart).Round(time.Millisecond),
	)

	if err := runfile.Write(cfg.Run.OutputPath, results, cfg.Run.Tag); err != nil {
		return err
	}
	slog.Info("run file written", "path", cfg.Run.OutputPath, "tag", cfg.Run.Tag)

	elapsed := time.Since(start)
	if cfg.Run.ArchiveEnabled {
		if err := archiveRun(ctx, cfg, results, docCount, len(queries), elapsed); err != nil {
			return err
		}
	}
	if cfg.Kafka.Enabled {
		publishRunEvent(ctx, cfg, docCount, len(queries), elapsed)
	}

	slog.Info("run complete", "elapsed", elapsed.Round(time.Millisecond))
	return nil
}

func archiveRun(
	ctx context.Context,
	cfg *config.Config,
	results map[ranker.QueryID][]ranker.ScoredDoc,
	docCount, queryCount int,
	elapsed time.Duration,
) error {
	client, err := postgres.New(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connecting to archive database: %w", err)
	}
	defer client.Close()

	store := archive.New(client)
	runID, err := store.SaveRun(ctx, archive.RunMeta{
		Tag:        cfg.Run.Tag,
		K1:         cfg.Retrieval.K1,
		B:          cfg.Retrieval.B,
		DocCount:   docCount,
		QueryCount: queryCount,
		Elapsed:    elapsed,
	}, results)
	if err != nil {
		return fmt.Errorf("archiving run: %w", err)
	}
	slog.Info("run archived", "run_id", runID)
	return nil
}

func publishRunEvent(ctx context.Context, cfg *config.Config, docCount, queryCount int, elapsed time.Duration) {
	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.RunComplete)
	defer producer.Close()

	event := analytics.RunEvent{
		Type:       analytics.EventRunComplete,
		Tag:        cfg.Run.Tag,
		DocCount:   docCount,
		QueryCount: queryCount,
		K1:         cfg.Retrieval.K1,
		B:          cfg.Retrieval.B,
		ElapsedMs:  elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if err := producer.Publish(ctx, kafka.Event{Key: cfg.Run.Tag, Value: event}); err != nil {
		slog.Warn("failed to publish run event", "error", err)
	}
}
