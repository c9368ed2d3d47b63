package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqio/go-nsq"

	"pdfvector/internal/app"
	"pdfvector/internal/archive"
	"pdfvector/internal/config"
	"pdfvector/internal/ingest"
	"pdfvector/internal/logger"
	"pdfvector/internal/pdf"
)

func main() {
	baseHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(logger.NewContextHandler(baseHandler)))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("application exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.DB.Close()
	defer deps.Embedder.Close()
	defer deps.NSQProducer.Stop()

	pipeline := ingest.NewPipeline(
		pdf.NewExtractor(),
		deps.Embedder,
		deps.VectorStore,
		archive.NewRelocator(),
		cfg.VectorNamespace,
		cfg.MaxChunkSize,
	)

	application := app.New(cfg, deps.DB, pipeline, deps.NSQProducer)

	nsqCfg := nsq.NewConfig()
	nsqCfg.MaxAttempts = uint16(cfg.WorkerMaxAttempts)

	consumer, err := nsq.NewConsumer(config.TopicTransform, cfg.WorkerChannel, nsqCfg)
	if err != nil {
		return err
	}
	consumer.AddHandler(application.TransformConsumer)

	if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
		// Not fatal: nsqlookupd may still be starting.
		slog.Error("failed to connect to nsqlookupd", "error", err)
	}
	defer consumer.Stop()

	return application.Run(ctx)
}
