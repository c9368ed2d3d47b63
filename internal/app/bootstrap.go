package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/nsqio/go-nsq"
	weaviateclient "github.com/weaviate/weaviate-go-client/v5/weaviate"

	"pdfvector/internal/adapter/gemini"
	wstore "pdfvector/internal/adapter/weaviate"
	"pdfvector/internal/config"
	"pdfvector/internal/vector"
)

// Dependencies holds the external clients the worker and API need.
type Dependencies struct {
	DB          *sql.DB
	VectorStore *wstore.Store
	NSQProducer *nsq.Producer
	Embedder    *gemini.Embedder
}

// Bootstrap connects to Postgres, Weaviate, NSQ and the embedding service,
// retrying connections so the process survives collaborators that come up
// slower than it does.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second

	// 1. Postgres
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPass, cfg.DBName)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		slog.Warn("database not ready, retrying...", "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrateURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err := runMigrations(cfg.MigrationPath, migrateURL); err != nil {
		return nil, err
	}

	// 2. Weaviate
	wClient, err := weaviateclient.NewClient(weaviateclient.Config{
		Host:   cfg.WeaviateHost,
		Scheme: cfg.WeaviateScheme,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create weaviate client: %w", err)
	}

	schemaClient := vector.NewWeaviateClientAdapter(wClient)
	for i := 0; i < cfg.BootstrapRetryAttempts; i++ {
		err = vector.EnsureSchema(ctx, schemaClient)
		if err == nil {
			break
		}
		slog.Warn("weaviate not ready, retrying...", "attempt", i+1, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to ensure weaviate schema: %w", err)
	}

	// 3. NSQ
	producer, err := nsq.NewProducer(cfg.NSQDHost, nsq.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create nsq producer: %w", err)
	}
	createTopics(cfg.NSQDHTTP)

	// 4. Gemini
	embedder, err := gemini.NewEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	return &Dependencies{
		DB:          db,
		VectorStore: wstore.NewStore(wClient),
		NSQProducer: producer,
		Embedder:    embedder,
	}, nil
}

func runMigrations(migrationPath, databaseURL string) error {
	m, err := migrate.New(migrationPath, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("migrations applied")
	return nil
}

// createTopics pre-creates the queue topics on nsqd so consumers can
// subscribe before the first message is published.
func createTopics(nsqdHTTP string) {
	topics := []string{config.TopicTransform, config.TopicTransformResult}
	for _, topic := range topics {
		url := fmt.Sprintf("http://%s/topic/create?topic=%s", nsqdHTTP, topic)
		resp, err := http.Post(url, "", nil)
		if err != nil {
			slog.Warn("failed to pre-create topic", "topic", topic, "error", err)
			continue
		}
		resp.Body.Close()
		slog.Info("topic ready", "topic", topic)
	}
}
